package service

import (
	"testing"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnrollmentService(t *testing.T) (*EnrollmentService, *repository.EnrollmentRepository) {
	t.Helper()

	db := newTestDB(t)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	return NewEnrollmentService(enrollmentRepo, courseRepo), enrollmentRepo
}

func TestEnrollCreatesPending(t *testing.T) {
	svc, _ := newEnrollmentService(t)
	db := svc.CourseRepo.DB

	user := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)
	course := createTestCourse(t, db, "Go 入门", "go-basics")

	enrollment, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentPending, enrollment.Status, "新报名应为待审核状态")
	assert.False(t, enrollment.IsSubscribed(), "待审核状态不算在读")
}

func TestEnrollDuplicate(t *testing.T) {
	svc, _ := newEnrollmentService(t)
	db := svc.CourseRepo.DB

	user := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)
	course := createTestCourse(t, db, "Go 入门", "go-basics")

	_, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	_, err = svc.Enroll(user.ID, course.ID)
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled, "重复报名应返回冲突错误")
}

func TestEnrollUnknownCourse(t *testing.T) {
	svc, _ := newEnrollmentService(t)
	db := svc.CourseRepo.DB

	user := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)

	_, err := svc.Enroll(user.ID, 9999)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestActivateIsIdempotent(t *testing.T) {
	svc, _ := newEnrollmentService(t)
	db := svc.CourseRepo.DB

	user := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)
	course := createTestCourse(t, db, "Go 入门", "go-basics")
	created := createTestEnrollment(t, db, user.ID, course.ID, model.EnrollmentPending)

	enrollment, err := svc.Activate(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentEnrolled, enrollment.Status)
	assert.True(t, enrollment.IsSubscribed())

	// 重复批准不报错，状态不变
	enrollment, err = svc.Activate(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentEnrolled, enrollment.Status)
}

func TestActivateMissing(t *testing.T) {
	svc, _ := newEnrollmentService(t)

	_, err := svc.Activate(12345)
	assert.ErrorIs(t, err, util.ErrEnrollmentNotFound)
}

func TestDecline(t *testing.T) {
	svc, _ := newEnrollmentService(t)
	db := svc.CourseRepo.DB

	user := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)
	course := createTestCourse(t, db, "Go 入门", "go-basics")
	created := createTestEnrollment(t, db, user.ID, course.ID, model.EnrollmentPending)

	enrollment, err := svc.Decline(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentDeclined, enrollment.Status)
	assert.False(t, enrollment.IsSubscribed())
}

func TestCancelKeepsRecord(t *testing.T) {
	svc, repo := newEnrollmentService(t)
	db := svc.CourseRepo.DB

	user := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)
	course := createTestCourse(t, db, "Go 入门", "go-basics")
	created := createTestEnrollment(t, db, user.ID, course.ID, model.EnrollmentEnrolled)

	enrollment, err := svc.Cancel(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCancelled, enrollment.Status)

	// 记录保留，而非删除
	kept, err := repo.FindByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCancelled, kept.Status)
}

func TestCancelNotEnrolled(t *testing.T) {
	svc, _ := newEnrollmentService(t)
	db := svc.CourseRepo.DB

	user := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)
	course := createTestCourse(t, db, "Go 入门", "go-basics")

	_, err := svc.Cancel(user.ID, course.ID)
	assert.ErrorIs(t, err, util.ErrEnrollmentNotFound)
}

func TestRequireSubscribed(t *testing.T) {
	svc, _ := newEnrollmentService(t)
	db := svc.CourseRepo.DB

	course := createTestCourse(t, db, "Go 入门", "go-basics")
	enrolled := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)
	pending := createTestUser(t, db, "李四", "lisi@test.local", model.Student)
	createTestEnrollment(t, db, enrolled.ID, course.ID, model.EnrollmentEnrolled)
	createTestEnrollment(t, db, pending.ID, course.ID, model.EnrollmentPending)

	assert.NoError(t, svc.RequireSubscribed(enrolled.ID, course.ID))
	assert.ErrorIs(t, svc.RequireSubscribed(pending.ID, course.ID), util.ErrNotEnrolled, "待处理状态不算有效报名")
	assert.ErrorIs(t, svc.RequireSubscribed(9999, course.ID), util.ErrNotEnrolled, "无报名记录")
}

func TestListForUserIncludesCourse(t *testing.T) {
	svc, _ := newEnrollmentService(t)
	db := svc.CourseRepo.DB

	user := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)
	goCourse := createTestCourse(t, db, "Go 入门", "go-basics")
	pyCourse := createTestCourse(t, db, "Python 入门", "python-basics")
	createTestEnrollment(t, db, user.ID, goCourse.ID, model.EnrollmentEnrolled)
	createTestEnrollment(t, db, user.ID, pyCourse.ID, model.EnrollmentCancelled)

	enrollments, err := svc.ListForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 2, "账目记录包含全部状态")
	for _, e := range enrollments {
		assert.NotEmpty(t, e.Course.Name, "应预加载课程信息")
	}
}
