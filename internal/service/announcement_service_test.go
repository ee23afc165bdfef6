package service

import (
	"context"
	"errors"
	"testing"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAnnouncementService(t *testing.T, provider MailProvider) (*AnnouncementService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	cfg := newTestConfig(t)
	mail := NewMailServiceWithProvider(cfg, provider)
	svc := NewAnnouncementService(
		repository.NewAnnouncementRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewCourseRepository(db),
		mail,
	)
	return svc, db
}

func TestPostNotifiesActiveEnrollees(t *testing.T) {
	recorder := &recorderMailProvider{}
	svc, db := newAnnouncementService(t, recorder)

	course := createTestCourse(t, db, "Go 进阶", "go-advanced")

	// 在读 3 人，待审核和已退课各 1 人
	active1 := createTestUser(t, db, "学员一", "a1@test.local", model.Student)
	active2 := createTestUser(t, db, "学员二", "a2@test.local", model.Student)
	active3 := createTestUser(t, db, "学员三", "a3@test.local", model.Student)
	pending := createTestUser(t, db, "待审核", "p@test.local", model.Student)
	cancelled := createTestUser(t, db, "已退课", "c@test.local", model.Student)

	createTestEnrollment(t, db, active1.ID, course.ID, model.EnrollmentEnrolled)
	createTestEnrollment(t, db, active2.ID, course.ID, model.EnrollmentEnrolled)
	createTestEnrollment(t, db, active3.ID, course.ID, model.EnrollmentEnrolled)
	createTestEnrollment(t, db, pending.ID, course.ID, model.EnrollmentPending)
	createTestEnrollment(t, db, cancelled.ID, course.ID, model.EnrollmentCancelled)

	announcement, err := svc.Post(context.Background(), course.ID, "期中安排", "下周三随堂测验")
	require.NoError(t, err)
	assert.NotZero(t, announcement.ID)

	require.Len(t, recorder.messages, 1, "全部收件人应合并为一次投递")
	msg := recorder.messages[0]
	assert.ElementsMatch(t,
		[]string{"a1@test.local", "a2@test.local", "a3@test.local"},
		msg.Recipients,
		"只通知在读学员")
	assert.Contains(t, msg.Subject, "Go 进阶")
	assert.Contains(t, msg.TextContent, "期中安排")
	assert.Contains(t, msg.TextContent, "下周三随堂测验")
}

func TestPostSkipsUsersWithoutEmail(t *testing.T) {
	recorder := &recorderMailProvider{}
	svc, db := newAnnouncementService(t, recorder)

	course := createTestCourse(t, db, "Go 进阶", "go-advanced")
	withMail := createTestUser(t, db, "学员一", "a1@test.local", model.Student)
	createTestEnrollment(t, db, withMail.ID, course.ID, model.EnrollmentEnrolled)

	// 邮箱为空的在读学员跳过，不导致整批失败
	noMail := &model.User{Name: "无邮箱", Password: "hashed", Role: model.Student}
	require.NoError(t, db.Create(noMail).Error)
	createTestEnrollment(t, db, noMail.ID, course.ID, model.EnrollmentEnrolled)

	_, err := svc.Post(context.Background(), course.ID, "通知", "内容")
	require.NoError(t, err)

	require.Len(t, recorder.messages, 1)
	assert.Equal(t, []string{"a1@test.local"}, recorder.messages[0].Recipients)
}

func TestPostWithoutEnrolleesSendsNothing(t *testing.T) {
	recorder := &recorderMailProvider{}
	svc, db := newAnnouncementService(t, recorder)

	course := createTestCourse(t, db, "Go 进阶", "go-advanced")

	announcement, err := svc.Post(context.Background(), course.ID, "通知", "内容")
	require.NoError(t, err)
	assert.NotZero(t, announcement.ID, "没有学员时公告照常创建")
	assert.Empty(t, recorder.messages, "没有收件人不调用投递端")
}

func TestPostSurvivesMailFailure(t *testing.T) {
	recorder := &recorderMailProvider{err: errors.New("smtp down")}
	svc, db := newAnnouncementService(t, recorder)

	course := createTestCourse(t, db, "Go 进阶", "go-advanced")
	user := createTestUser(t, db, "学员一", "a1@test.local", model.Student)
	createTestEnrollment(t, db, user.ID, course.ID, model.EnrollmentEnrolled)

	announcement, err := svc.Post(context.Background(), course.ID, "通知", "内容")
	require.NoError(t, err, "邮件失败不影响公告创建")

	stored, err := svc.GetAnnouncement(announcement.ID)
	require.NoError(t, err)
	assert.Equal(t, "通知", stored.Title)
}

func TestPostUnknownCourse(t *testing.T) {
	svc, _ := newAnnouncementService(t, &recorderMailProvider{})

	_, err := svc.Post(context.Background(), 9999, "通知", "内容")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestListNewestFirst(t *testing.T) {
	svc, db := newAnnouncementService(t, &recorderMailProvider{})

	course := createTestCourse(t, db, "Go 进阶", "go-advanced")

	first, err := svc.Post(context.Background(), course.ID, "第一条", "内容")
	require.NoError(t, err)
	second, err := svc.Post(context.Background(), course.ID, "第二条", "内容")
	require.NoError(t, err)
	third, err := svc.Post(context.Background(), course.ID, "第三条", "内容")
	require.NoError(t, err)

	list, err := svc.ListForCourse(course.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)

	// 创建时间相同的记录按 ID 倒序兜底
	assert.Equal(t, third.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, first.ID, list[2].ID)
}

func TestAddCommentToMissingAnnouncement(t *testing.T) {
	svc, db := newAnnouncementService(t, &recorderMailProvider{})

	user := createTestUser(t, db, "学员一", "a1@test.local", model.Student)

	_, err := svc.AddComment(9999, user.ID, "请问考试范围")
	assert.ErrorIs(t, err, util.ErrAnnouncementNotFound)
}

func TestGetAnnouncementWithComments(t *testing.T) {
	svc, db := newAnnouncementService(t, &recorderMailProvider{})

	course := createTestCourse(t, db, "Go 进阶", "go-advanced")
	user := createTestUser(t, db, "学员一", "a1@test.local", model.Student)

	announcement, err := svc.Post(context.Background(), course.ID, "通知", "内容")
	require.NoError(t, err)

	_, err = svc.AddComment(announcement.ID, user.ID, "收到")
	require.NoError(t, err)

	stored, err := svc.GetAnnouncement(announcement.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 1)
	assert.Equal(t, "收到", stored.Comments[0].Comment)
}
