package service

import (
	"context"
	"testing"
	"time"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCatalogService(t *testing.T) (*CatalogService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	cfg := newTestConfig(t)
	svc := NewCatalogService(repository.NewCourseRepository(db), NewStorageService(cfg), cfg, nil)
	return svc, db
}

func TestSearchCaseInsensitive(t *testing.T) {
	svc, db := newCatalogService(t)

	createTestCourse(t, db, "Java 基础", "java-basics")
	createTestCourse(t, db, "进阶 JAVA 实战", "java-advanced")
	createTestCourse(t, db, "Go 入门", "go-basics")

	results, err := svc.Search("java")
	require.NoError(t, err)
	require.Len(t, results, 2, "大小写不敏感的子串匹配")
	for _, c := range results {
		assert.NotEqual(t, "go-basics", c.Slug)
	}
}

func TestSearchMatchesDescription(t *testing.T) {
	svc, db := newCatalogService(t)

	course := &model.Course{Name: "后端实战", Slug: "backend", Description: "用 Gin 做 Web 服务"}
	require.NoError(t, db.Create(course).Error)
	createTestCourse(t, db, "前端入门", "frontend")

	results, err := svc.Search("gin")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "backend", results[0].Slug)
}

func TestSearchEmptyQueryListsAllByName(t *testing.T) {
	svc, db := newCatalogService(t)

	createTestCourse(t, db, "c-课程", "course-c")
	createTestCourse(t, db, "a-课程", "course-a")
	createTestCourse(t, db, "b-课程", "course-b")

	results, err := svc.Search("")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "course-a", results[0].Slug, "按名称升序")
	assert.Equal(t, "course-b", results[1].Slug)
	assert.Equal(t, "course-c", results[2].Slug)
}

func TestGetCourseBySlugMissing(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.GetCourseBySlug(context.Background(), "no-such-course")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestReleasedLessonsBoundary(t *testing.T) {
	svc, db := newCatalogService(t)

	course := createTestCourse(t, db, "Go 入门", "go-basics")
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	lessons := []model.Lesson{
		{CourseID: course.ID, Name: "已发布", Number: 2, ReleaseDate: &yesterday},
		{CourseID: course.ID, Name: "未来", Number: 1, ReleaseDate: &tomorrow},
		{CourseID: course.ID, Name: "未设日期", Number: 3},
	}
	require.NoError(t, db.Create(&lessons).Error)

	released, err := svc.ReleasedLessons(course.ID, now)
	require.NoError(t, err)
	require.Len(t, released, 2, "未来课时不可见，未设日期视为已发布")
	assert.Equal(t, "已发布", released[0].Name, "按课时序号升序")
	assert.Equal(t, "未设日期", released[1].Name)
}

func TestGetLessonStudentGate(t *testing.T) {
	svc, db := newCatalogService(t)

	course := createTestCourse(t, db, "Go 入门", "go-basics")
	tomorrow := time.Now().Add(24 * time.Hour)
	lesson := &model.Lesson{CourseID: course.ID, Name: "未来课时", ReleaseDate: &tomorrow}
	require.NoError(t, db.Create(lesson).Error)

	_, err := svc.GetLesson(course.ID, lesson.ID, model.Student, time.Now())
	assert.ErrorIs(t, err, util.ErrLessonNotAvailable, "学生不能提前访问")

	got, err := svc.GetLesson(course.ID, lesson.ID, model.Teacher, time.Now())
	require.NoError(t, err, "教师不受发布日期限制")
	assert.Equal(t, lesson.ID, got.ID)

	_, err = svc.GetLesson(course.ID, 9999, model.Student, time.Now())
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
}

func TestGetLessonWrongCourse(t *testing.T) {
	svc, db := newCatalogService(t)

	course := createTestCourse(t, db, "Go 入门", "go-basics")
	other := createTestCourse(t, db, "Python 入门", "python-basics")
	lesson := &model.Lesson{CourseID: course.ID, Name: "第一课"}
	require.NoError(t, db.Create(lesson).Error)

	_, err := svc.GetLesson(other.ID, lesson.ID, model.Student, time.Now())
	assert.ErrorIs(t, err, util.ErrLessonNotFound, "课时只能在所属课程下访问")
}

func TestCreateCourseValidatesSlug(t *testing.T) {
	svc, _ := newCatalogService(t)

	for _, slug := range []string{"", "Has Space", "UPPER", "中文", "-leading", "trailing-", "double--dash"} {
		err := svc.CreateCourse(&model.Course{Name: "课程", Slug: slug})
		assert.ErrorIs(t, err, util.ErrInvalidSlug, "非法短标识: %q", slug)
	}

	err := svc.CreateCourse(&model.Course{Name: "课程", Slug: "go-basics-2026"})
	assert.NoError(t, err)
}

func TestCreateCourseDuplicateSlug(t *testing.T) {
	svc, db := newCatalogService(t)

	createTestCourse(t, db, "Go 入门", "go-basics")

	err := svc.CreateCourse(&model.Course{Name: "另一门", Slug: "go-basics"})
	assert.ErrorIs(t, err, util.ErrSlugTaken)
}

func TestDeleteCourseCascades(t *testing.T) {
	svc, db := newCatalogService(t)

	course := createTestCourse(t, db, "Go 入门", "go-basics")
	lesson := &model.Lesson{CourseID: course.ID, Name: "第一课"}
	require.NoError(t, db.Create(lesson).Error)
	announcement := &model.Announcement{CourseID: course.ID, Title: "通知", Content: "内容"}
	require.NoError(t, db.Create(announcement).Error)

	require.NoError(t, svc.DeleteCourse(context.Background(), course.ID))

	_, err := svc.GetCourseBySlug(context.Background(), "go-basics")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)

	var lessonCount int64
	db.Model(&model.Lesson{}).Where("course_id = ?", course.ID).Count(&lessonCount)
	assert.Zero(t, lessonCount, "课时随课程删除")

	var annCount int64
	db.Model(&model.Announcement{}).Where("course_id = ?", course.ID).Count(&annCount)
	assert.Zero(t, annCount, "公告随课程删除")
}

func TestAddMaterialToMissingLesson(t *testing.T) {
	svc, db := newCatalogService(t)

	course := createTestCourse(t, db, "Go 入门", "go-basics")

	err := svc.AddMaterial(course.ID, &model.Material{LessonID: 9999, Name: "讲义"})
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
}

func TestMaterialKinds(t *testing.T) {
	embedded := &model.Material{Name: "视频", EmbedMedia: "<iframe></iframe>"}
	assert.True(t, embedded.IsEmbedded())

	file := &model.Material{Name: "讲义", File: "lessons/materials/1/a.pdf"}
	assert.False(t, file.IsEmbedded())
}
