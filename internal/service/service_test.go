package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"mooc_backend/internal/config"
	"mooc_backend/internal/model"
	"mooc_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

var testDBSeq int64

// newTestDB 每个测试独立的内存数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		// 唯一索引冲突统一转换为 gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Material{},
		&model.Enrollment{},
		&model.Announcement{},
		&model.Comment{},
		&model.PasswordReset{},
	)
	if err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}

	return db
}

// newTestConfig 指向临时目录的邮件模板，避免依赖仓库内资源
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	templates := map[string]string{
		"announcement_mail.txt": "{{.CourseName}} 课程发布了新公告\n\n{{.Title}}\n\n{{.Content}}\n",
		"password_reset.txt":    "{{.UserName}}，请访问 {{.ResetURL}} 重置密码\n",
	}
	for name, body := range templates {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatalf("写入模板失败: %v", err)
		}
	}

	return &config.Config{
		JWT: config.JWTConfig{
			Secret:     "test-secret-test-secret-test-secret",
			ExpireTime: time.Hour,
		},
		Mail: config.MailConfig{
			Provider:    "console",
			FromName:    "测试平台",
			FromAddress: "noreply@test.local",
			TemplateDir: dir,
			SendTimeout: 5 * time.Second,
			FrontendURL: "http://localhost:3000",
		},
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: t.TempDir(),
		},
		Cache: config.CacheConfig{CourseTTLMinutes: 10},
	}
}

// recorderMailProvider 记录投递请求的测试实现
type recorderMailProvider struct {
	messages []*MailMessage
	err      error
}

func (p *recorderMailProvider) Send(ctx context.Context, msg *MailMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func createTestUser(t *testing.T, db *gorm.DB, name, email string, role model.UserRole) *model.User {
	t.Helper()

	user := &model.User{
		Name:     name,
		Email:    email,
		Password: "hashed",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}
	return user
}

func createTestCourse(t *testing.T, db *gorm.DB, name, slug string) *model.Course {
	t.Helper()

	course := &model.Course{
		Name: name,
		Slug: slug,
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("创建测试课程失败: %v", err)
	}
	return course
}

func createTestEnrollment(t *testing.T, db *gorm.DB, userID, courseID uint, status model.EnrollmentStatus) *model.Enrollment {
	t.Helper()

	enrollment := &model.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   status,
	}
	if err := db.Create(enrollment).Error; err != nil {
		t.Fatalf("创建测试报名失败: %v", err)
	}
	return enrollment
}
