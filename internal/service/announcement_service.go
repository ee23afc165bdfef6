package service

import (
	"context"
	"errors"
	"fmt"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"
	"mooc_backend/pkg/logger"
	"mooc_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const announcementMailTemplate = "announcement_mail"

// AnnouncementService 课程公告。创建公告后同步向已报名用户发送邮件通知，
// 邮件失败不影响公告本身。
type AnnouncementService struct {
	AnnouncementRepo *repository.AnnouncementRepository
	EnrollmentRepo   *repository.EnrollmentRepository
	CourseRepo       *repository.CourseRepository
	Mail             *MailService
}

func NewAnnouncementService(announcementRepo *repository.AnnouncementRepository, enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository, mail *MailService) *AnnouncementService {
	return &AnnouncementService{
		AnnouncementRepo: announcementRepo,
		EnrollmentRepo:   enrollmentRepo,
		CourseRepo:       courseRepo,
		Mail:             mail,
	}
}

type announcementMailData struct {
	CourseName string
	Title      string
	Content    string
}

// Post 发布公告并触发通知。公告写入成功即视为操作成功：
// 通知只在创建时发送一次，更新不会触发。
func (s *AnnouncementService) Post(ctx context.Context, courseID uint, title, content string) (*model.Announcement, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	announcement := &model.Announcement{
		CourseID: courseID,
		Title:    title,
		Content:  content,
	}
	if err := s.AnnouncementRepo.Create(announcement); err != nil {
		return nil, err
	}

	s.dispatchNotification(ctx, course, announcement)

	return announcement, nil
}

// dispatchNotification 计算收件人并对邮件服务发起一次批量调用。
// 任何失败只记录日志，不向 Post 的调用方传播。
func (s *AnnouncementService) dispatchNotification(ctx context.Context, course *model.Course, announcement *model.Announcement) {
	users, err := s.EnrollmentRepo.ActiveUsers(course.ID)
	if err != nil {
		monitoring.MailDispatchCounter.WithLabelValues("error").Inc()
		logger.Log.Error("公告通知收件人查询失败",
			zap.Uint("course_id", course.ID),
			zap.Uint("announcement_id", announcement.ID),
			zap.Error(err),
		)
		return
	}

	recipients := make([]string, 0, len(users))
	for _, u := range users {
		// 邮箱缺失的用户跳过，不因个别坏地址放弃整次通知
		if u.Email == "" {
			logger.Log.Warn("用户缺少邮箱，跳过公告通知",
				zap.Uint("user_id", u.ID),
				zap.Uint("announcement_id", announcement.ID),
			)
			continue
		}
		recipients = append(recipients, u.Email)
	}

	if len(recipients) == 0 {
		monitoring.MailDispatchCounter.WithLabelValues("skipped").Inc()
		return
	}

	subject := fmt.Sprintf("课程 %s 有新公告", course.Name)
	data := announcementMailData{
		CourseName: course.Name,
		Title:      announcement.Title,
		Content:    announcement.Content,
	}

	if err := s.Mail.SendTemplatedMail(ctx, subject, announcementMailTemplate, data, recipients); err != nil {
		monitoring.MailDispatchCounter.WithLabelValues("error").Inc()
		logger.Log.Error("公告通知发送失败",
			zap.Uint("announcement_id", announcement.ID),
			zap.Int("recipients", len(recipients)),
			zap.Error(err),
		)
		return
	}

	monitoring.MailDispatchCounter.WithLabelValues("sent").Inc()
}

// ListForCourse 课程公告列表，最新在前
func (s *AnnouncementService) ListForCourse(courseID uint) ([]model.Announcement, error) {
	return s.AnnouncementRepo.ListByCourse(courseID)
}

// GetAnnouncement 公告详情及其评论
func (s *AnnouncementService) GetAnnouncement(id uint) (*model.Announcement, error) {
	announcement, err := s.AnnouncementRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAnnouncementNotFound
		}
		return nil, err
	}

	comments, err := s.AnnouncementRepo.ListComments(id)
	if err != nil {
		return nil, err
	}
	announcement.Comments = comments
	return announcement, nil
}

func (s *AnnouncementService) AddComment(announcementID, userID uint, text string) (*model.Comment, error) {
	if _, err := s.AnnouncementRepo.FindByID(announcementID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAnnouncementNotFound
		}
		return nil, err
	}

	comment := &model.Comment{
		AnnouncementID: announcementID,
		UserID:         userID,
		Comment:        text,
	}
	if err := s.AnnouncementRepo.CreateComment(comment); err != nil {
		return nil, err
	}
	return comment, nil
}
