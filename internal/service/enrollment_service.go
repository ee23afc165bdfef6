package service

import (
	"errors"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"

	"gorm.io/gorm"
)

// EnrollmentService 报名台账：每个 (用户, 课程) 至多一条记录，
// 退课和拒绝都是状态变更而非删除
type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
}

func NewEnrollmentService(enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
	}
}

// Enroll 创建待处理的报名记录。唯一性由存储层的复合唯一索引保证，
// 应用层不做前置检查，并发的重复报名恰好一个成功。
func (s *EnrollmentService) Enroll(userID, courseID uint) (*model.Enrollment, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	enrollment := &model.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   model.EnrollmentPending,
	}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrAlreadyEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

// Activate 无条件置为已报名并持久化。对任意当前状态都生效，
// 重复调用效果等同于一次。
func (s *EnrollmentService) Activate(enrollmentID uint) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}

	if err := s.EnrollmentRepo.UpdateStatus(enrollmentID, model.EnrollmentEnrolled); err != nil {
		return nil, err
	}
	enrollment.Status = model.EnrollmentEnrolled
	return enrollment, nil
}

// Decline 管理端拒绝报名
func (s *EnrollmentService) Decline(enrollmentID uint) (*model.Enrollment, error) {
	return s.setStatus(enrollmentID, model.EnrollmentDeclined)
}

// Cancel 用户退课，记录保留
func (s *EnrollmentService) Cancel(userID, courseID uint) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}

	if err := s.EnrollmentRepo.UpdateStatus(enrollment.ID, model.EnrollmentCancelled); err != nil {
		return nil, err
	}
	enrollment.Status = model.EnrollmentCancelled
	return enrollment, nil
}

func (s *EnrollmentService) setStatus(enrollmentID uint, status model.EnrollmentStatus) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}

	if err := s.EnrollmentRepo.UpdateStatus(enrollmentID, status); err != nil {
		return nil, err
	}
	enrollment.Status = status
	return enrollment, nil
}

// RequireSubscribed 校验用户对课程持有有效报名，
// 无记录或状态非已报名时返回 ErrNotEnrolled
func (s *EnrollmentService) RequireSubscribed(userID, courseID uint) error {
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotEnrolled
		}
		return err
	}
	if !enrollment.IsSubscribed() {
		return util.ErrNotEnrolled
	}
	return nil
}

// ListForUser 个人面板的报名列表
func (s *EnrollmentService) ListForUser(userID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByUser(userID)
}

// ActiveEnrollees 课程的已报名用户集合，公告通知的收件人来源
func (s *EnrollmentService) ActiveEnrollees(courseID uint) ([]model.User, error) {
	return s.EnrollmentRepo.ActiveUsers(courseID)
}
