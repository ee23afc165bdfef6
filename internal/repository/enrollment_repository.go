package repository

import (
	"mooc_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// Create 依赖 (user_id, course_id) 唯一索引去重，冲突时返回 gorm.ErrDuplicatedKey
func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) error {
	return r.DB.Create(enrollment).Error
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.First(&enrollment, id).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) UpdateStatus(id uint, status model.EnrollmentStatus) error {
	return r.DB.Model(&model.Enrollment{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

// ListByUser 用户个人面板的报名记录，带课程信息
func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// ActiveUsers 返回课程中状态为已报名的用户，顺序不作保证
func (r *EnrollmentRepository) ActiveUsers(courseID uint) ([]model.User, error) {
	var users []model.User
	err := r.DB.Model(&model.User{}).
		Joins("JOIN enrollments ON enrollments.user_id = users.id").
		Where("enrollments.course_id = ? AND enrollments.status = ?", courseID, model.EnrollmentEnrolled).
		Find(&users).Error
	return users, err
}
