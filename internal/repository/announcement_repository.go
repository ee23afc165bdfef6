package repository

import (
	"mooc_backend/internal/model"

	"gorm.io/gorm"
)

type AnnouncementRepository struct {
	DB *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{DB: db}
}

func (r *AnnouncementRepository) Create(announcement *model.Announcement) error {
	return r.DB.Create(announcement).Error
}

func (r *AnnouncementRepository) FindByID(id uint) (*model.Announcement, error) {
	var announcement model.Announcement
	err := r.DB.First(&announcement, id).Error
	return &announcement, err
}

// ListByCourse 课程公告，始终按创建时间倒序（最新在前）
func (r *AnnouncementRepository) ListByCourse(courseID uint) ([]model.Announcement, error) {
	var announcements []model.Announcement
	err := r.DB.Where("course_id = ?", courseID).
		Order("created_at DESC, id DESC").
		Find(&announcements).Error
	return announcements, err
}

func (r *AnnouncementRepository) CreateComment(comment *model.Comment) error {
	return r.DB.Create(comment).Error
}

func (r *AnnouncementRepository) ListComments(announcementID uint) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.DB.Preload("User").
		Where("announcement_id = ?", announcementID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
