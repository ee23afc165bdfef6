package model

import (
	"time"
)

// swagger:model Course
type Course struct {
	BaseModel
	Name        string     `gorm:"size:100;not null" json:"name"`
	Slug        string     `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	About       string     `gorm:"type:text" json:"about"`
	StartDate   *time.Time `json:"startDate"`
	Image       string     `gorm:"size:255" json:"image"`

	Lessons       []Lesson       `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	Announcements []Announcement `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments   []Enrollment   `gorm:"foreignKey:CourseID" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID    uint       `gorm:"index;not null" json:"courseId"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Number      int        `gorm:"default:0" json:"number"`
	ReleaseDate *time.Time `json:"releaseDate"`

	Materials []Material `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"materials,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// IsAvailable 判断课时在给定日期是否已发布（未设置发布日期视为已发布）
func (l *Lesson) IsAvailable(asOf time.Time) bool {
	if l.ReleaseDate == nil {
		return true
	}
	return !l.ReleaseDate.After(asOf)
}

// swagger:model Material
type Material struct {
	BaseModel
	LessonID   uint   `gorm:"index;not null" json:"lessonId"`
	Name       string `gorm:"size:100;not null" json:"name"`
	EmbedMedia string `gorm:"type:text" json:"embedMedia"`
	File       string `gorm:"size:255" json:"file"`
}

func (Material) TableName() string {
	return "materials"
}

// IsEmbedded 材料是否为内嵌媒体
func (m *Material) IsEmbedded() bool {
	return m.EmbedMedia != ""
}
