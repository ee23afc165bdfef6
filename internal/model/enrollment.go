package model

type EnrollmentStatus int

const (
	EnrollmentPending   EnrollmentStatus = 0
	EnrollmentEnrolled  EnrollmentStatus = 1
	EnrollmentCancelled EnrollmentStatus = 2
	EnrollmentDeclined  EnrollmentStatus = 3
)

// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID   uint             `gorm:"uniqueIndex:idx_user_course;not null" json:"userId"`
	CourseID uint             `gorm:"uniqueIndex:idx_user_course;not null" json:"courseId"`
	Status   EnrollmentStatus `gorm:"default:0" json:"status"`

	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// IsSubscribed 仅当状态为已报名时为 true
func (e *Enrollment) IsSubscribed() bool {
	return e.Status == EnrollmentEnrolled
}
