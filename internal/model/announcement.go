package model

// swagger:model Announcement
type Announcement struct {
	BaseModel
	CourseID uint   `gorm:"index;not null" json:"courseId"`
	Title    string `gorm:"size:100;not null" json:"title"`
	Content  string `gorm:"type:text;not null" json:"content"`

	Course   Course    `gorm:"foreignKey:CourseID" json:"-"`
	Comments []Comment `gorm:"foreignKey:AnnouncementID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

func (Announcement) TableName() string {
	return "announcements"
}

// swagger:model Comment
type Comment struct {
	BaseModel
	AnnouncementID uint   `gorm:"index;not null" json:"announcementId"`
	UserID         uint   `gorm:"index;not null" json:"userId"`
	Comment        string `gorm:"type:text;not null" json:"comment"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}
