package model

import (
	"time"
)

// swagger:model PasswordReset
type PasswordReset struct {
	BaseModel
	UserID      uint       `gorm:"index;not null" json:"userId"`
	Key         string     `gorm:"size:100;uniqueIndex;not null" json:"-"`
	ConfirmedAt *time.Time `json:"confirmedAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (PasswordReset) TableName() string {
	return "password_resets"
}
