package util

import "errors"

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrCourseNotFound       = errors.New("course not found")
	ErrLessonNotFound       = errors.New("lesson not found")
	ErrLessonNotAvailable   = errors.New("lesson not yet available")
	ErrMaterialNotFound     = errors.New("material not found")
	ErrSlugTaken            = errors.New("slug already in use")
	ErrInvalidSlug          = errors.New("invalid slug")
	ErrAlreadyEnrolled      = errors.New("already enrolled in this course")
	ErrEnrollmentNotFound   = errors.New("enrollment not found")
	ErrNotEnrolled          = errors.New("not enrolled in this course")
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrInvalidResetToken    = errors.New("invalid or expired reset token")
)
