package service

import (
	"context"
	"errors"
	"fmt"

	"mooc_backend/internal/config"
	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"
	"mooc_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type PasswordResetService struct {
	ResetRepo *repository.PasswordResetRepository
	UserRepo  *repository.UserRepository
	Mail      *MailService
	Cfg       *config.Config
}

func NewPasswordResetService(resetRepo *repository.PasswordResetRepository, userRepo *repository.UserRepository, mail *MailService, cfg *config.Config) *PasswordResetService {
	return &PasswordResetService{
		ResetRepo: resetRepo,
		UserRepo:  userRepo,
		Mail:      mail,
		Cfg:       cfg,
	}
}

type resetMailData struct {
	UserName string
	ResetURL string
}

// RequestReset 签发重置令牌并发送邮件。
// 无论邮箱是否存在都静默成功，避免账号枚举；邮件失败仅记录日志。
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	reset := &model.PasswordReset{
		UserID: user.ID,
		Key:    uuid.New().String(),
	}
	if err := s.ResetRepo.Create(reset); err != nil {
		return err
	}

	data := resetMailData{
		UserName: user.Name,
		ResetURL: fmt.Sprintf("%s/password-reset/confirm/%s", s.Cfg.MailSettings().FrontendURL, reset.Key),
	}
	if err := s.Mail.SendTemplatedMail(ctx, "密码重置", "password_reset", data, []string{user.Email}); err != nil {
		logger.Log.Error("发送密码重置邮件失败",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
	}

	return nil
}

// ConfirmReset 校验令牌并重置密码，令牌一次性有效
func (s *PasswordResetService) ConfirmReset(key, newPassword string) error {
	reset, err := s.ResetRepo.FindByKey(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrInvalidResetToken
		}
		return err
	}

	if reset.ConfirmedAt != nil {
		return util.ErrInvalidResetToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := reset.User
	user.Password = string(hashed)
	if err := s.UserRepo.Update(&user); err != nil {
		return err
	}

	return s.ResetRepo.MarkConfirmed(reset.ID)
}
