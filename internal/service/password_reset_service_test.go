package service

import (
	"context"
	"testing"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newResetService(t *testing.T, provider MailProvider) (*PasswordResetService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	cfg := newTestConfig(t)
	svc := NewPasswordResetService(
		repository.NewPasswordResetRepository(db),
		repository.NewUserRepository(db),
		NewMailServiceWithProvider(cfg, provider),
		cfg,
	)
	return svc, db
}

func TestResetRoundTrip(t *testing.T) {
	recorder := &recorderMailProvider{}
	svc, db := newResetService(t, recorder)

	user := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)

	require.NoError(t, svc.RequestReset(context.Background(), "zhangsan@test.local"))

	require.Len(t, recorder.messages, 1)
	assert.Equal(t, []string{"zhangsan@test.local"}, recorder.messages[0].Recipients)

	var reset model.PasswordReset
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&reset).Error)
	assert.Contains(t, recorder.messages[0].TextContent, reset.Key, "邮件正文包含重置链接")

	require.NoError(t, svc.ConfirmReset(reset.Key, "new-password"))

	auth := NewAuthService(svc.UserRepo, svc.Cfg)
	_, err := auth.Login("zhangsan@test.local", "new-password")
	assert.NoError(t, err, "重置后新密码可登录")
}

func TestResetTokenSingleUse(t *testing.T) {
	svc, db := newResetService(t, &recorderMailProvider{})

	user := createTestUser(t, db, "张三", "zhangsan@test.local", model.Student)
	require.NoError(t, svc.RequestReset(context.Background(), user.Email))

	var reset model.PasswordReset
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&reset).Error)

	require.NoError(t, svc.ConfirmReset(reset.Key, "first-new"))
	assert.ErrorIs(t, svc.ConfirmReset(reset.Key, "second-new"), util.ErrInvalidResetToken, "令牌一次性有效")
}

func TestResetInvalidToken(t *testing.T) {
	svc, _ := newResetService(t, &recorderMailProvider{})

	assert.ErrorIs(t, svc.ConfirmReset("no-such-key", "whatever"), util.ErrInvalidResetToken)
}

func TestResetUnknownEmailIsSilent(t *testing.T) {
	recorder := &recorderMailProvider{}
	svc, _ := newResetService(t, recorder)

	// 不暴露邮箱是否注册
	assert.NoError(t, svc.RequestReset(context.Background(), "nobody@test.local"))
	assert.Empty(t, recorder.messages)
}
