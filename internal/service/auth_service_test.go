package service

import (
	"testing"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	db := newTestDB(t)
	return NewAuthService(repository.NewUserRepository(db), newTestConfig(t))
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := newAuthService(t)

	user := &model.User{
		Name:     "张三",
		Email:    "zhangsan@test.local",
		Password: "secret123",
		Role:     model.Student,
	}
	require.NoError(t, svc.Register(user))

	stored, err := svc.UserRepo.FindByEmail("zhangsan@test.local")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.Password, "密码不能明文入库")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret123")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)

	first := &model.User{Name: "张三", Email: "zhangsan@test.local", Password: "secret123"}
	require.NoError(t, svc.Register(first))

	second := &model.User{Name: "李四", Email: "zhangsan@test.local", Password: "other456"}
	assert.ErrorIs(t, svc.Register(second), util.ErrEmailRegistered)
}

func TestLogin(t *testing.T) {
	svc := newAuthService(t)

	user := &model.User{Name: "张三", Email: "zhangsan@test.local", Password: "secret123"}
	require.NoError(t, svc.Register(user))

	token, err := svc.Login("zhangsan@test.local", "secret123")
	require.NoError(t, err)

	claims, err := util.ParseJWT(token, svc.Cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "zhangsan@test.local", claims.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t)

	user := &model.User{Name: "张三", Email: "zhangsan@test.local", Password: "secret123"}
	require.NoError(t, svc.Register(user))

	_, err := svc.Login("zhangsan@test.local", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = svc.Login("nobody@test.local", "secret123")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials, "未注册邮箱返回同样的错误")
}

func TestLoginDisabledUser(t *testing.T) {
	svc := newAuthService(t)

	user := &model.User{Name: "张三", Email: "zhangsan@test.local", Password: "secret123"}
	require.NoError(t, svc.Register(user))
	require.NoError(t, svc.UserRepo.DB.Model(user).Update("disabled", true).Error)

	_, err := svc.Login("zhangsan@test.local", "secret123")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}
