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

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(repository.NewUserRepository(newTestDB(t)))
}

func TestChangePassword(t *testing.T) {
	svc := newUserService(t)

	hashed, err := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &model.User{Name: "张三", Email: "zhangsan@test.local", Password: string(hashed)}
	require.NoError(t, svc.UserRepo.Create(user))

	assert.ErrorIs(t, svc.ChangePassword(user.ID, "wrong-old", "new-pass"), util.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(user.ID, "old-pass", "new-pass"))

	stored, err := svc.UserRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("new-pass")))
}

func TestUpdateProfileKeepsEmptyFields(t *testing.T) {
	svc := newUserService(t)

	user := createTestUser(t, svc.UserRepo.DB, "张三", "zhangsan@test.local", model.Student)

	updated, err := svc.UpdateProfile(user.ID, "李四", "")
	require.NoError(t, err)
	assert.Equal(t, "李四", updated.Name)
	assert.Equal(t, user.Avatar, updated.Avatar, "空值不覆盖原字段")
}

func TestGetUsersPagination(t *testing.T) {
	svc := newUserService(t)
	db := svc.UserRepo.DB

	for _, u := range []struct{ name, email string }{
		{"学员一", "a1@test.local"},
		{"学员二", "a2@test.local"},
		{"教师甲", "t1@test.local"},
	} {
		createTestUser(t, db, u.name, u.email, model.Student)
	}

	users, total, err := svc.GetUsers(1, 2, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, users, 2)

	// 非法分页参数回退默认值
	users, _, err = svc.GetUsers(0, -5, "")
	require.NoError(t, err)
	assert.Len(t, users, 3)

	users, total, err = svc.GetUsers(1, 10, "教师")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "t1@test.local", users[0].Email)
}

func TestSetDisabled(t *testing.T) {
	svc := newUserService(t)

	user := createTestUser(t, svc.UserRepo.DB, "张三", "zhangsan@test.local", model.Student)

	require.NoError(t, svc.SetDisabled(user.ID, true))
	stored, err := svc.UserRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Disabled)

	require.NoError(t, svc.SetDisabled(user.ID, false))
	stored, err = svc.UserRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.False(t, stored.Disabled)
}
