package service

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Str0ng!pass"

func register(t *testing.T, e *env, email, username string) *models.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{
		Email: email, Username: username, Password: strongPassword,
	})
	require.NoError(t, err)
	return u
}

func TestAuthService_Register(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u := register(t, e, "  Ada@Example.COM ", "Ada_L")
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "ada_l", u.Username)
	assert.NotEqual(t, strongPassword, u.Password)
	assert.True(t, u.IsActive)
	assert.Equal(t, models.RoleUser, u.Role)

	tests := []struct {
		name string
		in   RegisterInput
		code string
		msg  string
	}{
		{"Missing Fields", RegisterInput{Email: "x@y.z"}, models.CodeValidation, "Email, username, and password are required"},
		{"Bad Email", RegisterInput{Email: "nope", Username: "someone", Password: strongPassword}, models.CodeValidation, "invalid email format"},
		{"Weak Password", RegisterInput{Email: "b@example.com", Username: "bob", Password: "password"}, models.CodeValidation, ""},
		{"Email Taken", RegisterInput{Email: "ADA@example.com", Username: "other", Password: strongPassword}, models.CodeConflict, "Email already registered"},
		{"Username Taken", RegisterInput{Email: "new@example.com", Username: "ADA_L", Password: strongPassword}, models.CodeConflict, "Username already taken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.auth.Register(ctx, tt.in)
			assertAppError(t, err, tt.code, tt.msg)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.auth.now = fixedClock(now)
	u := register(t, e, "ada@example.com", "ada")

	for _, login := range []string{"ada@example.com", "ADA"} {
		got, err := e.auth.Login(ctx, LoginInput{Login: login, Password: strongPassword})
		require.NoError(t, err, login)
		assert.Equal(t, u.ID, got.ID)
		require.NotNil(t, got.LastLoginAt)
		assert.True(t, now.Equal(*got.LastLoginAt))
	}

	_, err := e.auth.Login(ctx, LoginInput{Login: "ada", Password: "Wrong!pass1"})
	assertUnauthorizedError(t, err, "Invalid credentials")
	_, err = e.auth.Login(ctx, LoginInput{Login: "ghost", Password: strongPassword})
	assertUnauthorizedError(t, err, "Invalid credentials")

	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)
	_, err = e.auth.Login(ctx, LoginInput{Login: "ada", Password: strongPassword})
	assertUnauthorizedError(t, err, "Account is deactivated")
	_, err = e.auth.ActiveUser(ctx, u.ID)
	assertUnauthorizedError(t, err, "Account is deactivated")
}

func TestAuthService_UpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := register(t, e, "ada@example.com", "ada")
	register(t, e, "bob@example.com", "bob")

	updated, err := e.auth.UpdateProfile(ctx, UpdateProfileInput{
		UserID:    u.ID,
		FirstName: ptr(" Ada "),
		LastName:  ptr("Lovelace"),
		Bio:       ptr("Analyst"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.DisplayName())
	assert.Equal(t, "Analyst", updated.Bio)

	_, err = e.auth.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, Username: ptr("Bob")})
	assertConflictError(t, err, "Username already taken")

	updated, err = e.auth.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, Username: ptr("countess")})
	require.NoError(t, err)
	assert.Equal(t, "countess", updated.Username)

	_, err = e.auth.Login(ctx, LoginInput{Login: "countess", Password: strongPassword})
	require.NoError(t, err, "profile updates keep the password hash")
}

func TestAuthService_ChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := register(t, e, "ada@example.com", "ada")

	err := e.auth.ChangePassword(ctx, ChangePasswordInput{UserID: u.ID, CurrentPassword: "Wrong!pass1", NewPassword: "N3w!password"})
	assertValidationError(t, err, "Current password is incorrect")

	require.NoError(t, e.auth.ChangePassword(ctx, ChangePasswordInput{
		UserID: u.ID, CurrentPassword: strongPassword, NewPassword: "N3w!password",
	}))
	_, err = e.auth.Login(ctx, LoginInput{Login: "ada", Password: "N3w!password"})
	require.NoError(t, err)
}

func TestAuthService_PasswordReset(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()
	e.auth.now = fixedClock(now)
	register(t, e, "ada@example.com", "ada")

	token, err := e.auth.ForgotPassword(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = e.auth.ForgotPassword(ctx, "ADA@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	err = e.auth.ResetPassword(ctx, "not-a-token", "N3w!password")
	assertValidationError(t, err, "Invalid or expired reset token")

	e.auth.now = fixedClock(now.Add(2 * time.Hour))
	err = e.auth.ResetPassword(ctx, token, "N3w!password")
	assertValidationError(t, err, "Invalid or expired reset token")

	e.auth.now = fixedClock(now.Add(30 * time.Minute))
	require.NoError(t, e.auth.ResetPassword(ctx, token, "N3w!password"))
	_, err = e.auth.Login(ctx, LoginInput{Login: "ada", Password: "N3w!password"})
	require.NoError(t, err)

	err = e.auth.ResetPassword(ctx, token, "An0ther!pass")
	assertValidationError(t, err, "Invalid or expired reset token")
}
