package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/otp"
)

func TestSignupOTPSingleUse(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	auth := NewAuthService(db, nopSender{})

	flowToken, err := auth.SignUp(ctx, SignUpInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane.doe@example.com",
		Phone:     "4155550198",
		Password:  "Str0ng!Pw",
	})
	require.NoError(t, err)
	require.NotEmpty(t, flowToken)

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "jane.doe@example.com").Error)
	assert.False(t, user.IsActive)
	require.NotNil(t, user.OTP)
	code := *user.OTP

	now := time.Now()
	require.NoError(t, auth.VerifySignup(ctx, flowToken, code, now))

	var verified models.User
	require.NoError(t, db.First(&verified, "id = ?", user.ID).Error)
	assert.True(t, verified.IsActive)
	assert.Nil(t, verified.OTP)
	assert.Nil(t, verified.OTPCreatedAt)

	// The flow is consumed; replaying the same code gets nowhere.
	err = auth.VerifySignup(ctx, flowToken, code, now)
	assert.ErrorIs(t, err, otp.ErrExpired)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	db := testDB(t)
	auth := NewAuthService(db, nopSender{})

	_, err := auth.RequestPasswordReset(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPasswordResetFlowConsumedAfterUse(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	auth := NewAuthService(db, nopSender{})

	user := seedUser(t, db, "resetter@example.com")
	user.PasswordHash = "old"
	require.NoError(t, db.Save(user).Error)

	flowToken, err := auth.RequestPasswordReset(ctx, user.Email)
	require.NoError(t, err)

	var withOTP models.User
	require.NoError(t, db.First(&withOTP, "id = ?", user.ID).Error)
	require.NotNil(t, withOTP.OTP)

	now := time.Now()
	require.NoError(t, auth.VerifyResetOTP(ctx, flowToken, *withOTP.OTP, now))
	require.NoError(t, auth.SetNewPassword(ctx, flowToken, "N3w!Secret", now))

	// A consumed flow cannot be replayed for a second reset.
	err = auth.SetNewPassword(ctx, flowToken, "An0ther!Pw", now)
	assert.ErrorIs(t, err, otp.ErrExpired)
}
