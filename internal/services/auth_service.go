package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/otp"
	"github.com/example/sitwell/internal/utils"
)

// pendingFlowTTL bounds how long a multi-step flow (signup verification,
// password reset, email change) may stay open. The OTP inside the flow
// expires much sooner; resending a code keeps the flow alive.
const pendingFlowTTL = 15 * time.Minute

// AuthService implements the OTP-gated identity flows: signup, login,
// password reset, email change, and admin moderation.
type AuthService struct {
	db     *gorm.DB
	sender Sender
	logger *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, sender Sender) *AuthService {
	return &AuthService{db: db, sender: sender, logger: utils.GetLogger()}
}

// SignUpInput carries validated-by-shape signup fields.
type SignUpInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

// SignUp creates an inactive account, issues a signup OTP, and opens a
// pending verification flow. The returned token identifies the flow for
// the verify and resend steps.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (string, error) {
	fields := map[string]string{}
	if msg := utils.ValidateName(in.FirstName); msg != "" {
		fields["first_name"] = msg
	}
	if in.LastName != "" {
		if msg := utils.ValidateName(in.LastName); msg != "" {
			fields["last_name"] = msg
		}
	}
	if msg := utils.ValidateEmail(in.Email); msg != "" {
		fields["email"] = msg
	}
	phone, phoneMsg := utils.ValidatePhone(in.Phone)
	if phoneMsg != "" {
		fields["phone"] = phoneMsg
	}
	if msgs := utils.PasswordErrors(in.Password); len(msgs) > 0 {
		fields["password"] = strings.Join(msgs, " ")
	}
	if len(fields) > 0 {
		return "", &ValidationError{Fields: fields}
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	passwordHash, err := utils.HashPassword(in.Password)
	if err != nil {
		return "", err
	}

	code, err := otp.Generate()
	if err != nil {
		return "", err
	}

	flowToken, err := generateFlowToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	user := models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		IsActive:     false,
		OTP:          &code,
		OTPCreatedAt: &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.Where("email = ?", email).First(&existing).Error; err == nil {
			return NewValidationError("email", "An account with this email already exists.")
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := tx.Where("phone = ?", phone).First(&existing).Error; err == nil {
			return NewValidationError("phone", "An account with this phone number already exists.")
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		pending := models.PendingVerification{
			Token:     flowToken,
			UserID:    user.ID,
			Purpose:   models.PurposeSignup,
			ExpiresAt: now.Add(pendingFlowTTL),
		}
		return tx.Create(&pending).Error
	})
	if err != nil {
		return "", err
	}

	utils.OTPIssuedTotal.Inc()
	dispatchEmail(s.sender, email, "Sit Well – Your One-Time Password",
		otpEmailBody(code))

	s.logger.Info("signup started", zap.String("email", email))
	return flowToken, nil
}

// VerifySignup activates the account when the submitted code matches the
// outstanding one inside its 2-minute window. The code is single-use:
// both OTP fields are cleared on success.
func (s *AuthService) VerifySignup(ctx context.Context, flowToken, code string, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, user, err := loadFlow(tx, flowToken, models.PurposeSignup, now)
		if err != nil {
			return err
		}

		if err := otp.Validate(user.OTP, user.OTPCreatedAt, code, now); err != nil {
			utils.OTPFailedTotal.WithLabelValues(otpFailReason(err)).Inc()
			return err
		}

		user.IsActive = true
		user.OTP = nil
		user.OTPCreatedAt = nil
		if err := tx.Save(user).Error; err != nil {
			return err
		}

		pending.UsedAt = &now
		return tx.Save(pending).Error
	})
}

// ResendOTP overwrites the outstanding code for the flow and restarts
// its window. The previous code becomes permanently invalid even if its
// own window had not closed; valid codes never stack.
func (s *AuthService) ResendOTP(ctx context.Context, flowToken string, now time.Time) error {
	code, err := otp.Generate()
	if err != nil {
		return err
	}

	var email string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending models.PendingVerification
		if err := tx.Where("token = ?", flowToken).First(&pending).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if pending.UsedAt != nil {
			return ErrNotFound
		}

		var user models.User
		if err := tx.First(&user, "id = ?", pending.UserID).Error; err != nil {
			return err
		}

		switch pending.Purpose {
		case models.PurposeEmailChange:
			if user.NewEmail == nil {
				return ErrNotFound
			}
			user.NewEmailOTP = &code
			user.NewEmailCreatedAt = &now
			email = *user.NewEmail
		default:
			user.OTP = &code
			user.OTPCreatedAt = &now
			email = user.Email
		}

		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		pending.ExpiresAt = now.Add(pendingFlowTTL)
		return tx.Save(&pending).Error
	})
	if err != nil {
		return err
	}

	utils.OTPIssuedTotal.Inc()
	dispatchEmail(s.sender, email, "Sit Well – Your One-Time Password", otpEmailBody(code))
	return nil
}

// Login authenticates by email and password. Wrong credentials, an
// unverified account, and a blocked account each get their own message,
// but the credentials message never says whether the email exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, ErrAccountBlocked
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return &user, nil
}

// RequestPasswordReset issues a reset OTP and opens a reset flow.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	code, err := otp.Generate()
	if err != nil {
		return "", err
	}
	flowToken, err := generateFlowToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
			First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if user.IsBlocked {
			return ErrAccountBlocked
		}

		user.OTP = &code
		user.OTPCreatedAt = &now
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		// Invalidate any reset flow already in flight for this user.
		if err := tx.Model(&models.PendingVerification{}).
			Where("user_id = ? AND purpose = ? AND used_at IS NULL", user.ID, models.PurposePasswordReset).
			Update("expires_at", now).Error; err != nil {
			return err
		}

		pending := models.PendingVerification{
			Token:     flowToken,
			UserID:    user.ID,
			Purpose:   models.PurposePasswordReset,
			ExpiresAt: now.Add(pendingFlowTTL),
		}
		return tx.Create(&pending).Error
	})
	if err != nil {
		return "", err
	}

	utils.OTPIssuedTotal.Inc()
	dispatchEmail(s.sender, user.Email, "Sit Well – Password Reset Code", otpEmailBody(code))
	return flowToken, nil
}

// VerifyResetOTP consumes the reset code and marks the flow verified.
// Setting the new password is a separate step scoped to the same flow
// token, so the verified state dies with the flow, not with the code.
func (s *AuthService) VerifyResetOTP(ctx context.Context, flowToken, code string, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, user, err := loadFlow(tx, flowToken, models.PurposePasswordReset, now)
		if err != nil {
			return err
		}

		if err := otp.Validate(user.OTP, user.OTPCreatedAt, code, now); err != nil {
			utils.OTPFailedTotal.WithLabelValues(otpFailReason(err)).Inc()
			return err
		}

		user.OTP = nil
		user.OTPCreatedAt = nil
		if err := tx.Save(user).Error; err != nil {
			return err
		}

		pending.Verified = true
		return tx.Save(pending).Error
	})
}

// SetNewPassword completes a verified reset flow and consumes it, so a
// stale verified flow cannot be replayed for a second reset.
func (s *AuthService) SetNewPassword(ctx context.Context, flowToken, newPassword string, now time.Time) error {
	if msgs := utils.PasswordErrors(newPassword); len(msgs) > 0 {
		return NewValidationError("password", strings.Join(msgs, " "))
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, user, err := loadFlow(tx, flowToken, models.PurposePasswordReset, now)
		if err != nil {
			return err
		}
		if !pending.Verified {
			return ErrPermission
		}

		user.PasswordHash = hash
		if err := tx.Save(user).Error; err != nil {
			return err
		}

		pending.UsedAt = &now
		return tx.Save(pending).Error
	})
}

// RequestEmailChange stages a new address and sends its verification
// code to that address, proving the requester controls it.
func (s *AuthService) RequestEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) (string, error) {
	if msg := utils.ValidateEmail(newEmail); msg != "" {
		return "", NewValidationError("email", msg)
	}
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))

	code, err := otp.Generate()
	if err != nil {
		return "", err
	}
	flowToken, err := generateFlowToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken models.User
		if err := tx.Where("email = ?", newEmail).First(&taken).Error; err == nil {
			return NewValidationError("email", "An account with this email already exists.")
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		user.NewEmail = &newEmail
		user.NewEmailOTP = &code
		user.NewEmailCreatedAt = &now
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		pending := models.PendingVerification{
			Token:     flowToken,
			UserID:    user.ID,
			Purpose:   models.PurposeEmailChange,
			ExpiresAt: now.Add(pendingFlowTTL),
		}
		return tx.Create(&pending).Error
	})
	if err != nil {
		return "", err
	}

	utils.OTPIssuedTotal.Inc()
	dispatchEmail(s.sender, newEmail, "Sit Well – Confirm Your New Email", otpEmailBody(code))
	return flowToken, nil
}

// VerifyEmailChange commits the staged address once its code checks out.
func (s *AuthService) VerifyEmailChange(ctx context.Context, userID uuid.UUID, flowToken, code string, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, user, err := loadFlow(tx, flowToken, models.PurposeEmailChange, now)
		if err != nil {
			return err
		}
		if user.ID != userID {
			return ErrPermission
		}
		if user.NewEmail == nil {
			return ErrNotFound
		}

		if err := otp.Validate(user.NewEmailOTP, user.NewEmailCreatedAt, code, now); err != nil {
			utils.OTPFailedTotal.WithLabelValues(otpFailReason(err)).Inc()
			return err
		}

		user.Email = *user.NewEmail
		user.NewEmail = nil
		user.NewEmailOTP = nil
		user.NewEmailCreatedAt = nil
		if err := tx.Save(user).Error; err != nil {
			return err
		}

		pending.UsedAt = &now
		return tx.Save(pending).Error
	})
}

// BlockUser blocks an account. The block takes effect on the victim's
// next request: the auth middleware reloads the user and rejects it.
func (s *AuthService) BlockUser(ctx context.Context, actor string, userID uuid.UUID) error {
	return s.setBlocked(ctx, actor, userID, true)
}

// UnblockUser lifts a block.
func (s *AuthService) UnblockUser(ctx context.Context, actor string, userID uuid.UUID) error {
	return s.setBlocked(ctx, actor, userID, false)
}

func (s *AuthService) setBlocked(ctx context.Context, actor string, userID uuid.UUID, blocked bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}

		if blocked {
			user.Block(actor, time.Now())
			s.logger.Info("user blocked",
				zap.String("user_id", userID.String()),
				zap.String("by", actor))
		} else {
			user.Unblock()
			s.logger.Info("user unblocked",
				zap.String("user_id", userID.String()),
				zap.String("by", actor))
		}

		return tx.Save(&user).Error
	})
}

// loadFlow fetches a usable pending verification row and its user.
func loadFlow(tx *gorm.DB, flowToken, purpose string, now time.Time) (*models.PendingVerification, *models.User, error) {
	var pending models.PendingVerification
	if err := tx.Where("token = ? AND purpose = ?", flowToken, purpose).
		First(&pending).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if !pending.Usable(now) {
		return nil, nil, otp.ErrExpired
	}

	var user models.User
	if err := tx.First(&user, "id = ?", pending.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	return &pending, &user, nil
}

func otpFailReason(err error) string {
	if err == otp.ErrExpired {
		return "expired"
	}
	return "mismatch"
}

func otpEmailBody(code string) string {
	return fmt.Sprintf("Hi,\nYour OTP is %s. It is valid for 2 minutes.\n\nRegards,\nSit Well", code)
}

func generateFlowToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
