package models

import (
	"time"

	"github.com/google/uuid"
)

// Verification purposes for multi-step OTP flows. Each in-flight flow is
// tracked by its own PendingVerification row so a signup code and a
// password-reset code for the same user can never be confused.
const (
	PurposeSignup        = "signup"
	PurposePasswordReset = "password_reset"
	PurposeEmailChange   = "email_change"
)

// User represents a customer or staff account.
//
// Accounts are created inactive and become active once the signup OTP is
// verified. The OTP and OTPCreatedAt columns are always both set or both
// null; every successful verification clears them.
type User struct {
	BaseModel
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	Phone        string `gorm:"uniqueIndex" json:"phone"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"is_active"`
	IsStaff      bool   `json:"is_staff"`

	IsBlocked bool       `json:"is_blocked"`
	BlockedAt *time.Time `json:"blocked_at,omitempty"`
	BlockedBy string     `json:"blocked_by,omitempty"`

	OTP          *string    `json:"-"`
	OTPCreatedAt *time.Time `json:"-"`

	// Email-change flow keeps its own code pair so a pending change never
	// interferes with a concurrent password reset.
	NewEmail          *string    `json:"-"`
	NewEmailOTP       *string    `json:"-"`
	NewEmailCreatedAt *time.Time `json:"-"`

	Addresses []UserAddress  `gorm:"constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	Wishlist  []WishlistItem `gorm:"constraint:OnDelete:CASCADE" json:"wishlist,omitempty"`
	Orders    []Order        `gorm:"constraint:OnDelete:CASCADE" json:"orders,omitempty"`
}

// FullName returns the display name used in notifications and audit rows.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Block marks the account blocked and records who did it.
func (u *User) Block(by string, now time.Time) {
	u.IsBlocked = true
	u.BlockedAt = &now
	if by == "" {
		by = "admin"
	}
	u.BlockedBy = by
}

// Unblock clears the block state and its metadata.
func (u *User) Unblock() {
	u.IsBlocked = false
	u.BlockedAt = nil
	u.BlockedBy = ""
}

// PendingVerification is a short-lived record identifying one in-flight
// OTP flow. The opaque token is handed to the client and presented on
// every step; the row is consumed (UsedAt set) exactly once.
type PendingVerification struct {
	BaseModel
	Token     string     `gorm:"uniqueIndex" json:"-"`
	UserID    uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Purpose   string     `gorm:"index" json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	Verified  bool       `json:"verified"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// Usable reports whether the flow can still make progress.
func (p *PendingVerification) Usable(now time.Time) bool {
	return p.UsedAt == nil && now.Before(p.ExpiresAt)
}
