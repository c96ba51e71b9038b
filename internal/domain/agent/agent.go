package agent

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound              = errors.New("agent not found")
	ErrBadOTP                = errors.New("invalid or expired OTP")
	ErrInsufficientInventory = errors.New("agent has no FASTags left")
)

// OTPValidity is how long an agent login OTP stays usable.
const OTPValidity = 10 * time.Minute

// Agent is a field operator who registers FASTags on behalf of end users.
// Wallet balance is held in paise.
type Agent struct {
	ID            int64      `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	MobileNumber  string     `json:"mobileNumber"`
	WalletBalance int64      `json:"walletBalance"`
	FastagsLeft   int        `json:"fastagsLeft"`
	OTPHash       *string    `json:"-"`
	OTPExpiresAt  *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (a *Agent) Name() string {
	return a.FirstName + " " + a.LastName
}

// SetOTP stores a bcrypt hash of the one-time password with its expiry.
func (a *Agent) SetOTP(otp string, now time.Time) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hash)
	exp := now.Add(OTPValidity)
	a.OTPHash = &h
	a.OTPExpiresAt = &exp
	return nil
}

// VerifyOTP checks the presented OTP against the stored hash and expiry.
func (a *Agent) VerifyOTP(otp string, now time.Time) bool {
	if a.OTPHash == nil || a.OTPExpiresAt == nil || now.After(*a.OTPExpiresAt) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*a.OTPHash), []byte(otp)) == nil
}

// ClearOTP drops the stored OTP after a successful verification.
func (a *Agent) ClearOTP() {
	a.OTPHash = nil
	a.OTPExpiresAt = nil
}
