package domain

import "time"

// ResetToken is the single password-reset slot per user. TokenHash holds the
// bcrypt of the 6-digit OTP; VerificationToken is set only after a successful
// OTP check and is the capability required to change the password. A new reset
// request overwrites the row, invalidating any in-flight cycle.
type ResetToken struct {
	ID                int64
	UserID            int64
	TokenHash         string
	VerificationToken *string
	ExpiresAt         time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Expired reports whether the reset cycle is past its deadline at the given time.
func (t *ResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
