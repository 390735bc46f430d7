package services

import (
	"errors"
	"fmt"
	"regexp"

	"fintrack/internal/config"

	"golang.org/x/crypto/bcrypt"
)

const MaxPasswordLength = 72 // Bcrypt algorithm limitation

var (
	ErrPasswordEmpty        = errors.New("password cannot be empty")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrPasswordTooLong      = fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	ErrPasswordNoUppercase  = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLowercase  = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoNumber     = errors.New("password must contain at least one number")
	ErrPasswordNoSpecial    = errors.New("password must contain at least one special character")
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
	ErrSamePassword         = errors.New("new password must be different from current password")

	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	numberRegex    = regexp.MustCompile(`[0-9]`)
	specialRegex   = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{}|;:,.<>?]`)
)

// PasswordPolicyError wraps the rule a password broke; errors.Is matches the rule's sentinel.
type PasswordPolicyError struct {
	Err error
	Min int
}

func (e *PasswordPolicyError) Error() string {
	if errors.Is(e.Err, ErrPasswordTooShort) {
		return fmt.Sprintf("password must be at least %d characters", e.Min)
	}
	return e.Err.Error()
}

func (e *PasswordPolicyError) Unwrap() error {
	return e.Err
}

// PasswordService hashes passwords with bcrypt and enforces the configured policy
type PasswordService struct {
	policy config.SecurityConfig
}

func NewPasswordService(policy config.SecurityConfig) PasswordServiceInterface {
	if policy.BCryptCost == 0 {
		policy.BCryptCost = bcrypt.DefaultCost
	}
	return &PasswordService{policy: policy}
}

// ValidatePassword checks a password against every enabled rule, in order.
func (ps *PasswordService) ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}

	if len(password) < ps.policy.PasswordMinLength {
		return ps.violation(ErrPasswordTooShort)
	}

	if len(password) > MaxPasswordLength {
		return ps.violation(ErrPasswordTooLong)
	}

	if ps.policy.RequireUppercase && !uppercaseRegex.MatchString(password) {
		return ps.violation(ErrPasswordNoUppercase)
	}

	if ps.policy.RequireLowercase && !lowercaseRegex.MatchString(password) {
		return ps.violation(ErrPasswordNoLowercase)
	}

	if ps.policy.RequireNumbers && !numberRegex.MatchString(password) {
		return ps.violation(ErrPasswordNoNumber)
	}

	if ps.policy.RequireSpecialChars && !specialRegex.MatchString(password) {
		return ps.violation(ErrPasswordNoSpecial)
	}

	return nil
}

func (ps *PasswordService) violation(err error) error {
	return &PasswordPolicyError{Err: err, Min: ps.policy.PasswordMinLength}
}

// HashPassword validates and hashes a password using bcrypt
func (ps *PasswordService) HashPassword(password string) (string, error) {
	if err := ps.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), ps.policy.BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// ComparePassword reports whether password matches the bcrypt hash.
func (ps *PasswordService) ComparePassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsPasswordPolicyError reports whether err came from ValidatePassword.
func IsPasswordPolicyError(err error) bool {
	var policyErr *PasswordPolicyError
	return errors.As(err, &policyErr) || errors.Is(err, ErrPasswordEmpty)
}
