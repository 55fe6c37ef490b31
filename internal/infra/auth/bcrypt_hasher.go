// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	domainerrors "memorylane/internal/domain/errors"
	"memorylane/internal/domain/service"
)

// defaultForbiddenWords are rejected as password substrings regardless of
// the rest of the password's strength.
var defaultForbiddenWords = []string{"password", "admin", "memorylane"}

// BcryptHasher implements the PasswordHasher interface using bcrypt, with
// strength validation applied before hashing.
type BcryptHasher struct {
	cost           int
	forbiddenWords []string
}

var _ service.PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a hasher with the bcrypt default cost.
func NewBcryptHasher() *BcryptHasher {
	return NewBcryptHasherWithCost(bcrypt.DefaultCost)
}

// NewBcryptHasherWithCost creates a hasher with an explicit cost factor.
// Lower costs are useful in tests.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &BcryptHasher{
		cost:           cost,
		forbiddenWords: defaultForbiddenWords,
	}
}

// Hash validates the password's strength and generates a salted bcrypt hash.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if err := h.ValidatePasswordStrength(password); err != nil {
		return "", err
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)

	return string(bytes), err
}

// Check compares a plaintext password with a bcrypt hash.
func (h *BcryptHasher) Check(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// ValidatePasswordStrength enforces the password policy: minimum length,
// mixed case, a number, a special character, and no forbidden words.
func (h *BcryptHasher) ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return domainerrors.ErrPasswordStrength.WrapMessage("must be at least 8 characters long")
	}
	if !h.hasLowercase(password) {
		return domainerrors.ErrPasswordStrength.WrapMessage("must contain at least one lowercase letter")
	}
	if !h.hasUppercase(password) {
		return domainerrors.ErrPasswordStrength.WrapMessage("must contain at least one uppercase letter")
	}
	if !h.hasNumbers(password) {
		return domainerrors.ErrPasswordStrength.WrapMessage("must contain at least one number")
	}
	if !h.hasSpecialChars(password) {
		return domainerrors.ErrPasswordStrength.WrapMessage("must contain at least one special character")
	}
	if h.containsForbiddenWords(password, h.forbiddenWords) {
		return domainerrors.ErrPasswordForbiddenWords.WrapMessage("contains forbidden words")
	}

	return nil
}

func (h *BcryptHasher) hasUppercase(s string) bool {
	return strings.ContainsFunc(s, unicode.IsUpper)
}

func (h *BcryptHasher) hasLowercase(s string) bool {
	return strings.ContainsFunc(s, unicode.IsLower)
}

func (h *BcryptHasher) hasNumbers(s string) bool {
	return strings.ContainsFunc(s, unicode.IsDigit)
}

func (h *BcryptHasher) hasSpecialChars(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func (h *BcryptHasher) containsForbiddenWords(password string, words []string) bool {
	lowered := strings.ToLower(password)
	for _, w := range words {
		if strings.Contains(lowered, w) {
			return true
		}
	}

	return false
}
