package auth

import (
	"testing"

	domainerrors "memorylane/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_Hash(t *testing.T) {
	hasher := NewBcryptHasherWithCost(bcrypt.MinCost)

	strongPassword := "StrongPass123!"
	hash, err := hasher.Hash(strongPassword)
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, strongPassword, hash)

	assert.True(t, hasher.Check(strongPassword, hash))
}

func TestBcryptHasher_HashRejectsWeakPasswords(t *testing.T) {
	hasher := NewBcryptHasherWithCost(bcrypt.MinCost)

	weakPasswords := []string{
		"123",          // Too short
		"STRONGPW123!", // No lowercase
		"strongpw123!", // No uppercase
		"StrongPwABC!", // No numbers
		"StrongPw123",  // No special characters
		"MyPassword1!", // Forbidden word
	}

	for _, weakPassword := range weakPasswords {
		_, err := hasher.Hash(weakPassword)
		assert.Error(t, err, "Expected error for weak password: %s", weakPassword)
	}
}

func TestBcryptHasher_Check(t *testing.T) {
	hasher := NewBcryptHasherWithCost(bcrypt.MinCost)
	password := "StrongPass123!"

	hash, err := hasher.Hash(password)
	assert.NoError(t, err)

	assert.True(t, hasher.Check(password, hash))
	assert.False(t, hasher.Check("WrongPassword123!", hash))
	assert.False(t, hasher.Check("", hash))
	assert.False(t, hasher.Check(password, "invalid_hash"))
}

func TestBcryptHasher_ValidatePasswordStrength(t *testing.T) {
	hasher := NewBcryptHasher()

	validPasswords := []string{
		"StrongPass123!",
		"MySecure@Code1",
		"Complex#Secret9",
		"Valid$Phrase2024",
	}
	for _, password := range validPasswords {
		err := hasher.ValidatePasswordStrength(password)
		assert.NoError(t, err, "Expected no error for valid password: %s", password)
	}

	testCases := []struct {
		password    string
		expectedErr string
	}{
		{"123", "must be at least 8 characters long"},
		{"STRONGPW123!", "must contain at least one lowercase letter"},
		{"strongpw123!", "must contain at least one uppercase letter"},
		{"StrongPwABC!", "must contain at least one number"},
		{"StrongPw123", "must contain at least one special character"},
		{"MyPassword1!", "contains forbidden words"},
		{"MyAdmin123!", "contains forbidden words"},
	}
	for _, tc := range testCases {
		err := hasher.ValidatePasswordStrength(tc.password)
		assert.Error(t, err, "Expected error for password: %s", tc.password)
		assert.Contains(t, err.Error(), tc.expectedErr)
	}
}

func TestBcryptHasher_StrengthErrorsCarrySentinels(t *testing.T) {
	hasher := NewBcryptHasher()

	err := hasher.ValidatePasswordStrength("weak")
	assert.True(t, errors.Is(err, domainerrors.ErrPasswordStrength))

	err = hasher.ValidatePasswordStrength("MyPassword1!")
	assert.True(t, errors.Is(err, domainerrors.ErrPasswordForbiddenWords))
}

func TestBcryptHasher_WithCustomCost(t *testing.T) {
	customCost := 6 // Lower cost for faster testing
	hasher := NewBcryptHasherWithCost(customCost)

	password := "StrongPass123!"
	hash, err := hasher.Hash(password)
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)

	cost, err := bcrypt.Cost([]byte(hash))
	assert.NoError(t, err)
	assert.Equal(t, customCost, cost)

	assert.True(t, hasher.Check(password, hash))
}

func TestBcryptHasher_OutOfRangeCostFallsBack(t *testing.T) {
	hasher := NewBcryptHasherWithCost(99)

	hash, err := hasher.Hash("StrongPass123!")
	assert.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	assert.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
