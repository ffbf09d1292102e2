package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"user_portal/internal/models"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	maxTitleLength   = 100
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks shape and uniqueness and returns the lower-cased
// address. selfID excludes the user being updated from the uniqueness check.
func ValidateEmail(tx *gorm.DB, email string, selfID uint) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalid("email", "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return "", invalid("email", "Invalid email format")
	}
	normalized := strings.ToLower(email)

	var count int64
	query := tx.Model(&models.User{}).Where("LOWER(email) = ?", normalized)
	if selfID != 0 {
		query = query.Where("id <> ?", selfID)
	}
	if err := query.Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", emailTaken()
	}
	return normalized, nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return invalid("password", "Password is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return invalid("password", "Password must be at least 6 characters long")
	}
	if len(password) > maxPasswordBytes {
		return invalid("password", "Password must be at most 72 bytes long")
	}
	return nil
}

func validateRole(role string) (string, error) {
	parsed, err := models.ParseRole(role)
	if err != nil {
		return "", invalid("role", "Role must be one of user, employee, admin")
	}
	return parsed, nil
}

func requireText(field, label, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid(field, label+" is required")
	}
	return value, nil
}
