package models

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleUser     = "user"
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

var ErrInvalidRole = errors.New("invalid role")

// User is the identity record. Admin and Employee rows share its primary key.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Firstname    string     `gorm:"size:150;not null" json:"firstname"`
	Lastname     string     `gorm:"size:150;not null" json:"lastname"`
	Gender       string     `gorm:"size:20" json:"gender"`
	Email        string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password;size:255;not null" json:"-"`
	Role         string     `gorm:"size:20;not null;default:user;index" json:"role"` // "user", "employee", "admin"
	Contacts     string     `gorm:"size:150" json:"contacts"`
	DisplayPhoto string     `gorm:"size:200" json:"display_photo"`
	ArrivalTime  *int       `gorm:"column:arrivaltime" json:"arrivaltime"`
	LastLogin    *time.Time `json:"last_login"`

	// Role-specific extensions
	Admin    *Admin    `gorm:"foreignKey:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"admin,omitempty"`
	Employee *Employee `gorm:"foreignKey:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"employee,omitempty"`

	TimeEntries []TimeEntry `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Posts       []Post      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Locations   []Location  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"locations,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.Firstname + " " + u.Lastname)
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ParseRole normalises a role string. An empty input yields RoleUser.
func ParseRole(roleInput string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(roleInput))
	if role == "" {
		role = RoleUser
	}
	switch role {
	case RoleUser, RoleEmployee, RoleAdmin:
		return role, nil
	default:
		return "", ErrInvalidRole
	}
}
