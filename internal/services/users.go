package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"user_portal/internal/models"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// EmployeeDetails carries the optional employee-only fields.
type EmployeeDetails struct {
	EmployeeID *int
	Salary     *decimal.Decimal
	Department *string
	Position   *string
}

func (d EmployeeDetails) empty() bool {
	return d.EmployeeID == nil && d.Salary == nil && d.Department == nil && d.Position == nil
}

// NewUser is the input for registration.
type NewUser struct {
	Firstname    string
	Lastname     string
	Gender       string
	Email        string
	Password     string
	Role         string
	Contacts     string
	DisplayPhoto string
	Locations    []NewLocation
	Employee     EmployeeDetails
}

// UserChanges is a partial update; nil fields are left untouched.
type UserChanges struct {
	Firstname    *string
	Lastname     *string
	Gender       *string
	Email        *string
	Password     *string
	Role         *string
	Contacts     *string
	DisplayPhoto *string
	ArrivalTime  *int
	Employee     EmployeeDetails
}

type UserService struct {
	db       *gorm.DB
	hashCost int
}

func NewUserService(db *gorm.DB, hashCost int) *UserService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &UserService{db: db, hashCost: hashCost}
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// newUserRecord checks the registration fields that need no lookup.
func newUserRecord(in NewUser) (models.User, error) {
	firstname, err := requireText("firstname", "First name", in.Firstname)
	if err != nil {
		return models.User{}, err
	}
	lastname, err := requireText("lastname", "Last name", in.Lastname)
	if err != nil {
		return models.User{}, err
	}
	role, err := validateRole(in.Role)
	if err != nil {
		return models.User{}, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return models.User{}, err
	}
	return models.User{
		Firstname:    firstname,
		Lastname:     lastname,
		Gender:       strings.TrimSpace(in.Gender),
		Role:         role,
		Contacts:     strings.TrimSpace(in.Contacts),
		DisplayPhoto: in.DisplayPhoto,
	}, nil
}

// CheckNewUser runs the registration checks without writing anything.
func (s *UserService) CheckNewUser(ctx context.Context, in NewUser) error {
	if _, err := newUserRecord(in); err != nil {
		return err
	}
	_, err := ValidateEmail(s.db.WithContext(ctx), in.Email, 0)
	return err
}

// Create validates and inserts a user together with its role extension,
// locations and the stats update, all in one transaction.
func (s *UserService) Create(ctx context.Context, in NewUser) (*models.User, error) {
	user, err := newUserRecord(in)
	if err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		email, err := ValidateEmail(tx, in.Email, 0)
		if err != nil {
			return err
		}
		user.Email = email

		if err := tx.Omit(clause.Associations).Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return emailTaken()
			}
			return err
		}
		for _, loc := range in.Locations {
			if _, err := createLocation(tx, user.ID, loc); err != nil {
				return err
			}
		}
		return afterUserInsert(tx, &user, in.Employee)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user created")
	return s.Get(ctx, user.ID)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Preload("Admin").
		Preload("Employee").
		Order("id").
		Find(&users).Error
	return users, err
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Admin").
		Preload("Employee").
		Preload("Locations", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&user, id).Error
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

// applyChanges validates changes and copies them onto user. The password is
// checked here but hashed by the caller.
func applyChanges(tx *gorm.DB, user *models.User, changes UserChanges) error {
	if changes.Firstname != nil {
		v, err := requireText("firstname", "First name", *changes.Firstname)
		if err != nil {
			return err
		}
		user.Firstname = v
	}
	if changes.Lastname != nil {
		v, err := requireText("lastname", "Last name", *changes.Lastname)
		if err != nil {
			return err
		}
		user.Lastname = v
	}
	if changes.Gender != nil {
		user.Gender = strings.TrimSpace(*changes.Gender)
	}
	if changes.Contacts != nil {
		user.Contacts = strings.TrimSpace(*changes.Contacts)
	}
	if changes.DisplayPhoto != nil {
		user.DisplayPhoto = *changes.DisplayPhoto
	}
	if changes.Email != nil {
		email, err := ValidateEmail(tx, *changes.Email, user.ID)
		if err != nil {
			return err
		}
		user.Email = email
	}
	if changes.Password != nil {
		if err := ValidatePassword(*changes.Password); err != nil {
			return err
		}
	}
	if changes.Role != nil {
		role, err := validateRole(*changes.Role)
		if err != nil {
			return err
		}
		user.Role = role
	}
	if changes.ArrivalTime != nil {
		arrival := *changes.ArrivalTime
		user.ArrivalTime = &arrival
	}
	return nil
}

// CheckChanges runs the field checks of Update without writing anything.
func (s *UserService) CheckChanges(ctx context.Context, id uint, changes UserChanges) error {
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return notFound(err, ErrUserNotFound)
	}
	return applyChanges(db, &user, changes)
}

// Update applies a partial change set. Validation, the user write, the stats
// adjustment and any arrival-time entry share one transaction.
func (s *UserService) Update(ctx context.Context, id uint, changes UserChanges) (*models.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		before := user

		if err := applyChanges(tx, &user, changes); err != nil {
			return err
		}
		if changes.Password != nil {
			hash, err := s.hashPassword(*changes.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}

		if err := beforeUserUpdate(tx, &before, &user, changes.Employee); err != nil {
			return err
		}
		if changes.ArrivalTime != nil {
			if err := logArrivalTime(tx, &user, *changes.ArrivalTime); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Save(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return emailTaken()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the user, its dependent rows and its stats contribution.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if err := beforeUserDelete(tx, &user); err != nil {
			return err
		}
		if err := tx.Delete(&user).Error; err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user deleted")
		return nil
	})
}

// Authenticate checks credentials and stamps last_login. Unknown email and
// wrong password both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(user).UpdateColumn("last_login", now).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, user.ID)
}

// ResetPassword sets a new password on the account holding email. Only admins
// may reset someone else's password; for anyone else a foreign address is
// forbidden whether or not it is registered.
func (s *UserService) ResetPassword(ctx context.Context, actor Actor, email, newPassword string) (*models.User, error) {
	if !actor.IsAdmin() {
		var self models.User
		if err := s.db.WithContext(ctx).Select("id", "email").First(&self, actor.ID).Error; err != nil {
			return nil, notFound(err, ErrUserNotFound)
		}
		if self.Email != strings.ToLower(strings.TrimSpace(email)) {
			return nil, ErrForbidden
		}
		return s.Update(ctx, self.ID, UserChanges{Password: &newPassword})
	}

	target, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, target.ID, UserChanges{Password: &newPassword})
}

// RoleOf returns the stored role of a user. found is false once the account
// is gone.
func (s *UserService) RoleOf(ctx context.Context, id uint) (role string, found bool, err error) {
	var user models.User
	err = s.db.WithContext(ctx).Select("id", "role").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return user.Role, true, nil
}

// RecordArrival sets the user's arrival time, which logs a TimeEntry.
func (s *UserService) RecordArrival(ctx context.Context, id uint, arrival int) (*models.User, error) {
	return s.Update(ctx, id, UserChanges{ArrivalTime: &arrival})
}

func (s *UserService) TimeEntries(ctx context.Context, userID uint) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

func (s *UserService) Stats(ctx context.Context) ([]models.UserStats, error) {
	var stats []models.UserStats
	err := s.db.WithContext(ctx).Order("role").Find(&stats).Error
	return stats, err
}

// EnsureAdmin creates the bootstrap admin account unless the email is already
// registered. An existing account without the admin role is reported with
// ErrAccountNotAdmin.
func (s *UserService) EnsureAdmin(ctx context.Context, in NewUser) (*models.User, error) {
	existing, err := s.GetByEmail(ctx, in.Email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			return existing, fmt.Errorf("%s: %w", existing.Email, ErrAccountNotAdmin)
		}
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	in.Role = models.RoleAdmin
	return s.Create(ctx, in)
}
