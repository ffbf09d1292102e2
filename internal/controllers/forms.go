package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"user_portal/internal/models"
	"user_portal/internal/services"
	"user_portal/internal/storage"
)

func formValue(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok {
		return &v
	}
	return nil
}

func formString(c *gin.Context, key string) string {
	if v := formValue(c, key); v != nil {
		return *v
	}
	return ""
}

// namesFromForm reads firstname/lastname, falling back to a single "name"
// field split at its first space.
func namesFromForm(c *gin.Context) (first, last *string) {
	first, last = formValue(c, "firstname"), formValue(c, "lastname")
	if first != nil {
		return first, last
	}
	name := formValue(c, "name")
	if name == nil {
		return nil, last
	}
	parts := strings.SplitN(strings.TrimSpace(*name), " ", 2)
	f := parts[0]
	first = &f
	if last == nil && len(parts) == 2 {
		l := strings.TrimSpace(parts[1])
		last = &l
	}
	return first, last
}

func employeeFromForm(c *gin.Context) (services.EmployeeDetails, error) {
	var details services.EmployeeDetails
	if v := formValue(c, "employee_id"); v != nil && strings.TrimSpace(*v) != "" {
		id, err := strconv.Atoi(strings.TrimSpace(*v))
		if err != nil {
			return details, &services.ValidationError{Field: "employee_id", Message: "Employee ID must be a number"}
		}
		details.EmployeeID = &id
	}
	if v := formValue(c, "salary"); v != nil && strings.TrimSpace(*v) != "" {
		salary, err := decimal.NewFromString(strings.TrimSpace(*v))
		if err != nil {
			return details, &services.ValidationError{Field: "salary", Message: "Salary must be a decimal amount"}
		}
		details.Salary = &salary
	}
	details.Department = formValue(c, "department")
	details.Position = formValue(c, "position")
	return details, nil
}

// locationsFromForm decodes the "locations" field, a JSON array of location
// objects (a single object is accepted too).
func locationsFromForm(c *gin.Context) ([]services.NewLocation, error) {
	raw := strings.TrimSpace(formString(c, "locations"))
	if raw == "" {
		return nil, nil
	}
	var locations []services.NewLocation
	if strings.HasPrefix(raw, "{") {
		var single services.NewLocation
		if err := json.Unmarshal([]byte(raw), &single); err != nil {
			return nil, &services.ValidationError{Field: "locations", Message: "Locations must be valid JSON", Err: err}
		}
		return append(locations, single), nil
	}
	if err := json.Unmarshal([]byte(raw), &locations); err != nil {
		return nil, &services.ValidationError{Field: "locations", Message: "Locations must be valid JSON", Err: err}
	}
	return locations, nil
}

func arrivalFromForm(c *gin.Context) (*int, error) {
	v := formValue(c, "arrivaltime")
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	arrival, err := strconv.Atoi(strings.TrimSpace(*v))
	if err != nil {
		return nil, &services.ValidationError{Field: "arrivaltime", Message: "Arrival time must be a number"}
	}
	return &arrival, nil
}

// savePhoto stores an uploaded display_photo and returns its reference path,
// or nil when the request carries no photo.
func savePhoto(c *gin.Context, store storage.Store) (*string, error) {
	fileHeader, err := c.FormFile("display_photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fileHeader.Filename == "" {
		return nil, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	ref, err := store.Save(fileHeader.Filename, file)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// newUserFromForm reads a registration form. The photo is left to the caller.
func newUserFromForm(c *gin.Context) (services.NewUser, error) {
	var in services.NewUser
	first, last := namesFromForm(c)
	if first != nil {
		in.Firstname = *first
	}
	if last != nil {
		in.Lastname = *last
	}
	in.Gender = formString(c, "gender")
	in.Email = formString(c, "email")
	in.Password = formString(c, "password")
	in.Role = formString(c, "role")
	in.Contacts = formString(c, "contacts")

	locations, err := locationsFromForm(c)
	if err != nil {
		return in, err
	}
	in.Locations = locations

	employee, err := employeeFromForm(c)
	if err != nil {
		return in, err
	}
	in.Employee = employee
	return in, nil
}

// changesFromForm reads a profile update form. Role and employee fields are
// honoured only when privileged is set. The photo is left to the caller.
func changesFromForm(c *gin.Context, privileged bool) (services.UserChanges, error) {
	var changes services.UserChanges
	changes.Firstname, changes.Lastname = namesFromForm(c)
	changes.Gender = formValue(c, "gender")
	changes.Email = formValue(c, "email")
	changes.Contacts = formValue(c, "contacts")
	if pw := formValue(c, "password"); pw != nil && *pw != "" {
		changes.Password = pw
	}

	arrival, err := arrivalFromForm(c)
	if err != nil {
		return changes, err
	}
	changes.ArrivalTime = arrival

	if privileged {
		if role := formValue(c, "role"); role != nil && strings.TrimSpace(*role) != "" {
			changes.Role = role
		}
		employee, err := employeeFromForm(c)
		if err != nil {
			return changes, err
		}
		changes.Employee = employee
	}
	return changes, nil
}

// updateFromForm validates an update form against the stored user, then saves
// any photo and applies the change set.
func updateFromForm(c *gin.Context, users *services.UserService, store storage.Store, id uint, privileged bool) (*models.User, error) {
	changes, err := changesFromForm(c, privileged)
	if err != nil {
		return nil, err
	}
	if err := users.CheckChanges(c.Request.Context(), id, changes); err != nil {
		return nil, err
	}
	photo, err := savePhoto(c, store)
	if err != nil {
		return nil, err
	}
	changes.DisplayPhoto = photo
	return users.Update(c.Request.Context(), id, changes)
}
