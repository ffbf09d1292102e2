package services

import (
	"time"

	"gorm.io/gorm"

	"user_portal/internal/models"
)

// The functions below keep user_stats, the role extension tables and the
// time_entries audit log in step with writes to users. They must be called with
// the transaction that carries the user write.

func statsFor(tx *gorm.DB, role string) (*models.UserStats, error) {
	stats := models.UserStats{Role: role}
	if err := tx.Where(models.UserStats{Role: role}).FirstOrCreate(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func adjustTotalUsers(tx *gorm.DB, role string, delta int) error {
	stats, err := statsFor(tx, role)
	if err != nil {
		return err
	}
	return tx.Model(stats).UpdateColumn("total_users", gorm.Expr("total_users + ?", delta)).Error
}

func afterUserInsert(tx *gorm.DB, user *models.User, details EmployeeDetails) error {
	if err := adjustTotalUsers(tx, user.Role, 1); err != nil {
		return err
	}
	return createExtension(tx, user, details)
}

// beforeUserUpdate only touches the counters when the role changes; an update
// that keeps the role leaves total_users as it was.
func beforeUserUpdate(tx *gorm.DB, before, after *models.User, details EmployeeDetails) error {
	if before.Role == after.Role {
		if after.Role == models.RoleEmployee && !details.empty() {
			return saveEmployee(tx, after, details)
		}
		return nil
	}
	if err := adjustTotalUsers(tx, before.Role, -1); err != nil {
		return err
	}
	if err := adjustTotalUsers(tx, after.Role, 1); err != nil {
		return err
	}
	if err := deleteExtension(tx, before.ID); err != nil {
		return err
	}
	return createExtension(tx, after, details)
}

func beforeUserDelete(tx *gorm.DB, user *models.User) error {
	if err := adjustTotalUsers(tx, user.Role, -1); err != nil {
		return err
	}
	if err := deleteExtension(tx, user.ID); err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", user.ID).Delete(&models.TimeEntry{}).Error; err != nil {
		return err
	}
	if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.Post{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.Location{}).Error
}

// logArrivalTime appends an audit entry and mirrors the value onto the role
// extension row, if any.
func logArrivalTime(tx *gorm.DB, user *models.User, arrival int) error {
	entry := models.TimeEntry{
		UserID:      user.ID,
		ArrivalTime: arrival,
		Timestamp:   time.Now().UTC(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}
	switch user.Role {
	case models.RoleAdmin:
		return tx.Model(&models.Admin{}).Where("id = ?", user.ID).Update("arrivaltime", arrival).Error
	case models.RoleEmployee:
		return tx.Model(&models.Employee{}).Where("id = ?", user.ID).Update("arrivaltime", arrival).Error
	}
	return nil
}

func createExtension(tx *gorm.DB, user *models.User, details EmployeeDetails) error {
	switch user.Role {
	case models.RoleAdmin:
		return tx.Create(&models.Admin{ID: user.ID, ArrivalTime: user.ArrivalTime}).Error
	case models.RoleEmployee:
		return saveEmployee(tx, user, details)
	}
	return nil
}

func deleteExtension(tx *gorm.DB, userID uint) error {
	if err := tx.Where("id = ?", userID).Delete(&models.Admin{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", userID).Delete(&models.Employee{}).Error
}

// saveEmployee creates or updates the employee row for user.
func saveEmployee(tx *gorm.DB, user *models.User, details EmployeeDetails) error {
	employee := models.Employee{ID: user.ID, ArrivalTime: user.ArrivalTime}
	err := tx.Where("id = ?", user.ID).Take(&employee).Error
	exists := err == nil
	if err != nil && !isRecordNotFound(err) {
		return err
	}

	if details.EmployeeID != nil {
		var count int64
		if err := tx.Model(&models.Employee{}).
			Where("employee_id = ? AND id <> ?", *details.EmployeeID, user.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return invalid("employee_id", "Employee ID is already assigned")
		}
		employee.EmployeeID = details.EmployeeID
	}
	if details.Salary != nil {
		if details.Salary.IsNegative() {
			return invalid("salary", "Salary must not be negative")
		}
		employee.Salary = *details.Salary
	}
	if details.Department != nil {
		employee.Department = *details.Department
	}
	if details.Position != nil {
		employee.Position = *details.Position
	}

	if exists {
		return tx.Save(&employee).Error
	}
	return tx.Create(&employee).Error
}
