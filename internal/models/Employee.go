package models

import "github.com/shopspring/decimal"

// Employee extends a User whose role is employee. ID is the user's ID.
type Employee struct {
	ID          uint            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	EmployeeID  *int            `gorm:"uniqueIndex" json:"employee_id"`
	Salary      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"salary"`
	Department  string          `gorm:"size:100" json:"department"`
	Position    string          `gorm:"size:100" json:"position"`
	ArrivalTime *int            `gorm:"column:arrivaltime" json:"arrivaltime"`
}
