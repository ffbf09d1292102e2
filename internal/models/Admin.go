package models

// Admin extends a User whose role is admin. ID is the user's ID.
type Admin struct {
	ID          uint `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ArrivalTime *int `gorm:"column:arrivaltime" json:"arrivaltime"`
}
