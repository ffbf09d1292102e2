package models

import "time"

// TimeEntry records one arrival time logged for a user.
type TimeEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ArrivalTime int       `gorm:"column:arrivaltime;not null" json:"arrivaltime"`
	Timestamp   time.Time `gorm:"not null" json:"timestamp"`
}
