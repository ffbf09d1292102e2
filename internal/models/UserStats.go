package models

// UserStats holds the aggregate counters for one role.
type UserStats struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Role        string `gorm:"size:20;not null;uniqueIndex" json:"role"`
	ActiveUsers int    `gorm:"not null;default:0" json:"active_users"`
	TotalUsers  int    `gorm:"not null;default:0" json:"total_users"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
