package models

import "time"

// AuthRecord holds the persisted signed-in user under a well-known key.
type AuthRecord struct {
	Key       string    `gorm:"column:key;type:varchar(255);primaryKey"`
	Payload   string    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AuthRecord) TableName() string { return "auth_records" }
