package domain

import "time"

type UserActivity struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     *uint64   `json:"userId,omitempty" gorm:"index"`
	Method     string    `json:"method" gorm:"size:10"`
	Path       string    `json:"path" gorm:"size:255"`
	StatusCode int       `json:"statusCode"`
	OccurredAt time.Time `json:"occurredAt" gorm:"index"`
}

func (UserActivity) TableName() string { return "user_activities" }
