package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationProvider is an external destination (any shoutrrr URL) for platform events.
type NotificationProvider struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"` // discord, slack, telegram, smtp, generic
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`

	// Notification Preferences
	NotifyStatus         bool `json:"notify_status" gorm:"default:true"`
	NotifyResponses      bool `json:"notify_responses" gorm:"default:true"`
	NotifyImplementation bool `json:"notify_implementation" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *NotificationProvider) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return
}
