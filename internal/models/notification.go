package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventType string

const (
	EventPromotionCreated      EventType = "promotion_created"
	EventInterestShown         EventType = "interest_shown"
	EventCollaborationApproved EventType = "collaboration_approved"
)

type Channel string

const (
	ChannelInApp  Channel = "in_app"
	ChannelEmail  Channel = "email"
	ChannelSocial Channel = "social"
)

// AllChannels is the fan-out set used when a recipient has no explicit preference.
var AllChannels = []Channel{ChannelInApp, ChannelEmail, ChannelSocial}

type DeliveryStatus string

const (
	DeliveryQueued          DeliveryStatus = "queued"
	DeliverySent            DeliveryStatus = "sent"
	DeliveryFailedRetryable DeliveryStatus = "failed_retryable"
	DeliveryFailedPermanent DeliveryStatus = "failed_permanent"
)

func (s DeliveryStatus) Terminal() bool {
	return s == DeliverySent || s == DeliveryFailedPermanent
}

// NotificationEvent is one domain trigger; it owns the delivery attempts
// derived from it.
type NotificationEvent struct {
	ID        string         `gorm:"type:uuid;primaryKey"`
	EventType EventType      `gorm:"type:varchar(50);not null;index"`
	Title     string         `gorm:"type:varchar(255)"`
	Message   string         `gorm:"type:text"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (NotificationEvent) TableName() string { return "notification_events" }

func (e *NotificationEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// DeliveryAttempt is one channel-specific try at reaching one recipient.
// Address carries the channel-specific destination (email address, social
// handle) captured at fan-out time; in-app attempts address by RecipientID.
type DeliveryAttempt struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	EventID     string         `gorm:"type:uuid;not null;index"`
	RecipientID uint           `gorm:"not null;index"`
	Channel     Channel        `gorm:"type:varchar(20);not null"`
	Address     string         `gorm:"type:varchar(255)"`
	Status      DeliveryStatus `gorm:"type:varchar(20);not null;default:'queued';index"`
	Attempts    int            `gorm:"not null;default:0"`
	MaxAttempts int            `gorm:"not null;default:5"`
	LastError   string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (DeliveryAttempt) TableName() string { return "delivery_attempts" }

// NotificationPreference overrides the default-enabled channel set for one
// (user, event type) pair. Absence of a row means every channel is enabled.
type NotificationPreference struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_pref_user_event"`
	EventType     EventType `gorm:"type:varchar(50);not null;uniqueIndex:idx_pref_user_event"`
	InAppEnabled  bool      `gorm:"not null;default:true"`
	EmailEnabled  bool      `gorm:"not null;default:true"`
	SocialEnabled bool      `gorm:"not null;default:true"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (NotificationPreference) TableName() string { return "notification_preferences" }

// Enabled reports whether the given channel is on for this preference row.
func (p *NotificationPreference) Enabled(ch Channel) bool {
	switch ch {
	case ChannelInApp:
		return p.InAppEnabled
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelSocial:
		return p.SocialEnabled
	}
	return false
}

// InboxNotification is the stored in-app copy; it survives whether or not
// the recipient held an open realtime connection at delivery time.
type InboxNotification struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	UserID    uint           `gorm:"not null;index"`
	EventID   string         `gorm:"type:uuid;not null"`
	EventType EventType      `gorm:"type:varchar(50);not null"`
	Title     string         `gorm:"type:varchar(255)"`
	Message   string         `gorm:"type:text"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (InboxNotification) TableName() string { return "inbox_notifications" }
