package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Conversation struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	ClientID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair,priority:1"`
	WorkerID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair,priority:2"`
	LastMessage   string    `gorm:"type:text"`
	LastMessageAt *time.Time `gorm:"index"`

	CreatedAt time.Time

	Client User `gorm:"foreignKey:ClientID"`
	Worker User `gorm:"foreignKey:WorkerID"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID uuid.UUID) uuid.UUID {
	if c.ClientID == userID {
		return c.WorkerID
	}
	return c.ClientID
}

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	Content        string    `gorm:"type:text;not null"`
	IsRead         bool      `gorm:"default:false"`
	CreatedAt      time.Time `gorm:"index"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
