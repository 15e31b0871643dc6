package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Chat is an undirected two-party channel. UserLow/UserHigh hold the
// participants in lexical order so ux_chats_pair can enforce one chat per pair.
type Chat struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Participants pq.StringArray `gorm:"type:text[];not null" swaggertype:"array,string" json:"participants"`
	UserLow      uuid.UUID      `gorm:"type:uuid;not null" json:"-"`
	UserHigh     uuid.UUID      `gorm:"type:uuid;not null" json:"-"`
	ProjectID    *uuid.UUID     `gorm:"type:uuid" json:"project_id,omitempty"`
	ProjectTitle string         `gorm:"type:text;not null;default:''" json:"project_title"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// Chat <-> Message
	Messages []Message `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Chat) TableName() string { return "chats" }

// OrderedPair returns a and b sorted by their string form.
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() <= b.String() {
		return a, b
	}
	return b, a
}

// NewChat builds a chat between a and b with the pair columns filled in.
func NewChat(a, b uuid.UUID, projectID *uuid.UUID, projectTitle string) *Chat {
	low, high := OrderedPair(a, b)
	return &Chat{
		Participants: pq.StringArray{a.String(), b.String()},
		UserLow:      low,
		UserHigh:     high,
		ProjectID:    projectID,
		ProjectTitle: projectTitle,
	}
}

func (c *Chat) HasParticipant(id uuid.UUID) bool {
	return c.UserLow == id || c.UserHigh == id
}

// Other returns the participant that is not id.
func (c *Chat) Other(id uuid.UUID) uuid.UUID {
	if c.UserLow == id {
		return c.UserHigh
	}
	return c.UserLow
}

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ChatID    uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_chat_created,priority:1" json:"chat_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP;index:idx_messages_chat_created,priority:2" json:"created_at"`

	Chat *Chat `gorm:"foreignKey:ChatID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Message) TableName() string { return "messages" }
