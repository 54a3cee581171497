package domain

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	ID             uuid.UUID   `json:"id"`
	IsGroup        bool        `json:"is_group"`
	Name           *string     `json:"name,omitempty"`
	CoverImage     *string     `json:"cover_image,omitempty"`
	AdminID        *uuid.UUID  `json:"admin_id,omitempty"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	// Joined fields
	Participants []Profile `json:"participants,omitempty"`
	UnreadCount  int       `json:"unread_count"`
}

// HasParticipant reports whether id is a current member of the chat.
func (c *Chat) HasParticipant(id uuid.UUID) bool {
	for _, p := range c.ParticipantIDs {
		if p == id {
			return true
		}
	}
	return false
}
