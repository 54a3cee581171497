package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is a resolved upload. Messages sent with blobs carry an empty
// attachment list until the async upload pipeline fills it in.
type Attachment struct {
	URL       string `json:"url"`
	FileName  string `json:"file_name"`
	StorageID string `json:"storage_id"`
}

// Reaction is an emoji reaction by one user. Uniqueness is not enforced;
// concurrent reacts are last-write racing.
type Reaction struct {
	Emoji  string    `json:"emoji"`
	UserID uuid.UUID `json:"user_id"`
}

type Message struct {
	ID              uuid.UUID    `json:"id"`
	ChatID          uuid.UUID    `json:"chat_id"`
	SenderID        uuid.UUID    `json:"sender_id"`
	Content         *string      `json:"content,omitempty"`
	Attachments     []Attachment `json:"attachments"`
	Reactions       []Reaction   `json:"reactions"`
	ReplyTo         *uuid.UUID   `json:"reply_to,omitempty"`
	DeletedBy       []uuid.UUID  `json:"deleted_by,omitempty"`
	IsDeletedForAll bool         `json:"is_deleted_for_all"`
	MentionedIDs    []uuid.UUID  `json:"mentioned_ids,omitempty"`
	// IsAttachment marks a message whose blobs were supplied at send time,
	// set before the uploads have resolved.
	IsAttachment bool      `json:"is_attachment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	// Joined fields
	Sender *Profile `json:"sender,omitempty"`
}

// VisibleTo reports whether viewer should still see the message.
// A for-everyone deletion wins over the per-viewer list.
func (m *Message) VisibleTo(viewer uuid.UUID) bool {
	if m.IsDeletedForAll {
		return false
	}
	for _, id := range m.DeletedBy {
		if id == viewer {
			return false
		}
	}
	return true
}

// Mentions reports whether the message mentions the given user.
func (m *Message) Mentions(id uuid.UUID) bool {
	for _, u := range m.MentionedIDs {
		if u == id {
			return true
		}
	}
	return false
}

// ReactedBy reports whether the given user appears as a reactor.
func (m *Message) ReactedBy(id uuid.UUID) bool {
	for _, r := range m.Reactions {
		if r.UserID == id {
			return true
		}
	}
	return false
}
