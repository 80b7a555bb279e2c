package notification

import "time"

// Type tells the recipient what happened.
type Type string

const (
	TypeAppointment    Type = "APPOINTMENT"
	TypeLabResultReady Type = "LAB_RESULT_READY"
	TypeAffiliation    Type = "AFFILIATION"
)

// Priority orders notifications in the recipient's inbox.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Channel is where the notification is delivered. Only the in-app feed is
// wired today; the column exists so adding email/SMS later is a data change.
type Channel string

const ChannelInApp Channel = "IN_APP"

// Notification is one message for one recipient. Created strictly after the
// triggering record committed; never blocks or rolls back that record.
type Notification struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipient_id"`
	Type        Type           `json:"type"`
	Channel     Channel        `json:"channel"`
	Priority    Priority       `json:"priority"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	IsRead      bool           `json:"is_read"`
	ActionURL   string         `json:"action_url,omitempty"`
	ActionText  string         `json:"action_text,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
