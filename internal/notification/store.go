package notification

import "context"

// Store persists notifications independently of the records that trigger
// them.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipientID string) ([]*Notification, error)
	MarkRead(ctx context.Context, id string) error
}
