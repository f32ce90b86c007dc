package notification

import "context"

// Sender delivers a rendered message to one channel.
type Sender interface {
	SendText(ctx context.Context, text string) error
}
