package kafka

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IndexCompleteEvent announces that a full index was written to Dir.
type IndexCompleteEvent struct {
	EventID     string    `json:"event_id"`
	Dir         string    `json:"dir"`
	Documents   int       `json:"documents"`
	Terms       int       `json:"terms"`
	Biwords     int       `json:"biwords"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewIndexCompleteEvent stamps a fresh event ID and the current time.
func NewIndexCompleteEvent(dir string, documents, terms, biwords int) IndexCompleteEvent {
	return IndexCompleteEvent{
		EventID:     uuid.NewString(),
		Dir:         dir,
		Documents:   documents,
		Terms:       terms,
		Biwords:     biwords,
		CompletedAt: time.Now().UTC(),
	}
}

// PublishIndexComplete publishes ev keyed by its directory so builds of the
// same index stay ordered.
func (p *Producer) PublishIndexComplete(ctx context.Context, ev IndexCompleteEvent) error {
	return p.Publish(ctx, ev.Dir, ev)
}

// IndexCompleteHandler adapts fn to a MessageHandler.
func IndexCompleteHandler(fn func(ctx context.Context, ev IndexCompleteEvent) error) MessageHandler {
	return func(ctx context.Context, _, value []byte) error {
		ev, err := DecodeJSON[IndexCompleteEvent](value)
		if err != nil {
			return err
		}
		return fn(ctx, ev)
	}
}
