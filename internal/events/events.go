package events

import (
	"context"
)

// ListingSaved is published after a listing snapshot is persisted.
type ListingSaved struct {
	ListingID   string
	PropertyKey string
	City        string
	Source      string
}

type Publisher interface {
	PublishListingSaved(ctx context.Context, evt ListingSaved)
	SubscribeListingSaved() <-chan ListingSaved
	Close()
}

type inMemory struct{ ch chan ListingSaved }

// NewInMemory returns a buffered publisher with a single subscriber stream.
// Publishing never blocks; events are dropped when the buffer is full.
func NewInMemory(buffer int) Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &inMemory{ch: make(chan ListingSaved, buffer)}
}

func (m *inMemory) PublishListingSaved(_ context.Context, evt ListingSaved) {
	select {
	case m.ch <- evt:
	default:
	}
}

func (m *inMemory) SubscribeListingSaved() <-chan ListingSaved { return m.ch }

// Close ends the subscription stream. Publishing after Close panics.
func (m *inMemory) Close() { close(m.ch) }
