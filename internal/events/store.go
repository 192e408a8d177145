package events

import (
	"context"

	"github.com/and161185/gamewallet/internal/model"
)

type EventSaver interface {
	SaveEvent(ctx context.Context, e model.Event) error
}

// StoreSink records every event in the events table.
type StoreSink struct {
	saver EventSaver
}

func NewStoreSink(saver EventSaver) *StoreSink {
	return &StoreSink{saver: saver}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Publish(ctx context.Context, e model.Event) error {
	return s.saver.SaveEvent(ctx, e)
}
