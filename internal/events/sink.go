package events

import (
	"context"
	"errors"

	"github.com/and161185/gamewallet/internal/metrics"
	"github.com/and161185/gamewallet/internal/model"
	"go.uber.org/zap"
)

// Sink delivers an event to one destination.
type Sink interface {
	Name() string
	Publish(ctx context.Context, e model.Event) error
}

// Multi delivers every event to all sinks in order. One failing sink does not stop
// delivery to the others.
type Multi struct {
	sinks   []Sink
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

func NewMulti(logger *zap.SugaredLogger, m *metrics.Metrics, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, logger: logger, metrics: m}
}

func (m *Multi) Emit(ctx context.Context, e model.Event) error {
	var errList []error
	for _, s := range m.sinks {
		err := s.Publish(ctx, e)
		m.metrics.ObserveEvent(s.Name(), err)
		if err != nil {
			m.logger.Errorw("publish event", "sink", s.Name(), "event_type", e.Type, "event_id", e.ID, "error", err)
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
