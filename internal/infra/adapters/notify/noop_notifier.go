package notify

import (
	"context"

	"github.com/rs/zerolog"

	"crm-call-insights/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs instead of sending, for local runs without a sink.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (n *NoopNotifier) Notify(ctx context.Context, text string) error {
	n.log.Info().Str("text", text).Msg("notification (noop)")
	return nil
}
