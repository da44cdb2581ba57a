package noop

import (
	"context"

	"github.com/ManboyFxx/odelivery/internal/domain"
)

// Gateway is a no-op messaging gateway used when Kafka is not configured.
type Gateway struct{}

func (Gateway) Send(_ context.Context, _ *domain.Order, _ string) error { return nil }
