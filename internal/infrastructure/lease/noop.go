package lease

import (
	"context"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

// Noop always grants the lease; used when Redis is not configured.
type Noop struct{}

var _ ports.Lease = Noop{}

func (Noop) Acquire(context.Context, domain.Kind) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
