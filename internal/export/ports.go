package export

import (
	"context"

	"latte/internal/core"
)

// Sink receives a scope's annual report. scope is the farm name or ear
// tag the rows belong to.
type Sink interface {
	Export(ctx context.Context, scope string, rows []core.AnnualProduction) error
	Name() string
}
