package webhookevent

import (
	"context"
)

type Repository interface {
	// MarkProcessed records the event id. It returns false without error
	// when the id was already recorded, which is how redelivered events
	// are detected: first writer wins.
	MarkProcessed(ctx context.Context, event *Event) (bool, error)
}
