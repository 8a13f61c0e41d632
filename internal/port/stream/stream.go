// Package stream defines the port for pushing progress events to one
// connected client.
package stream

import (
	"context"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain/event"
)

// Transport delivers events to a single client connection, in emission
// order. Delivery is best-effort: a send failure detaches the transport
// but must not affect the pipeline that produced the event.
type Transport interface {
	Send(ctx context.Context, e event.Event) error
}
