package notification

import (
	"context"
	"errors"
)

// MultiSink delivers to every sink in order. A failing sink does not stop
// the others.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
