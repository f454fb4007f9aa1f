package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Route is a named alert destination
type Route struct {
	Name   string
	Sender Sender
}

// MultiSender fans an alert out to every route at once
type MultiSender struct {
	routes []Route
}

// NewMultiSender creates a sender over the given routes
func NewMultiSender(routes ...Route) *MultiSender {
	return &MultiSender{routes: routes}
}

// Send delivers to all routes concurrently and joins their failures. A slow
// or failing destination never blocks the others.
func (s *MultiSender) Send(ctx context.Context, payload *AlertPayload) error {
	errs := make([]error, len(s.routes))

	var wg sync.WaitGroup
	for i, r := range s.routes {
		wg.Add(1)
		go func(i int, r Route) {
			defer wg.Done()
			if err := r.Sender.Send(ctx, payload); err != nil {
				errs[i] = fmt.Errorf("%s: %w", r.Name, err)
			}
		}(i, r)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("multi-sender: %w", err)
	}
	return nil
}

// Len returns the number of routes
func (s *MultiSender) Len() int {
	return len(s.routes)
}
