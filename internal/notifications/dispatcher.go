package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/workshop-backend/pkg/logger"
)

const defaultSendTimeout = 10 * time.Second

// Dispatcher sends messages in the background. Delivery failures are logged
// and never reach the caller.
type Dispatcher struct {
	sink    Sink
	logg    *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sink Sink, logg *logger.Logger, timeout time.Duration) (*Dispatcher, error) {
	if sink == nil {
		return nil, fmt.Errorf("notification sink required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{sink: sink, logg: logg, timeout: timeout}, nil
}

// Notify queues message for delivery and returns immediately.
func (d *Dispatcher) Notify(ctx context.Context, message string) {
	if d == nil || message == "" {
		return
	}
	sendCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logg.Error(sendCtx, "notification sink panicked", fmt.Errorf("panic: %v", r))
			}
		}()

		ctx, cancel := context.WithTimeout(sendCtx, d.timeout)
		defer cancel()
		if err := d.sink.Send(ctx, message); err != nil {
			d.logg.Error(sendCtx, "notification delivery failed", err)
			return
		}
		d.logg.Debug(sendCtx, "notification delivered")
	}()
}

// Wait blocks until every queued notification finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
