package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DispatcherConfig controls dispatcher buffering behavior.
type DispatcherConfig struct {
	BufferSize  int
	DropIfFull  bool
	SendTimeout time.Duration
}

// Dispatcher asynchronously forwards messages to a Notifier.
type Dispatcher struct {
	cfg       DispatcherConfig
	notifier  Notifier
	ch        chan Message
	done      chan struct{}
	wg        sync.WaitGroup
	sent      atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts the delivery goroutine. A nil notifier discards
// messages.
func NewDispatcher(cfg DispatcherConfig, notifier Notifier) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if notifier == nil {
		notifier = NoOp{}
	}

	d := &Dispatcher{
		cfg:      cfg,
		notifier: notifier,
		ch:       make(chan Message, cfg.BufferSize),
		done:     make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.ch:
			d.deliver(msg)
		case <-d.done:
			for {
				select {
				case msg := <-d.ch:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := d.notifier.Send(ctx, msg); err != nil {
		d.failed.Add(1)
		log.Errorf("Failed to send %q to %v: %v", msg.Subject, msg.To, err)
		return
	}
	d.sent.Add(1)
}

// Dispatch queues msg for delivery and returns without waiting for it.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- msg:
		case <-d.done:
		default:
			d.dropped.Add(1)
			log.Warnf("Mail queue full, dropped %q to %v", msg.Subject, msg.To)
		}
		return
	}

	select {
	case d.ch <- msg:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.done:
	}
}

// Close stops accepting messages, drains the queue and waits for the
// delivery goroutine to exit.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Stats reports delivery counters.
func (d *Dispatcher) Stats() (sent, failed, dropped uint64) {
	if d == nil {
		return 0, 0, 0
	}
	return d.sent.Load(), d.failed.Load(), d.dropped.Load()
}
