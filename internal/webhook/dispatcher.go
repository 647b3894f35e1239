// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/olegiv/wpautoblog/internal/metrics"
	"github.com/olegiv/wpautoblog/internal/util"
)

// ErrQueueFull is returned by Dispatch when the delivery queue is saturated.
var ErrQueueFull = errors.New("webhook: delivery queue full")

// Dispatcher queues events and delivers them from a small worker pool.
type Dispatcher struct {
	cfg     Config
	client  *http.Client
	logger  *slog.Logger
	queue   chan *queuedDelivery
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

type queuedDelivery struct {
	event   *Event
	payload []byte
}

// Config holds dispatcher configuration.
type Config struct {
	URL            string
	Secret         string
	Workers        int // Number of concurrent delivery workers
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        3,
		QueueSize:      100,
		MaxAttempts:    MaxAttempts,
		InitialBackoff: InitialBackoff,
		MaxBackoff:     MaxBackoff,
		Timeout:        RequestTimeout,
	}
}

// NewDispatcher creates a new dispatcher. Zero config fields take defaults.
func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := cfg.HTTPClient
	if client == nil {
		// The endpoint is operator configured, so private addresses are allowed.
		client = util.NewHTTPClient(cfg.Timeout, true)
	}

	return &Dispatcher{
		cfg:    cfg,
		client: client,
		logger: logger,
		queue:  make(chan *queuedDelivery, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Enabled reports whether a notification endpoint is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.cfg.URL != ""
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting notification dispatcher", "workers", d.cfg.Workers)

	for i := range d.cfg.Workers {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the dispatcher and waits for in-flight deliveries to finish.
// Events still queued are dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()

	if dropped := len(d.queue); dropped > 0 {
		d.logger.Warn("notification dispatcher stopped with undelivered events", "dropped", dropped)
	} else {
		d.logger.Info("notification dispatcher stopped")
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("notification worker started", "worker_id", id)

	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case qd := <-d.queue:
			d.deliver(ctx, qd)
		}
	}
}

// Dispatch queues an event for delivery. It never blocks on the network.
func (d *Dispatcher) Dispatch(_ context.Context, event *Event) error {
	if !d.Enabled() {
		return nil
	}

	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()
	if !running {
		d.logger.Warn("dispatcher not running, dropping event", "event_type", event.Type)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", event.Type, err)
	}

	select {
	case d.queue <- &queuedDelivery{event: event, payload: payload}:
		d.logger.Debug("notification queued", "event_id", event.ID, "event_type", event.Type)
		return nil
	default:
		metrics.NotificationDeliveries.WithLabelValues("dropped").Inc()
		d.logger.Warn("notification queue full, dropping event",
			"event_id", event.ID,
			"event_type", event.Type)
		return ErrQueueFull
	}
}

// DispatchEvent is a convenience method to dispatch an event with the given type and data.
func (d *Dispatcher) DispatchEvent(ctx context.Context, eventType string, data any) error {
	return d.Dispatch(ctx, NewEvent(eventType, data))
}
