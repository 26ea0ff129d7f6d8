package posters

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrJanitorClosed is returned when removals are scheduled after Shutdown.
var ErrJanitorClosed = errors.New("poster janitor closed")

// JanitorConfig controls the janitor's worker pool.
type JanitorConfig struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single removal.
	Timeout time.Duration
	// OnResult, when set, is called after every removal attempt.
	OnResult func(location string, err error)
}

// Janitor removes orphaned posters in the background: posters stored for a
// movie that was never created, replaced posters, and posters of deleted movies.
type Janitor struct {
	storage  Storage
	logger   *slog.Logger
	timeout  time.Duration
	onResult func(string, error)

	mu     sync.RWMutex
	closed bool
	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJanitor starts cfg.Workers goroutines removing posters from storage.
func NewJanitor(storage Storage, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	j := &Janitor{
		storage:  storage,
		logger:   logger,
		timeout:  cfg.Timeout,
		onResult: cfg.OnResult,
		jobs:     make(chan string, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Enqueue schedules location for removal. Empty locations are ignored.
func (j *Janitor) Enqueue(ctx context.Context, location string) error {
	if location == "" {
		return nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrJanitorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.jobs <- location:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued removals to finish. When
// ctx expires first, in-flight removals are cancelled.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.jobs)
	}
	j.mu.Unlock()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		j.cancel()
		<-done
		return ctx.Err()
	case <-done:
		j.cancel()
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()
	for location := range j.jobs {
		j.remove(location)
	}
}

func (j *Janitor) remove(location string) {
	if j.ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(j.ctx, j.timeout)
	defer cancel()

	err := j.storage.Remove(ctx, location)
	if err != nil {
		j.logger.Error("remove orphaned poster", "location", location, "error", err)
	} else {
		j.logger.Debug("removed orphaned poster", "location", location)
	}
	if j.onResult != nil {
		j.onResult(location, err)
	}
}
