// Package audit writes login history off the request path.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"authbase/config"
	deliverycontext "authbase/internal/delivery/context"
	"authbase/internal/domain/entity"
	"authbase/internal/domain/repository"
	"authbase/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// RecorderParams holds dependencies for the recorder, injected by Fx
type RecorderParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
	Repo   repository.LoginHistoryRepository
}

// Recorder queues login history entries and persists them with a fixed pool of workers.
// A full queue drops the entry; a failed write is logged and dropped.
type Recorder struct {
	repo         repository.LoginHistoryRepository
	logger       *slog.Logger
	workers      int
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan *entity.LoginHistoryEntry
	group  *errgroup.Group
}

// NewRecorder creates the recorder and binds its workers to the application lifecycle.
func NewRecorder(params RecorderParams) service.AuditLog {
	r := newRecorder(params.Repo, params.Logger, params.Config.Audit)

	params.Lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			r.Start()

			return nil
		},
		OnStop: r.Stop,
	})

	return r
}

func newRecorder(repo repository.LoginHistoryRepository, logger *slog.Logger, cfg config.AuditConfig) *Recorder {
	return &Recorder{
		repo:         repo,
		logger:       logger,
		workers:      max(cfg.Workers, 1),
		writeTimeout: cfg.WriteTimeout,
		queue:        make(chan *entity.LoginHistoryEntry, max(cfg.QueueSize, 1)),
	}
}

// Record enqueues entry without blocking.
func (r *Recorder) Record(ctx context.Context, entry *entity.LoginHistoryEntry) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, r.logger)
	logger.InfoContext(ctx, "Auth event",
		slog.String("action", entry.Action.String()),
		slog.String("user_id", entry.UserID.String()),
		slog.String("provider", string(entry.Provider)),
		slog.String("ip", entry.IP),
	)

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		logger.WarnContext(ctx, "Audit recorder stopped, dropping entry", slog.String("action", entry.Action.String()))

		return
	}

	select {
	case r.queue <- entry:
	default:
		logger.WarnContext(ctx, "Audit queue full, dropping entry", slog.String("action", entry.Action.String()))
	}
}

// Start launches the workers.
func (r *Recorder) Start() {
	r.group = new(errgroup.Group)
	for range r.workers {
		r.group.Go(r.work)
	}
}

func (r *Recorder) work() error {
	for entry := range r.queue {
		r.write(entry)
	}

	return nil
}

func (r *Recorder) write(entry *entity.LoginHistoryEntry) {
	ctx := context.Background()
	if r.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.writeTimeout)
		defer cancel()
	}

	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Warn("Failed to write login history",
			slog.String("action", entry.Action.String()),
			slog.String("user_id", entry.UserID.String()),
			slog.Any("error", err),
		)
	}
}

// Stop closes the queue and waits for the workers to flush it until ctx is done.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()

		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	if r.group == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- r.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "audit queue not flushed")
	}
}
