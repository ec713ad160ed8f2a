package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"scribe/internal/config"
	"scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/queue"
	"scribe/internal/workflow"
)

// audioFileExtensions lists the container formats accepted for manual
// ingestion. Chunking works on raw bytes, so anything the transcription
// service can decode is fair game.
var audioFileExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".mp4":  {},
	".wav":  {},
	".flac": {},
	".ogg":  {},
	".opus": {},
	".aac":  {},
	".webm": {},
}

// SupportedExtension reports whether the lowercased file extension is an
// accepted audio container.
func SupportedExtension(ext string) bool {
	_, ok := audioFileExtensions[strings.ToLower(ext)]
	return ok
}

// Daemon coordinates background processing and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	notifier notifications.Service
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "scribed.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		notifier: notifications.NewService(cfg),
		logPath:  filepath.Join(cfg.Paths.LogDir, "scribe.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start launches the workflow manager and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scribe daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.workflow.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("scribe daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("scribe daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// AddFile enqueues an audio file for transcription.
func (d *Daemon) AddFile(ctx context.Context, sourcePath, title string) (*queue.Job, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path %q is a directory", absPath)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("source file %q is empty", absPath)
	}
	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := audioFileExtensions[ext]; !ok {
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}

	langCode, err := language.Normalize(d.cfg.Transcription.Language)
	if err != nil {
		return nil, fmt.Errorf("resolve transcription language: %w", err)
	}
	job, err := d.store.NewJob(ctx, absPath, title, langCode)
	if err != nil {
		return nil, fmt.Errorf("enqueue audio file: %w", err)
	}
	d.logger.Info("audio file queued",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("source", absPath),
	)
	if d.notifier != nil {
		if err := d.notifier.NotifyJobQueued(ctx, job.DisplayTitle()); err != nil {
			d.logger.Warn("queue notification failed", logging.Error(err))
		}
	}
	return job, nil
}

// ListQueue returns queue jobs, optionally filtered by status.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Job, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	var jobs []*queue.Job
	for _, status := range statuses {
		matched, err := d.store.JobsByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, matched...)
	}
	return jobs, nil
}

// ClearQueue removes queue jobs, optionally restricted to the given statuses.
func (d *Daemon) ClearQueue(ctx context.Context, statuses ...queue.Status) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.Clear(ctx, statuses...)
}

// RetryJob resets a failed or review job back to pending.
func (d *Daemon) RetryJob(ctx context.Context, id int64) error {
	if d.store == nil {
		return errors.New("queue store unavailable")
	}
	return d.store.ResetJob(ctx, id)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	if d.store == nil {
		return queue.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.store.HealthSummary(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	if d.store == nil {
		return queue.DatabaseHealth{}, errors.New("queue store unavailable")
	}
	return d.store.Health(ctx), nil
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
