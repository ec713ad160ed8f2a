package workflow

import (
	"context"
	"errors"
	"time"

	"scribe/internal/logging"
	"scribe/internal/queue"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.statusOrder) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.runLoop(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runLoop(ctx context.Context) {
	defer m.wg.Done()
	logger := m.logger

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStaleJobs(ctx, logger); err != nil {
			logger.Warn("reclaim stale processing failed; stuck jobs may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}

		job, err := m.nextJob(ctx)
		if err != nil {
			m.handleNextJobError(ctx, err)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		if err := m.processJob(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) nextJob(ctx context.Context) (*queue.Job, error) {
	m.mu.RLock()
	statuses := m.statusOrder
	m.mu.RUnlock()
	return m.store.NextForStatuses(ctx, statuses...)
}

func (m *Manager) handleNextJobError(ctx context.Context, err error) {
	m.setLastError(err)
	m.logger.Error("failed to fetch next queue job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.pollInterval):
	}
}
