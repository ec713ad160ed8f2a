package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/queue"
	"scribe/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Transcriber stage.Handler
	Segmenter   stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// loggerAware stages receive the job-scoped logger before execution.
type loggerAware interface {
	SetLogger(*slog.Logger)
}

// Manager coordinates queue processing using the registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	notifier     notifications.Service
	pollInterval time.Duration

	heartbeat *HeartbeatMonitor

	stages       []pipelineStage
	stageByStart map[queue.Status]pipelineStage
	statusOrder  []queue.Status

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
}

// NewManager constructs a workflow manager with the default ntfy-backed notifier.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier
// (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow-manager"),
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// ConfigureStages registers the pipeline stages in processing order.
func (m *Manager) ConfigureStages(set StageSet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stages = nil
	if set.Transcriber != nil {
		m.stages = append(m.stages, pipelineStage{
			name:             "transcribe",
			handler:          set.Transcriber,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		})
	}
	if set.Segmenter != nil {
		m.stages = append(m.stages, pipelineStage{
			name:             "segment",
			handler:          set.Segmenter,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusSegmenting,
			doneStatus:       queue.StatusCompleted,
		})
	}

	m.stageByStart = make(map[queue.Status]pipelineStage, len(m.stages))
	m.statusOrder = make([]queue.Status, 0, len(m.stages))
	for _, stg := range m.stages {
		m.stageByStart[stg.startStatus] = stg
		m.statusOrder = append(m.statusOrder, stg.startStatus)
	}
}

func (m *Manager) stageForStatus(status queue.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStart[status]
	return stg, ok
}
