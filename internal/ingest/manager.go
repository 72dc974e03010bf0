package ingest

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"doculens/internal/contextutil"
)

// defaultAcquireTimeout bounds how long a trigger waits for the gate before
// giving up. Turning "busy" into an observable skip instead of a hang.
const defaultAcquireTimeout = time.Second

// Manager is the single-flight coordinator for ingestion runs: at most one
// run is active system-wide. A trigger that arrives while a run is active
// is dropped (logged, not queued, not errored back to the caller).
type Manager struct {
	ingestor       *Ingestor
	newSource      func(dir string) Source
	gate           chan struct{}
	acquireTimeout time.Duration
	inProgress     atomic.Bool
	logger         *slog.Logger
}

// NewManager creates a manager. newSource constructs the document source
// for a trigger's target directory; injecting it keeps the manager testable
// without a filesystem full of real documents.
func NewManager(ingestor *Ingestor, newSource func(dir string) Source) *Manager {
	return &Manager{
		ingestor:       ingestor,
		newSource:      newSource,
		gate:           make(chan struct{}, 1),
		acquireTimeout: defaultAcquireTimeout,
		logger:         slog.Default(),
	}
}

// InProgress reports whether an ingestion run is currently active.
func (m *Manager) InProgress() bool {
	return m.inProgress.Load()
}

// TriggerIngestion runs one ingestion pass over dir. It returns nil without
// doing anything when the path is blank, when the directory does not exist,
// or when another run is already in flight. Errors from the run itself are
// logged and returned; callers on fire-and-forget paths are expected to
// catch and log them.
func (m *Manager) TriggerIngestion(ctx context.Context, dir string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(dir) == "" {
		logger.WarnContext(ctx, "document path is empty, skipping ingestion")
		return nil
	}

	select {
	case m.gate <- struct{}{}:
	case <-time.After(m.acquireTimeout):
		logger.InfoContext(ctx, "ingestion already in progress, skipping new request")
		return nil
	}
	m.inProgress.Store(true)
	defer func() {
		m.inProgress.Store(false)
		<-m.gate
	}()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.WarnContext(ctx, "document path does not exist", "path", dir)
		return nil
	}

	logger.InfoContext(ctx, "starting data ingestion", "path", dir)
	if err := m.ingestor.Sync(ctx, m.newSource(dir)); err != nil {
		logger.ErrorContext(ctx, "error during data ingestion", "path", dir, "error", err)
		return err
	}
	logger.InfoContext(ctx, "data ingestion completed successfully", "path", dir)
	return nil
}
