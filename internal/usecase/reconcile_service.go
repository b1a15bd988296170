package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mzawada/trainload/internal/domain/pending"
	"github.com/mzawada/trainload/internal/platform/delimited"
	"github.com/mzawada/trainload/internal/platform/logging"
)

// PendingSource names one sheet queried for rows with missing minutes.
type PendingSource struct {
	Sheet string
	Label string
}

// PendingView is one record joined with its workflow state.
type PendingView struct {
	Record  pending.Record
	ID      string
	Status  pending.Status
	Message string
}

// ReconcileService drives the missing-minutes workflow: it aggregates
// pending rows from every configured source, and dispatches updates and
// deletes to the write collaborator. Per-record status follows
// idle→saving→{success|error}; terminal states revert to idle after a
// display timeout without touching the pending set.
type ReconcileService struct {
	sources   []PendingSource
	fetcher   TableFetcher
	writer    RowWriter
	repo      pending.Repository
	logger    *logging.Logger
	pool      *ants.Pool
	statusTTL time.Duration

	mu       sync.Mutex
	statuses map[string]pending.Status
	messages map[string]string
}

func NewReconcileService(
	sources []PendingSource,
	fetcher TableFetcher,
	writer RowWriter,
	repo pending.Repository,
	statusTTL time.Duration,
	logger *logging.Logger,
) (*ReconcileService, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("at least one pending source is required")
	}
	if statusTTL <= 0 {
		statusTTL = 3 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(len(sources))
	if err != nil {
		return nil, fmt.Errorf("create fetch pool: %w", err)
	}

	return &ReconcileService{
		sources:   sources,
		fetcher:   fetcher,
		writer:    writer,
		repo:      repo,
		logger:    logger,
		pool:      pool,
		statusTTL: statusTTL,
		statuses:  make(map[string]pending.Status),
		messages:  make(map[string]string),
	}, nil
}

// Close releases the fetch pool.
func (s *ReconcileService) Close() {
	s.pool.Release()
}

// Refresh queries every source concurrently and replaces the pending set
// with the union of results. A source that fails to read does not block
// the others; the refresh errors only when every source failed.
func (s *ReconcileService) Refresh(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "ReconcileService.Refresh")
	defer span.End()

	type sourceResult struct {
		records []pending.Record
		err     error
	}

	results := make([]sourceResult, len(s.sources))
	var wg sync.WaitGroup
	for i, src := range s.sources {
		i, src := i, src
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			records, err := s.fetchSource(ctx, src)
			results[i] = sourceResult{records: records, err: err}
		})
		if submitErr != nil {
			wg.Done()
			results[i] = sourceResult{err: fmt.Errorf("submit fetch task: %w", submitErr)}
		}
	}
	wg.Wait()

	records := make([]pending.Record, 0, 32)
	failures := 0
	var lastErr error
	for i, result := range results {
		if result.err != nil {
			failures++
			lastErr = result.err
			s.logger.WarnContext(ctx, "pending source fetch failed",
				"sheet", s.sources[i].Sheet, "error", result.err)
			continue
		}
		records = append(records, result.records...)
	}

	if failures == len(s.sources) {
		return fmt.Errorf("all pending sources failed: %w", lastErr)
	}

	if err := s.repo.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("replace pending set: %w", err)
	}
	s.pruneStatuses(records)

	s.logger.InfoContext(ctx, "pending set refreshed",
		"sources", len(s.sources), "failed_sources", failures, "records", len(records))
	return nil
}

// List returns the pending records with their current workflow state,
// ordered by source and sheet position.
func (s *ReconcileService) List(ctx context.Context) ([]PendingView, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending records: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Source != records[j].Source {
			return records[i].Source < records[j].Source
		}
		return records[i].RowIndex < records[j].RowIndex
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingView, 0, len(records))
	for _, record := range records {
		id := record.ID()
		status, ok := s.statuses[id]
		if !ok {
			status = pending.StatusIdle
		}
		out = append(out, PendingView{
			Record:  record,
			ID:      id,
			Status:  status,
			Message: s.messages[id],
		})
	}
	return out, nil
}

// SaveMinutes validates the entered value and dispatches one upsert for
// the record. Invalid input fails locally, the collaborator is never
// contacted. On collaborator success the record leaves the pending set;
// a declined write keeps it pending and returns ErrWriteRejected.
func (s *ReconcileService) SaveMinutes(ctx context.Context, id string, minutes float64) error {
	ctx, span := startUsecaseSpan(ctx, "ReconcileService.SaveMinutes")
	defer span.End()

	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		s.setStatus(id, pending.StatusError, "minutes must be a number greater than zero")
		return fmt.Errorf("%w: minutes must be a number greater than zero", ErrInvalidInput)
	}

	record, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get pending record: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: pending record %s", ErrNotFound, id)
	}

	s.setStatus(id, pending.StatusSaving, "")
	result, err := s.writer.Submit(ctx, WriteCommand{
		Action:       WriteActionUpdate,
		Name:         record.AthleteName,
		TrainingDate: record.TrainingDate,
		Timestamp:    record.Timestamp,
		Minutes:      minutes,
		Sheet:        record.Source,
	})
	return s.finishWrite(ctx, id, result, err)
}

// Delete removes the row at the collaborator. The confirmation flag is
// required: deletes are never dispatched implicitly.
func (s *ReconcileService) Delete(ctx context.Context, id string, confirmed bool) error {
	ctx, span := startUsecaseSpan(ctx, "ReconcileService.Delete")
	defer span.End()

	if !confirmed {
		return fmt.Errorf("%w: delete requires confirmation", ErrInvalidInput)
	}

	record, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get pending record: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: pending record %s", ErrNotFound, id)
	}

	s.setStatus(id, pending.StatusSaving, "")
	result, err := s.writer.Submit(ctx, WriteCommand{
		Action:       WriteActionDelete,
		Name:         record.AthleteName,
		TrainingDate: record.TrainingDate,
		Timestamp:    record.Timestamp,
		Sheet:        record.Source,
	})
	return s.finishWrite(ctx, id, result, err)
}

func (s *ReconcileService) finishWrite(ctx context.Context, id string, result WriteResult, err error) error {
	if err != nil {
		s.setStatus(id, pending.StatusError, "write collaborator unreachable")
		return fmt.Errorf("submit write command: %w", err)
	}
	if !result.OK {
		message := result.Message
		if message == "" {
			message = "write collaborator rejected the change"
		}
		s.setStatus(id, pending.StatusError, message)
		return fmt.Errorf("%w: %s", ErrWriteRejected, message)
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove pending record: %w", err)
	}
	s.setStatus(id, pending.StatusSuccess, result.Message)
	return nil
}

func (s *ReconcileService) fetchSource(ctx context.Context, src PendingSource) ([]pending.Record, error) {
	text, err := s.fetcher.FetchTable(ctx, TableRef{Sheet: src.Sheet})
	if err != nil {
		return nil, fmt.Errorf("fetch sheet %s: %w", src.Sheet, err)
	}

	rows := delimited.SplitRows(text)
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no data rows", src.Sheet)
	}

	records := make([]pending.Record, 0, 8)
	for i, row := range rows[1:] {
		// Row index counts from the top of the sheet, header included.
		record, ok := pending.FromRow(src.Sheet, src.Label, i+2, delimited.ParseLine(row))
		if !ok {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// setStatus transitions one record's display state. Terminal states are
// reverted to idle after the TTL; the revert is cosmetic and never touches
// the pending set.
func (s *ReconcileService) setStatus(id string, status pending.Status, message string) {
	s.mu.Lock()
	s.statuses[id] = status
	if message == "" {
		delete(s.messages, id)
	} else {
		s.messages[id] = message
	}
	s.mu.Unlock()

	if status != pending.StatusSuccess && status != pending.StatusError {
		return
	}
	time.AfterFunc(s.statusTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.statuses[id] == status {
			s.statuses[id] = pending.StatusIdle
			delete(s.messages, id)
		}
	})
}

// pruneStatuses drops workflow state for records no longer pending.
func (s *ReconcileService) pruneStatuses(records []pending.Record) {
	keep := make(map[string]struct{}, len(records))
	for _, record := range records {
		keep[record.ID()] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.statuses {
		if _, ok := keep[id]; !ok {
			delete(s.statuses, id)
			delete(s.messages, id)
		}
	}
}
