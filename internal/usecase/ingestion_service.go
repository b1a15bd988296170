package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/mzawada/trainload/internal/domain/measurement"
	"github.com/mzawada/trainload/internal/domain/roster"
	"github.com/mzawada/trainload/internal/domain/session"
	"github.com/mzawada/trainload/internal/domain/snapshot"
	"github.com/mzawada/trainload/internal/platform/delimited"
	"github.com/mzawada/trainload/internal/platform/logging"
	"github.com/mzawada/trainload/internal/platform/resilience"
)

// IngestionRefs names the source tabs each dataset is fetched from.
type IngestionRefs struct {
	Sessions     TableRef
	Measurements TableRef
	Roster       TableRef
}

// IngestionService fetches, parses and atomically replaces the in-memory
// datasets. Concurrent triggers for the same dataset join one in-flight
// fetch through a single-flight guard, so a scheduled tick and a manual
// refresh never run two overlapping fetches against shared state.
type IngestionService struct {
	fetcher         TableFetcher
	sessionRepo     session.Repository
	measurementRepo measurement.Repository
	rosterRepo      roster.Repository
	snapshotRepo    snapshot.Repository
	refs            IngestionRefs
	logger          *logging.Logger
	flight          resilience.SingleFlight
}

func NewIngestionService(
	fetcher TableFetcher,
	sessionRepo session.Repository,
	measurementRepo measurement.Repository,
	rosterRepo roster.Repository,
	snapshotRepo snapshot.Repository,
	refs IngestionRefs,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestionService{
		fetcher:         fetcher,
		sessionRepo:     sessionRepo,
		measurementRepo: measurementRepo,
		rosterRepo:      rosterRepo,
		snapshotRepo:    snapshotRepo,
		refs:            refs,
		logger:          logger,
	}
}

// RefreshAll refreshes every dataset. The roster goes first so session
// team resolution sees the fresh lookup. Partial failure is reported but
// does not roll back datasets that already replaced successfully.
func (s *IngestionService) RefreshAll(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.RefreshAll")
	defer span.End()

	var firstErr error
	if err := s.RefreshRoster(ctx); err != nil {
		s.logger.WarnContext(ctx, "roster refresh failed", "error", err)
		firstErr = err
	}
	if err := s.RefreshSessions(ctx); err != nil {
		s.logger.WarnContext(ctx, "session refresh failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := s.RefreshMeasurements(ctx); err != nil {
		s.logger.WarnContext(ctx, "measurement refresh failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *IngestionService) RefreshSessions(ctx context.Context) error {
	_, err, shared := s.flight.Do("sessions", func() (any, error) {
		return nil, s.refreshSessions(ctx)
	})
	if shared {
		s.logger.DebugContext(ctx, "session refresh joined in-flight fetch")
	}
	return err
}

func (s *IngestionService) RefreshMeasurements(ctx context.Context) error {
	_, err, _ := s.flight.Do("measurements", func() (any, error) {
		return nil, s.refreshMeasurements(ctx)
	})
	return err
}

func (s *IngestionService) RefreshRoster(ctx context.Context) error {
	_, err, _ := s.flight.Do("roster", func() (any, error) {
		return nil, s.refreshRoster(ctx)
	})
	return err
}

func (s *IngestionService) refreshSessions(ctx context.Context) error {
	rows, err := s.fetchRows(ctx, "sessions", s.refs.Sessions)
	if err != nil {
		return err
	}

	sessions := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		item, ok := session.FromRow(delimited.ParseLine(row))
		if !ok {
			continue
		}
		item.Team = s.resolveTeam(ctx, item.AthleteKey, item.Team)
		sessions = append(sessions, item)
	}

	if len(sessions) == 0 {
		return fmt.Errorf("session source yielded no parseable rows, keeping previous set")
	}
	if err := s.sessionRepo.ReplaceAll(ctx, sessions); err != nil {
		return fmt.Errorf("replace sessions: %w", err)
	}

	s.logger.InfoContext(ctx, "sessions refreshed", "rows", len(rows), "sessions", len(sessions))
	return nil
}

func (s *IngestionService) refreshMeasurements(ctx context.Context) error {
	rows, err := s.fetchRows(ctx, "measurements", s.refs.Measurements)
	if err != nil {
		return err
	}

	measurements := make([]measurement.Measurement, 0, len(rows))
	for _, row := range rows {
		item, ok := measurement.FromRow(delimited.ParseLine(row))
		if !ok {
			continue
		}
		item.Team = s.resolveTeam(ctx, item.AthleteKey, item.Team)
		measurements = append(measurements, item)
	}

	if len(measurements) == 0 {
		return fmt.Errorf("measurement source yielded no parseable rows, keeping previous set")
	}
	if err := s.measurementRepo.ReplaceAll(ctx, measurements); err != nil {
		return fmt.Errorf("replace measurements: %w", err)
	}

	s.logger.InfoContext(ctx, "measurements refreshed", "rows", len(rows), "measurements", len(measurements))
	return nil
}

func (s *IngestionService) refreshRoster(ctx context.Context) error {
	rows, err := s.fetchRows(ctx, "roster", s.refs.Roster)
	if err != nil {
		return err
	}

	entries := make([]roster.Entry, 0, len(rows))
	for _, row := range rows {
		entry, ok := roster.FromRow(delimited.ParseLine(row))
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return fmt.Errorf("roster source yielded no parseable rows, keeping previous set")
	}
	if err := s.rosterRepo.ReplaceAll(ctx, entries); err != nil {
		return fmt.Errorf("replace roster: %w", err)
	}

	s.logger.InfoContext(ctx, "roster refreshed", "entries", len(entries))
	return nil
}

// fetchRows returns the data rows of one tab, header stripped.
func (s *IngestionService) fetchRows(ctx context.Context, source string, ref TableRef) ([]string, error) {
	text, err := s.fetcher.FetchTable(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}

	rows := delimited.SplitRows(text)
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s source has no data rows", source)
	}

	s.archive(ctx, source, ref, text, len(rows)-1)
	// The first line is always a header, whatever it says.
	return rows[1:], nil
}

func (s *IngestionService) resolveTeam(ctx context.Context, key, rowTeam string) string {
	if s.rosterRepo != nil {
		if team, ok, err := s.rosterRepo.TeamFor(ctx, key); err == nil && ok && team != "" {
			return team
		}
	}
	if rowTeam != "" {
		return rowTeam
	}
	return session.DefaultTeam
}

// archive stores the raw payload when an archive repository is wired.
// Failures are logged and swallowed: archiving never blocks the pipeline.
func (s *IngestionService) archive(ctx context.Context, source string, ref TableRef, payload string, rowCount int) {
	if s.snapshotRepo == nil {
		return
	}

	digest := sha256.Sum256([]byte(payload))
	sheetRef := ref.Sheet
	if sheetRef == "" {
		sheetRef = "gid:" + ref.GID
	}
	err := s.snapshotRepo.Save(ctx, snapshot.Snapshot{
		Source:      source,
		SheetRef:    sheetRef,
		Payload:     payload,
		PayloadHash: hex.EncodeToString(digest[:]),
		RowCount:    rowCount,
		FetchedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "snapshot archive failed", "source", source, "error", err)
	}
}

// Scheduler triggers periodic refreshes until its context is cancelled.
type Scheduler struct {
	service  *IngestionService
	interval time.Duration
	logger   *logging.Logger
}

func NewScheduler(service *IngestionService, interval time.Duration, logger *logging.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{service: service, interval: interval, logger: logger}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "refresh scheduler stopped")
			return
		case <-ticker.C:
			if err := s.service.RefreshAll(ctx); err != nil {
				s.logger.WarnContext(ctx, "scheduled refresh failed", "error", err)
			}
		}
	}
}
