// Package postgres persists source payload snapshots. The hot read path
// never touches the database; snapshots exist for audit and debugging.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mzawada/trainload/internal/domain/snapshot"
	qb "github.com/mzawada/trainload/internal/platform/querybuilder"
)

type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Save(ctx context.Context, snap snapshot.Snapshot) error {
	model := snapshotInsertModel{
		Source:      snap.Source,
		SheetRef:    snap.SheetRef,
		Payload:     snap.Payload,
		PayloadHash: snap.PayloadHash,
		RowCount:    snap.RowCount,
		FetchedAt:   snap.FetchedAt,
	}
	query, args, err := qb.InsertModel("source_snapshots", model,
		"ON CONFLICT (source, payload_hash) DO UPDATE SET fetched_at = EXCLUDED.fetched_at")
	if err != nil {
		return fmt.Errorf("build insert snapshot query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

// Latest returns the most recent snapshot for a source, if one exists.
func (r *SnapshotRepository) Latest(ctx context.Context, source string) (snapshot.Snapshot, bool, error) {
	query, args, err := qb.Select("*").From("source_snapshots").
		Where(qb.Eq("source", source)).
		OrderBy("fetched_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return snapshot.Snapshot{}, false, fmt.Errorf("build latest snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return snapshot.Snapshot{}, false, nil
		}
		return snapshot.Snapshot{}, false, fmt.Errorf("get latest snapshot: %w", err)
	}

	return snapshot.Snapshot{
		Source:      row.Source,
		SheetRef:    row.SheetRef,
		Payload:     row.Payload,
		PayloadHash: row.PayloadHash,
		RowCount:    row.RowCount,
		FetchedAt:   row.FetchedAt,
	}, true, nil
}
