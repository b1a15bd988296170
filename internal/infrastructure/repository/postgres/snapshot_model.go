package postgres

import "time"

type snapshotTableModel struct {
	ID          int64     `db:"id"`
	Source      string    `db:"source"`
	SheetRef    string    `db:"sheet_ref"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	RowCount    int       `db:"row_count"`
	FetchedAt   time.Time `db:"fetched_at"`
	CreatedAt   time.Time `db:"created_at"`
}

type snapshotInsertModel struct {
	Source      string    `db:"source"`
	SheetRef    string    `db:"sheet_ref"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	RowCount    int       `db:"row_count"`
	FetchedAt   time.Time `db:"fetched_at"`
}
