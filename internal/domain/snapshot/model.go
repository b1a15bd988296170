// Package snapshot archives raw source payloads for later inspection.
package snapshot

import "time"

type Snapshot struct {
	Source      string
	SheetRef    string
	Payload     string
	PayloadHash string
	RowCount    int
	FetchedAt   time.Time
}
