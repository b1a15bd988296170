package usecase

import "context"

// TableRef addresses one tab of the source document, by export gid or by
// sheet name.
type TableRef struct {
	GID   string
	Sheet string
}

// TableFetcher is the read collaborator: it returns raw delimited text
// with a header line, or an error once every access method is exhausted.
type TableFetcher interface {
	FetchTable(ctx context.Context, ref TableRef) (string, error)
}

type WriteAction string

const (
	WriteActionUpdate WriteAction = "update"
	WriteActionDelete WriteAction = "delete"
)

// WriteCommand identifies the target row by (name, training date,
// timestamp). Sheet is a location hint only.
type WriteCommand struct {
	Action       WriteAction
	Name         string
	TrainingDate string
	Timestamp    string
	Minutes      float64
	Sheet        string
}

// WriteResult mirrors the write collaborator's structured response.
type WriteResult struct {
	OK      bool
	Status  string
	Message string
	Sheet   string
}

// RowWriter is the write collaborator driving spreadsheet corrections.
type RowWriter interface {
	Submit(ctx context.Context, cmd WriteCommand) (WriteResult, error)
}
