// Package search defines the boundary to the external search index.
// The document store only ever pushes removal notifications; indexing
// itself happens in a separate ingestion pipeline.
package search

import (
	"context"
	"log/slog"
)

// Notifier propagates document lifecycle events to the search index.
// Implementations must be safe for concurrent use.
type Notifier interface {
	// RemoveDocument asks the index to drop every entry derived from
	// the given document. Callers treat failures as advisory.
	RemoveDocument(ctx context.Context, documentID int64, filePath string) error
}

// LogNotifier is the default Notifier when no search index is
// configured. It records each event so operators can replay removals
// against a real index later.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) RemoveDocument(_ context.Context, documentID int64, filePath string) error {
	n.logger.Info("search index removal skipped, no index configured",
		"document_id", documentID,
		"file_path", filePath)
	return nil
}
