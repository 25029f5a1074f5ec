package services

import (
	"context"

	"docvault/internal/domain/models"
)

// StaticService resolves a raw request path to bytes on disk through
// the ordered fallback chain, after gating access on the original
// request path's org segment.
type StaticService interface {
	Resolve(ctx context.Context, actor *models.Actor, requestPath string) (*ResolvedFile, error)
}

// ResolvedFile points at the bytes a static request resolved to.
type ResolvedFile struct {
	DiskPath    string
	Name        string
	Size        int64
	ContentType string
}
