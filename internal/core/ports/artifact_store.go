package ports

import (
	"context"
	"io"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

// ArtifactStore owns the single model slot.
//
// Upload must be atomic with respect to Download: a reader sees either the
// complete previous blob or the complete new one. Generation increases by one
// on every committed upload.
type ArtifactStore interface {
	Exists() bool
	Upload(ctx context.Context, r io.Reader) (*domain.ArtifactAck, error)
	Download(ctx context.Context) (io.ReadCloser, *domain.ArtifactInfo, error)
	Generation() uint64
}

// ArtifactEventRepository persists the artifact audit trail.
type ArtifactEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.ArtifactEvent) error
}
