package messages

import (
	"context"
	"time"

	"github.com/dropnote/dropnote/internal/server/models"
)

// Repository is the store contract the message lifecycle relies on. Two
// points are load-bearing: Create must surface a duplicate view_token as
// common.ErrorAlreadyExists (backstop for the allocator's pre-check), and
// ConsumeView must flip viewed_at with compare-and-set semantics so that at
// most one concurrent viewer succeeds.
type Repository interface {
	Create(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	GetByCreator(ctx context.Context, creatorID string) ([]*models.Message, error)
	ExistsByViewToken(ctx context.Context, viewToken string) (bool, error)

	// ConsumeView atomically marks the message found by token digest as
	// viewed, provided it is unviewed and unexpired at now, and returns it.
	// Misses, expired and already-viewed records all yield ErrorNotFound.
	ConsumeView(ctx context.Context, tokenDigest string, now time.Time) (*models.Message, error)

	// AttachResponse sets the one-shot viewer response, provided the message
	// has been viewed, is unexpired and has no response yet.
	AttachResponse(ctx context.Context, tokenDigest, response string, now time.Time) error

	// Update replaces content and expiry for an unviewed message owned by
	// the given creator.
	Update(ctx context.Context, m *models.Message) error

	Delete(ctx context.Context, id, creatorID string) error

	// PurgeExpired deletes every message expired before the cutoff and
	// reports how many rows went away.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
