package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dropnote/dropnote/internal/common"
	"github.com/dropnote/dropnote/internal/crypton"
	"github.com/dropnote/dropnote/internal/logging"
	"github.com/dropnote/dropnote/internal/server/config"
	"github.com/dropnote/dropnote/internal/server/models"
	"github.com/dropnote/dropnote/internal/server/repositories/messages"
	"github.com/dropnote/dropnote/internal/wordtoken"
	"github.com/google/uuid"
)

const (
	maxContentElements = 100
	maxContentBytes    = 4096
	maxResponseRunes   = 6

	// allocator settings: start with two word groups and widen on every
	// collision until the retry budget runs out
	initialComplexity     = 2
	allocationRetryBudget = 8

	// MaskedViewToken is what creators see in place of a secret message's
	// token: the stored digest cannot reconstruct the share link anyway.
	MaskedViewToken = "-"
)

// timeNow is a seam for tests.
var timeNow = time.Now

// MessageService implements the one-time message lifecycle and the view
// token allocator on top of the message repository.
type MessageService struct {
	repo   messages.Repository
	config *config.Config
	logger logging.Logger

	// word tokens are memorable, not secret; a plain seeded PRNG is enough.
	// rand.Rand is not goroutine safe, hence the lock.
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewMessageService(repo messages.Repository, cfg *config.Config, logger logging.Logger) *MessageService {
	return &MessageService{
		repo:   repo,
		config: cfg,
		logger: logger.With("module", "message_service"),
		rng:    rand.New(rand.NewSource(timeNow().UnixNano())),
	}
}

// CreateResult is what the creator gets back: the persisted message and the
// share token. For secret messages the token exists only here — the store
// keeps its digest.
type CreateResult struct {
	Message    *models.Message
	ShareToken string
}

// Create validates content and horizon, allocates a view token of the
// requested class and persists the message in Pending state.
func (s *MessageService) Create(ctx context.Context, creatorID string, content []string, expiresIn time.Duration, secret bool) (*CreateResult, error) {
	serialized, err := s.serializeContent(content)
	if err != nil {
		return nil, err
	}

	expiresAt, err := s.resolveExpiry(expiresIn)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	m := &models.Message{
		ID:        uuid.NewString(),
		CreatorID: creatorID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	var shareToken string
	if secret {
		shareToken, err = s.allocateSecret(ctx, m, serialized)
	} else {
		m.Content = serialized
		shareToken, err = s.allocateOrdinary(ctx, m)
	}
	if err != nil {
		return nil, err
	}

	return &CreateResult{Message: m, ShareToken: shareToken}, nil
}

// allocateSecret seals the content and stores only the envelope record and
// the token digest. A digest collision would need two identical 256-bit
// secrets, so a duplicate-key insert here is not retried.
func (s *MessageService) allocateSecret(ctx context.Context, m *models.Message, serialized string) (string, error) {
	sealed, err := crypton.Seal([]byte(serialized), []byte(s.config.KDFSalt))
	if err != nil {
		return "", common.ErrorInternal
	}

	m.Content = sealed.Record
	m.ViewToken = sealed.Digest
	m.Secret = true

	if err := s.repo.Create(ctx, m); err != nil {
		return "", common.ErrorInternal
	}
	return sealed.Token, nil
}

// allocateOrdinary draws word tokens at increasing structural complexity
// until one inserts cleanly. The pre-check keeps collision churn low; the
// store's unique index is the authoritative guard, so a lost race surfaces
// as ErrorAlreadyExists and consumes a retry like any other collision.
func (s *MessageService) allocateOrdinary(ctx context.Context, m *models.Message) (string, error) {
	complexity := initialComplexity

	for attempt := 0; attempt < allocationRetryBudget; attempt++ {
		candidate := s.nextWordToken(complexity)
		if len(candidate) < wordtoken.MinLength {
			complexity++
			continue
		}

		exists, err := s.repo.ExistsByViewToken(ctx, candidate)
		if err != nil {
			return "", common.ErrorInternal
		}
		if exists {
			s.logger.Warn(ctx, "view token collision", "attempt", attempt, "complexity", complexity)
			complexity++
			continue
		}

		m.ViewToken = candidate
		err = s.repo.Create(ctx, m)
		if err == nil {
			return candidate, nil
		}
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Warn(ctx, "view token lost insert race", "attempt", attempt, "complexity", complexity)
			complexity++
			continue
		}
		return "", common.ErrorInternal
	}

	s.logger.Error(ctx, "view token allocation exhausted", "budget", allocationRetryBudget)
	return "", common.ErrAllocationExhausted
}

func (s *MessageService) nextWordToken(complexity int) string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return wordtoken.Generate(s.rng, complexity)
}

// ViewResult is the single disclosure of a message.
type ViewResult struct {
	Content   []string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// View performs the one-time Pending→Viewed transition. The token shape is
// checked before any store access; after that, a miss, an expired record and
// a consumed record are all the same not-found.
func (s *MessageService) View(ctx context.Context, presentedToken string) (*ViewResult, error) {
	if len(presentedToken) < wordtoken.MinLength {
		return nil, fmt.Errorf("%w: view token too short", common.ErrorValidation)
	}

	m, err := s.repo.ConsumeView(ctx, crypton.Digest(presentedToken), timeNow())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	serialized := m.Content
	if m.Secret {
		plaintext, err := crypton.Open(m.Content, presentedToken, []byte(s.config.KDFSalt))
		if err != nil {
			// the view is consumed regardless: a record that cannot
			// authenticate must not stay retrievable
			return nil, crypton.ErrDecryption
		}
		serialized = string(plaintext)
	}

	var content []string
	if err := json.Unmarshal([]byte(serialized), &content); err != nil {
		s.logger.Error(ctx, "stored content is not a valid content array", "message_id", m.ID)
		return nil, common.ErrorInternal
	}

	return &ViewResult{Content: content, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

// Respond attaches the single viewer response. Allowed only after the view
// and before expiry; a second response finds response already set and gets
// the same not-found as a missing message.
func (s *MessageService) Respond(ctx context.Context, presentedToken, response string) error {
	if len(presentedToken) < wordtoken.MinLength {
		return fmt.Errorf("%w: view token too short", common.ErrorValidation)
	}
	if response == "" || utf8.RuneCountInString(response) > maxResponseRunes {
		return fmt.Errorf("%w: invalid response", common.ErrorValidation)
	}

	err := s.repo.AttachResponse(ctx, crypton.Digest(presentedToken), response, timeNow())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}

// Update replaces content and/or extends expiry of an unviewed message.
// Secret content cannot be replaced: re-encrypting would require minting a
// new bearer secret and would silently invalidate the already-shared link.
func (s *MessageService) Update(ctx context.Context, creatorID, id string, content []string, expiresIn time.Duration) (*models.Message, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.CreatorID != creatorID {
		return nil, common.ErrorForbidden
	}
	if m.Viewed() {
		return nil, fmt.Errorf("%w: message already viewed", common.ErrorValidation)
	}

	if content != nil {
		if m.Secret {
			return nil, fmt.Errorf("%w: secret content cannot be replaced", common.ErrorValidation)
		}
		serialized, err := s.serializeContent(content)
		if err != nil {
			return nil, err
		}
		m.Content = serialized
	}

	if expiresIn != 0 {
		expiresAt, err := s.resolveExpiry(expiresIn)
		if err != nil {
			return nil, err
		}
		m.ExpiresAt = expiresAt
	}

	// viewed_at IS NULL in the update guards against a viewer racing us
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a message in any state. A missing record is reported as
// not-found, which callers treat as an outcome rather than a failure.
func (s *MessageService) Delete(ctx context.Context, creatorID, id string) error {
	return s.repo.Delete(ctx, id, creatorID)
}

// ListByCreator returns the creator's messages with secret view tokens
// masked: only the digest is stored and it must not be mistaken for a
// shareable link.
func (s *MessageService) ListByCreator(ctx context.Context, creatorID string) ([]*models.Message, error) {
	result, err := s.repo.GetByCreator(ctx, creatorID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	for _, m := range result {
		if m.Secret {
			m.ViewToken = MaskedViewToken
		}
	}
	return result, nil
}

// GetByID returns a single message for its creator, token masked the same
// way as in listings.
func (s *MessageService) GetByID(ctx context.Context, creatorID, id string) (*models.Message, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.CreatorID != creatorID {
		return nil, common.ErrorForbidden
	}
	if m.Secret {
		m.ViewToken = MaskedViewToken
	}
	return m, nil
}

func (s *MessageService) serializeContent(content []string) (string, error) {
	if len(content) == 0 || len(content) > maxContentElements {
		return "", fmt.Errorf("%w: invalid content", common.ErrorValidation)
	}
	serialized, err := json.Marshal(content)
	if err != nil {
		return "", common.ErrorInternal
	}
	if len(serialized) > maxContentBytes {
		return "", fmt.Errorf("%w: content too large", common.ErrorValidation)
	}
	return string(serialized), nil
}

// resolveExpiry turns a requested lifetime into an absolute deadline.
// Zero or negative means "use the full horizon"; anything beyond the
// configured maximum is the caller's mistake.
func (s *MessageService) resolveExpiry(expiresIn time.Duration) (time.Time, error) {
	if expiresIn <= 0 {
		return timeNow().Add(s.config.MaxMessageHorizon), nil
	}
	if expiresIn > s.config.MaxMessageHorizon {
		return time.Time{}, fmt.Errorf("%w: expiry beyond maximum horizon", common.ErrorValidation)
	}
	return timeNow().Add(expiresIn), nil
}
