package services

import (
	"context"
	"sync"
	"time"

	"github.com/dropnote/dropnote/internal/common"
	"github.com/dropnote/dropnote/internal/server/models"
)

// inMemoryMessageRepo mirrors the store contract, including the
// compare-and-set on viewed_at and the unique view_token constraint, so
// lifecycle tests exercise the same semantics as the SQL repository.
type inMemoryMessageRepo struct {
	mu       sync.Mutex
	byID     map[string]*models.Message
	byToken  map[string]*models.Message
	failWith error
}

func newInMemoryMessageRepo() *inMemoryMessageRepo {
	return &inMemoryMessageRepo{
		byID:    make(map[string]*models.Message),
		byToken: make(map[string]*models.Message),
	}
}

func (r *inMemoryMessageRepo) Create(ctx context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.byToken[m.ViewToken]; ok {
		return common.ErrorAlreadyExists
	}
	cp := *m
	r.byID[m.ID] = &cp
	r.byToken[m.ViewToken] = &cp
	return nil
}

func (r *inMemoryMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *inMemoryMessageRepo) GetByCreator(ctx context.Context, creatorID string) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Message
	for _, m := range r.byID {
		if m.CreatorID == creatorID {
			cp := *m
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *inMemoryMessageRepo) ExistsByViewToken(ctx context.Context, viewToken string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return false, r.failWith
	}
	_, ok := r.byToken[viewToken]
	return ok, nil
}

func (r *inMemoryMessageRepo) ConsumeView(ctx context.Context, tokenDigest string, now time.Time) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byToken[tokenDigest]
	if !ok || m.ViewedAt.Valid || now.After(m.ExpiresAt) {
		return nil, common.ErrorNotFound
	}
	m.ViewedAt.Valid = true
	m.ViewedAt.Time = now
	cp := *m
	return &cp, nil
}

func (r *inMemoryMessageRepo) AttachResponse(ctx context.Context, tokenDigest, response string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byToken[tokenDigest]
	if !ok || !m.ViewedAt.Valid || m.Response.Valid || now.After(m.ExpiresAt) {
		return common.ErrorNotFound
	}
	m.Response.Valid = true
	m.Response.String = response
	return nil
}

func (r *inMemoryMessageRepo) Update(ctx context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[m.ID]
	if !ok || cur.CreatorID != m.CreatorID || cur.ViewedAt.Valid {
		return common.ErrorNotFound
	}
	cur.Content = m.Content
	cur.ExpiresAt = m.ExpiresAt
	return nil
}

func (r *inMemoryMessageRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged int64
	for id, m := range r.byID {
		if m.ExpiresAt.Before(before) {
			delete(r.byToken, m.ViewToken)
			delete(r.byID, id)
			purged++
		}
	}
	return purged, nil
}

func (r *inMemoryMessageRepo) Delete(ctx context.Context, id, creatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok || m.CreatorID != creatorID {
		return common.ErrorNotFound
	}
	delete(r.byToken, m.ViewToken)
	delete(r.byID, id)
	return nil
}

// collidingMessageRepo reports every candidate token as taken.
type collidingMessageRepo struct {
	inMemoryMessageRepo
	existsCalls int
}

func (r *collidingMessageRepo) ExistsByViewToken(ctx context.Context, viewToken string) (bool, error) {
	r.existsCalls++
	return true, nil
}

// inMemoryUserRepo is the minimal fake behind UserService tests.
type inMemoryUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	cp := *user
	cp.CreatedAt = time.Now()
	r.byID[cp.ID] = &cp
	r.byEmail[cp.Email] = &cp
	out := cp
	return &out, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}
