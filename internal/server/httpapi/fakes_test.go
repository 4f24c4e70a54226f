package httpapi

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dropnote/dropnote/internal/common"
	"github.com/dropnote/dropnote/internal/logging"
	"github.com/dropnote/dropnote/internal/server/config"
	"github.com/dropnote/dropnote/internal/server/models"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.AppBaseURL = "http://app.test"
	return cfg
}

// fakeMessageRepo mimics the SQL repository contract, including the
// compare-and-set view transition and the unique view token constraint.
type fakeMessageRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.Message
	byToken map[string]*models.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		byID:    make(map[string]*models.Message),
		byToken: make(map[string]*models.Message),
	}
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byToken[m.ViewToken]; ok {
		return common.ErrorAlreadyExists
	}
	cp := *m
	r.byID[m.ID] = &cp
	r.byToken[m.ViewToken] = &cp
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMessageRepo) GetByCreator(ctx context.Context, creatorID string) ([]*models.Message, error) {
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

func (r *fakeMessageRepo) ExistsByViewToken(ctx context.Context, viewToken string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byToken[viewToken]
	return ok, nil
}

func (r *fakeMessageRepo) ConsumeView(ctx context.Context, tokenDigest string, now time.Time) (*models.Message, error) {
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

func (r *fakeMessageRepo) AttachResponse(ctx context.Context, tokenDigest, response string, now time.Time) error {
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

func (r *fakeMessageRepo) Update(ctx context.Context, m *models.Message) error {
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

func (r *fakeMessageRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
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

func (r *fakeMessageRepo) Delete(ctx context.Context, id, creatorID string) error {
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

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
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

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// fakeCatalogue serves a fixed gif listing.
type fakeCatalogue struct {
	records []models.GifRecord
}

func (f *fakeCatalogue) Search(ctx context.Context, query string, limit int) ([]models.GifRecord, error) {
	if limit > len(f.records) {
		limit = len(f.records)
	}
	return f.records[:limit], nil
}

func (f *fakeCatalogue) Trending(ctx context.Context, limit int) ([]models.GifRecord, error) {
	return f.Search(ctx, "", limit)
}

func (f *fakeCatalogue) Find(ctx context.Context, gifID string) (*models.GifRecord, error) {
	for _, r := range f.records {
		if r.ID == gifID {
			cp := r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCatalogue) Ping(ctx context.Context) map[string]bool {
	return map[string]bool{"t": true}
}
