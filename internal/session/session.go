// Package session keeps console sessions: who is logged in and the sealed store
// tokens used on their behalf.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"waste-console/internal/apperr"
	"waste-console/internal/models"
	"waste-console/internal/store"
)

var ErrNotFound = errors.New("session not found")

type Repository interface {
	Create(ctx context.Context, rec *models.SessionRecord) error
	Get(ctx context.Context, id string) (*models.SessionRecord, error)
	UpdateTokens(ctx context.Context, id string, sealed []byte, expiresAt time.Time) error
	Revoke(ctx context.Context, id string, at time.Time) error
}

// Session is an opened session with plaintext tokens.
type Session struct {
	ID        string
	Actor     models.User
	Tokens    store.Tokens
	ExpiresAt time.Time
}

type Manager struct {
	repo   Repository
	sealer *Sealer
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewManager(repo Repository, sealer *Sealer, ttl time.Duration, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{repo: repo, sealer: sealer, ttl: ttl, log: log, now: time.Now}
}

// Start opens a session for a successful store login.
func (m *Manager) Start(ctx context.Context, login *store.LoginResult) (*Session, error) {
	id := uuid.NewString()
	sealed, err := m.sealer.Seal(id, login.Tokens)
	if err != nil {
		return nil, err
	}
	u := login.User
	rec := &models.SessionRecord{
		ID:            id,
		UserID:        u.ID,
		UserName:      u.Name,
		Email:         u.Email,
		Role:          u.Role,
		InstitutionID: u.InstitutionID,
		SectorIDs:     strings.Join(u.SectorIDs, ","),
		SealedTokens:  sealed,
		ExpiresAt:     m.now().Add(m.ttl),
	}
	if err := m.repo.Create(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	return &Session{ID: id, Actor: rec.Actor(), Tokens: login.Tokens, ExpiresAt: rec.ExpiresAt}, nil
}

// Load returns a live session. Unknown, expired and revoked sessions are an
// Authorization error.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	rec, err := m.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Authorization("session not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if rec.RevokedAt != nil {
		return nil, apperr.Authorization("session was revoked")
	}
	if !m.now().Before(rec.ExpiresAt) {
		return nil, apperr.Authorization("session expired")
	}
	tokens, err := m.sealer.Open(rec.ID, rec.SealedTokens)
	if err != nil {
		m.log.Error("sealed tokens could not be opened", zap.String("session_id", rec.ID), zap.Error(err))
		return nil, apperr.Authorization("session is no longer valid")
	}
	return &Session{ID: rec.ID, Actor: rec.Actor(), Tokens: tokens, ExpiresAt: rec.ExpiresAt}, nil
}

// Rotate stores new store tokens and extends the session.
func (m *Manager) Rotate(ctx context.Context, s *Session, tokens store.Tokens) error {
	sealed, err := m.sealer.Seal(s.ID, tokens)
	if err != nil {
		return err
	}
	expires := m.now().Add(m.ttl)
	if err := m.repo.UpdateTokens(ctx, s.ID, sealed, expires); err != nil {
		return errors.Wrap(err, "rotate session tokens")
	}
	s.Tokens = tokens
	s.ExpiresAt = expires
	return nil
}

func (m *Manager) End(ctx context.Context, id string) error {
	return errors.Wrap(m.repo.Revoke(ctx, id, m.now()), "revoke session")
}

// GormRepository stores sessions in Postgres.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, rec *models.SessionRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *GormRepository) Get(ctx context.Context, id string) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *GormRepository) UpdateTokens(ctx context.Context, id string, sealed []byte, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.SessionRecord{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{"sealed_tokens": sealed, "expires_at": expiresAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.SessionRecord{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at).Error
}

// MemoryRepository keeps sessions in process, for the CLI and tests.
type MemoryRepository struct {
	mu   sync.Mutex
	recs map[string]models.SessionRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{recs: make(map[string]models.SessionRecord)}
}

func (r *MemoryRepository) Create(_ context.Context, rec *models.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs[rec.ID] = *rec
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *MemoryRepository) UpdateTokens(_ context.Context, id string, sealed []byte, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok || rec.RevokedAt != nil {
		return ErrNotFound
	}
	rec.SealedTokens = sealed
	rec.ExpiresAt = expiresAt
	r.recs[id] = rec
	return nil
}

func (r *MemoryRepository) Revoke(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.recs[id]; ok && rec.RevokedAt == nil {
		rec.RevokedAt = &at
		r.recs[id] = rec
	}
	return nil
}
