package session

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"waste-console/internal/apperr"
	"waste-console/internal/database"
	"waste-console/internal/models"
	"waste-console/internal/store"
)

var secret = strings.Repeat("k", 32)

func login() *store.LoginResult {
	return &store.LoginResult{
		User: models.User{
			ID: "u1", Name: "Ana", Role: models.RoleAdminInstitution,
			InstitutionID: "inst-1", SectorIDs: []string{"sec-1", "sec-2"},
		},
		Tokens: store.Tokens{AccessToken: "a1", RefreshToken: "r1"},
	}
}

func newManager(t *testing.T, repo Repository) *Manager {
	sealer, err := NewSealer(secret)
	require.NoError(t, err)
	return NewManager(repo, sealer, time.Hour, zaptest.NewLogger(t))
}

func TestSealRoundTripIsBoundToSession(t *testing.T) {
	s, err := NewSealer(secret)
	require.NoError(t, err)

	blob, err := s.Seal("sess-1", store.Tokens{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, err)
	assert.NotContains(t, string(blob), `"a"`)

	tokens, err := s.Open("sess-1", blob)
	require.NoError(t, err)
	assert.Equal(t, "r", tokens.RefreshToken)

	_, err = s.Open("sess-2", blob)
	assert.Error(t, err)

	blob[len(blob)-1] ^= 0xff
	_, err = s.Open("sess-1", blob)
	assert.Error(t, err)

	_, err = NewSealer("short")
	assert.Error(t, err)
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, NewMemoryRepository())

	s, err := m.Start(ctx, login())
	require.NoError(t, err)
	assert.Equal(t, []string{"sec-1", "sec-2"}, s.Actor.SectorIDs)

	loaded, err := m.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "a1", loaded.Tokens.AccessToken)
	assert.Equal(t, models.RoleAdminInstitution, loaded.Actor.Role)

	require.NoError(t, m.Rotate(ctx, loaded, store.Tokens{AccessToken: "a2", RefreshToken: "r2"}))
	loaded, err = m.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "a2", loaded.Tokens.AccessToken)

	require.NoError(t, m.End(ctx, s.ID))
	_, err = m.Load(ctx, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestManagerExpiry(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, NewMemoryRepository())
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	s, err := m.Start(ctx, login())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Load(ctx, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	_, err = m.Load(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestGormRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	ctx := context.Background()
	m := newManager(t, NewGormRepository(db))
	s, err := m.Start(ctx, login())
	require.NoError(t, err)
	t.Cleanup(func() { db.Delete(&models.SessionRecord{}, "id = ?", s.ID) })

	loaded, err := m.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "r1", loaded.Tokens.RefreshToken)

	require.NoError(t, m.End(ctx, s.ID))
	_, err = m.Load(ctx, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
}
