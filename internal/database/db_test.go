package database

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"waste-console/internal/models"
)

func TestPurgeSessions(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := Open(dsn, zaptest.NewLogger(t))
	require.NoError(t, err)

	now := time.Now().UTC()
	earlier := now.Add(-time.Minute)
	rows := []models.SessionRecord{
		{ID: uuid.NewString(), UserID: "u1", Role: models.RoleEditorInstitution, SealedTokens: []byte{1}, ExpiresAt: now.Add(-time.Hour)},
		{ID: uuid.NewString(), UserID: "u2", Role: models.RoleEditorInstitution, SealedTokens: []byte{1}, ExpiresAt: now.Add(time.Hour), RevokedAt: &earlier},
		{ID: uuid.NewString(), UserID: "u3", Role: models.RoleEditorInstitution, SealedTokens: []byte{1}, ExpiresAt: now.Add(time.Hour)},
	}
	require.NoError(t, db.Create(&rows).Error)
	t.Cleanup(func() { db.Delete(&models.SessionRecord{}, "id = ?", rows[2].ID) })

	n, err := PurgeSessions(db, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(2))

	var left int64
	require.NoError(t, db.Model(&models.SessionRecord{}).Where("id IN ?", []string{rows[0].ID, rows[1].ID, rows[2].ID}).Count(&left).Error)
	assert.EqualValues(t, 1, left)
}
