//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests require a running database.
// Set TEST_DATABASE_URL (postgres://...) and/or TEST_MYSQL_URL (mysql://...) to run them.

func openTestStores(t *testing.T) map[string]Store {
	t.Helper()
	stores := map[string]Store{}
	for name, env := range map[string]string{"postgres": "TEST_DATABASE_URL", "mysql": "TEST_MYSQL_URL"} {
		dsn := os.Getenv(env)
		if dsn == "" {
			continue
		}
		store, err := Open(context.Background(), dsn)
		require.NoError(t, err, name)
		t.Cleanup(func() { _ = store.Close() })
		stores[name] = store
	}
	if len(stores) == 0 {
		t.Skip("TEST_DATABASE_URL and TEST_MYSQL_URL not set, skipping integration test")
	}
	return stores
}

func TestIntegration_SaveGetUpsert(t *testing.T) {
	for name, store := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := sampleProfile()
			p.Email = "it-" + uuid.NewString()[:8] + "@example.com"

			id, err := store.SaveProfile(ctx, NewRecord(p, "cv.pdf", "hash1"))
			require.NoError(t, err)

			got, err := store.GetProfile(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, p.Email, got.Email)
			assert.Equal(t, p.Skills, got.Skills)
			assert.Equal(t, p.RecommendedCourses, got.RecommendedCourses)

			p.Score = 90
			again, err := store.SaveProfile(ctx, NewRecord(p, "cv.pdf", "hash2"))
			require.NoError(t, err)
			assert.Equal(t, id, again)

			got, err = store.GetProfile(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 90, got.Score)
			assert.Equal(t, "hash2", got.ContentHash)
		})
	}
}

func TestIntegration_GetMissing(t *testing.T) {
	for name, store := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.GetProfile(context.Background(), uuid.New())
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestIntegration_ListAndStats(t *testing.T) {
	for name, store := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := sampleProfile()
			p.Email = "list-" + uuid.NewString()[:8] + "@example.com"
			_, err := store.SaveProfile(ctx, NewRecord(p, "", ""))
			require.NoError(t, err)

			records, err := store.ListProfiles(ctx, ListOptions{Field: p.PredictedField, Limit: 500})
			require.NoError(t, err)
			found := false
			for _, r := range records {
				assert.Equal(t, p.PredictedField, r.PredictedField)
				if r.Email == p.Email {
					found = true
				}
			}
			assert.True(t, found)

			stats, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, stats.Total, 1)
			assert.GreaterOrEqual(t, stats.ByField[p.PredictedField], 1)
			assert.GreaterOrEqual(t, stats.ByLevel[string(p.ExperienceLevel)], 1)
		})
	}
}
