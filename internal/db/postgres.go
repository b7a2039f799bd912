package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/resume-analyzer/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS resume_profiles (
	id                  UUID PRIMARY KEY,
	name                TEXT NOT NULL,
	email               TEXT NOT NULL,
	phone               TEXT NOT NULL DEFAULT '',
	score               INTEGER NOT NULL,
	page_count          INTEGER NOT NULL,
	predicted_field     TEXT NOT NULL,
	experience_level    TEXT NOT NULL,
	skills              JSONB NOT NULL DEFAULT '[]',
	recommended_skills  JSONB NOT NULL DEFAULT '[]',
	recommended_courses JSONB NOT NULL DEFAULT '[]',
	content_hash        TEXT NOT NULL DEFAULT '',
	source              TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (name, email)
)`

const profileColumns = `id, name, email, phone, score, page_count, predicted_field, experience_level,
	skills, recommended_skills, recommended_courses, content_hash, source, created_at, updated_at`

// PostgresStore wraps a PostgreSQL connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// Connect establishes a connection pool and creates the profile table if needed
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// SaveProfile inserts the record or replaces the one with the same name and email
func (s *PostgresStore) SaveProfile(ctx context.Context, rec *ProfileRecord) (uuid.UUID, error) {
	skills, recSkills, courses, err := marshalLists(rec)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = s.pool.QueryRow(ctx,
		`INSERT INTO resume_profiles (id, name, email, phone, score, page_count, predicted_field,
			experience_level, skills, recommended_skills, recommended_courses, content_hash, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (name, email) DO UPDATE SET
			phone = EXCLUDED.phone,
			score = EXCLUDED.score,
			page_count = EXCLUDED.page_count,
			predicted_field = EXCLUDED.predicted_field,
			experience_level = EXCLUDED.experience_level,
			skills = EXCLUDED.skills,
			recommended_skills = EXCLUDED.recommended_skills,
			recommended_courses = EXCLUDED.recommended_courses,
			content_hash = EXCLUDED.content_hash,
			source = EXCLUDED.source,
			updated_at = NOW()
		 RETURNING id`,
		uuid.New(), rec.Name, rec.Email, rec.Phone, rec.Score, rec.PageCount, rec.PredictedField,
		rec.ExperienceLevel, skills, recSkills, courses, rec.ContentHash, rec.Source,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return id, nil
}

// GetProfile retrieves a profile by ID
func (s *PostgresStore) GetProfile(ctx context.Context, id uuid.UUID) (*ProfileRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM resume_profiles WHERE id = $1`, id)
	rec, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return rec, nil
}

// ListProfiles returns profiles newest first, optionally filtered by field and level
func (s *PostgresStore) ListProfiles(ctx context.Context, opts ListOptions) ([]ProfileRecord, error) {
	opts = opts.normalized()
	rows, err := s.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM resume_profiles
		 WHERE ($1 = '' OR predicted_field = $1) AND ($2 = '' OR experience_level = $2)
		 ORDER BY updated_at DESC
		 LIMIT $3 OFFSET $4`,
		opts.Field, opts.Level, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	records := []ProfileRecord{}
	for rows.Next() {
		rec, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return records, nil
}

// Stats returns totals, the average score and counts per field and level
func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := newStats()
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(score), 0) FROM resume_profiles`,
	).Scan(&stats.Total, &stats.AverageScore)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	groups := []struct {
		column string
		dst    map[string]int
	}{
		{"predicted_field", stats.ByField},
		{"experience_level", stats.ByLevel},
	}
	for _, g := range groups {
		rows, err := s.pool.Query(ctx,
			`SELECT `+g.column+`, COUNT(*) FROM resume_profiles GROUP BY `+g.column)
		if err != nil {
			return nil, fmt.Errorf("failed to group by %s: %w", g.column, err)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s counts: %w", g.column, err)
			}
			g.dst[key] = n
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate %s counts: %w", g.column, err)
		}
	}

	return stats, nil
}

func scanProfile(row pgx.Row) (*ProfileRecord, error) {
	var rec ProfileRecord
	var skills, recSkills, courses []byte
	err := row.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Phone, &rec.Score, &rec.PageCount,
		&rec.PredictedField, &rec.ExperienceLevel, &skills, &recSkills, &courses,
		&rec.ContentHash, &rec.Source, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalLists(&rec, skills, recSkills, courses); err != nil {
		return nil, err
	}
	return &rec, nil
}

func marshalLists(rec *ProfileRecord) (skills, recSkills, courses []byte, err error) {
	if skills, err = json.Marshal(nonNil(rec.Skills)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal skills: %w", err)
	}
	if recSkills, err = json.Marshal(nonNil(rec.RecommendedSkills)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal recommended skills: %w", err)
	}
	c := rec.RecommendedCourses
	if c == nil {
		c = []types.Course{}
	}
	if courses, err = json.Marshal(c); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal courses: %w", err)
	}
	return skills, recSkills, courses, nil
}

func unmarshalLists(rec *ProfileRecord, skills, recSkills, courses []byte) error {
	if err := json.Unmarshal(skills, &rec.Skills); err != nil {
		return fmt.Errorf("failed to unmarshal skills: %w", err)
	}
	if err := json.Unmarshal(recSkills, &rec.RecommendedSkills); err != nil {
		return fmt.Errorf("failed to unmarshal recommended skills: %w", err)
	}
	if err := json.Unmarshal(courses, &rec.RecommendedCourses); err != nil {
		return fmt.Errorf("failed to unmarshal courses: %w", err)
	}
	return nil
}
