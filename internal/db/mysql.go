package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// profileRow is the gorm model for the user_data table
type profileRow struct {
	ID                 string         `gorm:"type:char(36);primaryKey"`
	Name               string         `gorm:"size:191;not null;uniqueIndex:idx_name_email"`
	Email              string         `gorm:"size:191;not null;uniqueIndex:idx_name_email"`
	Phone              string         `gorm:"size:32;not null;default:''"`
	Score              int            `gorm:"not null"`
	PageCount          int            `gorm:"not null"`
	PredictedField     string         `gorm:"size:100;not null;index"`
	ExperienceLevel    string         `gorm:"size:32;not null;index"`
	Skills             datatypes.JSON `gorm:"type:json"`
	RecommendedSkills  datatypes.JSON `gorm:"type:json"`
	RecommendedCourses datatypes.JSON `gorm:"type:json"`
	ContentHash        string         `gorm:"size:64;not null;default:''"`
	Source             string         `gorm:"size:255;not null;default:''"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (profileRow) TableName() string {
	return "user_data"
}

// MySQLStore keeps profiles in MySQL through gorm
type MySQLStore struct {
	db *gorm.DB
}

var _ Store = (*MySQLStore)(nil)

// ConnectMySQL opens the database and migrates the user_data table
func ConnectMySQL(ctx context.Context, dsn string) (*MySQLStore, error) {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	if err := gdb.WithContext(ctx).AutoMigrate(&profileRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate user_data: %w", err)
	}

	return &MySQLStore{db: gdb}, nil
}

// Close closes the underlying connection pool
func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveProfile inserts the record or replaces the one with the same name and email
func (s *MySQLStore) SaveProfile(ctx context.Context, rec *ProfileRecord) (uuid.UUID, error) {
	row, err := toRow(rec)
	if err != nil {
		return uuid.Nil, err
	}
	row.ID = uuid.NewString()

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}, {Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"phone", "score", "page_count", "predicted_field", "experience_level", "skills",
			"recommended_skills", "recommended_courses", "content_hash", "source", "updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save profile: %w", err)
	}

	// On conflict the existing row keeps its ID.
	var stored profileRow
	err = s.db.WithContext(ctx).Select("id").
		Where("name = ? AND email = ?", rec.Name, rec.Email).First(&stored).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read saved profile id: %w", err)
	}
	return uuid.Parse(stored.ID)
}

// GetProfile retrieves a profile by ID
func (s *MySQLStore) GetProfile(ctx context.Context, id uuid.UUID) (*ProfileRecord, error) {
	var row profileRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return fromRow(&row)
}

// ListProfiles returns profiles newest first, optionally filtered by field and level
func (s *MySQLStore) ListProfiles(ctx context.Context, opts ListOptions) ([]ProfileRecord, error) {
	opts = opts.normalized()
	q := s.db.WithContext(ctx).Model(&profileRow{})
	if opts.Field != "" {
		q = q.Where("predicted_field = ?", opts.Field)
	}
	if opts.Level != "" {
		q = q.Where("experience_level = ?", opts.Level)
	}

	var rows []profileRow
	if err := q.Order("updated_at DESC").Limit(opts.Limit).Offset(opts.Offset).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	records := make([]ProfileRecord, 0, len(rows))
	for i := range rows {
		rec, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Stats returns totals, the average score and counts per field and level
func (s *MySQLStore) Stats(ctx context.Context) (*Stats, error) {
	stats := newStats()

	var summary struct {
		Total        int
		AverageScore float64
	}
	err := s.db.WithContext(ctx).Model(&profileRow{}).
		Select("COUNT(*) AS total, COALESCE(AVG(score), 0) AS average_score").
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	stats.Total = summary.Total
	stats.AverageScore = summary.AverageScore

	groups := map[string]map[string]int{
		"predicted_field":  stats.ByField,
		"experience_level": stats.ByLevel,
	}
	for column, dst := range groups {
		var counts []struct {
			Key   string
			Count int
		}
		err := s.db.WithContext(ctx).Model(&profileRow{}).
			Select(column + " AS `key`, COUNT(*) AS count").
			Group(column).
			Scan(&counts).Error
		if err != nil {
			return nil, fmt.Errorf("failed to group by %s: %w", column, err)
		}
		for _, c := range counts {
			dst[c.Key] = c.Count
		}
	}

	return stats, nil
}

func toRow(rec *ProfileRecord) (*profileRow, error) {
	skills, recSkills, courses, err := marshalLists(rec)
	if err != nil {
		return nil, err
	}
	return &profileRow{
		Name:               rec.Name,
		Email:              rec.Email,
		Phone:              rec.Phone,
		Score:              rec.Score,
		PageCount:          rec.PageCount,
		PredictedField:     rec.PredictedField,
		ExperienceLevel:    rec.ExperienceLevel,
		Skills:             datatypes.JSON(skills),
		RecommendedSkills:  datatypes.JSON(recSkills),
		RecommendedCourses: datatypes.JSON(courses),
		ContentHash:        rec.ContentHash,
		Source:             rec.Source,
	}, nil
}

func fromRow(row *profileRow) (*ProfileRecord, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid profile id %q: %w", row.ID, err)
	}
	rec := &ProfileRecord{
		ID:              id,
		Name:            row.Name,
		Email:           row.Email,
		Phone:           row.Phone,
		Score:           row.Score,
		PageCount:       row.PageCount,
		PredictedField:  row.PredictedField,
		ExperienceLevel: row.ExperienceLevel,
		ContentHash:     row.ContentHash,
		Source:          row.Source,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if err := unmarshalLists(rec, orEmptyArray(row.Skills), orEmptyArray(row.RecommendedSkills), orEmptyArray(row.RecommendedCourses)); err != nil {
		return nil, err
	}
	return rec, nil
}

func orEmptyArray(j datatypes.JSON) []byte {
	if len(j) == 0 {
		return []byte("[]")
	}
	return j
}
