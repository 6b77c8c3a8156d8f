package migrations

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"gorm.io/gorm"
)

// Migration is one versioned schema change. Versions sort lexically.
type Migration struct {
	Version     string
	Description string
	Up          func(tx *gorm.DB) error
	Down        func(tx *gorm.DB) error
}

// MigrationRecord is a row of the schema_migrations table.
type MigrationRecord struct {
	ID          uint      `gorm:"primarykey"`
	Version     string    `gorm:"uniqueIndex;not null"`
	Description string    `gorm:"not null"`
	AppliedAt   time.Time `gorm:"not null"`
}

// TableName implements gorm's tabler.
func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// MigrationStatus reports whether a known migration has been applied.
type MigrationStatus struct {
	Version     string     `json:"version"`
	Description string     `json:"description"`
	Applied     bool       `json:"applied"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`
}

// Migrator applies and rolls back registered migrations.
type Migrator struct {
	db         *gorm.DB
	logger     *slog.Logger
	migrations []Migration
}

// NewMigrator creates a Migrator with no migrations registered.
func NewMigrator(db *gorm.DB, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{db: db, logger: logger}
}

// RegisterAll adds migrations, keeping the registry sorted by version.
func (m *Migrator) RegisterAll(migrations []Migration) {
	m.migrations = append(m.migrations, migrations...)
	slices.SortStableFunc(m.migrations, func(a, b Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})
}

// Init creates the schema_migrations table when missing.
func (m *Migrator) Init(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("initializing migrations table: %w", err)
	}
	return nil
}

// applied returns the applied records keyed by version.
func (m *Migrator) applied(ctx context.Context) (map[string]MigrationRecord, error) {
	if err := m.Init(ctx); err != nil {
		return nil, err
	}
	var records []MigrationRecord
	if err := m.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	byVersion := make(map[string]MigrationRecord, len(records))
	for _, r := range records {
		byVersion[r.Version] = r
	}
	return byVersion, nil
}

// Pending returns the migrations not yet applied, oldest first.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, mg := range m.migrations {
		if _, ok := applied[mg.Version]; !ok {
			pending = append(pending, mg)
		}
	}
	return pending, nil
}

// Status lists every registered migration.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]MigrationStatus, len(m.migrations))
	for i, mg := range m.migrations {
		statuses[i] = MigrationStatus{Version: mg.Version, Description: mg.Description}
		if r, ok := applied[mg.Version]; ok {
			statuses[i].Applied = true
			statuses[i].AppliedAt = &r.AppliedAt
		}
	}
	return statuses, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}
	for i, mg := range pending {
		err := m.step(ctx, mg, "apply", func(tx *gorm.DB) error {
			if err := mg.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{
				Version:     mg.Version,
				Description: mg.Description,
				AppliedAt:   time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

// Down rolls back the most recently applied migration. It is a no-op when
// nothing is applied.
func (m *Migrator) Down(ctx context.Context) error {
	if err := m.Init(ctx); err != nil {
		return err
	}

	var last MigrationRecord
	err := m.db.WithContext(ctx).Order("version DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m.logger.InfoContext(ctx, "no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading last migration: %w", err)
	}

	idx := slices.IndexFunc(m.migrations, func(mg Migration) bool { return mg.Version == last.Version })
	if idx < 0 {
		return fmt.Errorf("migration definition not found for version %s", last.Version)
	}
	mg := m.migrations[idx]
	if mg.Down == nil {
		return fmt.Errorf("migration %s does not support rollback", mg.Version)
	}

	return m.step(ctx, mg, "roll back", func(tx *gorm.DB) error {
		if err := mg.Down(tx); err != nil {
			return err
		}
		return tx.Where("version = ?", mg.Version).Delete(&MigrationRecord{}).Error
	})
}

func (m *Migrator) step(ctx context.Context, mg Migration, verb string, fn func(tx *gorm.DB) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := m.logger.With(slog.String("version", mg.Version))
	log.InfoContext(ctx, verb+" migration", slog.String("description", mg.Description))

	start := time.Now()
	if err := m.db.WithContext(ctx).Transaction(fn); err != nil {
		return fmt.Errorf("%s migration %s: %w", verb, mg.Version, err)
	}
	log.InfoContext(ctx, "migration done", slog.String("action", verb), slog.Duration("elapsed", time.Since(start)))
	return nil
}
