package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff"
)

// HistoryRow is the relational shape of one handoff history entry.
type HistoryRow struct {
	ID        uint      `gorm:"primaryKey"`
	ContactID string    `gorm:"index;size:64"`
	FromBot   string    `gorm:"size:16"`
	ToBot     string    `gorm:"size:16"`
	Timestamp time.Time `gorm:"index"`
}

func (HistoryRow) TableName() string { return "handoff_history" }

// OutcomeRow is the relational shape of one recorded outcome. Metadata is
// stored as JSON text.
type OutcomeRow struct {
	ID        uint   `gorm:"primaryKey"`
	ContactID string `gorm:"index;size:64"`
	SourceBot string `gorm:"size:16"`
	TargetBot string `gorm:"size:16"`
	Outcome   string `gorm:"size:16"`
	Timestamp time.Time
	Metadata  string
}

func (OutcomeRow) TableName() string { return "handoff_outcomes" }

// GormStore mirrors handoff state into a relational database through GORM.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a SQLite database at path. ":memory:" gives
// an ephemeral database, which the tests use.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

// NewGormStore wraps a GORM handle and migrates the mirror tables.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&HistoryRow{}, &OutcomeRow{}); err != nil {
		return nil, fmt.Errorf("migrate handoff tables: %w", err)
	}
	return &GormStore{db: db}, nil
}

// AppendHistory mirrors one completed handoff.
func (s *GormStore) AppendHistory(ctx context.Context, contactID string, entry handoff.HistoryEntry) error {
	row := HistoryRow{
		ContactID: contactID,
		FromBot:   string(entry.From),
		ToBot:     string(entry.To),
		Timestamp: entry.Timestamp,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert history row: %w", err)
	}
	return nil
}

// AppendOutcome mirrors one recorded outcome.
func (s *GormStore) AppendOutcome(ctx context.Context, rec handoff.OutcomeRecord) error {
	metadata := ""
	if len(rec.Metadata) > 0 {
		encoded, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal outcome metadata: %w", err)
		}
		metadata = string(encoded)
	}
	row := OutcomeRow{
		ContactID: rec.ContactID,
		SourceBot: string(rec.Route.Source),
		TargetBot: string(rec.Route.Target),
		Outcome:   string(rec.Outcome),
		Timestamp: rec.Timestamp,
		Metadata:  metadata,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert outcome row: %w", err)
	}
	return nil
}

// LoadHistory returns every contact's entries newer than since.
func (s *GormStore) LoadHistory(ctx context.Context, since time.Time) (map[string][]handoff.HistoryEntry, error) {
	var rows []HistoryRow
	if err := s.db.WithContext(ctx).
		Where("timestamp > ?", since).
		Order("timestamp asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load history rows: %w", err)
	}

	out := make(map[string][]handoff.HistoryEntry)
	for _, row := range rows {
		out[row.ContactID] = append(out[row.ContactID], handoff.HistoryEntry{
			From:      handoff.BotType(row.FromBot),
			To:        handoff.BotType(row.ToBot),
			Timestamp: row.Timestamp,
		})
	}
	return out, nil
}

// LoadOutcomes returns the full outcome ledger in insertion order.
func (s *GormStore) LoadOutcomes(ctx context.Context) ([]handoff.OutcomeRecord, error) {
	var rows []OutcomeRow
	if err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load outcome rows: %w", err)
	}

	out := make([]handoff.OutcomeRecord, 0, len(rows))
	for _, row := range rows {
		rec := handoff.OutcomeRecord{
			ContactID: row.ContactID,
			Route: handoff.Route{
				Source: handoff.BotType(row.SourceBot),
				Target: handoff.BotType(row.TargetBot),
			},
			Outcome:   handoff.Outcome(row.Outcome),
			Timestamp: row.Timestamp,
		}
		if row.Metadata != "" {
			if err := json.Unmarshal([]byte(row.Metadata), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("decode outcome metadata: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ handoff.Store = (*GormStore)(nil)
