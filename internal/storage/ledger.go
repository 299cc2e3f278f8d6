package storage

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GenerationRecord is one row of training history.
type GenerationRecord struct {
	ID           uint      `gorm:"primarykey" json:"-"`
	RunID        string    `gorm:"index;not null" json:"run_id"`
	Generation   int       `gorm:"not null" json:"generation"`
	Population   int       `json:"population"`
	Survivors    int       `json:"survivors"`
	BestDistance float64   `json:"best_distance"`
	BestY        float64   `json:"best_y"`
	Frames       int       `json:"frames"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ledger keeps training history in SQLite.
type Ledger struct {
	db  *gorm.DB
	log zerolog.Logger
}

// OpenLedger opens or creates the ledger at path. An empty path keeps the
// ledger in memory.
func OpenLedger(path string, log zerolog.Logger) (*Ledger, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	// a second connection would see a different in-memory database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&GenerationRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}

	if path == "" {
		log.Debug().Msg("using in-memory ledger")
	} else {
		log.Debug().Str("path", path).Msg("using ledger")
	}

	return &Ledger{db: db, log: log}, nil
}

func (l *Ledger) Record(rec *GenerationRecord) error {
	if err := l.db.Create(rec).Error; err != nil {
		return fmt.Errorf("record generation %d: %w", rec.Generation, err)
	}
	l.log.Debug().
		Str("run", rec.RunID).
		Int("generation", rec.Generation).
		Float64("distance", rec.BestDistance).
		Msg("generation recorded")
	return nil
}

// History returns the generations of a run in order.
func (l *Ledger) History(runID string) ([]GenerationRecord, error) {
	var recs []GenerationRecord
	err := l.db.Where("run_id = ?", runID).Order("generation asc").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (l *Ledger) Runs() ([]string, error) {
	var ids []string
	err := l.db.Model(&GenerationRecord{}).Distinct("run_id").Order("run_id").Pluck("run_id", &ids).Error
	return ids, err
}

func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
