// Package recordsdb is the local sqlite-backed records.Provider used when
// no external records service is configured: it persists the same
// command/execution/whitelist shapes the external service would, using
// gorm over modernc.org/sqlite.
package recordsdb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"pocketcoder/internal/records"
)

type commandRow struct {
	ID        string `gorm:"primaryKey"`
	Hash      string `gorm:"uniqueIndex"`
	Command   string
	CreatedAt time.Time
}

type executionRow struct {
	ID         string `gorm:"primaryKey"`
	CommandID  string
	Cwd        string
	Status     string
	Source     string
	MetadataJS string
	UsageID    string
	OutputJS   string
	ExitCode   *int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type whitelistRow struct {
	CommandID string `gorm:"primaryKey"`
	Active    bool
}

// Store implements records.Provider against a local sqlite file.
type Store struct {
	db *gorm.DB
}

var _ records.Provider = (*Store)(nil)

func Open(path string) (*Store, error) {
	gdb, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&commandRow{}, &executionRow{}, &whitelistRow{}); err != nil {
		return nil, err
	}
	return &Store{db: gdb}, nil
}

func openSQLite(dsn string) (*gorm.DB, error) {
	if shouldEnsureParentDir(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, err
		}
	}
	gdb, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := gdb.Exec(`PRAGMA journal_mode=WAL;`).Error; err != nil {
		return nil, err
	}
	if err := gdb.Exec(`PRAGMA busy_timeout=5000;`).Error; err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return gdb, nil
}

func shouldEnsureParentDir(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return false
	}
	lower := strings.ToLower(dsn)
	if strings.Contains(lower, "mode=memory") || strings.HasPrefix(lower, "file:") {
		return false
	}
	return true
}

func (s *Store) GetCommandByHash(ctx context.Context, hash string) (*records.CommandRecord, error) {
	var row commandRow
	err := s.db.WithContext(ctx).Where("hash = ?", hash).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := records.CommandRecord{ID: row.ID, Hash: row.Hash, Command: row.Command}
	return &rec, nil
}

func (s *Store) CreateCommand(ctx context.Context, cmd, hash string) (records.CommandRecord, error) {
	row := commandRow{ID: uuid.NewString(), Hash: hash, Command: cmd, CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return records.CommandRecord{}, err
	}
	return records.CommandRecord{ID: row.ID, Hash: row.Hash, Command: row.Command}, nil
}

func (s *Store) IsWhitelisted(ctx context.Context, commandID string) (bool, error) {
	var row whitelistRow
	err := s.db.WithContext(ctx).Where("command_id = ?", commandID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return row.Active, nil
}

func (s *Store) CreateExecution(ctx context.Context, cmdID, cwd, status, source string, metadata map[string]any, usageID string) (records.ExecutionRecord, error) {
	row := executionRow{
		ID:         uuid.NewString(),
		CommandID:  cmdID,
		Cwd:        cwd,
		Status:     status,
		Source:     source,
		MetadataJS: encodeJSON(metadata),
		UsageID:    usageID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return records.ExecutionRecord{}, err
	}
	return records.ExecutionRecord{ID: row.ID, Status: row.Status}, nil
}

func (s *Store) GetExecution(ctx context.Context, id string) (records.ExecutionRecord, error) {
	var row executionRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return records.ExecutionRecord{}, err
	}
	return records.ExecutionRecord{
		ID:       row.ID,
		Status:   row.Status,
		Output:   decodeJSON(row.OutputJS),
		ExitCode: row.ExitCode,
	}, nil
}

func (s *Store) UpdateExecutionStatus(ctx context.Context, id, status string, output map[string]any, exitCode *int) error {
	updates := map[string]any{
		"status":     status,
		"output_js":  encodeJSON(output),
		"exit_code":  exitCode,
		"updated_at": time.Now(),
	}
	return s.db.WithContext(ctx).Model(&executionRow{}).Where("id = ?", id).Updates(updates).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
