package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/liamashdown/bigfishalert/internal/config"
	"github.com/liamashdown/bigfishalert/internal/metrics"
)

// Checkpoint keys
const (
	StateLastMonitorCycle = "last_monitor_cycle_ts"
)

// MaxHistoryLimit caps RecentScans
const MaxHistoryLimit = 500

// DB wraps the GORM database connection
type DB struct {
	conn *gorm.DB
	log  *logrus.Logger
}

// New creates a new database connection with GORM
func New(cfg *config.Config, log *logrus.Logger) (*DB, error) {
	gormLogger := logger.New(
		&gormLogAdapter{log: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(mysql.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxConns / 2)
	sqlDB.SetConnMaxIdleTime(cfg.DatabaseMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("Database connection established")

	return &DB{conn: conn, log: log}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the connection is alive
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate creates or updates the schema
func (db *DB) AutoMigrate() error {
	return db.conn.AutoMigrate(
		&AppState{},
		&ScanRecord{},
		&Alert{},
	)
}

// GetState retrieves a state value by key
func (db *DB) GetState(ctx context.Context, key string) (string, error) {
	start := time.Now()
	var state AppState
	err := db.conn.WithContext(ctx).Where("state_key = ?", key).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	metrics.RecordDatabaseQuery("get_state", time.Since(start), err)
	if err != nil {
		return "", err
	}
	return state.StateValue, nil
}

// SetState sets a state value
func (db *DB) SetState(ctx context.Context, key, value string) error {
	start := time.Now()
	state := AppState{
		StateKey:   key,
		StateValue: value,
		UpdatedTS:  time.Now().Unix(),
	}
	err := db.conn.WithContext(ctx).Save(&state).Error
	metrics.RecordDatabaseQuery("set_state", time.Since(start), err)
	return err
}

// InsertScan stores a scan result
func (db *DB) InsertScan(ctx context.Context, rec *ScanRecord) error {
	start := time.Now()
	err := db.conn.WithContext(ctx).Create(rec).Error
	metrics.RecordDatabaseQuery("insert_scan", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

// RecentScans returns a token's latest scans, newest first
func (db *DB) RecentScans(ctx context.Context, tokenAddress string, limit int) ([]ScanRecord, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	start := time.Now()
	var scans []ScanRecord
	err := db.conn.WithContext(ctx).
		Where("token_address = ?", tokenAddress).
		Order("created_ts DESC").
		Order("id DESC").
		Limit(limit).
		Find(&scans).Error
	metrics.RecordDatabaseQuery("recent_scans", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	return scans, nil
}

// InsertAlert inserts a new alert record
func (db *DB) InsertAlert(ctx context.Context, alert *Alert) (int64, error) {
	start := time.Now()
	err := db.conn.WithContext(ctx).Create(alert).Error
	metrics.RecordDatabaseQuery("insert_alert", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	return alert.ID, nil
}

// GetLastAlertForToken retrieves the most recent alert for a token
func (db *DB) GetLastAlertForToken(ctx context.Context, tokenAddress string) (*Alert, error) {
	start := time.Now()
	var alert Alert
	err := db.conn.WithContext(ctx).
		Where("token_address = ?", tokenAddress).
		Order("created_ts DESC").
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordDatabaseQuery("last_alert", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDatabaseQuery("last_alert", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query last alert: %w", err)
	}
	return &alert, nil
}

// gormLogAdapter adapts logrus to GORM's logger interface
type gormLogAdapter struct {
	log *logrus.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
