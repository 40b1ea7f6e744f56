package db

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/undeadops/tersemap/internal/store"
)

type uriRow struct {
	Token       string `gorm:"column:token;primaryKey"`
	OriginalURI string `gorm:"column:original_uri;not null"`
}

func (uriRow) TableName() string {
	return "uris"
}

// SQL stores records in a single "uris" table through gorm.
type SQL struct {
	gormClient *gorm.DB

	// serial is set for SQLite: one connection and one writer at a time,
	// matching the engine's single-writer file lock.
	serial  bool
	writeMu sync.Mutex
}

func OpenSQLite(path string) (*SQL, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	s, err := openSQL(sqlite.Open(path))
	if err != nil {
		return nil, err
	}
	sqlDB, err := s.gormClient.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get core db failed")
	}
	sqlDB.SetMaxOpenConns(1)
	s.serial = true
	return s, nil
}

func OpenPostgres(dsn string) (*SQL, error) {
	return openSQL(postgres.Open(dsn))
}

func openSQL(dialector gorm.Dialector) (*SQL, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect db failed")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get core db failed")
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping core db failed")
	}
	if err := db.AutoMigrate(&uriRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate uris table failed")
	}
	return &SQL{gormClient: db}, nil
}

func (s *SQL) lockWrite() func() {
	if !s.serial {
		return func() {}
	}
	s.writeMu.Lock()
	return s.writeMu.Unlock
}

func (s *SQL) Get(ctx context.Context, token string) (store.Record, error) {
	var row uriRow
	err := s.gormClient.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Record{}, store.ErrNotFound
	}
	if err != nil {
		return store.Record{}, errors.Wrap(err, "get uri failed")
	}
	return store.Record{Token: row.Token, OriginalURI: row.OriginalURI}, nil
}

func (s *SQL) Insert(ctx context.Context, token string, originalURI string) error {
	defer s.lockWrite()()

	err := s.gormClient.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&uriRow{Token: token, OriginalURI: originalURI}).Error
	if err != nil {
		return errors.Wrap(err, "insert uri failed")
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, token string) (bool, error) {
	defer s.lockWrite()()

	res := s.gormClient.WithContext(ctx).Where("token = ?", token).Delete(&uriRow{})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "delete uri failed")
	}
	return res.RowsAffected > 0, nil
}

func (s *SQL) List(ctx context.Context) ([]store.Record, error) {
	var rows []uriRow
	if err := s.gormClient.WithContext(ctx).Order("token").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list uris failed")
	}
	records := make([]store.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, store.Record{Token: row.Token, OriginalURI: row.OriginalURI})
	}
	return records, nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.gormClient.DB()
	if err != nil {
		return errors.Wrap(err, "get core db failed")
	}
	return sqlDB.Close()
}
