package sqlite

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type userRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Name         string    `gorm:"size:255;not null"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         string    `gorm:"size:50;not null;default:user;index"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

type questionRow struct {
	ID        string     `gorm:"primaryKey;size:36"`
	Question  string     `gorm:"type:text;not null"`
	Answer    string     `gorm:"type:text;not null"`
	Category  string     `gorm:"size:100;not null;index"`
	CreatedBy string     `gorm:"size:36;not null;index"`
	Author    userRow    `gorm:"foreignKey:CreatedBy;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"not null;index"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
}

func (questionRow) TableName() string { return "questions" }

// Open creates (or opens) the database file, applies pragmas and migrates the schema.
// Pass ":memory:" for a throwaway database.
func Open(path string, debug bool) (*gorm.DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), fs.ModePerm); err != nil {
			return nil, err
		}
		dsn = path + "?cache=shared&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	gormLogger := logger.Discard
	if debug {
		gormLogger = logger.Default
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// sqlite allows one writer; a single connection also keeps ":memory:" in one database
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA temp_store = MEMORY;",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return nil, err
		}
	}

	if err := db.AutoMigrate(&userRow{}, &questionRow{}); err != nil {
		return nil, err
	}

	return db, nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
