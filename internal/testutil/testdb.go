package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/repository"
)

var tables = []string{"reminders", "calendar_events", "user_profiles"}

type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &TestDB{
		Container: pgContainer,
		DB:        db,
		DSN:       dsn,
	}
}

// SetupSQLiteDB opens a private in-memory database. It needs no container
// and is closed when the test ends.
func SetupSQLiteDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sqlite handle: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return &TestDB{
		DB:  db,
		DSN: dsn,
	}
}

func (tdb *TestDB) TeardownTestDB(t *testing.T) {
	t.Helper()

	if tdb.Container == nil {
		return
	}

	if err := tdb.Container.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

func (tdb *TestDB) CleanTable(t *testing.T) {
	t.Helper()

	for _, table := range tables {
		stmt := "DELETE FROM " + table
		if tdb.Container != nil {
			stmt = "TRUNCATE TABLE " + table
		}

		if err := tdb.DB.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to clean table %s: %v", table, err)
		}
	}
}
