package migrator

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/wb-go/wbf/zlog"
)

// Migrator обертка над golang-migrate для схемы users и notifications.
type Migrator struct {
	migrate *migrate.Migrate
}

// NewMigrator проверяет каталог миграций и создает экземпляр migrate.
func NewMigrator(db *sql.DB, migrationsDir string) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("database connection is nil")
	}
	if migrationsDir == "" {
		return nil, errors.New("migrations directory is empty")
	}

	info, err := os.Stat(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("cannot access migrations path %q: %w", migrationsDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations path %q is not a directory", migrationsDir)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres driver: %w", err)
	}

	source, err := sourceURL(migrationsDir)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithDatabaseInstance(source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = logger{}

	return &Migrator{migrate: m}, nil
}

// Up накатывает все непримененные миграции.
func (m *Migrator) Up() error {
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Down откатывает последнюю примененную миграцию.
func (m *Migrator) Down() error {
	err := m.migrate.Steps(-1)
	if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Version возвращает текущую версию схемы.
func (m *Migrator) Version() (uint, error) {
	ver, dirty, err := m.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, nil
		}
		return 0, err
	}
	if dirty {
		return ver, fmt.Errorf("database is dirty at version %d (migration failed midway)", ver)
	}
	return ver, nil
}

// Close освобождает источник и соединение драйвера. *sql.DB закрывает владелец.
func (m *Migrator) Close() error {
	if m.migrate == nil {
		return nil
	}
	serr, derr := m.migrate.Close()
	return errors.Join(serr, derr)
}

type logger struct{}

func (logger) Printf(format string, v ...interface{}) {
	zlog.Logger.Info().Msgf("migrate: "+format, v...)
}

func (logger) Verbose() bool {
	return false
}
