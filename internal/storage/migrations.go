package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"cspguard/internal/core"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations управляет версиями БД
type Migrations struct {
	db    *sqlx.DB
	files fs.FS
}

// NewMigrations создаёт мигратор со встроенными SQL-файлами
func NewMigrations(db *sqlx.DB) *Migrations {
	return &Migrations{db: db, files: migrationFS}
}

// RunMigrations выполняет все ещё не применённые миграции по порядку имён (001, 002...)
func (m *Migrations) RunMigrations(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return err
	}

	files, err := fs.Glob(m.files, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("ошибка поиска миграций: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		if err := m.runMigration(ctx, file); err != nil {
			return fmt.Errorf("ошибка миграции %s: %w", file, err)
		}
	}

	core.LogInfo("Миграции завершены успешно", map[string]interface{}{"files": len(files)})
	return nil
}

// createMigrationsTable создаёт таблицу для отслеживания миграций
func (m *Migrations) createMigrationsTable(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS migrations (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`

	_, err := m.db.ExecContext(ctx, q)
	return err
}

// runMigration выполняет одну миграцию в транзакции
func (m *Migrations) runMigration(ctx context.Context, file string) error {
	name := path.Base(file)

	var applied int
	if err := m.db.GetContext(ctx, &applied, "SELECT COUNT(*) FROM migrations WHERE name = ?", name); err != nil {
		return fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if applied > 0 {
		return nil
	}

	sqlBytes, err := fs.ReadFile(m.files, file)
	if err != nil {
		return fmt.Errorf("ошибка чтения файла: %w", err)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("ошибка выполнения SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("ошибка записи миграции: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка коммита: %w", err)
	}

	core.LogInfo("Миграция применена", map[string]interface{}{"file": name})
	return nil
}
