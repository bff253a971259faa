package storage

import (
	"context"
	"fmt"
	"time"

	"cspguard/internal/core"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// NewDB создаёт пул подключений к MySQL с продакшн-настройками
// и проверяет подключение.
func NewDB(ctx context.Context, dsn string) (*sqlx.DB, error) {
	mcfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse MySQL DSN: %w", err)
	}
	// Параметры, на которые опирается код, выставляем сами
	mcfg.ParseTime = true
	mcfg.MultiStatements = true // миграции — несколько выражений в файле
	if mcfg.Timeout == 0 {
		mcfg.Timeout = 5 * time.Second
	}

	db, err := sqlx.ConnectContext(ctx, "mysql", mcfg.FormatDSN())
	if err != nil {
		core.LogError("ошибка подключения к MySQL", map[string]interface{}{
			"error": err,
			"addr":  mcfg.Addr,
			"db":    mcfg.DBName,
		})
		return nil, fmt.Errorf("storage: connect: %w", err)
	}

	// Пул: политика читается один раз при старте, много соединений не нужно
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	core.LogInfo("MySQL подключение успешно", map[string]interface{}{
		"addr":     mcfg.Addr,
		"database": mcfg.DBName,
	})
	return db, nil
}

// Close корректно закрывает пул подключений
// Вызывается при graceful shutdown приложения
func Close(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		core.LogError("ошибка закрытия MySQL пула", map[string]interface{}{"error": err})
		return err
	}
	core.LogInfo("MySQL пул закрыт", nil)
	return nil
}
