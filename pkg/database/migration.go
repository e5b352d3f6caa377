package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type MigrationRecord struct {
	Version   string
	Name      string
	AppliedAt time.Time
}

// RunMigrations applies every *.sql file of migrations that is not yet recorded
// in the migrations table. Files are named <version>_<name>.sql and run in
// lexical order, each in its own transaction.
func RunMigrations(ctx context.Context, db *pgxpool.Pool, migrations fs.FS, logger *zap.Logger) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			version VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы миграций: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	files, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return fmt.Errorf("ошибка при чтении списка миграций: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		version, name, ok := ParseMigrationName(file)
		if !ok {
			logger.Warn("неверный формат имени файла миграции", zap.String("file", file))
			continue
		}

		if applied[version] {
			logger.Debug("миграция уже выполнена", zap.String("version", version), zap.String("name", name))
			continue
		}

		content, err := fs.ReadFile(migrations, file)
		if err != nil {
			return fmt.Errorf("ошибка при чтении файла миграции %s: %w", file, err)
		}

		logger.Info("выполнение миграции", zap.String("version", version), zap.String("name", name))

		if err := applyMigration(ctx, db, version, name, string(content)); err != nil {
			return fmt.Errorf("ошибка при выполнении миграции %s: %w", file, err)
		}

		logger.Info("миграция выполнена успешно", zap.String("version", version), zap.String("name", name))
	}

	return nil
}

// ParseMigrationName splits "0001_init.sql" into ("0001", "init").
func ParseMigrationName(file string) (version, name string, ok bool) {
	parts := strings.SplitN(file, "_", 2)
	if len(parts) != 2 || parts[0] == "" || !strings.HasSuffix(parts[1], ".sql") {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".sql"), true
}

func appliedVersions(ctx context.Context, db *pgxpool.Pool) (map[string]bool, error) {
	rows, err := db.Query(ctx, "SELECT version, name, applied_at FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка выполненных миграций: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var record MigrationRecord
		if err := rows.Scan(&record.Version, &record.Name, &record.AppliedAt); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании записи о миграции: %w", err)
		}
		applied[record.Version] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса: %w", err)
	}

	return applied, nil
}

func applyMigration(ctx context.Context, db *pgxpool.Pool, version, name, content string) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, content); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO migrations (version, name, applied_at) VALUES ($1, $2, $3)",
		version, name, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("ошибка при записи информации о выполненной миграции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при коммите транзакции: %w", err)
	}

	return nil
}
