package migrations

import (
	"context"
	"database/sql"
	"fmt"

	dbmigrations "quill/db/migrations"

	"github.com/pressly/goose/v3"
)

// 测试替换点。
var (
	gooseUp     = goose.UpContext
	gooseStatus = goose.StatusContext
)

func prepare(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("nil database connection")
	}
	goose.SetBaseFS(dbmigrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Apply 执行 embed 的全部 up 迁移脚本。
func Apply(ctx context.Context, db *sql.DB) error {
	if err := prepare(db); err != nil {
		return err
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Status 打印各迁移的执行状态。
func Status(ctx context.Context, db *sql.DB) error {
	if err := prepare(db); err != nil {
		return err
	}
	return gooseStatus(ctx, db, ".")
}
