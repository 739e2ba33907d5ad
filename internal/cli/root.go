// Package cli 实现 quillctl 运维命令：数据库迁移、token 管理与临时文件清理。
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// env 在子命令之间共享已加载的配置。
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	// connect 可在测试中替换
	connect func(ctx context.Context, cfg *config.Config) (*sql.DB, error)
}

// NewRootCmd 构建 quillctl 命令树。
func NewRootCmd() *cobra.Command {
	e := &env{connect: database.Connect}

	root := &cobra.Command{
		Use:           "quillctl",
		Short:         "Administrative commands for the quill blog backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg != nil {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			e.cfg = cfg
			e.logger = logging.New(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	root.AddCommand(newMigrateCmd(e))
	root.AddCommand(newTokenCmd(e))
	root.AddCommand(newSweepCmd(e))
	return root
}

// Execute 运行 quillctl。
func Execute() error {
	return NewRootCmd().Execute()
}

func (e *env) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := e.connect(ctx, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
