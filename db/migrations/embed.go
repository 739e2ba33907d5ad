package migrations

import "embed"

// FS 内嵌 goose 格式的迁移脚本。
//
//go:embed *.sql
var FS embed.FS
