package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/sqlmatch/pkg/adapter"
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
