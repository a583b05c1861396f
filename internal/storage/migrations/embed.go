package migrations

import "embed"

// PostgresFS holds the signals, trades, and backtest_runs schema, applied
// in lexical order.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the equity curve time-series schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
