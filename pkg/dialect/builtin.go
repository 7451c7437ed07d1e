package dialect

// Builtin dialect descriptors. Feature flags reflect the engine versions the
// catalog is written against: DuckDB 1.x, SQLite 3.45+, Postgres 14+,
// SQL Server 2019+.

// DuckDB has no triggers, so history tables are maintained by explicit
// statements in the temporal scripts.
var builtinDuckDB = &Dialect{
	Name:          "duckdb",
	DisplayName:   "DuckDB",
	DefaultSchema: "main",
	QuoteStart:    `"`,
	QuoteEnd:      `"`,
	Placeholder:   PlaceholderQuestion,
	ExplainPrefix: "EXPLAIN ",
	Features: Features{
		RecursiveKeyword: true,
		GenerateSeries:   true,
		JSON:             true,
	},
}

var builtinSQLite = &Dialect{
	Name:          "sqlite",
	DisplayName:   "SQLite",
	DefaultSchema: "main",
	QuoteStart:    `"`,
	QuoteEnd:      `"`,
	Placeholder:   PlaceholderQuestion,
	ExplainPrefix: "EXPLAIN QUERY PLAN ",
	Features: Features{
		RecursiveKeyword: true,
		Triggers:         true,
		JSON:             true,
	},
}

var builtinPostgres = &Dialect{
	Name:          "postgres",
	DisplayName:   "PostgreSQL",
	DefaultSchema: "public",
	QuoteStart:    `"`,
	QuoteEnd:      `"`,
	Placeholder:   PlaceholderDollar,
	ExplainPrefix: "EXPLAIN ",
	Features: Features{
		RecursiveKeyword: true,
		GenerateSeries:   true,
		Triggers:         true,
		GeneratedStored:  true,
		XML:              true,
		JSON:             true,
	},
}

// SQL Server writes recursive CTEs as plain WITH and inspects plans through
// session settings, so ExplainPrefix stays empty.
var builtinMSSQL = &Dialect{
	Name:          "mssql",
	DisplayName:   "SQL Server",
	DefaultSchema: "dbo",
	QuoteStart:    "[",
	QuoteEnd:      "]",
	Placeholder:   PlaceholderAtP,
	Features: Features{
		Triggers:         true,
		SystemVersioning: true,
		GeneratedStored:  true,
		XML:              true,
		JSON:             true,
	},
}

func init() {
	Register(builtinDuckDB)
	Register(builtinSQLite)
	Register(builtinPostgres)
	Register(builtinMSSQL)
}
