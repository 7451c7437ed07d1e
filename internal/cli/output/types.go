package output

// TopicInfo describes one catalog topic in machine-readable list output.
type TopicInfo struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Stage      string `json:"stage"`
	Summary    string `json:"summary,omitempty"`
	Statements int    `json:"statements"`
	// Variant is "shared" when the dialect uses the common rendition,
	// the dialect name when it ships an override.
	Variant string `json:"variant"`
}

// ListOutput is the JSON payload of the list command.
type ListOutput struct {
	Dialect string      `json:"dialect"`
	Topics  []TopicInfo `json:"topics"`
	Summary ListSummary `json:"summary"`
}

// ListSummary totals a list payload.
type ListSummary struct {
	TotalTopics     int `json:"total_topics"`
	TotalStatements int `json:"total_statements"`
}

// ShowOutput is the JSON payload of the show command.
type ShowOutput struct {
	Topic      string `json:"topic"`
	Title      string `json:"title"`
	Stage      string `json:"stage"`
	Dialect    string `json:"dialect"`
	Variant    string `json:"variant"`
	Path       string `json:"path"`
	Statements int    `json:"statements"`
	SQL        string `json:"sql"`
}

// StatementInfo describes one executable statement of a script.
type StatementInfo struct {
	Label string `json:"label"`
	Line  int    `json:"line"`
	Rows  bool   `json:"returns_rows"`
	SQL   string `json:"sql"`
}

// ShowStatementsOutput is the JSON payload of show --stmts.
type ShowStatementsOutput struct {
	Topic      string          `json:"topic"`
	Dialect    string          `json:"dialect"`
	Statements []StatementInfo `json:"statements"`
}

// RunEvent is one JSON line of run progress output, emitted when the
// run command writes JSON. Events: run_start, script_complete,
// run_complete.
type RunEvent struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	RunID     string `json:"run_id"`

	// run_start
	Topics []string `json:"topics,omitempty"`

	// script_complete
	Topic       string `json:"topic,omitempty"`
	Status      string `json:"status,omitempty"`
	Statements  int    `json:"statements,omitempty"`
	Tolerated   int    `json:"tolerated,omitempty"`
	Rows        int    `json:"rows,omitempty"`
	ExecutionMS int64  `json:"execution_ms,omitempty"`
	Error       string `json:"error,omitempty"`

	// run_complete
	TotalScripts int   `json:"total_scripts,omitempty"`
	Successful   int   `json:"successful,omitempty"`
	Failed       int   `json:"failed,omitempty"`
	TotalMS      int64 `json:"total_ms,omitempty"`
}
