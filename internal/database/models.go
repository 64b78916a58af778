package database

// Run is one archived pipeline run.
type Run struct {
	ID              int64
	StartedAt       *string
	FinishedAt      *string
	Status          string // "running", "ok" or "failed"
	Error           *string
	LookbackDays    int
	Pages           int
	Cutoff          *string
	Candidates      int
	Articles        int
	SummaryMarkdown *string
	OutputDir       *string
}

// Article is a press release seen by at least one run.
type Article struct {
	ID          int64
	URL         string
	Title       string
	PublishedAt *string
	Body        *string
	FirstRunID  *int64
	CollectedAt *string
}

// Mention links an article to a watchlist symbol within a run.
type Mention struct {
	RunID       int64
	ArticleID   int64
	Symbol      string
	Title       string
	URL         string
	PublishedAt *string
}

// Recommendation is an archived verdict for one symbol in one run.
type Recommendation struct {
	ID         int64
	RunID      int64
	Symbol     string
	Ticker     string
	Provider   string
	BarCount   int
	StartPrice float64
	EndPrice   float64
	PctChange  float64
	Slope      float64
	Label      string
	CreatedAt  *string
}

// RunCounts are the collection totals recorded when a run finishes.
type RunCounts struct {
	Cutoff     string
	Candidates int
	Articles   int
}

// Stats contains aggregate database statistics.
type Stats struct {
	Runs            int
	FailedRuns      int
	Articles        int
	Mentions        int
	Recommendations int
	Symbols         int
	LastRunAt       string
}
