package collect

import "time"

// Article is a press release parsed from an article page.
type Article struct {
	Title       string
	PublishedAt time.Time
	URL         string
	Body        string
}

// Date returns the publish date as YYYY-MM-DD.
func (a Article) Date() string {
	return a.PublishedAt.Format("2006-01-02")
}

// SkipReason says why a candidate article was dropped.
type SkipReason string

const (
	SkipNoLink      SkipReason = "no_link"
	SkipFetchError  SkipReason = "fetch_error"
	SkipNoDate      SkipReason = "no_date"
	SkipBadDate     SkipReason = "bad_date"
	SkipNoBody      SkipReason = "no_body"
	SkipOutOfWindow SkipReason = "out_of_window"
)

// Outcome is the result for one candidate: either a parsed Article or a
// skip reason.
type Outcome struct {
	URL     string
	Article *Article
	Skip    SkipReason
	Err     error // set for SkipFetchError
}

// Parsed reports whether the candidate produced an article.
func (o Outcome) Parsed() bool {
	return o.Article != nil
}

func parsed(a *Article) Outcome {
	return Outcome{URL: a.URL, Article: a}
}

func skipped(url string, reason SkipReason, err error) Outcome {
	return Outcome{URL: url, Skip: reason, Err: err}
}
