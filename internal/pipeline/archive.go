package pipeline

import (
	"log"
	"time"

	"github.com/TobiSchelling/TickerScout/internal/collect"
	"github.com/TobiSchelling/TickerScout/internal/database"
	"github.com/TobiSchelling/TickerScout/internal/prices"
	"github.com/TobiSchelling/TickerScout/internal/recommend"
	"github.com/TobiSchelling/TickerScout/internal/symbols"
)

type analysis struct {
	series *prices.Series
	rec    *recommend.Recommendation
}

// archive records a run in the database. Every method is a no-op without a
// database, and failures are logged rather than returned.
type archive struct {
	db    *database.DB
	runID int64
}

func (p *Pipeline) startArchive(daysBack, pages int) *archive {
	a := &archive{db: p.db}
	if a.db == nil {
		return a
	}
	id, err := a.db.StartRun(daysBack, pages, p.writer.Dir())
	if err != nil {
		log.Printf("Archive disabled for this run: %v", err)
		a.db = nil
		return a
	}
	a.runID = id
	return a
}

func (a *archive) recordCounts(collected *collect.Result) {
	if a.db == nil {
		return
	}
	err := a.db.RecordCounts(a.runID, database.RunCounts{
		Cutoff:     collected.Cutoff.Format(time.RFC3339),
		Candidates: len(collected.Outcomes),
		Articles:   len(collected.Articles),
	})
	if err != nil {
		log.Printf("Archiving run counts failed: %v", err)
	}
}

func (a *archive) recordMentions(x *symbols.Extraction) {
	if a.db == nil {
		return
	}
	for _, m := range x.Mentions {
		published := m.Article.PublishedAt.Format(time.RFC3339)
		body := m.Article.Body
		id, err := a.db.InsertArticle(m.Article.URL, m.Article.Title, &published, &body, a.runID)
		if err == nil && id == 0 {
			id, err = a.db.ArticleIDByURL(m.Article.URL)
		}
		if err != nil {
			log.Printf("Archiving article %s failed: %v", m.Article.URL, err)
			continue
		}
		for _, sym := range m.Symbols {
			if err := a.db.InsertMention(a.runID, id, sym); err != nil {
				log.Printf("Archiving mention %s failed: %v", sym, err)
			}
		}
	}
}

func (a *archive) recordRecommendation(an *analysis) {
	if a.db == nil || an == nil {
		return
	}
	_, err := a.db.InsertRecommendation(database.Recommendation{
		RunID:      a.runID,
		Symbol:     an.rec.Symbol,
		Ticker:     an.series.Ticker,
		Provider:   an.series.Provider,
		BarCount:   len(an.series.Bars),
		StartPrice: an.rec.StartPrice,
		EndPrice:   an.rec.EndPrice,
		PctChange:  an.rec.PctChange,
		Slope:      an.rec.Slope,
		Label:      string(an.rec.Label),
	})
	if err != nil {
		log.Printf("Archiving recommendation for %s failed: %v", an.rec.Symbol, err)
	}
}

func (a *archive) finish(summaryMarkdown string, runErr error) {
	if a.db == nil {
		return
	}
	if err := a.db.FinishRun(a.runID, summaryMarkdown, runErr); err != nil {
		log.Printf("Archiving run result failed: %v", err)
	}
}
