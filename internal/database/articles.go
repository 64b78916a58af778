package database

import (
	"database/sql"
	"errors"
	"strings"
)

// InsertArticle inserts an article. Returns the ID on success, 0 if the URL
// is already archived.
func (db *DB) InsertArticle(url, title string, publishedAt, body *string, runID int64) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO articles (url, title, published_at, body, first_run_id)
		VALUES (?, ?, ?, ?, ?)`,
		url, title, publishedAt, body, runID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, nil
		}
		return 0, err
	}
	return result.LastInsertId()
}

// ArticleIDByURL returns the ID of the archived article with url, or 0.
func (db *DB) ArticleIDByURL(url string) (int64, error) {
	var id int64
	err := db.conn.QueryRow("SELECT id FROM articles WHERE url = ?", url).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// GetArticleByID returns a single article by ID, or nil if it does not exist.
func (db *DB) GetArticleByID(articleID int64) (*Article, error) {
	var a Article
	err := db.conn.QueryRow(
		`SELECT id, url, title, published_at, body, first_run_id, collected_at
		FROM articles WHERE id = ?`, articleID,
	).Scan(&a.ID, &a.URL, &a.Title, &a.PublishedAt, &a.Body, &a.FirstRunID, &a.CollectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertMention records that an article cited symbol during a run.
// Repeated inserts are ignored.
func (db *DB) InsertMention(runID, articleID int64, symbol string) error {
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO mentions (run_id, article_id, symbol) VALUES (?, ?, ?)`,
		runID, articleID, symbol,
	)
	return err
}

// GetMentionsForRun returns the mentions of a run ordered by symbol, then by
// publish time.
func (db *DB) GetMentionsForRun(runID int64) ([]Mention, error) {
	rows, err := db.conn.Query(
		`SELECT m.run_id, m.article_id, m.symbol, a.title, a.url, a.published_at
		FROM mentions m JOIN articles a ON a.id = m.article_id
		WHERE m.run_id = ?
		ORDER BY m.symbol, a.published_at DESC`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mentions []Mention
	for rows.Next() {
		var m Mention
		if err := rows.Scan(&m.RunID, &m.ArticleID, &m.Symbol, &m.Title, &m.URL, &m.PublishedAt); err != nil {
			return nil, err
		}
		mentions = append(mentions, m)
	}
	return mentions, rows.Err()
}
