package database

const recommendationColumns = `id, run_id, symbol, ticker, provider, bar_count, start_price, end_price,
	pct_change, slope, label, created_at`

// InsertRecommendation archives a recommendation. A second insert for the
// same run and symbol replaces the first.
func (db *DB) InsertRecommendation(r Recommendation) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO recommendations
		(run_id, symbol, ticker, provider, bar_count, start_price, end_price, pct_change, slope, label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Symbol, r.Ticker, r.Provider, r.BarCount, r.StartPrice, r.EndPrice,
		r.PctChange, r.Slope, r.Label,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRecommendationsForRun returns a run's recommendations ordered by symbol.
func (db *DB) GetRecommendationsForRun(runID int64) ([]Recommendation, error) {
	return db.queryRecommendations(
		"SELECT "+recommendationColumns+" FROM recommendations WHERE run_id = ? ORDER BY symbol", runID,
	)
}

// GetSymbolHistory returns up to limit recommendations for symbol, newest first.
func (db *DB) GetSymbolHistory(symbol string, limit int) ([]Recommendation, error) {
	return db.queryRecommendations(
		"SELECT "+recommendationColumns+" FROM recommendations WHERE symbol = ? ORDER BY run_id DESC LIMIT ?",
		symbol, limit,
	)
}

func (db *DB) queryRecommendations(query string, args ...any) ([]Recommendation, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		var r Recommendation
		if err := rows.Scan(&r.ID, &r.RunID, &r.Symbol, &r.Ticker, &r.Provider, &r.BarCount,
			&r.StartPrice, &r.EndPrice, &r.PctChange, &r.Slope, &r.Label, &r.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
