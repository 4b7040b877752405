package cachestore

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Stats summarises cache contents.
type Stats struct {
	Path            string
	Translations    int
	TranslatedItems int
	Validations     int
	Hits            int64
	SizeBytes       int64
	Pairs           map[string]int
}

// Stats reports entry counts, hit totals, and the database size.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path, Pairs: map[string]int{}}

	var translationHits, validationHits int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(item_count), 0), COALESCE(SUM(hits), 0) FROM translations`,
	).Scan(&stats.Translations, &stats.TranslatedItems, &translationHits); err != nil {
		return Stats{}, fmt.Errorf("translation stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(hits), 0) FROM validations`,
	).Scan(&stats.Validations, &validationHits); err != nil {
		return Stats{}, fmt.Errorf("validation stats: %w", err)
	}
	stats.Hits = translationHits + validationHits

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_lang || '-' || target_lang, COUNT(1) FROM translations GROUP BY source_lang, target_lang`)
	if err != nil {
		return Stats{}, fmt.Errorf("pair stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pair string
		var count int
		if err := rows.Scan(&pair, &count); err != nil {
			return Stats{}, err
		}
		stats.Pairs[pair] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	for _, suffix := range []string{"", "-wal"} {
		if info, err := os.Stat(s.path + suffix); err == nil {
			stats.SizeBytes += info.Size()
		}
	}
	return stats, nil
}

// Clear removes every entry and returns how many rows were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var removed int64
	for _, table := range []string{"translations", "validations"} {
		res, err := s.exec(ctx, "DELETE FROM "+table)
		if err != nil {
			return removed, fmt.Errorf("clear %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, nil
}

// Prune removes entries created before now-age.
func (s *Store) Prune(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, fmt.Errorf("prune age must be positive, got %s", age)
	}
	cutoff := time.Now().UTC().Add(-age).Format(time.RFC3339Nano)
	var removed int64
	for _, table := range []string{"translations", "validations"} {
		res, err := s.exec(ctx, "DELETE FROM "+table+" WHERE created_at < ?", cutoff)
		if err != nil {
			return removed, fmt.Errorf("prune %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, nil
}
