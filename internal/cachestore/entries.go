package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"subforge/internal/logging"
	"subforge/internal/translate"
	"subforge/internal/validation"
)

// GetTranslation returns the cached batch for key.
func (s *Store) GetTranslation(ctx context.Context, key translate.Key) ([]string, bool, error) {
	digest := key.Digest()
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM translations WHERE digest = ?`, digest).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var values []string
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return nil, false, err
	}
	if len(values) != len(key.Texts) {
		// A batch of the wrong length would break alignment downstream.
		return nil, false, nil
	}
	_, _ = s.exec(ctx, `UPDATE translations SET hits = hits + 1 WHERE digest = ?`, digest)
	return values, true, nil
}

// PutTranslation stores values for key, replacing any previous entry.
func (s *Store) PutTranslation(ctx context.Context, key translate.Key, values []string) error {
	payload, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO translations (digest, source_lang, target_lang, item_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET payload = excluded.payload, item_count = excluded.item_count`,
		key.Digest(), key.Source, key.Target, len(values), string(payload), now())
	return err
}

// GetValidation returns the cached validation for key.
func (s *Store) GetValidation(ctx context.Context, key validation.CacheKey) (validation.Result, bool, error) {
	result := validation.Result{OriginalText: key.Original}
	err := s.db.QueryRowContext(ctx, `SELECT initial_text, validated, confidence, model FROM validations
		WHERE original_text = ? AND source_lang = ? AND target_lang = ?`,
		key.Original, key.Source, key.Target,
	).Scan(&result.InitialTranslation, &result.ValidatedTranslation, &result.ConfidenceScore, &result.ModelUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return validation.Result{}, false, nil
	}
	if err != nil {
		return validation.Result{}, false, err
	}
	_, _ = s.exec(ctx, `UPDATE validations SET hits = hits + 1
		WHERE original_text = ? AND source_lang = ? AND target_lang = ?`, key.Original, key.Source, key.Target)
	return result, true, nil
}

// PutValidation stores result for key.
func (s *Store) PutValidation(ctx context.Context, key validation.CacheKey, result validation.Result) error {
	_, err := s.exec(ctx, `INSERT INTO validations
		(original_text, source_lang, target_lang, initial_text, validated, confidence, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(original_text, source_lang, target_lang) DO UPDATE SET
			initial_text = excluded.initial_text,
			validated = excluded.validated,
			confidence = excluded.confidence,
			model = excluded.model`,
		key.Original, key.Source, key.Target,
		result.InitialTranslation, result.ValidatedTranslation, result.ConfidenceScore, result.ModelUsed, now())
	return err
}

// Translations adapts the store to translate.Cache. Storage errors are
// logged and treated as misses.
func (s *Store) Translations() translate.Cache {
	return translationCache{store: s}
}

// Validations adapts the store to validation.ResultCache.
func (s *Store) Validations() validation.ResultCache {
	return validationCache{store: s}
}

type translationCache struct {
	store *Store
}

func (c translationCache) Get(ctx context.Context, key translate.Key) ([]string, bool) {
	values, ok, err := c.store.GetTranslation(ctx, key)
	if err != nil {
		c.store.warn("translation cache read failed", err)
		return nil, false
	}
	return values, ok
}

func (c translationCache) Put(ctx context.Context, key translate.Key, values []string) {
	if err := c.store.PutTranslation(ctx, key, values); err != nil {
		c.store.warn("translation cache write failed", err)
	}
}

type validationCache struct {
	store *Store
}

func (c validationCache) Get(ctx context.Context, key validation.CacheKey) (validation.Result, bool) {
	result, ok, err := c.store.GetValidation(ctx, key)
	if err != nil {
		c.store.warn("validation cache read failed", err)
		return validation.Result{}, false
	}
	return result, ok
}

func (c validationCache) Put(ctx context.Context, key validation.CacheKey, result validation.Result) {
	if err := c.store.PutValidation(ctx, key, result); err != nil {
		c.store.warn("validation cache write failed", err)
	}
}

func (s *Store) warn(msg string, err error) {
	logging.WarnWithContext(s.logger, msg, "cache_error",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run 'subforge cache clear' if the database is corrupt"),
		logging.String(logging.FieldImpact, "result recomputed instead of served from cache"),
	)
}
