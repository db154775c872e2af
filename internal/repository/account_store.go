package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"PaperDesk/internal/domain/models"
	"PaperDesk/internal/domain/repository"
	"PaperDesk/pkg/cache"
)

// CacheAccountStore implements AccountStore over a cache backend. Records
// are stored as JSON strings under account:<id>, so the same code runs
// against both the in-memory and the Redis backends. The last seen price
// lives under its own key: the debounced tick persist writes only that key
// and can never rewrite balance fields with a stale record. No TTL: an
// account does not expire.
type CacheAccountStore struct {
	cache cache.Service
}

// NewCacheAccountStore creates an account store over the given cache.
func NewCacheAccountStore(c cache.Service) repository.AccountStore {
	return &CacheAccountStore{cache: c}
}

func accountKey(id string) string {
	return "account:" + id
}

func priceKey(id string) string {
	return "account:" + id + ":last_price"
}

func (s *CacheAccountStore) Load(ctx context.Context, id string) (*models.AccountRecord, error) {
	var raw string
	if err := s.cache.Get(ctx, accountKey(id), &raw); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	var rec models.AccountRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", id, err)
	}

	// The price key is the fresher source when present.
	var rawPrice string
	if err := s.cache.Get(ctx, priceKey(id), &rawPrice); err == nil {
		if price, perr := strconv.ParseFloat(rawPrice, 64); perr == nil && price > 0 {
			rec.LastPrice = price
		}
	}
	return &rec, nil
}

func (s *CacheAccountStore) Save(ctx context.Context, id string, rec *models.AccountRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode account %s: %w", id, err)
	}
	if err := s.cache.Set(ctx, accountKey(id), string(raw), 0); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	if rec.LastPrice > 0 {
		if err := s.cache.Set(ctx, priceKey(id), formatPrice(rec.LastPrice), 0); err != nil {
			return fmt.Errorf("save account price: %w", err)
		}
	}
	return nil
}

// SaveLastPrice records just the last seen price so a restart resumes near
// where the sim left off. Touches only the price key, never the record.
func (s *CacheAccountStore) SaveLastPrice(ctx context.Context, id string, price float64) error {
	if err := s.cache.Set(ctx, priceKey(id), formatPrice(price), 0); err != nil {
		return fmt.Errorf("save last price: %w", err)
	}
	return nil
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'g', -1, 64)
}

func (s *CacheAccountStore) Close() error {
	if closer, ok := s.cache.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
