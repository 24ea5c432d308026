package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"metrix-portal/internal/models"

	"github.com/redis/go-redis/v9"
)

// maxRecentSearches caps the per-user recent lookups list.
const maxRecentSearches = 5

// SearchRepository keeps the per-user recent searches cache. It is a pure
// convenience cache with no server-of-record mirror: list views of meters
// and requests always go to the document store instead.
type SearchRepository interface {
	PushRecent(ctx context.Context, userID string, search models.RecentSearch) error
	ListRecent(ctx context.Context, userID string) ([]models.RecentSearch, error)
	ClearRecent(ctx context.Context, userID string) error
}

// searchRepository implements SearchRepository interface
type searchRepository struct {
	client *redis.Client
}

// NewSearchRepository creates a new recent-searches repository
func NewSearchRepository(client *redis.Client) SearchRepository {
	return &searchRepository{
		client: client,
	}
}

// PushRecent prepends a search, deduplicated by value, trimmed to the cap.
func (r *searchRepository) PushRecent(ctx context.Context, userID string, search models.RecentSearch) error {
	data, err := json.Marshal(search)
	if err != nil {
		return fmt.Errorf("failed to marshal recent search: %w", err)
	}

	key := r.getRecentKey(userID)

	// Drop any older entry for the same value before prepending, so the
	// list stays deduplicated by search value.
	existing, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read recent searches: %w", err)
	}
	for _, raw := range existing {
		var old models.RecentSearch
		if json.Unmarshal([]byte(raw), &old) == nil && old.Value == search.Value {
			if err := r.client.LRem(ctx, key, 1, raw).Err(); err != nil {
				return fmt.Errorf("failed to dedupe recent searches: %w", err)
			}
		}
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxRecentSearches-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push recent search: %w", err)
	}
	return nil
}

func (r *searchRepository) ListRecent(ctx context.Context, userID string) ([]models.RecentSearch, error) {
	raws, err := r.client.LRange(ctx, r.getRecentKey(userID), 0, maxRecentSearches-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent searches: %w", err)
	}

	searches := make([]models.RecentSearch, 0, len(raws))
	for _, raw := range raws {
		var s models.RecentSearch
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			continue
		}
		searches = append(searches, s)
	}
	return searches, nil
}

func (r *searchRepository) ClearRecent(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.getRecentKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear recent searches: %w", err)
	}
	return nil
}

func (r *searchRepository) getRecentKey(userID string) string {
	return fmt.Sprintf("recent_searches:%s", userID)
}
