package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	CART_CACHE_PREFIX     = "cart:"
	CART_ACTIVITY_PREFIX  = "cart:activity:"
	CART_ABANDONED_PREFIX = "cart:abandoned:"
	CART_TTL              = 24 * time.Hour
	ABANDONMENT_IDLE      = 24 * time.Hour
)

// Store keeps carts in redis keyed by cart id. It is the storefront analog
// of the browser session storage the shop clients use: a live, externally
// mutable collection that checkout reads fresh snapshots from.
type Store struct {
	redis    *redis.Client
	onChange func(cartID string, items []CartItem)
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

// OnChange registers a hook invoked after every cart mutation. Used for the
// cart-changed notification stream consumed by checkout sessions.
func (s *Store) OnChange(fn func(cartID string, items []CartItem)) {
	s.onChange = fn
}

func (s *Store) Get(ctx context.Context, cartID string) ([]CartItem, error) {
	raw, err := s.redis.Get(ctx, CART_CACHE_PREFIX+cartID).Result()
	if err == redis.Nil {
		return []CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var items []CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

func (s *Store) AddItem(ctx context.Context, cartID string, item CartItem) ([]CartItem, error) {
	items, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	if err := s.save(ctx, cartID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQuantity sets an item's quantity; the item is removed entirely when
// the quantity drops to zero or below.
func (s *Store) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) ([]CartItem, error) {
	items, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].ID != itemID {
			continue
		}
		if quantity <= 0 {
			items = append(items[:i], items[i+1:]...)
		} else {
			items[i].Quantity = quantity
		}
		if err := s.save(ctx, cartID, items); err != nil {
			return nil, err
		}
		return items, nil
	}
	return items, nil
}

func (s *Store) RemoveItem(ctx context.Context, cartID, itemID string) ([]CartItem, error) {
	items, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	kept := make([]CartItem, 0, len(items))
	for _, it := range items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}

	if err := s.save(ctx, cartID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (s *Store) Clear(ctx context.Context, cartID string) error {
	if err := s.redis.Del(ctx, CART_CACHE_PREFIX+cartID).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.redis.Del(ctx, CART_ACTIVITY_PREFIX+cartID, CART_ABANDONED_PREFIX+cartID)
	if s.onChange != nil {
		s.onChange(cartID, []CartItem{})
	}
	return nil
}

func (s *Store) save(ctx context.Context, cartID string, items []CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.redis.Set(ctx, CART_CACHE_PREFIX+cartID, raw, CART_TTL).Err(); err != nil {
		return fmt.Errorf("failed to store cart: %w", err)
	}

	s.touchActivity(ctx, cartID)
	if s.onChange != nil {
		s.onChange(cartID, items)
	}
	return nil
}

func (s *Store) touchActivity(ctx context.Context, cartID string) {
	now := time.Now().UTC().Format(time.RFC3339)
	_ = s.redis.Set(ctx, CART_ACTIVITY_PREFIX+cartID, now, CART_TTL).Err()
	// Fresh activity re-arms the one-shot abandonment notification.
	_ = s.redis.Del(ctx, CART_ABANDONED_PREFIX+cartID).Err()
}

// IsAbandoned reports whether the cart has items and has been idle past the
// abandonment window. MarkAbandonmentNotified makes the check one-shot, so a
// customer gets at most one nudge per idle stretch.
func (s *Store) IsAbandoned(ctx context.Context, cartID string) (bool, error) {
	items, err := s.Get(ctx, cartID)
	if err != nil || len(items) == 0 {
		return false, err
	}

	notified, err := s.redis.Exists(ctx, CART_ABANDONED_PREFIX+cartID).Result()
	if err != nil || notified > 0 {
		return false, err
	}

	raw, err := s.redis.Get(ctx, CART_ACTIVITY_PREFIX+cartID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false, nil
	}
	return time.Since(last) > ABANDONMENT_IDLE, nil
}

func (s *Store) MarkAbandonmentNotified(ctx context.Context, cartID string) error {
	return s.redis.Set(ctx, CART_ABANDONED_PREFIX+cartID, "sent", CART_TTL).Err()
}
