package checkout

import (
	"context"
	"log"
	"time"

	"bloomcart-system/internal/cart"
	"bloomcart-system/internal/events"
)

type AbandonmentChecker interface {
	IsAbandoned(ctx context.Context, cartID string) (bool, error)
	MarkAbandonmentNotified(ctx context.Context, cartID string) error
}

type AbandonedCartNotifier interface {
	SendAbandonedCartNotification(ctx context.Context, email string, items []cart.CartItem) error
}

// SweepAbandonedCarts nudges customers whose carts went idle. Only sessions
// with a known email can be nudged; the redis-side one-shot marker guarantees
// at most one notification per idle stretch.
func (m *Manager) SweepAbandonedCarts(ctx context.Context, checker AbandonmentChecker, notifier AbandonedCartNotifier) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.mu.Lock()
		cartID := s.CartID
		email := s.Customer.Email
		state := s.State
		s.mu.Unlock()

		if email == "" || state == StateOrderConfirmed {
			continue
		}

		abandoned, err := checker.IsAbandoned(ctx, cartID)
		if err != nil {
			log.Printf("abandonment check failed for cart %s: %v", cartID, err)
			continue
		}
		if !abandoned {
			continue
		}

		items, err := m.carts.Get(ctx, cartID)
		if err != nil || len(items) == 0 {
			continue
		}

		if err := notifier.SendAbandonedCartNotification(ctx, email, items); err != nil {
			log.Printf("abandoned cart notification failed for cart %s: %v", cartID, err)
			continue
		}
		if err := checker.MarkAbandonmentNotified(ctx, cartID); err != nil {
			log.Printf("abandonment marker failed for cart %s: %v", cartID, err)
		}

		if m.publisher != nil {
			m.publisher.PublishOrderEvent(events.EventCartAbandoned, cartID, map[string]interface{}{
				"cartId":    cartID,
				"email":     email,
				"itemCount": len(items),
			})
		}
	}
}

// RunAbandonmentSweeper loops the sweep until the context is cancelled.
func (m *Manager) RunAbandonmentSweeper(ctx context.Context, interval time.Duration, checker AbandonmentChecker, notifier AbandonedCartNotifier) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepAbandonedCarts(ctx, checker, notifier)
		}
	}
}
