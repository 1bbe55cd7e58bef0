package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"communitycart/market/internal/groupbuy"
	"communitycart/market/internal/notify"
	"communitycart/market/internal/state"
)

// closingSoonRetention keeps a finished notice's task ID reserved so the
// same listing is not announced twice for the same number of days left.
const closingSoonRetention = 24 * time.Hour

// ClosingSoonCriteria selects listings due for a reminder, soonest first.
func ClosingSoonCriteria() groupbuy.Criteria {
	return groupbuy.Criteria{Status: string(groupbuy.StatusClosingSoon), Sort: groupbuy.SortDeadline}
}

// HandleClosingSoonScanTask evaluates every live listing and enqueues one
// reminder per closing-soon listing that has a contact address.
func (p *TaskProcessor) HandleClosingSoonScanTask(ctx context.Context, t *asynq.Task) error {
	listings, err := p.groupBuys.ListGroupBuys(ctx)
	if err != nil {
		return fmt.Errorf("failed to load group buys: %w", err)
	}
	orders, err := p.orders.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}

	store := state.NewStore(ClosingSoonCriteria(), p.clock)
	var due []groupbuy.Evaluated
	unsubscribe := store.View().Subscribe(func(result []groupbuy.Evaluated) { due = result })
	store.DispatchCatalog(state.CatalogAction{Kind: state.ReplaceListings, Listings: listings})
	store.DispatchCatalog(state.CatalogAction{Kind: state.ReplaceOrders, Orders: orders})
	unsubscribe()

	enqueued, skipped := 0, 0
	for _, e := range due {
		l := e.Listing
		if l.ContactEmail == "" || e.Classification.DaysLeft == nil {
			skipped++
			continue
		}
		daysLeft := *e.Classification.DaysLeft

		task, err := NewNotifyTask(NotifyTaskPayload{
			To:   l.ContactEmail,
			Kind: notify.KindClosingSoon,
			Data: map[string]interface{}{
				"title":     l.Title,
				"days_left": daysLeft,
				"current":   l.CurrentQuantity,
				"target":    l.TargetQuantity,
				"vendor":    l.VendorName,
			},
		}, asynq.TaskID(fmt.Sprintf("closing_soon:%s:%d", l.ID, daysLeft)), asynq.Retention(closingSoonRetention))
		if err != nil {
			return err
		}

		if _, err := p.taskClient.EnqueueContext(ctx, task); err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				skipped++
				continue
			}
			return fmt.Errorf("failed to enqueue closing-soon notice for %s: %w", l.ID, err)
		}
		enqueued++
	}

	log.Info().Int("closing_soon", len(due)).Int("enqueued", enqueued).Int("skipped", skipped).Msg("closing-soon scan finished")
	return nil
}
