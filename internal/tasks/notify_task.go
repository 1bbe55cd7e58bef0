package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"communitycart/market/internal/notify"
)

// HandleNotifyDeliveryTask renders a stored template and sends it.
func (p *TaskProcessor) HandleNotifyDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload NotifyTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notify task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("notify task has no recipient: %w", asynq.SkipRetry)
	}

	tmpl, err := p.templates.GetTemplate(ctx, payload.Kind, payload.Locale)
	if err != nil {
		log.Error().Err(err).Str("kind", string(payload.Kind)).Msg("failed to get notification template")
		return fmt.Errorf("notification template not found: %w", asynq.SkipRetry)
	}

	msg, err := notify.Render(payload.Kind, []string{payload.To}, tmpl.Subject, tmpl.Body, payload.Data)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := p.sender.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Str("to", payload.To).Msg("notification send failed, will retry")
		return err
	}
	log.Info().Str("to", payload.To).Str("kind", string(payload.Kind)).Msg("notification task processed")
	return nil
}
