package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisSenderTTL is how long a mock notification stays readable.
const RedisSenderTTL = 5 * time.Minute

// RedisSender stores messages in Redis instead of sending them, so tests and
// local tooling can read them back.
type RedisSender struct {
	client *redis.Client
	from   string
}

func NewRedisSender(client *redis.Client, from string) *RedisSender {
	return &RedisSender{client: client, from: from}
}

// RedisKey is the key a message for to and kind is stored under.
func RedisKey(to string, kind Kind) string {
	return fmt.Sprintf("mocknotify:%s:%s", to, kind)
}

func (s *RedisSender) Send(ctx context.Context, msg *Message) error {
	primaryTo := ""
	if len(msg.To) > 0 {
		primaryTo = msg.To[0]
	}

	data, err := json.Marshal(map[string]interface{}{
		"to":      strings.Join(msg.To, ", "),
		"from":    s.from,
		"kind":    msg.Kind,
		"subject": msg.Subject,
		"body":    msg.Body,
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	key := RedisKey(primaryTo, msg.Kind)
	if err := s.client.Set(ctx, key, data, RedisSenderTTL).Err(); err != nil {
		return fmt.Errorf("failed to store notification in Redis key '%s': %w", key, err)
	}
	log.Debug().Str("key", key).Str("subject", msg.Subject).Msg("mock notification stored in Redis")
	return nil
}
