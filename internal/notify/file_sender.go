package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// FileSender appends each message to a local file.
type FileSender struct {
	filePath string
	from     string
	mu       sync.Mutex
}

// NewFileSender creates the parent directory of filePath if needed.
func NewFileSender(filePath, from string) (*FileSender, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("notification log file path cannot be empty")
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for notification log file '%s': %w", dir, err)
	}
	return &FileSender{filePath: filePath, from: from}, nil
}

func (s *FileSender) Send(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open notification log file: %w", err)
	}
	defer file.Close()

	now := time.Now()
	entry := fmt.Sprintf("--- %s notification logged at %s ---\n", msg.Kind, now.Format(time.RFC3339Nano))
	entry += string(BuildRawMessage(s.from, msg, now))
	entry += "\n--- end ---\n\n"

	if _, err := file.WriteString(entry); err != nil {
		return fmt.Errorf("failed to write notification to log file: %w", err)
	}
	log.Debug().Str("file", s.filePath).Strs("to", msg.To).Msg("notification written to file")
	return nil
}
