package inventory

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// fault logs a storage fault that is not returned to the caller and
// returns the id it was logged under.
func (s *Service) fault(ctx context.Context, summary string, err error, attrs ...any) string {
	id := uuid.NewString()
	args := append([]any{"faultID", id, "error", err}, attrs...)
	s.logger.Log(ctx, slog.LevelError, summary, args...)
	return id
}
