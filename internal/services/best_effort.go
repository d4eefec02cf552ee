package services

import (
	"context"
	"log"
	"time"
)

// bestEffort runs a storage operation under its own bounded context and reports
// whether it succeeded. Failures are logged here and never returned.
func bestEffort(ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) error) bool {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := fn(opCtx); err != nil {
		log.Printf("ERROR [ChatService] %s failed (continuing): %v", op, err)
		return false
	}
	return true
}
