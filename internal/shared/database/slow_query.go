package database

import (
	"fmt"
	"time"

	"ticketing/pkg/logger"

	"gorm.io/gorm"
)

const queryStartedKey = "ticketing:query_started_at"

// RegisterSlowQueryLog warns about every statement slower than threshold.
// A zero threshold disables it.
func RegisterSlowQueryLog(db *gorm.DB, log *logger.Logger, threshold time.Duration) error {
	if threshold <= 0 {
		return nil
	}

	start := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartedKey, time.Now())
	}
	finish := func(tx *gorm.DB) {
		started, ok := tx.InstanceGet(queryStartedKey)
		if !ok {
			return
		}
		if elapsed := time.Since(started.(time.Time)); elapsed >= threshold {
			log.LogSlowQuery(tx.Statement.Context, tx.Statement.SQL.String(), elapsed)
		}
	}

	cb := db.Callback()
	errs := []error{
		cb.Create().Before("gorm:create").Register("slow_query:create_start", start),
		cb.Create().After("gorm:create").Register("slow_query:create_finish", finish),
		cb.Query().Before("gorm:query").Register("slow_query:query_start", start),
		cb.Query().After("gorm:query").Register("slow_query:query_finish", finish),
		cb.Update().Before("gorm:update").Register("slow_query:update_start", start),
		cb.Update().After("gorm:update").Register("slow_query:update_finish", finish),
		cb.Delete().Before("gorm:delete").Register("slow_query:delete_start", start),
		cb.Delete().After("gorm:delete").Register("slow_query:delete_finish", finish),
		cb.Raw().Before("gorm:raw").Register("slow_query:raw_start", start),
		cb.Raw().After("gorm:raw").Register("slow_query:raw_finish", finish),
		cb.Row().Before("gorm:row").Register("slow_query:row_start", start),
		cb.Row().After("gorm:row").Register("slow_query:row_finish", finish),
	}
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("failed to register slow query callbacks: %w", err)
		}
	}
	return nil
}
