// Package schedule handles cron expressions and deferred execution for
// announcements. Run times are always computed in UTC.
package schedule

import (
	"fmt"
	"time"

	"github.com/hashicorp/cronexpr"
)

// ValidateCron reports whether expr parses as a cron expression.
func ValidateCron(expr string) error {
	if _, err := cronexpr.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// NextRunTimesAfter computes the next n run times of expr strictly after
// the given instant. n must be at least 1.
func NextRunTimesAfter(expr string, after time.Time, n int) ([]time.Time, error) {
	if n < 1 {
		return nil, fmt.Errorf("run time count must be at least 1, got %d", n)
	}
	parsed, err := cronexpr.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return parsed.NextN(after.UTC(), uint(n)), nil
}
