// Package limiter slices row lists for --limit/--offset/--tail and table paging.
package limiter

import "fmt"

// Config holds the record-limiting parameters.
type Config struct {
	Limit  int // Show only this many records (0 = unlimited)
	Offset int // Skip the first N records (0 = no skip)
	Tail   int // Show only the last N records (0 = disabled); mutually exclusive with Limit
}

// Validate checks for conflicting flag combinations.
// Limit and Tail are mutually exclusive, Offset is ignored with Tail, and
// every value must be non-negative.
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive returns true if any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the [start, end) window over a list of the given length.
func (c Config) Bounds(length int) (int, int) {
	if c.Tail > 0 {
		return max(length-c.Tail, 0), length
	}
	start := min(max(c.Offset, 0), length)
	end := length
	if c.Limit > 0 {
		end = min(start+c.Limit, length)
	}
	return start, end
}

// Apply returns the window of items selected by c. The result shares the
// backing array of items.
func Apply[T any](c Config, items []T) []T {
	if !c.IsActive() {
		return items
	}
	start, end := c.Bounds(len(items))
	return items[start:end]
}

// ForPage returns the window of a zero-based table page.
func ForPage(page, pageSize int) Config {
	if pageSize <= 0 {
		return Config{}
	}
	return Config{Offset: max(page, 0) * pageSize, Limit: pageSize}
}

// PageCount returns how many pages n rows fill. Zero rows still have one page.
func PageCount(n, pageSize int) int {
	if pageSize <= 0 || n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// ClampPage keeps page inside [0, PageCount).
func ClampPage(page, n, pageSize int) int {
	return min(max(page, 0), PageCount(n, pageSize)-1)
}
