package studio

import (
	"strconv"
	"sync"
	"time"
)

// IDPrefix starts every generated item id.
const IDPrefix = "art_"

// idSuffixLen is how many trailing base36 digits of the clock are kept.
const idSuffixLen = 6

// IDGenerator derives item ids from the millisecond clock. Successive ids
// never repeat within a process, even when called faster than the clock.
type IDGenerator struct {
	Now func() time.Time

	mu   sync.Mutex
	last int64
}

// Next returns a new id.
func (g *IDGenerator) Next() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	g.mu.Lock()
	ms := now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	s := strconv.FormatInt(ms, 36)
	if len(s) > idSuffixLen {
		s = s[len(s)-idSuffixLen:]
	}
	return IDPrefix + s
}
