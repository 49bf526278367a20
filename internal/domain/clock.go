package domain

import "github.com/jonboulle/clockwork"

// clock stamps SiteRecord.LoadedAt. Tests and cmd/genmock freeze it.
var clock = clockwork.NewRealClock()

// SetClock replaces the time source used to stamp records. Pass nil to
// restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}
