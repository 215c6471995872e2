// Package useragent supplies browser User-Agent strings that agree with the
// TLS fingerprint a page fetcher presents.
package useragent

import (
	"sync/atomic"
)

// Browsers maps a fingerprint profile name to User-Agents of that browser
// family. A Chrome ClientHello sent with a Firefox User-Agent is itself a bot
// signal.
var Browsers = map[string][]string{
	"chrome": {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	},
	"firefox": {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:133.0) Gecko/20100101 Firefox/133.0",
	},
	"safari": {
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
	},
}

// Pool hands out User-Agents round-robin. It is safe for concurrent use.
type Pool struct {
	uas     []string
	counter atomic.Uint64
}

// NewPool creates a pool over a copy of uas. An empty pool returns "" from
// Next.
func NewPool(uas []string) *Pool {
	copied := make([]string, len(uas))
	copy(copied, uas)
	return &Pool{uas: copied}
}

// ForProfile returns a pool of User-Agents matching a TLS profile name. The
// plain Go profile has no browser counterpart and yields nil.
func ForProfile(profile string) *Pool {
	uas, ok := Browsers[profile]
	if !ok {
		return nil
	}
	return NewPool(uas)
}

// Next returns the next User-Agent. A nil pool returns "".
func (p *Pool) Next() string {
	if p == nil || len(p.uas) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// Len reports the number of User-Agents in the pool.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.uas)
}
