package tsetmc

import (
	"strings"
	"sync"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SymbolCache maps ticker symbols to upstream instrument codes
type SymbolCache interface {
	Lookup(symbol string) (string, bool)
	Store(symbol, instrumentCode string)
}

// MemoryCache is a process-lifetime SymbolCache. Entries never expire;
// a later Store for the same symbol replaces the earlier one.
type MemoryCache struct {
	mu    sync.RWMutex
	codes map[string]string
}

// NewMemoryCache creates an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		codes: make(map[string]string),
	}
}

// Lookup returns the instrument code stored for symbol
func (c *MemoryCache) Lookup(symbol string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	code, ok := c.codes[NormalizeSymbol(symbol)]
	return code, ok
}

// Store records the instrument code for symbol
func (c *MemoryCache) Store(symbol, instrumentCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.codes[NormalizeSymbol(symbol)] = instrumentCode
}

// Len returns the number of cached symbols
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.codes)
}

// arabicToPersian folds Arabic letter variants onto the Persian code points
// TSETMC uses in symbols (yeh, alef maksura and kaf).
func arabicToPersian(r rune) rune {
	switch r {
	case '\u064A', '\u0649': // Arabic yeh, alef maksura
		return '\u06CC'
	case '\u0643': // Arabic kaf
		return '\u06A9'
	}
	return r
}

// NormalizeSymbol trims s, composes it to NFC and folds Arabic letters to
// their Persian forms so both keyboard layouts address the same symbol.
func NormalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	t := transform.Chain(norm.NFC, runes.Map(arabicToPersian))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
