package tsetmc

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_LookupStore(t *testing.T) {
	cache := NewMemoryCache()

	_, ok := cache.Lookup("خودرو")
	assert.False(t, ok)

	cache.Store("خودرو", "12345")
	code, ok := cache.Lookup("خودرو")
	assert.True(t, ok)
	assert.Equal(t, "12345", code)

	cache.Store("خودرو", "67890")
	code, _ = cache.Lookup("  خودرو ")
	assert.Equal(t, "67890", code)
	assert.Equal(t, 1, cache.Len())
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "Persian untouched", in: "شپنا", want: "شپنا"},
		{name: "Trims whitespace", in: " فولاد\t", want: "فولاد"},
		{name: "Arabic yeh", in: "فملي", want: "فملی"},
		{name: "Arabic kaf", in: "كچاد", want: "کچاد"},
		{name: "Latin", in: "ABC", want: "ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSymbol(tt.in))
		})
	}
}

func TestMemoryCache_ArabicAndPersianShareKey(t *testing.T) {
	cache := NewMemoryCache()
	cache.Store("فملی", "778253364357513")

	code, ok := cache.Lookup("فملي")
	assert.True(t, ok)
	assert.Equal(t, "778253364357513", code)
}

func TestMemoryCache_ConcurrentWriters(t *testing.T) {
	cache := NewMemoryCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cache.Store("وبملت", fmt.Sprint(i))
			cache.Lookup("وبملت")
		}(i)
	}
	wg.Wait()

	_, ok := cache.Lookup("وبملت")
	assert.True(t, ok)
	assert.Equal(t, 1, cache.Len())
}
