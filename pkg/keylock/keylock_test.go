package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	kl := New()

	const iterations = 1000
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				kl.Lock("room-1")
				counter++
				kl.Unlock("room-1")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8*iterations, counter)
}

func TestKeyLockReleasesEntries(t *testing.T) {
	kl := New()

	kl.Lock("a")
	kl.Lock("b")
	kl.Unlock("a")
	kl.Unlock("b")

	kl.mu.Lock()
	defer kl.mu.Unlock()
	assert.Empty(t, kl.entries)
}
