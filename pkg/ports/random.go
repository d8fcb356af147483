package ports

import (
	"math/rand/v2"
	"sync"
)

// RandomSource yields uniform values in [0, 1).
// Every weighted branch in the engine draws from one of these.
type RandomSource interface {
	Float64() float64
}

// RandomFunc adapts a plain function to RandomSource.
type RandomFunc func() float64

// Float64 calls f.
func (f RandomFunc) Float64() float64 { return f() }

// DefaultRandom draws from the process-wide math/rand/v2 source.
var DefaultRandom RandomSource = RandomFunc(rand.Float64)

// Sequence returns a RandomSource that replays values in order and then
// repeats the last one. It is safe for concurrent use and panics when values is empty.
func Sequence(values ...float64) RandomSource {
	if len(values) == 0 {
		panic("ports: Sequence needs at least one value")
	}
	var mu sync.Mutex
	i := 0
	return RandomFunc(func() float64 {
		mu.Lock()
		defer mu.Unlock()
		v := values[min(i, len(values)-1)]
		i++
		return v
	})
}
