//go:build wasm

package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

var once sync.Once
var globalLoop *Loop

// DefaultScheduler returns the single Loop of the program.
func DefaultScheduler() *Loop {
	once.Do(func() {
		globalLoop = NewLoop(DefaultTimeSlice)
	})

	return globalLoop
}

func getGID() int64 {
	return goid.Get()
}
