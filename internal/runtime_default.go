//go:build !wasm

package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

var loops sync.Map

// DefaultScheduler returns the Loop of the calling goroutine, creating it on first use.
func DefaultScheduler() *Loop {
	gid := getGID()

	if l, ok := loops.Load(gid); ok {
		return l.(*Loop)
	}

	l, _ := loops.LoadOrStore(gid, NewLoop(DefaultTimeSlice))
	return l.(*Loop)
}

func getGID() int64 {
	return goid.Get()
}
