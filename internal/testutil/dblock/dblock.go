// Package dblock serializes database integration tests across packages.
// go test runs packages in parallel processes, so the lock is a loopback
// listener rather than a mutex.
package dblock

import (
	"net"
	"testing"
	"time"
)

const lockAddr = "127.0.0.1:45433"

// Acquire blocks until the lock is held and releases it when t finishes.
func Acquire(t testing.TB) {
	t.Helper()
	for {
		ln, err := net.Listen("tcp", lockAddr)
		if err == nil {
			t.Cleanup(func() { _ = ln.Close() })
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}
