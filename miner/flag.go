// Package miner provides the single preemption primitive the ring node's
// proof-of-work search cooperates with: a lock-free boolean read by the
// mining goroutine at every nonce iteration and written by whichever
// goroutine accepts a foreign block that preempts it.
//
// Styled directly after the teacher's work/agent.go CpuAgent, which
// gates its own mining loop with an int32 isMining flag flipped via
// sync/atomic.CompareAndSwapInt32.
package miner

import "sync/atomic"

// Flag is a start/stop switch a proof-of-work search polls to know
// whether it should keep iterating. The zero value is stopped.
type Flag struct {
	active int32 // 0 = stopped, 1 = active; read/written via sync/atomic
}

// NewFlag returns a stopped Flag.
func NewFlag() *Flag { return &Flag{} }

// Start marks the flag active, permitting a search to proceed.
func (f *Flag) Start() { atomic.StoreInt32(&f.active, 1) }

// Stop clears the flag. Safe to call from any goroutine; a search
// already in progress notices on its next iteration.
func (f *Flag) Stop() { atomic.StoreInt32(&f.active, 0) }

// Active reports whether the flag is currently set.
func (f *Flag) Active() bool { return atomic.LoadInt32(&f.active) == 1 }
