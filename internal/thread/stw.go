/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package thread

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// StopTheWorld is spec.md §4.8's stop_the_world(): it acquires the
// global mutex, sets the global world_stopped flag, and for each
// other thread toggles its status to the HALTING_* counterpart.
// Threads already in RUNNING_NONJAVA are halted immediately since
// they aren't executing Java code; threads in RUNNING_NORMAL are
// marked HALTING_NORMAL and the call fans out one goroutine per such
// thread (via errgroup) to wait for that thread's own ThreadCheck
// call to acknowledge the halt. ctx bounds how long a GC pause will
// wait for an unresponsive thread before giving up.

// ArmSafepointGuard/DisarmSafepointGuard are internal/sig's literal
// mmap'd-page rendition of spec.md §4.10's "revoke access to the
// thread-check guard page" / "restore access" step, installed at sig's
// init time. thread itself never depends on sig (the same
// hook-variable indirection frames.RunJavaFrame and
// classloader.VerifyMethodStackDepth use) so the actual safepoint
// enforcement here stays the cooperative ThreadCheck poll regardless
// of whether internal/sig has been imported.
var (
	ArmSafepointGuard    func()
	DisarmSafepointGuard func()
)

func StopTheWorld(ctx context.Context, reason string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	resumeMu.Lock()
	worldStopped = true
	resumeMu.Unlock()

	if ArmSafepointGuard != nil {
		ArmSafepointGuard()
	}

	threads := AllThreads()
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range threads {
		t := t
		switch t.Status() {
		case RunningNonJava:
			t.status.CompareAndSwap(int32(RunningNonJava), int32(HaltingNonJava))
		case RunningNormal:
			t.haltAck = make(chan struct{})
			t.haltAckOnce = sync.Once{}
			t.status.CompareAndSwap(int32(RunningNormal), int32(HaltingNormal))
			ack := t.haltAck
			g.Go(func() error {
				select {
				case <-ack:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
	}
	return g.Wait()
}

// ResumeTheWorld is resume_the_world(): it clears world_stopped and
// broadcasts, waking every thread parked in ResumingJava or
// ThreadCheck.
func ResumeTheWorld() {
	resumeMu.Lock()
	worldStopped = false
	resumeMu.Unlock()
	resumeCond.Broadcast()

	if DisarmSafepointGuard != nil {
		DisarmSafepointGuard()
	}

	for _, t := range AllThreads() {
		t.status.CompareAndSwap(int32(HaltingNonJava), int32(RunningNonJava))
	}
}

// WorldStopped reports whether a stop-the-world pause is in progress.
func WorldStopped() bool {
	resumeMu.Lock()
	defer resumeMu.Unlock()
	return worldStopped
}
