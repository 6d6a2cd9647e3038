// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lock

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// pollInterval is how often Acquire retries a non-blocking flock attempt
// while waiting for the current holder to release.
const pollInterval = 25 * time.Millisecond

// FileLock is a single advisory lock over a sentinel file in a canvas
// artifact directory. Readers never take it; the coordinator takes it
// while publishing artifacts. The dirty queue's claim and ack do not take
// it: they are serialized only by the queue's in-process mutex.
type FileLock struct {
	path      string
	sessionID string

	mu   sync.Mutex
	file *os.File
	held bool
}

// New creates a FileLock bound to the given sentinel path. sessionID
// identifies this process/session in LockInfo for diagnostic purposes.
func New(path, sessionID string) *FileLock {
	return &FileLock{path: path, sessionID: sessionID}
}

// Acquire attempts to take the lock, retrying with a short poll interval
// until either it succeeds or wait elapses / ctx is done. On timeout it
// returns a *FileLockError wrapping ErrFileLocked, populated with the
// current holder's LockInfo when that information is readable.
//
// Lock-acquire failure never mutates on-disk artifacts: callers that
// cannot acquire within the bounded wait must abandon the publish and
// retry on a later pass, per the crash-safety invariant.
func (l *FileLock) Acquire(ctx context.Context, wait time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ferr := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if ferr == nil {
			break
		}

		if time.Now().After(deadline) {
			holder, _ := l.readHolder(f)
			f.Close()
			return &FileLockError{Path: l.path, Holder: holder, Err: ErrFileLocked}
		}

		select {
		case <-ctx.Done():
			f.Close()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	info := LockInfo{PID: os.Getpid(), SessionID: l.sessionID, LockedAt: time.Now()}
	if err := l.writeHolder(f, info); err != nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		return err
	}

	l.file = f
	l.held = true
	return nil
}

// Release drops the lock. It returns ErrLockNotHeld if the lock is not held.
func (l *FileLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return ErrLockNotHeld
	}

	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	l.held = false

	if err != nil {
		return err
	}
	return closeErr
}

// Held reports whether this FileLock instance currently holds the lock.
func (l *FileLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *FileLock) writeHolder(f *os.File, info LockInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return err
	}
	return f.Sync()
}

func (l *FileLock) readHolder(f *os.File) (*LockInfo, error) {
	data := make([]byte, 4096)
	n, err := f.ReadAt(data, 0)
	if n == 0 && err != nil {
		return nil, err
	}
	var info LockInfo
	if jerr := json.Unmarshal(data[:n], &info); jerr != nil {
		return nil, jerr
	}
	return &info, nil
}
