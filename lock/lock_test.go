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
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileLock_AcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	l := New(path, "session-1")

	require.NoError(t, l.Acquire(context.Background(), time.Second))
	require.True(t, l.Held())
	require.NoError(t, l.Release())
	require.False(t, l.Held())
}

func TestFileLock_SecondAcquirerBlocksThenTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	holder := New(path, "holder")
	require.NoError(t, holder.Acquire(context.Background(), time.Second))
	defer holder.Release()

	waiter := New(path, "waiter")
	err := waiter.Acquire(context.Background(), 100*time.Millisecond)
	require.Error(t, err)

	var lockErr *FileLockError
	require.True(t, errors.As(err, &lockErr))
	require.True(t, errors.Is(err, ErrFileLocked))
	require.NotNil(t, lockErr.Holder)
	require.Equal(t, "holder", lockErr.Holder.SessionID)
}

func TestFileLock_ReleaseNotHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	l := New(path, "session-1")
	require.ErrorIs(t, l.Release(), ErrLockNotHeld)
}

func TestFileLock_ReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	first := New(path, "first")
	require.NoError(t, first.Acquire(context.Background(), time.Second))
	require.NoError(t, first.Release())

	second := New(path, "second")
	require.NoError(t, second.Acquire(context.Background(), time.Second))
	require.NoError(t, second.Release())
}
