package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGuardSkipsOverlappingRuns(t *testing.T) {
	var g Guard
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.TryRun(func() {
			close(started)
			<-release
		})
	}()

	<-started
	require.True(t, g.Busy())
	require.False(t, g.TryRun(func() { t.Error("overlapping run must not execute") }))

	close(release)
	wg.Wait()
	require.False(t, g.Busy())
	require.True(t, g.TryRun(func() {}))
}

func TestRegisterRejectsDuplicateNames(t *testing.T) {
	s := New()
	noop := func(context.Context) error { return nil }
	require.NoError(t, s.Register("scan", "*/15 * * * * *", noop))
	require.Error(t, s.Register("scan", "*/30 * * * * *", noop))
}

func TestTriggerUnknownJob(t *testing.T) {
	s := New()
	require.False(t, s.Trigger("nope"))
}

func TestTriggerRunsUnderGuard(t *testing.T) {
	s := New()
	ran := make(chan struct{})
	require.NoError(t, s.Register("scan", "0 0 0 1 1 *", func(context.Context) error {
		close(ran)
		return nil
	}))

	require.True(t, s.Trigger("scan"))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("triggered job never ran")
	}
}

func TestTryRunReportsBusy(t *testing.T) {
	s := New()
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register("scan", "0 0 0 1 1 *", func(context.Context) error {
		close(started)
		<-release
		return nil
	}))

	require.True(t, s.Trigger("scan"))
	<-started

	ran, err := s.TryRun("scan", func(context.Context) error {
		t.Error("must not run while the job is busy")
		return nil
	})
	require.NoError(t, err)
	require.False(t, ran)

	close(release)
}

func TestTryRunUnknownJob(t *testing.T) {
	s := New()
	ran, err := s.TryRun("nope", func(context.Context) error { return nil })
	require.Error(t, err)
	require.False(t, ran)
}

func TestStatusReflectsLastError(t *testing.T) {
	s := New()
	done := make(chan struct{})
	require.NoError(t, s.Register("scan", "0 0 0 1 1 *", func(context.Context) error {
		defer close(done)
		return context.Canceled
	}))

	require.True(t, s.Trigger("scan"))
	<-done

	// The status fields are written after fn returns; poll briefly.
	deadline := time.Now().Add(time.Second)
	for {
		statuses := s.Status()
		require.Len(t, statuses, 1)
		if statuses[0].LastErr != "" {
			require.Equal(t, context.Canceled.Error(), statuses[0].LastErr)
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("last error never recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
