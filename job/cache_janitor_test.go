package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeVariantSweeper struct {
	removed int
	calls   int32
}

func (f *fakeVariantSweeper) DeleteExpired() int {
	atomic.AddInt32(&f.calls, 1)
	return f.removed
}

type fakeOriginSweeper struct {
	removed int
	err     error
	gotAge  time.Duration
}

func (f *fakeOriginSweeper) CleanupOld(ctx context.Context, maxAge time.Duration) (int, error) {
	f.gotAge = maxAge
	return f.removed, f.err
}

func TestMemoryCacheJanitorJob(t *testing.T) {
	sweeper := &fakeVariantSweeper{removed: 3}
	fn := MemoryCacheJanitorJob(sweeper)

	if err := fn(context.Background()); err != nil {
		t.Fatalf("janitor returned error: %v", err)
	}
	if atomic.LoadInt32(&sweeper.calls) != 1 {
		t.Errorf("expected 1 sweep, got %d", sweeper.calls)
	}
}

func TestDiskCacheJanitorJob(t *testing.T) {
	sweeper := &fakeOriginSweeper{removed: 2}
	fn := DiskCacheJanitorJob(sweeper, 24*time.Hour)

	if err := fn(context.Background()); err != nil {
		t.Fatalf("janitor returned error: %v", err)
	}
	if sweeper.gotAge != 24*time.Hour {
		t.Errorf("expected maxAge 24h, got %s", sweeper.gotAge)
	}
}

func TestDiskCacheJanitorJob_WrapsError(t *testing.T) {
	cause := errors.New("disk gone")
	sweeper := &fakeOriginSweeper{err: cause}
	fn := DiskCacheJanitorJob(sweeper, time.Hour)

	err := fn(context.Background())
	if err == nil {
		t.Fatal("expected error to surface to the scheduler")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestJobScheduler_ZeroTimeoutRunsUnbounded(t *testing.T) {
	ctxErrs := make(chan error, 1)
	scheduler := NewJobScheduler()
	scheduler.Add(Job{
		Name:     "no-deadline-job",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			ctxErrs <- ctx.Err()
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)

	select {
	case err := <-ctxErrs:
		if err != nil {
			t.Fatalf("job context already done with no timeout configured: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}

	cancel()
	scheduler.Shutdown()
}

func TestJobScheduler_RunsOnStartAndStops(t *testing.T) {
	var runs int32
	scheduler := NewJobScheduler()
	scheduler.Add(Job{
		Name:     "test-job",
		Interval: time.Hour,
		Timeout:  time.Second,
		Fn: func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)

	deadline := time.After(time.Second)
	for atomic.LoadInt32(&runs) == 0 {
		select {
		case <-deadline:
			t.Fatal("job did not run on start")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	done := make(chan struct{})
	go func() {
		scheduler.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
