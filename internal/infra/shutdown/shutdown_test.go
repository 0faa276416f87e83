package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestNewHandler(t *testing.T) {
	h := NewHandler(5 * time.Second)
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_ShutdownOrder(t *testing.T) {
	h := NewHandler(time.Second)

	var mu sync.Mutex
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		h.OnShutdown(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := h.Shutdown(); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Errorf("order = %v, want [3 2 1]", order)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Shutdown")
	}
}

func TestHandler_HookErrors(t *testing.T) {
	h := NewHandler(time.Second)
	errA := errors.New("stop poller")
	errB := errors.New("close store")

	h.OnShutdown(func(ctx context.Context) error { return errA })
	h.OnShutdown(func(ctx context.Context) error { return nil })
	h.OnShutdown(func(ctx context.Context) error { return errB })

	err := h.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Shutdown() = %v, want both hook errors", err)
	}
}

func TestHandler_WaitOnCancel(t *testing.T) {
	h := NewHandler(time.Second)
	called := make(chan struct{})
	h.OnShutdown(func(ctx context.Context) error {
		close(called)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return")
	}
	<-called
}

func TestHandler_NotifySignal(t *testing.T) {
	h := NewHandler(time.Second)
	ctx, stop := h.Notify(context.Background())
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete after SIGTERM")
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := NewHandler(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown(func(ctx context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 10 {
		t.Errorf("hooks = %d, want 10", len(h.hooks))
	}
}
