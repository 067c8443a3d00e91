package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchBatch_OrderedResults(t *testing.T) {
	batch := []string{"a", "b", "c", "d"}

	// Later items finish first.
	fetch := func(ctx context.Context, id string) (string, error) {
		delay := time.Duration(len(batch)-int(id[0]-'a')) * 5 * time.Millisecond
		time.Sleep(delay)
		return id + "!", nil
	}

	got, err := FetchBatch(context.Background(), batch, fetch)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}

	want := []string{"a!", "b!", "c!", "d!"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFetchBatch_RunsConcurrently(t *testing.T) {
	const n = 10
	batch := make([]int, n)
	for i := range batch {
		batch[i] = i
	}

	var wg sync.WaitGroup
	wg.Add(n)

	// Every fetch blocks until all n have started. A sequential
	// implementation would deadlock and hit the timeout.
	fetch := func(ctx context.Context, id int) (int, error) {
		wg.Done()
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return id, nil
		case <-time.After(2 * time.Second):
			return 0, errors.New("fetches did not run concurrently")
		}
	}

	if _, err := FetchBatch(context.Background(), batch, fetch); err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
}

func TestFetchBatch_ErrorAbortsBatch(t *testing.T) {
	errBoom := errors.New("connection reset")
	var finished atomic.Int32

	fetch := func(ctx context.Context, id int) (int, error) {
		if id == 2 {
			return 0, errBoom
		}
		select {
		case <-ctx.Done():
		case <-time.After(2 * time.Second):
		}
		finished.Add(1)
		return id, nil
	}

	got, err := FetchBatch(context.Background(), []int{0, 1, 2, 3}, fetch)
	if !errors.Is(err, errBoom) {
		t.Fatalf("FetchBatch() error = %v, want %v", err, errBoom)
	}
	if got != nil {
		t.Errorf("FetchBatch() results = %v, want nil on error", got)
	}
	// Barrier: every sibling has returned before FetchBatch does.
	if n := finished.Load(); n != 3 {
		t.Errorf("finished siblings = %d, want 3", n)
	}
}

func TestFetchBatch_Empty(t *testing.T) {
	called := false
	fetch := func(ctx context.Context, id string) (string, error) {
		called = true
		return "", nil
	}

	got, err := FetchBatch(context.Background(), nil, fetch)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(got) != 0 || called {
		t.Errorf("FetchBatch(nil) = %v, called = %v", got, called)
	}
}

func TestFetchBatch_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetch := func(ctx context.Context, id string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return id, nil
	}

	_, err := FetchBatch(ctx, []string{"x", "y"}, fetch)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FetchBatch() error = %v, want context.Canceled", err)
	}
}

func ExampleFetchBatch() {
	double := func(ctx context.Context, n int) (int, error) { return n * 2, nil }

	pages, _ := Paginate([]int{1, 2, 3, 4, 5}, 2)
	for _, page := range pages {
		out, _ := FetchBatch(context.Background(), page, double)
		fmt.Println(out)
	}
	// Output:
	// [2 4]
	// [6 8]
	// [10]
}
