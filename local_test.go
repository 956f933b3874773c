package collcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/unkn0wn-root/collcache/store/local"
)

// Concurrent first readers may all run the fallback; with a deterministic
// producer the writes converge.
func TestConcurrentInitializationConverges(t *testing.T) {
	ctx := context.Background()
	st, err := local.New(local.Config{})
	if err != nil {
		t.Fatalf("local.New: %v", err)
	}
	defer st.Close(ctx)

	all := makeWidgets(50)
	var calls atomic.Int32
	c, err := New(Options[widget]{
		Store: st,
		Fallback: func(context.Context) ([]widget, error) {
			calls.Add(1)
			return all, nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const readers = 8
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// a reader may see a partly populated index while another
			// reader is still writing
			_, err := c.Read().Execute(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if n := calls.Load(); n < 1 || n > readers {
		t.Fatalf("fallback calls: %d", n)
	}

	got := mustExec(t, c.Read())
	if len(got) != len(all) {
		t.Fatalf("got %d records", len(got))
	}
	for i := range all {
		if got[i] != all[i] {
			t.Fatalf("record %d: got %+v want %+v", i, got[i], all[i])
		}
	}
}
