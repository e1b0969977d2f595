package backup

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/albumkeep/albumkeep/internal/wire"
)

type fakeItem struct {
	id          string
	group       string
	kind        MediaKind
	data        []byte
	openErr     error
	unavailable bool
}

func newFakeItem(group, id string) *fakeItem {
	return &fakeItem{
		id:    id,
		group: group,
		kind:  KindImage,
		data:  []byte("fake image bytes"),
	}
}

func (f *fakeItem) ID() string          { return f.id }
func (f *fakeItem) Group() string       { return f.group }
func (f *fakeItem) Kind() MediaKind     { return f.kind }
func (f *fakeItem) DisplayName() string { return f.id }
func (f *fakeItem) Available() bool     { return !f.unavailable }

func (f *fakeItem) Open() (io.ReadCloser, int64, error) {
	if f.openErr != nil {
		return nil, 0, f.openErr
	}
	return io.NopCloser(bytes.NewReader(f.data)), int64(len(f.data)), nil
}

// fakeTransport records upload attempts and can fail, block on a gate,
// or track the number of simultaneously in-flight uploads.
type fakeTransport struct {
	mu          sync.Mutex
	err         error
	calls       int
	uploaded    []string
	inFlight    int
	maxInFlight int
	gate        chan struct{}
	drain       bool
}

func (ft *fakeTransport) Upload(ctx context.Context, album string, payload *wire.Payload, onProgress func(sent, total int64)) error {
	ft.mu.Lock()
	ft.calls++
	ft.inFlight++
	if ft.inFlight > ft.maxInFlight {
		ft.maxInFlight = ft.inFlight
	}
	gate := ft.gate
	err := ft.err
	drain := ft.drain
	ft.mu.Unlock()

	defer func() {
		ft.mu.Lock()
		ft.inFlight--
		ft.mu.Unlock()
	}()

	if drain {
		if _, copyErr := io.Copy(io.Discard, payload.NewReader(ctx, func(sent int64) {
			if onProgress != nil {
				onProgress(sent, payload.Size())
			}
		})); copyErr != nil {
			return copyErr
		}
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err != nil {
		return err
	}

	ft.mu.Lock()
	ft.uploaded = append(ft.uploaded, album)
	ft.mu.Unlock()
	return nil
}

func (ft *fakeTransport) callCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.calls
}

func (ft *fakeTransport) maxConcurrent() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.maxInFlight
}

// fakeWalker yields a fixed set of groups and items.
type fakeWalker struct {
	groups []string
	items  map[string][]Item
	next   int
}

func (w *fakeWalker) Next() (string, bool) {
	if w.next >= len(w.groups) {
		return "", false
	}
	group := w.groups[w.next]
	w.next++
	return group, true
}

func (w *fakeWalker) Items(group string) ([]Item, error) {
	return w.items[group], nil
}

func noDelayPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 1, DelayMin: 0, DelayMax: 0}
}
