package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumkeep/albumkeep/internal/storage"
)

// memoryBackend implements storage.Backend on a map.
type memoryBackend struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{files: make(map[string][]byte)}
}

func (b *memoryBackend) Store(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[path] = data
	return nil
}

func (b *memoryBackend) Get(_ context.Context, path string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[path]
	if !ok {
		return nil, fmt.Errorf("not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memoryBackend) Exists(_ context.Context, path string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.files[path]
	return ok, nil
}

func (b *memoryBackend) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.files, path)
	return nil
}

func (b *memoryBackend) paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.files))
	for p := range b.files {
		out = append(out, p)
	}
	return out
}

var _ storage.Backend = (*memoryBackend)(nil)

type recordedNotification struct {
	album      string
	storedName string
	size       int64
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedNotification
}

func (n *fakeNotifier) NotifyIngest(album, storedName string, size int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedNotification{album: album, storedName: storedName, size: size})
}

type partSpec struct {
	filename    string
	contentType string
	data        []byte
}

// buildFileHeaders assembles real multipart.FileHeader values by
// encoding and re-parsing a form.
func buildFileHeaders(t *testing.T, parts []partSpec) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photos"; filename=%q`, p.filename))
		h.Set("Content-Type", p.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["photos"]
}

func newTestService(repo Repository, backend storage.Backend, notifier Notifier) *Service {
	return NewService(repo, backend, notifier, 1024, 5, false)
}

func TestService_ShouldStoreFilesAndCatalogThem(t *testing.T) {
	// given
	repo := NewMemoryRepository()
	backend := newMemoryBackend()
	notifier := &fakeNotifier{}
	service := newTestService(repo, backend, notifier)

	files := buildFileHeaders(t, []partSpec{
		{filename: "a.jpg", contentType: "image/jpeg", data: []byte("first")},
		{filename: "b.jpg", contentType: "image/jpeg", data: []byte("second")},
	})

	// when
	stored, err := service.Ingest(context.Background(), "Vacation 2023", files)

	// then
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "a.jpg", stored[0].OriginalName)
	assert.True(t, strings.HasSuffix(stored[0].SavedAs, "_a.jpg"))
	assert.Equal(t, int64(5), stored[0].Size)
	assert.Equal(t, "Vacation 2023/"+stored[0].SavedAs, stored[0].Path)

	assert.Len(t, backend.paths(), 2)

	records := repo.All()
	require.Len(t, records, 2)
	assert.Equal(t, "Vacation 2023", records[0].Album)
	assert.Equal(t, "image/jpeg", records[0].ContentType)
	assert.NotEmpty(t, records[0].ID)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Len(t, notifier.events, 2)
	assert.Equal(t, "Vacation 2023", notifier.events[0].album)
}

func TestService_ShouldRejectEmptyRequest(t *testing.T) {
	service := newTestService(NewMemoryRepository(), newMemoryBackend(), nil)

	_, err := service.Ingest(context.Background(), "trip", nil)

	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestService_ShouldRejectTooManyFiles(t *testing.T) {
	service := newTestService(NewMemoryRepository(), newMemoryBackend(), nil)

	parts := make([]partSpec, 6)
	for i := range parts {
		parts[i] = partSpec{filename: fmt.Sprintf("f%d.jpg", i), contentType: "image/jpeg", data: []byte("x")}
	}
	files := buildFileHeaders(t, parts)

	_, err := service.Ingest(context.Background(), "trip", files)

	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestService_ShouldRejectOversizedFile(t *testing.T) {
	// given a service capped at 1 KiB
	backend := newMemoryBackend()
	service := newTestService(NewMemoryRepository(), backend, nil)

	files := buildFileHeaders(t, []partSpec{
		{filename: "big.jpg", contentType: "image/jpeg", data: bytes.Repeat([]byte("x"), 2048)},
	})

	// when
	stored, err := service.Ingest(context.Background(), "trip", files)

	// then
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, stored)
	assert.Empty(t, backend.paths())
}

func TestService_ShouldRejectNonMediaContentType(t *testing.T) {
	service := newTestService(NewMemoryRepository(), newMemoryBackend(), nil)

	files := buildFileHeaders(t, []partSpec{
		{filename: "evil.exe", contentType: "application/octet-stream", data: []byte("mz")},
	})

	_, err := service.Ingest(context.Background(), "trip", files)

	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestService_ShouldReportFilesWrittenBeforeFailure(t *testing.T) {
	// given a valid file followed by an invalid one
	backend := newMemoryBackend()
	service := newTestService(NewMemoryRepository(), backend, nil)

	files := buildFileHeaders(t, []partSpec{
		{filename: "ok.jpg", contentType: "image/jpeg", data: []byte("fine")},
		{filename: "bad.bin", contentType: "application/zip", data: []byte("nope")},
	})

	// when
	stored, err := service.Ingest(context.Background(), "trip", files)

	// then the error surfaces but the first file's manifest entry does too
	require.ErrorIs(t, err, ErrUnsupportedType)
	require.Len(t, stored, 1)
	assert.Equal(t, "ok.jpg", stored[0].OriginalName)
	assert.Len(t, backend.paths(), 1)
}

func TestService_ShouldSanitizeAlbumAndFilename(t *testing.T) {
	// given hostile names
	backend := newMemoryBackend()
	service := newTestService(NewMemoryRepository(), backend, nil)

	files := buildFileHeaders(t, []partSpec{
		{filename: "../../etc/pass wd.jpg", contentType: "image/jpeg", data: []byte("x")},
	})

	// when
	stored, err := service.Ingest(context.Background(), "../secrets", files)

	// then nothing escapes the album directory
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, strings.HasSuffix(stored[0].SavedAs, "_pass_wd.jpg"))
	assert.NotContains(t, stored[0].Path, "..")
	assert.True(t, strings.HasPrefix(stored[0].Path, "secrets/"))
}

func TestService_ShouldAcceptVideoContentTypes(t *testing.T) {
	service := newTestService(NewMemoryRepository(), newMemoryBackend(), nil)

	files := buildFileHeaders(t, []partSpec{
		{filename: "clip.mp4", contentType: "video/mp4", data: []byte("frames")},
	})

	stored, err := service.Ingest(context.Background(), "trip", files)

	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
