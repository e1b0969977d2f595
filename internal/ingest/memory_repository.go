package ingest

import (
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository used by tests.
type MemoryRepository struct {
	mu      sync.Mutex
	records []*Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *rec
	r.records = append(r.records, &copied)
	return nil
}

func (r *MemoryRepository) ListByAlbum(album string, limit int) ([]*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}

	var out []*Record
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].Album == album {
			copied := *r.records[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Albums() ([]AlbumSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byAlbum := make(map[string]*AlbumSummary)
	for _, rec := range r.records {
		summary, ok := byAlbum[rec.Album]
		if !ok {
			summary = &AlbumSummary{Album: rec.Album}
			byAlbum[rec.Album] = summary
		}
		summary.FileCount++
		summary.SizeBytes += rec.SizeBytes
	}

	albums := make([]AlbumSummary, 0, len(byAlbum))
	for _, summary := range byAlbum {
		albums = append(albums, *summary)
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].Album < albums[j].Album })
	return albums, nil
}

// All returns every record, oldest first.
func (r *MemoryRepository) All() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Record, len(r.records))
	copy(out, r.records)
	return out
}
