// Package backup implements the client-side upload orchestration:
// walking grouped media items, filtering them against the dedup store,
// and driving bounded-concurrency uploads with retry and progress.
package backup

import (
	"fmt"
	"io"
	"strings"
)

// MediaKind classifies an item as image or video.
type MediaKind int

const (
	KindUnknown MediaKind = iota
	KindImage
	KindVideo
)

// ContentType returns the wire content type used for the item's file part.
func (k MediaKind) ContentType() string {
	switch k {
	case KindImage:
		return "image/jpeg"
	case KindVideo:
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// Ext returns the filename extension matching the wire content type.
func (k MediaKind) Ext() string {
	switch k {
	case KindImage:
		return ".jpg"
	case KindVideo:
		return ".mp4"
	default:
		return ""
	}
}

func (k MediaKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Item is one media object supplied by a group walker. The byte source
// is resolved lazily through Open; the core only reads identity and
// bytes and never mutates the item.
type Item interface {
	ID() string
	Group() string
	Kind() MediaKind
	DisplayName() string
	// Open resolves the byte source and its size. The caller closes
	// the reader.
	Open() (io.ReadCloser, int64, error)
}

// Key uniquely identifies an item across runs as album/itemID.
type Key struct {
	Group string
	ID    string
}

// NewKey builds a composite key, rejecting parts that would make the
// rendered form ambiguous.
func NewKey(group, id string) (Key, error) {
	if group == "" || id == "" {
		return Key{}, fmt.Errorf("composite key parts must be non-empty")
	}
	if strings.Contains(group, "/") || strings.Contains(id, "/") {
		return Key{}, fmt.Errorf("composite key parts must not contain %q: %s/%s", "/", group, id)
	}
	return Key{Group: group, ID: id}, nil
}

// ItemKey builds the composite key for an item.
func ItemKey(it Item) (Key, error) {
	return NewKey(it.Group(), it.ID())
}

func (k Key) String() string {
	return k.Group + "/" + k.ID
}
