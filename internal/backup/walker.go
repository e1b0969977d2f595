package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GroupWalker supplies ordered groups of candidate items. The real
// media-library enumeration lives behind this boundary; the scheduler
// only consumes it.
type GroupWalker interface {
	// Next returns the next group name, or false when none remain.
	Next() (string, bool)
	// Items lists the candidate items of a group.
	Items(group string) ([]Item, error)
}

// DirWalker treats each immediate subdirectory of a root as one group
// and each regular file inside it as one item.
type DirWalker struct {
	root   string
	groups []string
	next   int
}

func NewDirWalker(root string) (*DirWalker, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read source root: %w", err)
	}

	var groups []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			groups = append(groups, e.Name())
		}
	}
	sort.Strings(groups)

	return &DirWalker{root: root, groups: groups}, nil
}

func (w *DirWalker) Next() (string, bool) {
	if w.next >= len(w.groups) {
		return "", false
	}
	group := w.groups[w.next]
	w.next++
	return group, true
}

func (w *DirWalker) Items(group string) ([]Item, error) {
	dir := filepath.Join(w.root, group)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read group %s: %w", group, err)
	}

	var items []Item
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		items = append(items, &fileItem{
			path:  filepath.Join(dir, e.Name()),
			name:  e.Name(),
			group: group,
			kind:  kindForName(e.Name()),
		})
	}
	return items, nil
}

type fileItem struct {
	path  string
	name  string
	group string
	kind  MediaKind
}

func (f *fileItem) ID() string          { return f.name }
func (f *fileItem) Group() string       { return f.group }
func (f *fileItem) Kind() MediaKind     { return f.kind }
func (f *fileItem) DisplayName() string { return f.name }

func (f *fileItem) Open() (io.ReadCloser, int64, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("failed to stat %s: %w", f.path, err)
	}
	return file, info.Size(), nil
}

// Available reports whether the file still exists and is readable,
// without opening it.
func (f *fileItem) Available() bool {
	info, err := os.Stat(f.path)
	return err == nil && info.Mode().IsRegular()
}

func kindForName(name string) MediaKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic":
		return KindImage
	case ".mp4", ".mov", ".m4v", ".webm", ".avi":
		return KindVideo
	default:
		return KindUnknown
	}
}
