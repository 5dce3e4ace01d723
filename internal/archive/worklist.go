package archive

import "path/filepath"

type pendingArchive struct {
	path  string
	depth int
}

// worklist is a FIFO of archives still to extract. Paths are extracted at most
// once, which stops an archive that reproduces itself from looping.
type worklist struct {
	queue []pendingArchive
	seen  map[string]struct{}
	limit int
}

func newWorklist(limit int) *worklist {
	return &worklist{
		seen:  make(map[string]struct{}),
		limit: limit,
	}
}

// pushArchives queues every path whose extension is a known archive format.
func (w *worklist) pushArchives(paths []string, depth int) {
	for _, p := range paths {
		if DetectFormat(p).IsArchive() {
			w.queue = append(w.queue, pendingArchive{path: p, depth: depth})
		}
	}
}

func (w *worklist) pop() pendingArchive {
	item := w.queue[0]
	w.queue = w.queue[1:]
	return item
}

func (w *worklist) len() int {
	return len(w.queue)
}

func (w *worklist) visit(path string) {
	w.seen[filepath.Clean(path)] = struct{}{}
}

func (w *worklist) visited(path string) bool {
	_, ok := w.seen[filepath.Clean(path)]
	return ok
}
