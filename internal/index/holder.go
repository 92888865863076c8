package index

import "sync/atomic"

// Holder publishes the active index to concurrent readers. Swap installs a
// freshly built index atomically; queries already running keep the snapshot
// they loaded, so a rebuild never tears an in-flight read.
type Holder struct {
	active atomic.Pointer[Index]
}

// NewHolder returns a holder, optionally seeded with an initial index.
func NewHolder(idx *Index) *Holder {
	h := &Holder{}
	if idx != nil {
		h.active.Store(idx)
	}
	return h
}

// Load returns the active index, or nil when nothing has been built yet.
func (h *Holder) Load() *Index {
	return h.active.Load()
}

// Swap installs idx as the active index.
func (h *Holder) Swap(idx *Index) {
	h.active.Store(idx)
}
