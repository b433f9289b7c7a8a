package audio

import "sync"

// Queue is the FIFO of tracks waiting to be played for one guild.
type Queue struct {
	items []Track
	mutex sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Put(track Track) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.items = append(q.items, track)
}

// PutMany appends tracks in order and returns how many were added.
func (q *Queue) PutMany(tracks []Track) int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.items = append(q.items, tracks...)
	return len(tracks)
}

func (q *Queue) Get() (Track, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if len(q.items) == 0 {
		return Track{}, false
	}
	next := q.items[0]
	// clear the slot so the backing array does not pin played tracks
	q.items[0] = Track{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return next, true
}

func (q *Queue) Peek() (Track, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if len(q.items) == 0 {
		return Track{}, false
	}
	return q.items[0], true
}

func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}

func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Items returns a copy of the pending tracks.
func (q *Queue) Items() []Track {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	out := make([]Track, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) Clear() {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.items = nil
}

// History is a fixed size ring of recently played identifiers, used to keep
// autoplay from recommending the same few tracks over and over.
type History struct {
	ids   []string
	next  int
	full  bool
	mutex sync.Mutex
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{ids: make([]string, size)}
}

func (h *History) Add(identifier string) {
	if identifier == "" {
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.ids[h.next] = identifier
	h.next = (h.next + 1) % len(h.ids)
	if h.next == 0 {
		h.full = true
	}
}

func (h *History) Contains(identifier string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for i, id := range h.ids {
		if !h.full && i >= h.next {
			break
		}
		if id == identifier {
			return true
		}
	}
	return false
}

func (h *History) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.full {
		return len(h.ids)
	}
	return h.next
}
