package emotion

import "sync"

// DefaultHistoryLimit is the number of readings kept per user.
const DefaultHistoryLimit = 50

// History keeps a bounded, per-user window of emotion readings. Oldest
// entries are dropped first once a user reaches the limit.
type History struct {
	limit int

	mu    sync.RWMutex
	users map[string]*userHistory
}

// userHistory counts the entries ever removed from the front so a mark
// taken by Checkpoint stays valid while new readings arrive.
type userHistory struct {
	labels  []Label
	dropped int
}

// NewHistory returns an empty history. A non-positive limit uses
// DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, users: make(map[string]*userHistory)}
}

// Append records a label for user.
func (h *History) Append(user string, label Label) {
	h.mu.Lock()
	defer h.mu.Unlock()

	u, ok := h.users[user]
	if !ok {
		u = &userHistory{}
		h.users[user] = u
	}
	u.labels = append(u.labels, label)
	if over := len(u.labels) - h.limit; over > 0 {
		u.labels = append(u.labels[:0:0], u.labels[over:]...)
		u.dropped += over
	}
}

// Recent returns up to n of the user's latest labels, oldest first.
func (h *History) Recent(user string, n int) []Label {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var buf []Label
	if u, ok := h.users[user]; ok {
		buf = u.labels
	}
	if n < len(buf) {
		buf = buf[len(buf)-n:]
	}
	out := make([]Label, len(buf))
	copy(out, buf)
	return out
}

// Checkpoint returns a copy of every stored label for user together with a
// mark for DropThrough.
func (h *History) Checkpoint(user string) ([]Label, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	u, ok := h.users[user]
	if !ok {
		return []Label{}, 0
	}
	out := make([]Label, len(u.labels))
	copy(out, u.labels)
	return out, u.dropped + len(u.labels)
}

// DropThrough removes the readings covered by a Checkpoint mark. Readings
// appended after the checkpoint are kept.
func (h *History) DropThrough(user string, mark int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	u, ok := h.users[user]
	if !ok {
		return
	}
	n := mark - u.dropped
	if n <= 0 {
		return
	}
	if n > len(u.labels) {
		n = len(u.labels)
	}
	u.labels = append(u.labels[:0:0], u.labels[n:]...)
	u.dropped += n
}

// Len reports how many labels are stored for user.
func (h *History) Len(user string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if u, ok := h.users[user]; ok {
		return len(u.labels)
	}
	return 0
}
