package signaling

// WaitQueue is a FIFO of participant names with constant-time membership.
type WaitQueue struct {
	names  []string
	queued map[string]struct{}
}

func NewWaitQueue() *WaitQueue {
	return &WaitQueue{queued: make(map[string]struct{})}
}

// Push appends name and returns its 1-based position. A name that is
// already queued keeps its place.
func (q *WaitQueue) Push(name string) int {
	if _, ok := q.queued[name]; ok {
		return q.Position(name)
	}
	q.names = append(q.names, name)
	q.queued[name] = struct{}{}
	return len(q.names)
}

func (q *WaitQueue) Peek() (string, bool) {
	if len(q.names) == 0 {
		return "", false
	}
	return q.names[0], true
}

func (q *WaitQueue) Pop() (string, bool) {
	if len(q.names) == 0 {
		return "", false
	}
	name := q.names[0]
	q.names[0] = ""
	q.names = q.names[1:]
	delete(q.queued, name)
	return name, true
}

// Remove drops name wherever it is and reports whether it was queued
func (q *WaitQueue) Remove(name string) bool {
	if _, ok := q.queued[name]; !ok {
		return false
	}
	delete(q.queued, name)
	for i, n := range q.names {
		if n == name {
			q.names = append(q.names[:i], q.names[i+1:]...)
			break
		}
	}
	return true
}

func (q *WaitQueue) Contains(name string) bool {
	_, ok := q.queued[name]
	return ok
}

// Position returns the 1-based position of name, or 0 if it is not queued
func (q *WaitQueue) Position(name string) int {
	if !q.Contains(name) {
		return 0
	}
	for i, n := range q.names {
		if n == name {
			return i + 1
		}
	}
	return 0
}

func (q *WaitQueue) Len() int {
	return len(q.names)
}

// Names returns a copy of the queue in order
func (q *WaitQueue) Names() []string {
	out := make([]string, len(q.names))
	copy(out, q.names)
	return out
}
