package model

// IDSequence hands out monotonically increasing integer ids for one
// document. Each document owns its own sequences; nothing is shared between
// sessions.
type IDSequence struct {
	next int
}

// Next returns a fresh id.
func (s *IDSequence) Next() int {
	id := s.next
	s.next++
	return id
}

// Observe records an id that was assigned elsewhere (e.g. read from a file)
// so that Next never returns it.
func (s *IDSequence) Observe(id int) {
	if id >= s.next {
		s.next = id + 1
	}
}

// Peek returns the id the next call to Next would return.
func (s *IDSequence) Peek() int {
	return s.next
}

// Reset rewinds the sequence to zero.
func (s *IDSequence) Reset() {
	s.next = 0
}
