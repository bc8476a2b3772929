package session

// TrackBuffer is a fixed-capacity FIFO of location fixes. Appending past
// the cap evicts the oldest fix, so memory stays constant however long the
// hike runs. Not safe for concurrent use; the Tracker serializes access.
type TrackBuffer struct {
	fixes []Fix
	head  int
	size  int
}

func NewTrackBuffer(capacity int) *TrackBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &TrackBuffer{fixes: make([]Fix, capacity)}
}

func (b *TrackBuffer) Append(f Fix) {
	n := len(b.fixes)
	if b.size == n {
		b.fixes[b.head] = f
		b.head = (b.head + 1) % n
		return
	}
	b.fixes[(b.head+b.size)%n] = f
	b.size++
}

func (b *TrackBuffer) Len() int {
	return b.size
}

// Fixes returns the buffered fixes in insertion order, oldest first.
func (b *TrackBuffer) Fixes() []Fix {
	out := make([]Fix, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.fixes[(b.head+i)%len(b.fixes)]
	}
	return out
}
