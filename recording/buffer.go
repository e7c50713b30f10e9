package recording

// Buffer accumulates encoded screenshots in capture order.
// It is not safe for concurrent use; Session guards it with its own lock.
type Buffer struct {
	images [][]byte
}

// Append stores a copy of img.
func (b *Buffer) Append(img []byte) {
	c := make([]byte, len(img))
	copy(c, img)
	b.images = append(b.images, c)
}

// Drain returns all buffered images and empties the buffer.
// The result is never nil.
func (b *Buffer) Drain() [][]byte {
	out := b.images
	if out == nil {
		out = [][]byte{}
	}
	b.images = nil
	return out
}

// Clear drops all buffered images.
func (b *Buffer) Clear() {
	b.images = nil
}

// Len returns the number of buffered images.
func (b *Buffer) Len() int {
	return len(b.images)
}
