package internal

import "sync"

// BytePool recycles byte slices. Slices that grew beyond maxSize are
// dropped on Put so that one large reply does not pin its memory.
type BytePool struct {
	pool    sync.Pool
	maxSize int
}

func NewBytePool(initialSize, maxSize int) *BytePool {
	return &BytePool{
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, 0, initialSize)
				return &b
			},
		},
		maxSize: maxSize,
	}
}

// Get returns an empty slice with at least the initial capacity.
func (p *BytePool) Get() *[]byte {
	b := p.pool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

func (p *BytePool) Put(b *[]byte) {
	if cap(*b) > p.maxSize {
		return
	}
	*b = (*b)[:0]
	p.pool.Put(b)
}
