package bufpool

import "sync"

// minClassSize and maxClassSize bound the size-class ladder generated below.
// minClassSize is the smallest class; requests below it (including the
// decoder's 16-byte minBufferSize floor) are served from it. maxClassSize is
// one doubling step past secs2.MaxItemLength (1<<24-1), the largest single
// item payload the wire format can express, so the largest class can still
// absorb a decoder reallocation sized for one maximal item payload without
// falling through to an unpooled allocation.
const (
	minClassSize = 128
	maxClassSize = 1 << 25
)

// sizeClasses is a doubling ladder, class i being minClassSize << i, in line
// with the decoder's own doubling growth policy (§4.2, buffer.go's
// manageBuffer) rather than an arbitrary hand-picked list. Get rounds any
// request up to the next class, so a buffer the decoder grows into (up to
// maxClassSize) has a class-sized capacity and returns to the pool on Put
// instead of falling through to the unpooled path.
var sizeClasses = buildSizeClasses(minClassSize, maxClassSize)

func buildSizeClasses(min, max int) []int {
	var classes []int
	for size := min; size <= max; size *= 2 {
		classes = append(classes, size)
	}
	return classes
}

type classPool struct {
	size int
	pool *sync.Pool
}

// Pool provides sized byte slices backed by reusable buffers to reduce GC churn.
type Pool struct {
	pools []classPool
}

var defaultPool = New()

// Get acquires a buffer from the package-level default pool.
func Get(size int) []byte {
	return defaultPool.Get(size)
}

// Put releases a buffer back to the package-level default pool.
func Put(buf []byte) {
	defaultPool.Put(buf)
}

// New creates a buffer pool whose size classes follow the decoder's own
// doubling growth ladder (§4.2), from minClassSize up to maxClassSize.
func New() *Pool {
	pools := make([]classPool, len(sizeClasses))
	for i, classSize := range sizeClasses {
		size := classSize
		pools[i] = classPool{
			size: size,
			pool: &sync.Pool{
				New: func() any {
					return make([]byte, size)
				},
			},
		}
	}
	return &Pool{pools: pools}
}

// Get returns a byte slice whose length matches the requested size and whose capacity is the
// nearest predefined size class that can accommodate the request. Requests larger than the
// maximum size class allocate a fresh slice without pooling.
func (p *Pool) Get(size int) []byte {
	if p == nil || size <= 0 {
		return nil
	}

	for i := range p.pools {
		class := &p.pools[i]
		if size <= class.size {
			buf := class.pool.Get().([]byte)
			return buf[:size]
		}
	}

	return make([]byte, size)
}

// Put returns the provided buffer to the pool if its capacity matches a predefined size class.
// Buffers that do not match any class are discarded. The buffer is zeroed before reuse to avoid
// leaking data across callers.
func (p *Pool) Put(buf []byte) {
	if p == nil || buf == nil {
		return
	}

	capBuf := cap(buf)
	for i := range p.pools {
		class := &p.pools[i]
		if capBuf == class.size {
			full := buf[:class.size]
			clear(full)
			class.pool.Put(full)
			return
		}
	}
}
