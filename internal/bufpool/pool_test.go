package bufpool

import (
	"sync"
	"testing"
)

// nearestClass returns the smallest size class >= size, or 0 if size exceeds
// every class (the unpooled fallback path).
func nearestClass(size int) int {
	for _, c := range sizeClasses {
		if size <= c {
			return c
		}
	}
	return 0
}

func TestSizeClassesAreADoublingLadder(t *testing.T) {
	if sizeClasses[0] != minClassSize {
		t.Fatalf("first class = %d, want minClassSize %d", sizeClasses[0], minClassSize)
	}
	for i := 1; i < len(sizeClasses); i++ {
		if sizeClasses[i] != sizeClasses[i-1]*2 {
			t.Fatalf("class %d = %d is not double class %d = %d", i, sizeClasses[i], i-1, sizeClasses[i-1])
		}
	}
	last := sizeClasses[len(sizeClasses)-1]
	if last < maxClassSize/2 || last > maxClassSize {
		t.Fatalf("last class %d out of expected range around maxClassSize %d", last, maxClassSize)
	}
}

func TestPoolGetReturnsSizedBuffer(t *testing.T) {
	t.Parallel()

	p := New()

	sizes := []int{0, 64, minClassSize, 1024, 5000, 131072, maxClassSize + 1}
	for _, size := range sizes {
		size := size
		t.Run("", func(t *testing.T) {
			t.Parallel()

			buf := p.Get(size)
			if size == 0 {
				if len(buf) != 0 || cap(buf) != 0 {
					t.Fatalf("expected zero-length buffer, got len=%d cap=%d", len(buf), cap(buf))
				}
				return
			}

			if len(buf) != size {
				t.Fatalf("expected len=%d, got %d", size, len(buf))
			}

			want := nearestClass(size)
			if want == 0 {
				if cap(buf) != size {
					t.Fatalf("expected unpooled cap=%d for oversized request, got %d", size, cap(buf))
				}
				return
			}
			if cap(buf) != want {
				t.Fatalf("expected cap=%d, got %d", want, cap(buf))
			}
		})
	}
}

func TestPoolPutReusesBuffer(t *testing.T) {
	t.Parallel()

	p := New()

	buf := p.Get(200)
	if len(buf) != 200 {
		t.Fatalf("expected len=200, got %d", len(buf))
	}
	buf[0] = 42

	ptr := &buf[:1][0]
	p.Put(buf)

	reused := p.Get(200)
	if len(reused) != 200 {
		t.Fatalf("expected len=200, got %d", len(reused))
	}

	wantCap := nearestClass(200)
	if cap(reused) != wantCap {
		t.Fatalf("expected cap=%d, got %d", wantCap, cap(reused))
	}

	if &reused[:1][0] != ptr {
		t.Fatalf("expected to get the same buffer pointer back from pool")
	}

	for i, v := range reused {
		if v != 0 {
			t.Fatalf("expected buffer to be zeroed, found value %d at index %d", v, i)
		}
	}
}

// TestPoolAbsorbsDecoderGrowthLadder exercises the property the ladder is
// built for: reallocating by repeated doubling from minClassSize, as
// manageBuffer does, always lands on a pool class instead of falling
// through to an unpooled allocation, for every doubled size that does not
// exceed a 16MiB-1 item payload (secs2.MaxItemLength), i.e. up to 8MiB.
func TestPoolAbsorbsDecoderGrowthLadder(t *testing.T) {
	p := New()
	for size := minClassSize; size <= 1<<24-1; size *= 2 {
		buf := p.Get(size)
		if cap(buf) > maxClassSize {
			t.Fatalf("size %d produced an unpooled cap=%d", size, cap(buf))
		}
		p.Put(buf)
	}
}

func TestPoolConcurrentAccess(t *testing.T) {
	t.Parallel()

	p := New()
	var wg sync.WaitGroup

	worker := func(size int) {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			buf := p.Get(size)
			if len(buf) != size {
				t.Fatalf("expected len=%d, got %d", size, len(buf))
			}
			if cap(buf) < size {
				t.Fatalf("expected cap >= %d, got %d", size, cap(buf))
			}
			for j := range buf {
				buf[j] = byte(i)
			}
			p.Put(buf)
		}
	}

	sizes := []int{64, 512, 2048, 8192, 40000}
	for _, size := range sizes {
		size := size
		wg.Add(1)
		go worker(size)
	}

	wg.Wait()
}
