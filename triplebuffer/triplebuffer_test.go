package triplebuffer_test

import (
	"sync"
	"testing"

	"github.com/kestrelcore/engine/triplebuffer"
	"github.com/stretchr/testify/assert"
)

func TestReadComplete_BeforeAnyWrite_ReturnsInitialState(t *testing.T) {
	b := triplebuffer.New(42)
	assert.Equal(t, 42, *b.ReadComplete())
}

func TestReadComplete_LatestWins(t *testing.T) {
	b := triplebuffer.New(0)

	*b.GetWritable() = 1
	b.WriteComplete()

	*b.GetWritable() = 2
	b.WriteComplete()

	assert.Equal(t, 2, *b.ReadComplete())
}

func TestSingleWriteNoRead_ReturnsInitial(t *testing.T) {
	b := triplebuffer.New("initial")
	*b.GetWritable() = "written"
	b.WriteComplete()

	// No ReadComplete call yet: GetReadable must still see the initial value.
	assert.Equal(t, "initial", *b.GetReadable())
}

func TestConcurrentWritesAndReads_NeverObservesTornState(t *testing.T) {
	type state struct{ a, b int }
	buf := triplebuffer.New(state{0, 0})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 1; i <= 1000; i++ {
			w := buf.GetWritable()
			w.a = i
			w.b = i
			buf.WriteComplete()
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s := buf.ReadComplete()
			if s.a != s.b {
				t.Errorf("observed torn state: %+v", *s)
			}
		}
	}()

	wg.Wait()
}
