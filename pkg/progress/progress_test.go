package progress

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListeners_NotifyOrder(t *testing.T) {
	listeners := NewListeners()

	var order []string
	listeners.Add(func(n int64) { order = append(order, "first") })
	listeners.Add(func(n int64) { order = append(order, "second") })

	listeners.Notify(10)

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 2, listeners.Len())
}

func TestListeners_AddNilIgnored(t *testing.T) {
	listeners := NewListeners()
	listeners.Add(nil)
	assert.Equal(t, 0, listeners.Len())
	listeners.Notify(1) // must not panic
}

// Registration may happen while another goroutine is notifying; the race
// detector must stay quiet.
func TestListeners_ConcurrentAddAndNotify(t *testing.T) {
	listeners := NewListeners()
	var counted int64
	listeners.Add(func(n int64) { atomic.AddInt64(&counted, n) })

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			listeners.Notify(1)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			listeners.Add(func(int64) {})
		}
	}()
	wg.Wait()

	assert.Equal(t, int64(100), atomic.LoadInt64(&counted))
	assert.Equal(t, 101, listeners.Len())
}

func TestReader_ReportsEveryChunk(t *testing.T) {
	payload := strings.Repeat("x", 10)
	listeners := NewListeners()

	var calls int
	var total int64
	listeners.Add(func(n int64) {
		calls++
		total += n
	})

	reader := NewReader(strings.NewReader(payload), listeners)
	buf := make([]byte, 3) // forces 4 reads: 3+3+3+1
	out, err := io.CopyBuffer(&discardWriter{}, onlyReader{reader}, buf)
	require.NoError(t, err)

	assert.Equal(t, int64(len(payload)), out)
	assert.Equal(t, 4, calls)
	assert.Equal(t, int64(len(payload)), total)
}

func TestWriter_ReportsEveryWrite(t *testing.T) {
	listeners := NewListeners()

	var total int64
	listeners.Add(func(n int64) { total += n })

	var sink bytes.Buffer
	writer := NewWriter(&sink, listeners)

	_, err := writer.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = writer.Write([]byte("world"))
	require.NoError(t, err)

	assert.Equal(t, int64(11), total)
	assert.Equal(t, "hello world", sink.String())
}

func TestReader_NilListeners(t *testing.T) {
	reader := NewReader(strings.NewReader("data"), nil)
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

// onlyReader hides ReadFrom/WriteTo so io.CopyBuffer honors the buffer size.
type onlyReader struct{ io.Reader }

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
