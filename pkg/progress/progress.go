// Package progress implements transfer progress reporting. A Listeners value
// holds an ordered list of callbacks that are invoked synchronously on the
// transferring goroutine, once per streamed chunk, with that chunk's byte
// count.
package progress

import (
	"io"
	"sync"
)

// Listener receives the byte count of one transferred chunk.
type Listener func(bytesTransferred int64)

// Listeners is an ordered list of progress callbacks shared across all
// transfers on a connection. Registration may race async transfers, so the
// list is lock-guarded. Listeners are never removed automatically; a slow
// listener stalls the transfer it observes.
type Listeners struct {
	mu        sync.RWMutex
	callbacks []Listener
}

// NewListeners returns an empty listener list.
func NewListeners() *Listeners {
	return &Listeners{}
}

// Add appends a listener. Order of registration is the order of invocation.
func (l *Listeners) Add(callback Listener) {
	if callback == nil {
		return
	}
	l.mu.Lock()
	l.callbacks = append(l.callbacks, callback)
	l.mu.Unlock()
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.callbacks)
}

// Notify invokes every listener with the given byte count, in registration
// order. The lock is not held during callbacks.
func (l *Listeners) Notify(bytesTransferred int64) {
	l.mu.RLock()
	callbacks := l.callbacks
	l.mu.RUnlock()
	for _, callback := range callbacks {
		callback(bytesTransferred)
	}
}

// Reader wraps an io.Reader and notifies the listener list after every
// successful read with the number of bytes read.
type Reader struct {
	r         io.Reader
	listeners *Listeners
}

// NewReader wraps r so that reads report to listeners. A nil listener list is
// treated as empty.
func NewReader(r io.Reader, listeners *Listeners) *Reader {
	if listeners == nil {
		listeners = NewListeners()
	}
	return &Reader{r: r, listeners: listeners}
}

// Read implements io.Reader.
func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.listeners.Notify(int64(n))
	}
	return n, err
}

// Writer wraps an io.Writer and notifies the listener list after every
// successful write. Used on the download path when copying a response body to
// a local file.
type Writer struct {
	w         io.Writer
	listeners *Listeners
}

// NewWriter wraps w so that writes report to listeners.
func NewWriter(w io.Writer, listeners *Listeners) *Writer {
	if listeners == nil {
		listeners = NewListeners()
	}
	return &Writer{w: w, listeners: listeners}
}

// Write implements io.Writer.
func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	if n > 0 {
		pw.listeners.Notify(int64(n))
	}
	return n, err
}
