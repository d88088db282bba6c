// Package tracing records cache accesses for offline analysis.
package tracing

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/timing/cache"
)

// Access is one traced cache event.
type Access struct {
	Tick       uint64
	Kind       string
	Address    cache.Address
	Set        int
	Way        int
	EvictedTag uint32
}

// CSVTraceWriter is a cache hook that stores every access into a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	mu         sync.Mutex
	accesses   []Access
	bufferSize int
	closed     bool
}

var _ sim.Hook = (*CSVTraceWriter)(nil)

// NewCSVTraceWriter creates a trace writer. If path is empty a unique name is
// chosen at Init. The ".csv" extension is appended to path.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the name of the CSV file, valid after Init.
func (t *CSVTraceWriter) Path() string {
	return t.path + ".csv"
}

// Init creates the CSV file and arranges for it to be flushed and closed when
// the process exits through atexit. An existing file is never overwritten.
func (t *CSVTraceWriter) Init() error {
	if t.path == "" {
		t.path = "cachesim_trace_" + xid.New().String()
	}

	filename := t.Path()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	t.file = file

	if _, err := fmt.Fprintf(file, "Tick, Kind, Address, Tag, Set, Way, EvictedTag\n"); err != nil {
		return err
	}

	atexit.Register(func() {
		_ = t.Close()
	})

	return nil
}

// Func records one cache event.
func (t *CSVTraceWriter) Func(ctx sim.HookCtx) {
	addr, ok := ctx.Item.(cache.Address)
	if !ok {
		return
	}
	detail, _ := ctx.Detail.(cache.AccessDetail)

	t.Write(Access{
		Tick:       detail.Tick,
		Kind:       ctx.Pos.Name,
		Address:    addr,
		Set:        detail.Set,
		Way:        detail.Way,
		EvictedTag: detail.EvictedTag,
	})
}

// Write buffers an access, flushing when the buffer is full.
func (t *CSVTraceWriter) Write(a Access) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.accesses = append(t.accesses, a)
	if len(t.accesses) >= t.bufferSize {
		_ = t.flush()
	}
}

// Flush writes the buffered accesses to the CSV file.
func (t *CSVTraceWriter) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.flush()
}

func (t *CSVTraceWriter) flush() error {
	if t.file == nil || t.closed {
		t.accesses = nil
		return nil
	}

	w := bufio.NewWriter(t.file)
	for _, a := range t.accesses {
		fmt.Fprintf(w, "%d, %s, 0x%08x, 0x%x, %d, %d, 0x%x\n",
			a.Tick,
			a.Kind,
			a.Address.Raw(),
			a.Address.Tag,
			a.Set,
			a.Way,
			a.EvictedTag,
		)
	}
	t.accesses = nil

	return w.Flush()
}

// Close flushes the buffer and closes the file. Closing twice is a no-op.
func (t *CSVTraceWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil || t.closed {
		return nil
	}

	err := t.flush()
	t.closed = true

	if cerr := t.file.Close(); err == nil {
		err = cerr
	}

	return err
}
