package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// WriteError marks the container itself as unwritable. Unlike a per-file
// failure it halts the compress/finalize phase and preserves all originals.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("archive %s failed: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer serializes concurrent entry production into one ZIP container.
// Entries arrive pre-compressed and are stored verbatim (zip Store), so the
// container adds no second compression pass. All writes flow through a
// single goroutine; AddEntry may be called from any number of workers.
type Writer struct {
	target Target
	queue  chan addRequest
	closed chan struct{}
	wg     sync.WaitGroup
	now    func() time.Time

	file *os.File
	zip  *zip.Writer
	err  error
}

type addRequest struct {
	name   string
	data   []byte
	result chan error
}

func NewWriter(target Target) (*Writer, error) {
	return newWriter(target, time.Now)
}

func newWriter(target Target, now func() time.Time) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(target.Path), 0o750); err != nil {
		return nil, &WriteError{Op: "mkdir", Err: err}
	}
	file, err := os.Create(target.Path)
	if err != nil {
		return nil, &WriteError{Op: "create", Err: err}
	}
	w := &Writer{
		target: target,
		queue:  make(chan addRequest),
		closed: make(chan struct{}),
		now:    now,
		file:   file,
		zip:    zip.NewWriter(file),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// AddEntry hands one finished entry to the container and blocks until it is
// written or rejected. After the first container failure every subsequent
// call returns the same WriteError.
func (w *Writer) AddEntry(name string, data []byte) error {
	req := addRequest{name: name, data: data, result: make(chan error, 1)}
	select {
	case <-w.closed:
		return &WriteError{Op: "add", Err: errors.New("writer closed")}
	case w.queue <- req:
		return <-req.result
	}
}

func (w *Writer) run() {
	defer w.wg.Done()
	for {
		select {
		case req := <-w.queue:
			req.result <- w.write(req.name, req.data)
		case <-w.closed:
			return
		}
	}
}

func (w *Writer) write(name string, data []byte) error {
	if w.err != nil {
		return w.err
	}
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: w.now(),
	}
	entry, err := w.zip.CreateHeader(hdr)
	if err != nil {
		w.err = &WriteError{Op: "entry " + name, Err: err}
		return w.err
	}
	if _, err := entry.Write(data); err != nil {
		w.err = &WriteError{Op: "entry " + name, Err: err}
		return w.err
	}
	return nil
}

// Finalize flushes and closes the container. Must be called exactly once;
// no original may be deleted unless Finalize returns the archive path.
func (w *Writer) Finalize() (string, error) {
	close(w.closed)
	w.wg.Wait()

	if err := w.zip.Close(); err != nil && w.err == nil {
		w.err = &WriteError{Op: "close", Err: err}
	}
	if err := w.file.Sync(); err != nil && w.err == nil {
		w.err = &WriteError{Op: "sync", Err: err}
	}
	if err := w.file.Close(); err != nil && w.err == nil {
		w.err = &WriteError{Op: "close", Err: err}
	}
	if w.err != nil {
		return "", w.err
	}
	return w.target.Path, nil
}
