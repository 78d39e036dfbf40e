package compress

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/logsweep/logsweep/internal/selector"
)

// Sink is the single serialization point for the archive container. Workers
// hand finished entries to it rather than writing to the container directly.
type Sink interface {
	AddEntry(name string, data []byte) error
}

// Job is one file to compress into the container, consumed exactly once.
type Job struct {
	File      selector.LogFile
	EntryName string
}

// Result is the terminal state of a job. Err == nil means the entry reached
// the sink and the original is safe to delete once the container finalizes.
type Result struct {
	Job        Job
	BytesIn    int64
	BytesOut   int64
	Err        error
}

type Pool struct {
	workers   int
	chunkSize int
	algo      Algorithm
	level     int
}

func NewPool(algo Algorithm, level int, workers int, chunkSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if chunkSize < 1 {
		chunkSize = 8192
	}
	return &Pool{workers: workers, chunkSize: chunkSize, algo: algo, level: level}
}

// Run drains every job through at most p.workers concurrent workers and
// blocks until all results are in. Per-job failures are recorded in the
// returned results, never propagated as an error of the pool itself.
func (p *Pool) Run(jobs []Job, sink Sink) []Result {
	queue := make(chan Job)
	results := make([]Result, 0, len(jobs))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				res := p.process(job, sink)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}
	for _, job := range jobs {
		queue <- job
	}
	close(queue)
	wg.Wait()
	return results
}

// process reads the source in fixed-size chunks through the streaming
// encoder, then hands the encoded entry to the sink.
func (p *Pool) process(job Job, sink Sink) Result {
	res := Result{Job: job}

	src, err := os.Open(job.File.Path)
	if err != nil {
		res.Err = fmt.Errorf("opening %s: %w", job.File.Name, err)
		return res
	}
	defer src.Close()

	var encoded bytes.Buffer
	enc, err := NewEncoder(&encoded, p.algo, p.level)
	if err != nil {
		res.Err = &EncodeError{Name: job.File.Name, Err: err}
		return res
	}

	buf := make([]byte, p.chunkSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			res.BytesIn += int64(n)
			if _, werr := enc.Write(buf[:n]); werr != nil {
				res.Err = &EncodeError{Name: job.File.Name, Err: werr}
				return res
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			res.Err = fmt.Errorf("reading %s: %w", job.File.Name, rerr)
			return res
		}
	}
	if err := enc.Close(); err != nil {
		res.Err = &EncodeError{Name: job.File.Name, Err: err}
		return res
	}

	res.BytesOut = int64(encoded.Len())
	if err := sink.AddEntry(job.EntryName, encoded.Bytes()); err != nil {
		res.Err = err
		return res
	}
	return res
}
