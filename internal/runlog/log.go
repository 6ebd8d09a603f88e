// ============================================================================
// Periodic Engine Execution Audit Log
// ============================================================================
//
// Package: internal/runlog
// File: log.go
// Purpose: append-only, checksummed, batch-flushed audit trail of
//          completed periodic callable runs
//
// Mirrors the teacher's async batch-commit WAL: Append hands a record
// to a background writer over a channel and blocks for the resulting
// flush error, so N concurrent appends cost one fsync instead of N.
//
// ============================================================================

package runlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type appendRequest struct {
	record Record
	errCh  chan error
}

// Log is an append-only execution audit log.
type Log struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	seq     uint64

	requests      chan appendRequest
	bufferSize    int
	flushInterval time.Duration
	closed        chan struct{}
	wg            sync.WaitGroup
	isClosed      bool
}

// Open opens (or creates) the log file at path and starts its
// background batch writer. bufferSize and flushInterval bound how
// many records accumulate, and how long, before a flush.
func Open(path string, bufferSize int, flushInterval time.Duration) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("runlog: create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("runlog: open file: %w", err)
	}

	if bufferSize <= 0 {
		bufferSize = 64
	}
	if flushInterval <= 0 {
		flushInterval = 25 * time.Millisecond
	}

	seq, err := lastSeq(path)
	if err != nil {
		file.Close()
		return nil, err
	}

	l := &Log{
		file:          file,
		encoder:       json.NewEncoder(file),
		seq:           seq,
		requests:      make(chan appendRequest, bufferSize*2),
		bufferSize:    bufferSize,
		flushInterval: flushInterval,
		closed:        make(chan struct{}),
	}
	l.wg.Add(1)
	go l.batchWriter()
	return l, nil
}

// Append queues one run for the audit log and blocks until the batch
// containing it has been flushed to disk.
func (l *Log) Append(name, kind string, success bool, elapsed time.Duration, errMessage string) error {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	rec := Record{
		Seq:        seq,
		Name:       name,
		Kind:       kind,
		Success:    success,
		ElapsedMs:  elapsed.Milliseconds(),
		Timestamp:  time.Now().UnixMilli(),
		ErrMessage: errMessage,
	}
	rec.Checksum = checksum(rec.Seq, rec.Name, rec.Kind, rec.Success)

	errCh := make(chan error, 1)
	select {
	case l.requests <- appendRequest{record: rec, errCh: errCh}:
		return <-errCh
	case <-l.closed:
		return fmt.Errorf("runlog: log is closed")
	}
}

// batchWriter accumulates queued records and flushes them together,
// either when the buffer fills or the flush interval elapses.
func (l *Log) batchWriter() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	batch := make([]appendRequest, 0, l.bufferSize)
	for {
		select {
		case req := <-l.requests:
			batch = append(batch, req)
			if len(batch) >= l.bufferSize {
				l.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flushBatch(batch)
				batch = batch[:0]
			}
		case <-l.closed:
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
			return
		}
	}
}

func (l *Log) flushBatch(batch []appendRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var flushErr error
	for i := range batch {
		if err := l.encoder.Encode(batch[i].record); err != nil {
			flushErr = fmt.Errorf("runlog: encode record: %w", err)
			break
		}
	}
	if flushErr == nil {
		if err := l.file.Sync(); err != nil {
			flushErr = fmt.Errorf("runlog: sync: %w", err)
		}
	}
	for i := range batch {
		batch[i].errCh <- flushErr
		close(batch[i].errCh)
	}
}

// Close flushes any pending records and closes the underlying file.
// Idempotent.
func (l *Log) Close() error {
	l.mu.Lock()
	if l.isClosed {
		l.mu.Unlock()
		return nil
	}
	l.isClosed = true
	l.mu.Unlock()

	close(l.closed)
	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Replay reads every verified record in the log, in order, calling
// handler for each. It stops and returns an error on the first
// checksum mismatch or handler error; it never feeds results back into
// a worker's schedule, only into a read-only report.
func Replay(path string, handler func(Record) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("runlog: open for replay: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	for {
		var rec Record
		if err := decoder.Decode(&rec); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("runlog: decode record: %w", err)
		}
		if !verify(rec) {
			return fmt.Errorf("runlog: checksum mismatch at seq %d", rec.Seq)
		}
		if err := handler(rec); err != nil {
			return err
		}
	}
}

// lastSeq reads the final record's sequence number from an existing
// log file, so a reopened log continues numbering instead of
// restarting at zero.
func lastSeq(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("runlog: open for seq recovery: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	var last Record
	found := false
	for {
		var rec Record
		if err := decoder.Decode(&rec); err != nil {
			break
		}
		last = rec
		found = true
	}
	if !found {
		return 0, nil
	}
	return last.Seq, nil
}
