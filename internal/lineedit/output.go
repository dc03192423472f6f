// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lineedit

import (
	"errors"
	"io"
	"sync"
	"time"
)

var (
	// ErrOutputStalled is returned when the sink has not accepted output
	// within the flow control timeout.
	ErrOutputStalled = errors.New("output stalled")

	// ErrOutputClosed is returned for writes after Close.
	ErrOutputClosed = errors.New("output closed")
)

const (
	// DefaultOutputQueue is the number of pending chunks before writers wait.
	DefaultOutputQueue = 256

	// DefaultWriteTimeout bounds how long a write or flush may wait.
	DefaultWriteTimeout = 2 * time.Second
)

// chunk is either data for the sink or a flush marker.
type chunk struct {
	data []byte
	ack  chan struct{}
}

// OutputWriter is a bounded asynchronous writer. A background goroutine
// copies queued chunks to the sink in order. When the queue is full a write
// waits at most the configured timeout and then fails with ErrOutputStalled,
// so a stuck terminal or a peer that stopped reading never blocks the
// session indefinitely.
type OutputWriter struct {
	sink    io.Writer
	queue   chan chunk
	timeout time.Duration
	done    chan struct{}
	drained chan struct{}

	mu      sync.Mutex
	sinkErr error

	closeOnce sync.Once
}

// NewOutputWriter starts a writer draining into sink.
func NewOutputWriter(sink io.Writer, queueSize int, timeout time.Duration) *OutputWriter {
	if queueSize <= 0 {
		queueSize = DefaultOutputQueue
	}
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	o := &OutputWriter{
		sink:    sink,
		queue:   make(chan chunk, queueSize),
		timeout: timeout,
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}
	go o.drain()
	return o
}

func (o *OutputWriter) drain() {
	defer close(o.drained)
	for {
		select {
		case c := <-o.queue:
			o.deliver(c)
		case <-o.done:
			for {
				select {
				case c := <-o.queue:
					o.deliver(c)
				default:
					return
				}
			}
		}
	}
}

func (o *OutputWriter) deliver(c chunk) {
	if c.ack != nil {
		close(c.ack)
		return
	}
	if o.err() != nil {
		return
	}
	if _, err := o.sink.Write(c.data); err != nil {
		o.mu.Lock()
		o.sinkErr = err
		o.mu.Unlock()
	}
}

func (o *OutputWriter) err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sinkErr
}

func (o *OutputWriter) enqueue(c chunk, timer *time.Timer) error {
	select {
	case <-o.done:
		return ErrOutputClosed
	default:
	}
	select {
	case o.queue <- c:
		return nil
	case <-timer.C:
		return ErrOutputStalled
	case <-o.done:
		return ErrOutputClosed
	}
}

// Write queues a copy of p. It fails with ErrOutputStalled if the queue
// stays full for the whole timeout, or with the sink's error once the sink
// has failed.
func (o *OutputWriter) Write(p []byte) (int, error) {
	if err := o.err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	data := make([]byte, len(p))
	copy(data, p)

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()
	if err := o.enqueue(chunk{data: data}, timer); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString queues s.
func (o *OutputWriter) WriteString(s string) (int, error) {
	return o.Write([]byte(s))
}

// Flush waits until everything queued so far reached the sink, bounded by
// the timeout.
func (o *OutputWriter) Flush() error {
	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	ack := make(chan struct{})
	if err := o.enqueue(chunk{ack: ack}, timer); err != nil {
		return err
	}
	select {
	case <-ack:
		return o.err()
	case <-timer.C:
		return ErrOutputStalled
	}
}

// Close flushes pending output and stops the drain goroutine. It waits at
// most the timeout for a stuck sink.
func (o *OutputWriter) Close() error {
	var err error
	o.closeOnce.Do(func() {
		err = o.Flush()
		close(o.done)
		select {
		case <-o.drained:
		case <-time.After(o.timeout):
			if err == nil {
				err = ErrOutputStalled
			}
		}
	})
	return err
}
