// Package event delivers controller events to the engine.
package event

import (
	"fmt"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// DefaultSize is the default capacity of the queue.
const DefaultSize = 256

// Queue is a bounded queue of MIDI messages. Producers never block: if
// the queue is full, the message is dropped. The engine polls the queue
// once per block.
type Queue struct {
	messages chan midi.Message
	dropped  atomic.Int64
}

// NewQueue returns a queue of provided capacity. If size is not
// positive, DefaultSize is used.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{
		messages: make(chan midi.Message, size),
	}
}

// Push adds message to the queue. It returns false if the queue is full
// and the message was dropped.
func (q *Queue) Push(m midi.Message) bool {
	select {
	case q.messages <- m:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Poll appends pending messages to dst and returns it. Poll never
// blocks and drains at most the capacity of the queue, so messages
// pushed while polling are left for the next block.
func (q *Queue) Poll(dst []midi.Message) []midi.Message {
	for i := 0; i < cap(q.messages); i++ {
		select {
		case m := <-q.messages:
			dst = append(dst, m)
		default:
			return dst
		}
	}
	return dst
}

// Dropped returns number of messages dropped because the queue was full.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// Listen pushes every message received from the input port to the queue.
// Returned function stops listening.
func (q *Queue) Listen(in drivers.In) (func(), error) {
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		// driver may reuse the message buffer
		q.Push(append(midi.Message(nil), msg...))
	})
	if err != nil {
		return nil, fmt.Errorf("error listening to %v: %w", in, err)
	}
	return stop, nil
}
