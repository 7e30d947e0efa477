package transport

import "go.uber.org/zap"

// JitterQueue is the bounded per-peer frame queue of spec §5: "queues are
// bounded at QUEUE_OVERLOAD_THRESHOLD_EL = 20 / QUEUE_OVERLOAD_THRESHOLD_AST
// = 25; overflow flushes the queue and logs a loss event." Adapted from the
// teacher's internal/network.RingBuffer, generalized from a byte stream to
// a queue of discrete frames (one []byte per packet rather than a
// length-prefixed byte stream), since RTP/USRP framing already carries its
// own length.
type JitterQueue struct {
	frames    [][]byte
	threshold int
	name      string
	log       *zap.SugaredLogger
	lost      int
}

// NewJitterQueue creates a queue that overflows at threshold frames.
func NewJitterQueue(name string, threshold int, log *zap.SugaredLogger) *JitterQueue {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &JitterQueue{threshold: threshold, name: name, log: log}
}

// Push enqueues frame, flushing the whole queue and logging a loss event
// if it would exceed threshold.
func (q *JitterQueue) Push(frame []byte) {
	if len(q.frames) >= q.threshold {
		q.log.Warnw("jitter queue overflow, flushing", "queue", q.name, "threshold", q.threshold)
		q.lost += len(q.frames)
		q.frames = q.frames[:0]
	}
	q.frames = append(q.frames, frame)
}

// Pop removes and returns the oldest frame, or (nil, false) if empty.
func (q *JitterQueue) Pop() ([]byte, bool) {
	if len(q.frames) == 0 {
		return nil, false
	}
	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, true
}

// Len reports the number of queued frames.
func (q *JitterQueue) Len() int {
	return len(q.frames)
}

// LostCount reports the cumulative number of frames dropped by overflow.
func (q *JitterQueue) LostCount() int {
	return q.lost
}
