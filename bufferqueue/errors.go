package bufferqueue

import "fmt"

// ErrorKind is the closed set of outcomes a core operation can return,
// grounded on the teacher's StoreError{Code, Message, Path} shape
// (pkg/metadata/errors/errors.go) but mapped onto spec.md §7's table.
type ErrorKind int

const (
	Ok ErrorKind = iota
	InvalidArguments
	NoConsumer
	NoBuffer
	NoBufferReady
	ConsumerUnregisteredListener
	ConsumerIsConnected
	ConsumerDisconnected
	BufferStateInvalid
	BufferNotInCache
	BufferIsInCache
	BufferQueueFull
	OutOfRange
	NotSupport
	Unknown
)

func (k ErrorKind) String() string {
	switch k {
	case Ok:
		return "Ok"
	case InvalidArguments:
		return "InvalidArguments"
	case NoConsumer:
		return "NoConsumer"
	case NoBuffer:
		return "NoBuffer"
	case NoBufferReady:
		return "NoBufferReady"
	case ConsumerUnregisteredListener:
		return "ConsumerUnregisteredListener"
	case ConsumerIsConnected:
		return "ConsumerIsConnected"
	case ConsumerDisconnected:
		return "ConsumerDisconnected"
	case BufferStateInvalid:
		return "BufferStateInvalid"
	case BufferNotInCache:
		return "BufferNotInCache"
	case BufferIsInCache:
		return "BufferIsInCache"
	case BufferQueueFull:
		return "BufferQueueFull"
	case OutOfRange:
		return "OutOfRange"
	case NotSupport:
		return "NotSupport"
	default:
		return "Unknown"
	}
}

// QueueError is the error type returned across every core operation's
// boundary. It carries the operation name and sequence number so callers
// (and trace spans) can attribute a failure to a specific slot.
type QueueError struct {
	Kind ErrorKind
	Op   string
	Seq  uint32
	Err  error
}

func (e *QueueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bufferqueue: %s(seq=%d): %s: %v", e.Op, e.Seq, e.Kind, e.Err)
	}
	return fmt.Sprintf("bufferqueue: %s(seq=%d): %s", e.Op, e.Seq, e.Kind)
}

func (e *QueueError) Unwrap() error { return e.Err }

// newErr builds a QueueError with no sequence (pre-lookup failures like
// NoConsumer).
func newErr(op string, kind ErrorKind) *QueueError {
	return &QueueError{Kind: kind, Op: op}
}

// newErrSeq builds a QueueError attributed to a specific sequence.
func newErrSeq(op string, kind ErrorKind, seq uint32) *QueueError {
	return &QueueError{Kind: kind, Op: op, Seq: seq}
}

// newErrWrap builds a QueueError wrapping an underlying cause (e.g. an
// Allocator failure).
func newErrWrap(op string, kind ErrorKind, seq uint32, err error) *QueueError {
	return &QueueError{Kind: kind, Op: op, Seq: seq, Err: err}
}

// KindOf extracts the ErrorKind from err, returning Ok for a nil error and
// Unknown for any non-QueueError error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return Ok
	}
	var qe *QueueError
	if asQueueError(err, &qe) {
		return qe.Kind
	}
	return Unknown
}

func asQueueError(err error, target **QueueError) bool {
	for err != nil {
		if qe, ok := err.(*QueueError); ok {
			*target = qe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
