package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/vellumgfx/bufferqueue/bufpool"
)

// frameHeaderSize is the length-prefix width for one Call's request or
// reply frame: a big-endian uint32 opcode followed by a big-endian
// uint32 payload length.
const frameHeaderSize = 8

// StreamConn is the minimal connection surface StreamTransport needs —
// satisfied directly by net.Conn or net.UnixConn for the out-of-process
// deployment spec.md §6 describes, and by an in-memory net.Pipe half in
// tests.
type StreamConn interface {
	io.Reader
	io.Writer
}

// StreamTransport is a Transport that frames each Call's argument/reply
// bytes with a length-prefix header over a real byte stream (a Unix
// socket in production, net.Pipe in tests), the out-of-process
// counterpart to Local. Frame staging buffers come from bufpool so a
// busy queue's control-plane traffic — small, frequent RequestBuffer/
// FlushBuffer/ReleaseBuffer calls — doesn't allocate per call.
type StreamTransport struct {
	conn StreamConn
	mu   sync.Mutex
}

// NewStreamTransport wraps conn for framed Call dispatch.
func NewStreamTransport(conn StreamConn) *StreamTransport {
	return &StreamTransport{conn: conn}
}

// Call writes a length-prefixed request frame and blocks for the
// matching reply frame. One Call is in flight at a time per connection,
// matching the synchronous request/reply shape of spec.md §6's RPC
// surface.
func (s *StreamTransport) Call(ctx context.Context, op Opcode, args []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeFrame(uint32(op), args); err != nil {
		return nil, fmt.Errorf("transport: stream write: %w", err)
	}

	_, reply, err := s.readFrame()
	if err != nil {
		return nil, fmt.Errorf("transport: stream read: %w", err)
	}
	return reply, nil
}

// Serve reads request frames off the connection and dispatches them to
// d, writing each reply frame back. Runs until the connection errors or
// ctx is cancelled — the server-side counterpart to Call for a
// StreamTransport peer that owns the listening half of the socket.
func (s *StreamTransport) Serve(ctx context.Context, d *Dispatcher) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		op, args, err := s.readFrame()
		if err != nil {
			return err
		}

		reply, err := d.Dispatch(ctx, Opcode(op), args)
		if err != nil {
			return fmt.Errorf("transport: dispatch %s: %w", Opcode(op), err)
		}

		if err := s.writeFrame(op, reply); err != nil {
			return fmt.Errorf("transport: stream write: %w", err)
		}
	}
}

func (s *StreamTransport) writeFrame(op uint32, payload []byte) error {
	frame := bufpool.Get(frameHeaderSize + len(payload))
	defer bufpool.Put(frame)

	binary.BigEndian.PutUint32(frame[0:4], op)
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(payload)))
	copy(frame[frameHeaderSize:], payload)

	_, err := s.conn.Write(frame[:frameHeaderSize+len(payload)])
	return err
}

func (s *StreamTransport) readFrame() (op uint32, payload []byte, err error) {
	header := bufpool.Get(frameHeaderSize)
	defer bufpool.Put(header)

	if _, err := io.ReadFull(s.conn, header); err != nil {
		return 0, nil, err
	}
	op = binary.BigEndian.Uint32(header[0:4])
	n := binary.BigEndian.Uint32(header[4:8])

	staging := bufpool.GetUint32(n)
	if _, err := io.ReadFull(s.conn, staging); err != nil {
		return 0, nil, err
	}

	// Copy out of the pooled staging buffer before returning: the
	// caller owns the returned slice indefinitely (it gets XDR-decoded
	// into a caller struct later), while staging must go back to the
	// pool now.
	out := make([]byte, n)
	copy(out, staging)
	bufpool.Put(staging)

	return op, out, nil
}
