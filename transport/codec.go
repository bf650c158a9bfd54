package transport

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// Encode marshals v (a struct of exported fields, in declaration order,
// per the teacher's Mount/NFS codec convention) to XDR bytes.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, v); err != nil {
		return nil, fmt.Errorf("transport: xdr marshal: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode unmarshals XDR-encoded data into v, which must be a pointer to
// the argument or reply struct matching the opcode that produced data.
func Decode(data []byte, v any) error {
	if _, err := xdr.Unmarshal(bytes.NewReader(data), v); err != nil {
		return fmt.Errorf("transport: xdr unmarshal: %w", err)
	}
	return nil
}

// RequestBufferArgs is OpRequestBuffer's argument struct. Arguments are
// read in declaration order, per spec.md §6.
type RequestBufferArgs struct {
	Width           int32
	Height          int32
	StrideAlignment int32
	Format          int32
	Usage           uint64
	ColorGamut      int32
	Transform       int32
	TimeoutMS       int32
}

// RequestBufferReply always begins with a 32-bit error code, per spec.md
// §6.
type RequestBufferReply struct {
	ErrorCode    uint32
	Sequence     uint32
	HasBuffer    uint32
	BufferHandle string
	FenceValid   uint32
	FenceSignal  int64
}

// FlushBufferArgs is OpFlushBuffer's argument struct.
type FlushBufferArgs struct {
	Sequence                uint32
	DesiredPresentTimestamp int64
	UITimestamp             int64
	HasUITimestamp          uint32
	FenceValid              uint32
	FenceSignal             int64
}

// FlushBufferReply carries only the error code.
type FlushBufferReply struct {
	ErrorCode uint32
}

// AcquireBufferArgs is OpFlushBuffers-adjacent: the consumer's acquire
// call, with the expected-present-timestamp policy inputs.
type AcquireBufferArgs struct {
	ExpectPresentTimestamp int64
	IsUsingAutoTimestamp   uint32
}

// AcquireBufferReply always begins with the error code.
type AcquireBufferReply struct {
	ErrorCode    uint32
	Sequence     uint32
	BufferHandle string
	Timestamp    int64
}

// ReleaseBufferArgs is OpCancelBuffer-adjacent: the producer's release
// call.
type ReleaseBufferArgs struct {
	Sequence    uint32
	FenceValid  uint32
	FenceSignal int64
}

// ReleaseBufferReply carries only the error code.
type ReleaseBufferReply struct {
	ErrorCode uint32
}

// ConnectArgs is OpConnect's argument struct.
type ConnectArgs struct {
	ProducerPid int32
	Strict      uint32
}

// ConnectReply carries the error code and assigned queue size.
type ConnectReply struct {
	ErrorCode uint32
	QueueSize int32
}
