package transport

import (
	"context"
	"fmt"
)

// Transport is the capability the producer/consumer facades call into
// for the out-of-process path: marshal an opcode's argument struct,
// invoke the peer, unmarshal its reply. The in-process demo wires a
// Local transport that skips the wire entirely; a real deployment wires
// one over a Unix socket or gRPC stream.
type Transport interface {
	Call(ctx context.Context, op Opcode, args []byte) (reply []byte, err error)
}

// HandlerFunc processes one opcode's already-decoded argument bytes and
// returns XDR-encoded reply bytes, mirroring the teacher's
// nfsProcedureHandler contract (data in, encoded reply + error out).
type HandlerFunc func(ctx context.Context, data []byte) ([]byte, error)

// Procedure pairs a handler with dispatch metadata, matching the
// teacher's nfsProcedure{Name, Handler, NeedsAuth} shape. RequiresConn
// marks opcodes that only make sense once Connect has succeeded (every
// opcode except Connect/GetInitInfo).
type Procedure struct {
	Name         string
	Handler      HandlerFunc
	RequiresConn bool
}

// Dispatcher maps opcodes to registered Procedures, the server side of a
// Transport's Call. Built once at startup the way the teacher's
// NfsDispatchTable is built at package init time — here driven by
// explicit Register calls from producer/consumer setup instead of a
// package-level init(), since opcodes route to a specific Queue
// instance rather than a process-wide table.
type Dispatcher struct {
	procedures map[Opcode]*Procedure
	connected  func() bool
}

// NewDispatcher constructs an empty Dispatcher. connected reports
// whether a producer connection is currently established, consulted for
// RequiresConn procedures.
func NewDispatcher(connected func() bool) *Dispatcher {
	return &Dispatcher{procedures: make(map[Opcode]*Procedure), connected: connected}
}

// Register installs the handler for op.
func (d *Dispatcher) Register(op Opcode, requiresConn bool, handler HandlerFunc) {
	d.procedures[op] = &Procedure{Name: op.String(), Handler: handler, RequiresConn: requiresConn}
}

// Dispatch is the Dispatcher's Call-compatible entry point: looks up
// op's Procedure, enforces RequiresConn, and invokes the handler.
func (d *Dispatcher) Dispatch(ctx context.Context, op Opcode, args []byte) ([]byte, error) {
	proc, ok := d.procedures[op]
	if !ok {
		return nil, fmt.Errorf("transport: unregistered opcode %s (%d)", op, uint32(op))
	}
	if proc.RequiresConn && d.connected != nil && !d.connected() {
		return nil, fmt.Errorf("transport: %s called before Connect", proc.Name)
	}
	return proc.Handler(ctx, args)
}

// Local is a Transport that calls a Dispatcher directly in-process,
// skipping serialization over a real socket — the demo binary's wiring.
type Local struct {
	Dispatcher *Dispatcher
}

func (l Local) Call(ctx context.Context, op Opcode, args []byte) ([]byte, error) {
	return l.Dispatcher.Dispatch(ctx, op, args)
}
