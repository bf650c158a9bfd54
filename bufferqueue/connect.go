package bufferqueue

import "context"

// Connect implements spec.md §4.2's core-level connected-pid gating: the
// first caller (or a repeat call from the same pid) claims
// connectedProducerPid; a different pid already connected fails
// ConsumerIsConnected. The producer facade calls this after its own
// strict-disconnect check so the queue's pre-hand-out and DMA-tagging
// paths (which key off connectedProducerPid) stay in sync with the
// facade's view of who is connected.
func (q *Queue) Connect(ctx context.Context, pid int) error {
	const op = "Connect"
	ctx, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.connectedProducerPid != 0 && q.connectedProducerPid != pid {
		outErr = newErr(op, ConsumerIsConnected)
		return outErr
	}
	q.connectedProducerPid = pid
	return nil
}

// Disconnect clears the connected producer pid.
func (q *Queue) Disconnect(ctx context.Context) error {
	q.mu.Lock()
	q.connectedProducerPid = 0
	q.mu.Unlock()
	return nil
}

// ConnectedProducerPid reports the currently connected producer pid, or 0
// if none.
func (q *Queue) ConnectedProducerPid() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.connectedProducerPid
}

// ConnectedConsumerPid reports the pid that last registered the
// seq-and-fence release listener, or 0 if none has.
func (q *Queue) ConnectedConsumerPid() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.connectedConsumerPid
}
