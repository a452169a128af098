package packet

// Binder implements the start and bound(OTI) states of the decode-side
// state machine. It decides which packets a caller should act on, leaving
// the actual RaptorQ block bookkeeping and the done state to the caller
// (pkg/transfer).
type Binder struct {
	bound  bool
	anchor Anchor
}

// NewBinder returns a Binder in the start state.
func NewBinder() *Binder {
	return &Binder{}
}

// Bound reports whether an Anchor has been accepted yet.
func (b *Binder) Bound() bool { return b.bound }

// Anchor returns the bound Anchor. Only meaningful once Bound() is true.
func (b *Binder) Anchor() Anchor { return b.anchor }

// ObserveAnchor applies an Anchor packet to the state machine. Idempotent:
// repeated arrivals of the same (transfer_id, OTI) change nothing. An
// Anchor for a different transfer_id while already bound is ignored — this
// decoder instance tracks exactly one transfer.
func (b *Binder) ObserveAnchor(a Anchor) {
	if !b.bound {
		b.bound = true
		b.anchor = a
		return
	}
	if b.anchor.TransferID != a.TransferID {
		return // mismatched transfer_id while bound: ignored.
	}
	// Same transfer: idempotent, nothing to update.
}

// AcceptData reports whether a Data packet should be dispatched to the
// RaptorQ decoder: the binder must be bound, and the packet's transfer_id
// must match.
func (b *Binder) AcceptData(d Data) bool {
	return b.bound && d.TransferID == b.anchor.TransferID
}
