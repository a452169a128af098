package transfer

import (
	"fmt"
	"image"

	"github.com/fountaincodec/fountain/pkg/packet"
	"github.com/fountaincodec/fountain/pkg/qr"
	"github.com/fountaincodec/fountain/pkg/raptorq"
)

// StatusKind distinguishes the three Feed/FeedPacketBytes outcomes.
type StatusKind int

const (
	NeedMore StatusKind = iota
	Progress
	Done
)

// Status is the result of Decoder.Feed/FeedPacketBytes.
type Status struct {
	Kind        StatusKind
	BlocksDone  int
	BlocksTotal int
	FileName    string
	Payload     []byte
}

// Decoder starts empty, binds on the first Anchor, and accumulates Data
// packets into per-block RaptorQ decoders until every block is ready.
type Decoder struct {
	binder   *packet.Binder
	blocks   []*raptorq.BlockDecoder
	done     []bool
	finished [][]byte
	doneN    int
}

// NewDecoder builds an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{binder: packet.NewBinder()}
}

// Feed decodes a raster via QR recognition and routes each recognized
// packet through FeedPacketBytes in turn, since a single frame can carry
// more than one QR code (a multi-QR carousel tick). A raster the
// recognizer can't read at all yields NeedMore rather than an error.
func (d *Decoder) Feed(img image.Image) (Status, error) {
	packets, err := qr.Recognize(img)
	if err != nil || packets == nil {
		return Status{Kind: NeedMore}, nil
	}

	status := Status{Kind: NeedMore}
	for _, raw := range packets {
		status, err = d.FeedPacketBytes(raw)
		if err != nil {
			return status, err
		}
	}
	return status, nil
}

// FeedPacketBytes applies one already-decoded (Base45-decoded) packet,
// bypassing the recognizer; used directly by tests.
func (d *Decoder) FeedPacketBytes(b []byte) (Status, error) {
	pkt, err := packet.Parse(b)
	if err != nil {
		return Status{Kind: NeedMore}, nil
	}

	if pkt.Anchor != nil {
		d.observeAnchor(*pkt.Anchor)
		return d.status(), nil
	}

	if pkt.Data == nil {
		return Status{Kind: NeedMore}, nil
	}
	if !d.binder.AcceptData(*pkt.Data) {
		return d.status(), nil
	}
	if err := d.routeData(*pkt.Data); err != nil {
		return Status{Kind: NeedMore}, nil
	}
	return d.status(), nil
}

func (d *Decoder) observeAnchor(a packet.Anchor) {
	wasBound := d.binder.Bound()
	d.binder.ObserveAnchor(a)
	if wasBound {
		return
	}

	part := a.Oti.Partition()
	d.blocks = make([]*raptorq.BlockDecoder, part.NbBlocks)
	d.done = make([]bool, part.NbBlocks)
	d.finished = make([][]byte, part.NbBlocks)
	for sbn := uint32(0); sbn < uint32(part.NbBlocks); sbn++ {
		k := int(part.BlockLength(sbn))
		blockByteLen := uint64(k) * uint64(a.Oti.SymbolSize)
		remaining := a.Oti.TransferLength
		consumed := uint64(0)
		for i := uint32(0); i < sbn; i++ {
			ik := uint64(part.BlockLength(i)) * uint64(a.Oti.SymbolSize)
			consumed += ik
			if consumed > remaining {
				consumed = remaining
			}
		}
		actualLen := blockByteLen
		if consumed+actualLen > remaining {
			if consumed >= remaining {
				actualLen = 0
			} else {
				actualLen = remaining - consumed
			}
		}
		dec, err := raptorq.NewBlockDecoder(k, int(a.Oti.SymbolSize), actualLen)
		if err != nil {
			continue
		}
		d.blocks[sbn] = dec
	}
}

func (d *Decoder) routeData(data packet.Data) error {
	if int(data.SBN) >= len(d.blocks) || d.blocks[data.SBN] == nil {
		return fmt.Errorf("transfer: sbn %d out of range", data.SBN)
	}
	if d.done[data.SBN] {
		return nil
	}
	if err := d.blocks[data.SBN].Add(data.ESI, data.Symbol); err != nil {
		return err
	}
	if d.blocks[data.SBN].Ready() {
		if block, err := d.blocks[data.SBN].Finish(); err == nil {
			d.finished[data.SBN] = block
			d.done[data.SBN] = true
			d.doneN++
		}
	}
	return nil
}

func (d *Decoder) status() Status {
	if !d.binder.Bound() {
		return Status{Kind: NeedMore}
	}
	if d.doneN < len(d.blocks) {
		return Status{Kind: Progress, BlocksDone: d.doneN, BlocksTotal: len(d.blocks)}
	}

	payload := make([]byte, 0, d.binder.Anchor().Oti.TransferLength)
	for _, block := range d.finished {
		payload = append(payload, block...)
	}
	return Status{
		Kind:     Done,
		FileName: d.binder.Anchor().FileName,
		Payload:  payload,
	}
}
