package transfer

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fountaincodec/fountain/pkg/oti"
	"github.com/fountaincodec/fountain/pkg/packet"
	"github.com/fountaincodec/fountain/pkg/qr"
	"github.com/fountaincodec/fountain/pkg/raptorq"
)

// ErrInvalidInput covers an empty payload or a file name over 255 bytes,
// both fatal at construction.
var ErrInvalidInput = errors.New("transfer: invalid input")

// Encoder is an infinite packet source driven by the caller's own cadence
// (NextPacket), with no hidden scheduler.
type Encoder struct {
	fileName   string
	mimeHint   string
	cfg        Config
	oti        oti.Oti
	transferID uint32

	blocks    []*raptorq.BlockEncoder
	esiCursor []uint32

	dataSince    uint16
	anchorPulled bool
	blockIdx     int
}

// New builds an Encoder over payload.
func New(payload []byte, fileName string, cfg Config) (*Encoder, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}
	if len(fileName) > 255 {
		return nil, fmt.Errorf("%w: file name %d bytes exceeds 255", ErrInvalidInput, len(fileName))
	}

	o, err := oti.DeriveOTI(uint64(len(payload)), cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("transfer: derive OTI: %w", err)
	}

	transferID, err := randomTransferID()
	if err != nil {
		return nil, fmt.Errorf("transfer: generate transfer id: %w", err)
	}

	part := o.Partition()
	blocks := make([]*raptorq.BlockEncoder, part.NbBlocks)
	esiCursor := make([]uint32, part.NbBlocks)

	offset := uint64(0)
	for sbn := uint32(0); sbn < uint32(part.NbBlocks); sbn++ {
		k := int(part.BlockLength(sbn))
		byteLen := uint64(k) * uint64(o.SymbolSize)
		end := offset + byteLen
		if end > uint64(len(payload)) {
			end = uint64(len(payload))
		}
		enc, err := raptorq.NewBlockEncoder(payload[offset:end], k, int(o.SymbolSize))
		if err != nil {
			return nil, fmt.Errorf("transfer: build block %d encoder: %w", sbn, err)
		}
		blocks[sbn] = enc
		offset = end
	}

	return &Encoder{
		fileName:   fileName,
		mimeHint:   cfg.MimeHint,
		cfg:        cfg,
		oti:        o,
		transferID: transferID,
		blocks:     blocks,
		esiCursor:  esiCursor,
	}, nil
}

// SinglePassPacketCount is the number of NextPacket pulls needed to emit
// every ESI of every block exactly once, interleaved with anchors at the
// configured cadence. Used by callers honouring --no-carousel, which
// stops after one such cycle instead of looping forever.
func (e *Encoder) SinglePassPacketCount() int {
	dataTotal := 0
	for _, b := range e.blocks {
		dataTotal += b.K() + b.M()
	}
	anchors := 1
	if e.cfg.AnchorEvery > 0 {
		every := int(e.cfg.AnchorEvery)
		anchors = (dataTotal + every - 1) / every
	}
	return dataTotal + anchors
}

// TransferID returns the randomly-drawn transfer identifier for this
// Encoder; see DESIGN.md's Open Question decisions for why a random draw
// at construction was chosen over, say, a counter.
func (e *Encoder) TransferID() uint32 { return e.transferID }

// Oti returns the derived Object Transmission Information.
func (e *Encoder) Oti() oti.Oti { return e.oti }

// NextPacket is an infinite iterator that interleaves Anchors at the
// configured cadence. The very first pull is always an Anchor, so a
// fresh decoder can bootstrap immediately.
func (e *Encoder) NextPacket() []byte {
	if !e.anchorPulled || e.dataSince >= e.cfg.AnchorEvery {
		e.anchorPulled = true
		e.dataSince = 0
		framed, err := packet.FrameAnchor(packet.Anchor{
			TransferID: e.transferID,
			FileName:   e.fileName,
			Oti:        e.oti,
			MimeHint:   e.mimeHint,
		})
		if err != nil {
			// Validated at construction time; FrameAnchor cannot fail here.
			panic(fmt.Sprintf("transfer: re-framing a validated anchor failed: %v", err))
		}
		return framed
	}
	e.dataSince++
	return e.nextDataPacket()
}

// NextRaster is NextPacket composed with QR rendering.
func (e *Encoder) NextRaster() (qr.Raster, error) {
	return qr.EncodePacket(e.NextPacket(), e.cfg.PixelScale, e.cfg.QrEcc)
}

func (e *Encoder) nextDataPacket() []byte {
	n := len(e.blocks)
	sbn := e.blockIdx
	e.blockIdx = (e.blockIdx + 1) % n

	enc := e.blocks[sbn]
	span := uint32(enc.K() + enc.M())
	esi := e.esiCursor[sbn]
	e.esiCursor[sbn] = (esi + 1) % span

	sym, err := enc.Symbol(esi)
	if err != nil {
		panic(fmt.Sprintf("transfer: esi %d out of range for block %d: %v", esi, sbn, err))
	}
	return packet.FrameData(packet.Data{
		TransferID: e.transferID,
		SBN:        uint8(sbn),
		ESI:        esi,
		Symbol:     sym,
	})
}

func randomTransferID() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
