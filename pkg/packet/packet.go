// Package packet implements the packet framer: wrapping a RaptorQ symbol
// (or, for the Anchor, nothing but transfer metadata) into a fixed-width
// binary wire format, encoded in a QR-friendly alphabet upstream by pkg/qr.
package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/fountaincodec/fountain/pkg/oti"
)

// Kind distinguishes the two packet variants.
type Kind uint8

const (
	KindAnchor Kind = 0
	KindData   Kind = 1
)

// Parse errors.
var (
	ErrTruncatedPacket = errors.New("packet: truncated")
	ErrUnknownKind     = errors.New("packet: unknown kind")
	ErrNameNotUTF8     = errors.New("packet: file name is not valid UTF-8")
	ErrInvalidOtiLen   = errors.New("packet: invalid OTI length")
)

const (
	headerLen    = 1 + 4 // kind + transfer_id
	anchorMinLen = headerLen + 1 + oti.WireLength
	dataMinLen   = headerLen + 1 + 3 // sbn + esi; Parse accepts an empty symbol
)

// Anchor carries transfer metadata but no symbol data.
type Anchor struct {
	TransferID uint32
	FileName   string
	Oti        oti.Oti
	MimeHint   string // optional content-type hint; "" when absent.
}

// Data carries one RaptorQ encoding symbol.
type Data struct {
	TransferID uint32
	SBN        uint8
	ESI        uint32 // 24-bit on the wire
	Symbol     []byte
}

// FrameAnchor serialises a transfer's metadata into the Anchor wire
// format: transfer id, file name, OTI, and an optional trailing MIME
// hint.
func FrameAnchor(a Anchor) ([]byte, error) {
	if len(a.FileName) > 255 {
		return nil, fmt.Errorf("packet: file name %d bytes exceeds 255", len(a.FileName))
	}
	if len(a.MimeHint) > 255 {
		return nil, fmt.Errorf("packet: mime hint %d bytes exceeds 255", len(a.MimeHint))
	}

	buf := make([]byte, 0, anchorMinLen+len(a.FileName)+1+len(a.MimeHint))
	buf = append(buf, byte(KindAnchor))
	buf = appendUint32(buf, a.TransferID)
	buf = append(buf, byte(len(a.FileName)))
	buf = append(buf, a.FileName...)
	buf = append(buf, a.Oti.Encode()...)
	buf = append(buf, byte(len(a.MimeHint)))
	buf = append(buf, a.MimeHint...)
	return buf, nil
}

// FrameData serialises one RaptorQ symbol into the Data wire format.
func FrameData(d Data) []byte {
	buf := make([]byte, 0, dataMinLen+len(d.Symbol))
	buf = append(buf, byte(KindData))
	buf = appendUint32(buf, d.TransferID)
	buf = append(buf, d.SBN)
	buf = appendUint24(buf, d.ESI)
	buf = append(buf, d.Symbol...)
	return buf
}

// Packet is the parsed result of Parse: exactly one of Anchor or Data is
// non-nil.
type Packet struct {
	Anchor *Anchor
	Data   *Data
}

// Parse decodes a framed packet, validating strictly: a kind=0 packet
// with fewer than 1+4+1+12 remaining bytes, or a name that isn't valid
// UTF-8, is rejected rather than silently truncated.
func Parse(b []byte) (Packet, error) {
	if len(b) < headerLen {
		return Packet{}, ErrTruncatedPacket
	}
	transferID := binary.BigEndian.Uint32(b[1:5])
	rest := b[5:]

	switch Kind(b[0]) {
	case KindAnchor:
		return parseAnchor(transferID, rest)
	case KindData:
		return parseData(transferID, rest)
	default:
		return Packet{}, fmt.Errorf("%w: %d", ErrUnknownKind, b[0])
	}
}

func parseAnchor(transferID uint32, rest []byte) (Packet, error) {
	if len(rest) < 1 {
		return Packet{}, ErrTruncatedPacket
	}
	nameLen := int(rest[0])
	rest = rest[1:]
	if len(rest) < nameLen+oti.WireLength {
		return Packet{}, ErrTruncatedPacket
	}

	nameBytes := rest[:nameLen]
	if !utf8.Valid(nameBytes) {
		return Packet{}, ErrNameNotUTF8
	}
	rest = rest[nameLen:]

	otiBytes := rest[:oti.WireLength]
	o, err := oti.Decode(otiBytes)
	if err != nil {
		return Packet{}, fmt.Errorf("%w: %v", ErrInvalidOtiLen, err)
	}
	rest = rest[oti.WireLength:]

	var mimeHint string
	if len(rest) >= 1 {
		mimeLen := int(rest[0])
		rest = rest[1:]
		if len(rest) >= mimeLen {
			if !utf8.Valid(rest[:mimeLen]) {
				return Packet{}, ErrNameNotUTF8
			}
			mimeHint = string(rest[:mimeLen])
		}
	}

	return Packet{Anchor: &Anchor{
		TransferID: transferID,
		FileName:   string(nameBytes),
		Oti:        o,
		MimeHint:   mimeHint,
	}}, nil
}

func parseData(transferID uint32, rest []byte) (Packet, error) {
	if len(rest) < 1+3 {
		return Packet{}, ErrTruncatedPacket
	}
	sbn := rest[0]
	esi := getUint24(rest[1:4])
	symbol := rest[4:]

	return Packet{Data: &Data{
		TransferID: transferID,
		SBN:        sbn,
		ESI:        esi,
		Symbol:     symbol,
	}}, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint24(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>16), byte(v>>8), byte(v))
}

func getUint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
