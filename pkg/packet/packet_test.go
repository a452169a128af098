package packet

import (
	"bytes"
	"testing"

	"github.com/fountaincodec/fountain/pkg/oti"
)

func testOti(t *testing.T) oti.Oti {
	t.Helper()
	o, err := oti.DeriveOTI(1024, 200)
	if err != nil {
		t.Fatalf("DeriveOTI: %v", err)
	}
	return o
}

func TestFrameAndParseAnchor(t *testing.T) {
	a := Anchor{
		TransferID: 42,
		FileName:   "hello.txt",
		Oti:        testOti(t),
	}
	framed, err := FrameAnchor(a)
	if err != nil {
		t.Fatalf("FrameAnchor: %v", err)
	}

	pkt, err := Parse(framed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pkt.Anchor == nil {
		t.Fatalf("expected an Anchor packet")
	}
	if *pkt.Anchor != a {
		t.Fatalf("round trip mismatch: got %+v, want %+v", *pkt.Anchor, a)
	}
}

func TestFrameAndParseAnchorWithMimeHint(t *testing.T) {
	a := Anchor{
		TransferID: 7,
		FileName:   "photo.jpg",
		Oti:        testOti(t),
		MimeHint:   "image/jpeg",
	}
	framed, err := FrameAnchor(a)
	if err != nil {
		t.Fatalf("FrameAnchor: %v", err)
	}
	pkt, err := Parse(framed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pkt.Anchor.MimeHint != "image/jpeg" {
		t.Fatalf("mime hint lost: %q", pkt.Anchor.MimeHint)
	}
}

func TestFrameAndParseData(t *testing.T) {
	d := Data{TransferID: 99, SBN: 3, ESI: 1<<20 + 7, Symbol: []byte("symbol-bytes")}
	framed := FrameData(d)

	pkt, err := Parse(framed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pkt.Data == nil {
		t.Fatalf("expected a Data packet")
	}
	if pkt.Data.TransferID != d.TransferID || pkt.Data.SBN != d.SBN || pkt.Data.ESI != d.ESI {
		t.Fatalf("header mismatch: got %+v", *pkt.Data)
	}
	if !bytes.Equal(pkt.Data.Symbol, d.Symbol) {
		t.Fatalf("symbol mismatch: got %q want %q", pkt.Data.Symbol, d.Symbol)
	}
}

func TestParseRejectsTruncatedAnchor(t *testing.T) {
	a := Anchor{TransferID: 1, FileName: "x", Oti: testOti(t)}
	framed, _ := FrameAnchor(a)

	if _, err := Parse(framed[:len(framed)-2]); err == nil {
		t.Fatalf("expected an error for a truncated anchor")
	}
}

func TestParseRejectsUnknownKind(t *testing.T) {
	buf := []byte{9, 0, 0, 0, 1}
	if _, err := Parse(buf); err == nil {
		t.Fatalf("expected ErrUnknownKind")
	}
}

func TestParseRejectsTooShortHeader(t *testing.T) {
	if _, err := Parse([]byte{0, 0, 0}); err != ErrTruncatedPacket {
		t.Fatalf("expected ErrTruncatedPacket, got %v", err)
	}
}

func TestBinderStateMachine(t *testing.T) {
	o := testOti(t)
	a1 := Anchor{TransferID: 1, FileName: "f", Oti: o}

	b := NewBinder()
	if b.Bound() {
		t.Fatalf("fresh binder should not be bound")
	}

	d := Data{TransferID: 1, SBN: 0, ESI: 0, Symbol: []byte("x")}
	if b.AcceptData(d) {
		t.Fatalf("unbound binder should drop data")
	}

	b.ObserveAnchor(a1)
	if !b.Bound() {
		t.Fatalf("binder should be bound after an anchor")
	}
	if !b.AcceptData(d) {
		t.Fatalf("bound binder should accept matching data")
	}

	// Idempotent: repeated anchors change nothing.
	for i := 0; i < 100; i++ {
		b.ObserveAnchor(a1)
	}
	if b.Anchor() != a1 {
		t.Fatalf("repeated anchors mutated bound state")
	}

	// A different transfer_id is ignored once bound.
	other := Anchor{TransferID: 2, FileName: "g", Oti: o}
	b.ObserveAnchor(other)
	if b.Anchor() != a1 {
		t.Fatalf("mismatched anchor should not rebind")
	}
	mismatched := Data{TransferID: 2, SBN: 0, ESI: 0, Symbol: []byte("y")}
	if b.AcceptData(mismatched) {
		t.Fatalf("data for a different transfer_id must be dropped")
	}
}
