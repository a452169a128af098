package oti

import "testing"

func TestDeriveOTIRoundTripsOverWire(t *testing.T) {
	o, err := DeriveOTI(1_000_000, 600)
	if err != nil {
		t.Fatalf("DeriveOTI failed: %v", err)
	}

	wire := o.Encode()
	if len(wire) != WireLength {
		t.Fatalf("expected %d bytes, got %d", WireLength, len(wire))
	}

	got, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != o {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, o)
	}
}

func TestDeriveOTIBoundsBlockCount(t *testing.T) {
	o, err := DeriveOTI(50_000_000, 200)
	if err != nil {
		t.Fatalf("DeriveOTI failed: %v", err)
	}
	if o.NumSourceBlocks == 0 {
		t.Fatalf("expected at least one source block")
	}
	// NumSourceBlocks is a single byte: the field can never overflow.
}

func TestDeriveOTIRejectsOversizedTransfer(t *testing.T) {
	_, err := DeriveOTI(1<<41, 600)
	if err != ErrTooLong {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

// TestDeriveOTIGrowsSymbolSizeNearFieldLimit exercises an F just under the
// largest value representable by this OTI's fixed Z:u8/T:u16 widths
// (Z<=255, T<=65535): the growth loop must widen T well past maxSymbol
// without wrapping, landing on a valid Oti rather than corrupting
// SymbolSize/NumSourceBlocks to zero.
func TestDeriveOTIGrowsSymbolSizeNearFieldLimit(t *testing.T) {
	const f = 3_000_000_000 // ~2.8 GiB, just inside the representable range
	o, err := DeriveOTI(f, 600)
	if err != nil {
		t.Fatalf("DeriveOTI failed: %v", err)
	}
	if o.SymbolSize == 0 {
		t.Fatalf("SymbolSize wrapped to 0")
	}
	if o.NumSourceBlocks == 0 {
		t.Fatalf("NumSourceBlocks wrapped to 0")
	}
	if o.NumSourceBlocks > 255 {
		t.Fatalf("NumSourceBlocks %d exceeds the u8 field width", o.NumSourceBlocks)
	}
	part := o.Partition()
	if part.NbBlocks == 0 || part.NbBlocks != uint64(o.NumSourceBlocks) {
		t.Fatalf("partition block count %d disagrees with NumSourceBlocks %d", part.NbBlocks, o.NumSourceBlocks)
	}
}

// TestDeriveOTIRejectsFieldWidthOverflow covers an F so large that no T up
// to 65535 brings Z down to 255 or fewer: DeriveOTI must report
// ErrSymbolSizeOverflow rather than silently wrapping T to 0, which would
// otherwise propagate a zero-block Oti all the way to a divide-by-zero in
// the transfer encoder.
func TestDeriveOTIRejectsFieldWidthOverflow(t *testing.T) {
	const f = 10_000_000_000 // ~9.3 GiB, beyond the 255*192*65535-byte ceiling
	_, err := DeriveOTI(f, 600)
	if err != ErrSymbolSizeOverflow {
		t.Fatalf("expected ErrSymbolSizeOverflow, got %v", err)
	}
}

func TestBlockPartitioningCoversWholeTransfer(t *testing.T) {
	const l, e = 10_003, 600
	p := BlockPartitioning(192, l, e)

	var total uint64
	for sbn := uint32(0); uint64(sbn) < p.NbBlocks; sbn++ {
		total += p.BlockLength(sbn)
	}
	symbols := (l + e - 1) / e
	if total != uint64(symbols) {
		t.Fatalf("partition covers %d symbols, want %d", total, symbols)
	}
}

func TestSourceAndParitySymbolsSumToFieldOrder(t *testing.T) {
	o, err := DeriveOTI(2_000_000, 600)
	if err != nil {
		t.Fatalf("DeriveOTI failed: %v", err)
	}
	for sbn := uint32(0); uint32(sbn) < uint32(o.NumSourceBlocks); sbn++ {
		k := o.SourceSymbols(sbn)
		m := o.ParitySymbols(sbn)
		if k+m != GF256Order {
			t.Fatalf("block %d: K=%d M=%d, want sum %d", sbn, k, m, GF256Order)
		}
		if k > MaxSourceBlockLength {
			t.Fatalf("block %d: K=%d exceeds MaxSourceBlockLength", sbn, k)
		}
	}
}
