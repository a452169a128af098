// Package raptorq implements the fountain erasure layer: derive a block's
// parameters, draw any encoding symbol from a source block by ESI, and
// reconstruct a block from any sufficiently large subset of its symbols.
//
// The math underneath is a systematic Reed-Solomon code over GF(256),
// provided by github.com/klauspost/reedsolomon, rather than literal RFC 6330
// LT/LDPC/HDPC machinery; see DESIGN.md for the full rationale.
package raptorq

import (
	"errors"
	"fmt"

	rs "github.com/klauspost/reedsolomon"

	"github.com/fountaincodec/fountain/pkg/oti"
)

// ErrDecodeFailed means the linear system was rank-deficient when Finish
// was called. The caller should keep feeding symbols and retry.
var ErrDecodeFailed = errors.New("raptorq: block decode failed, need more symbols")

// ErrNotReady is returned by Finish when fewer than K symbols have been
// accepted yet.
var ErrNotReady = errors.New("raptorq: block not ready to decode")

// BlockEncoder is a pure function of one source block: Symbol is
// repeatable — two encoders built from the same block return bit-identical
// output for the same esi.
type BlockEncoder struct {
	k, m  int
	codec rs.Encoder
	shard [][]byte
	block uint64 // actual byte length of the source block (before padding)
}

// NewBlockEncoder builds the encoder for one source block. block is the raw
// block bytes (not yet padded/split); k is the number of source symbols
// and symbolSize is the symbol length T in bytes.
func NewBlockEncoder(block []byte, k int, symbolSize int) (*BlockEncoder, error) {
	if k <= 0 || k > oti.MaxSourceBlockLength {
		return nil, fmt.Errorf("raptorq: invalid K=%d", k)
	}
	m := oti.GF256Order - k

	codec, err := rs.New(k, m)
	if err != nil {
		return nil, fmt.Errorf("raptorq: build reed-solomon codec: %w", err)
	}

	shards := splitIntoShards(block, k, symbolSize)
	if err := codec.Encode(shards); err != nil {
		return nil, fmt.Errorf("raptorq: encode block: %w", err)
	}

	return &BlockEncoder{
		k:     k,
		m:     m,
		codec: codec,
		shard: shards,
		block: uint64(len(block)),
	}, nil
}

// Symbol returns the T-byte encoding symbol for esi. esi < K is systematic
// (the source data itself); esi >= K is a repair symbol.
func (e *BlockEncoder) Symbol(esi uint32) ([]byte, error) {
	if int(esi) >= e.k+e.m {
		return nil, fmt.Errorf("raptorq: esi %d out of range [0,%d)", esi, e.k+e.m)
	}
	return e.shard[esi], nil
}

// K is the number of source (systematic) symbols in this block.
func (e *BlockEncoder) K() int { return e.k }

// M is the number of repair symbols available for this block.
func (e *BlockEncoder) M() int { return e.m }

// splitIntoShards pads block with zeroes to exactly k*symbolSize bytes and
// slices it into k equal shards, followed by m empty shards reserved for
// parity.
func splitIntoShards(block []byte, k, symbolSize int) [][]byte {
	padded := make([]byte, k*symbolSize)
	copy(padded, block)

	m := oti.GF256Order - k
	shards := make([][]byte, k+m)
	for i := 0; i < k; i++ {
		shards[i] = padded[i*symbolSize : (i+1)*symbolSize]
	}
	for i := k; i < k+m; i++ {
		shards[i] = make([]byte, symbolSize)
	}
	return shards
}

// BlockDecoder accumulates encoding symbols for one source block and
// reconstructs the original bytes once enough of them are independent.
type BlockDecoder struct {
	k, m       int
	symbolSize int
	blockLen   uint64 // actual byte length of the block (before padding)
	codec      rs.Encoder
	shard      [][]byte
	have       int
}

// NewBlockDecoder allocates the decoder for one source block. blockLen is
// the block's real byte length (used to trim padding on Finish).
func NewBlockDecoder(k int, symbolSize int, blockLen uint64) (*BlockDecoder, error) {
	if k <= 0 || k > oti.MaxSourceBlockLength {
		return nil, fmt.Errorf("raptorq: invalid K=%d", k)
	}
	m := oti.GF256Order - k
	codec, err := rs.New(k, m)
	if err != nil {
		return nil, fmt.Errorf("raptorq: build reed-solomon codec: %w", err)
	}
	return &BlockDecoder{
		k:          k,
		m:          m,
		symbolSize: symbolSize,
		blockLen:   blockLen,
		codec:      codec,
		shard:      make([][]byte, k+m),
	}, nil
}

// Add feeds one encoding symbol. Idempotent in esi: re-adding the same ESI
// is a no-op.
func (d *BlockDecoder) Add(esi uint32, sym []byte) error {
	if int(esi) >= d.k+d.m {
		return fmt.Errorf("raptorq: esi %d out of range [0,%d)", esi, d.k+d.m)
	}
	if len(sym) != d.symbolSize {
		return fmt.Errorf("raptorq: symbol length %d, want %d", len(sym), d.symbolSize)
	}
	if d.shard[esi] != nil {
		return nil // duplicate symbol: no-op.
	}
	cp := make([]byte, len(sym))
	copy(cp, sym)
	d.shard[esi] = cp
	d.have++
	return nil
}

// Ready reports whether enough symbols have been accepted to attempt a
// reconstruction (K or more).
func (d *BlockDecoder) Ready() bool {
	return d.have >= d.k
}

// NumReceived is the number of distinct ESIs accepted so far.
func (d *BlockDecoder) NumReceived() int { return d.have }

// Finish reconstructs and returns the original block bytes. Valid only when
// Ready(); returns ErrDecodeFailed if the linear system built from the
// accumulated shards turns out to be rank-deficient (the caller should feed
// more symbols and retry).
func (d *BlockDecoder) Finish() ([]byte, error) {
	if !d.Ready() {
		return nil, ErrNotReady
	}

	shards := make([][]byte, len(d.shard))
	copy(shards, d.shard)

	if err := d.codec.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	block := make([]byte, d.blockLen)
	for i := 0; i < d.k; i++ {
		start := i * d.symbolSize
		if start >= len(block) {
			break
		}
		copy(block[start:], shards[i])
	}
	return block, nil
}
