package oti

import "github.com/fountaincodec/fountain/pkg/tools"

// Partition is the result of the RFC 5052 §9.1 block partitioning algorithm:
// splitting a transfer of l octets, made of symbols e octets long, into
// source blocks of at most b symbols each.
type Partition struct {
	ALarge   uint64 // length, in symbols, of each of the larger blocks
	ASmall   uint64 // length, in symbols, of each of the smaller blocks
	NbALarge uint64 // number of blocks of length ALarge
	NbBlocks uint64 // total number of blocks (Z)
}

// BlockPartitioning implements the block partitioning algorithm of RFC 5052
// §9.1: b is the maximum source block length in symbols, l is the transfer
// length in octets, e is the encoding symbol length in octets.
func BlockPartitioning(b, l, e uint64) Partition {
	if b == 0 || e == 0 {
		return Partition{}
	}

	t := tools.DivCeil(l, e)
	n := tools.DivCeil(t, b)
	if n == 0 {
		// Zero-length transfer still occupies exactly one (empty) block.
		n = 1
	}

	aLarge := tools.DivCeil(t, n)
	aSmall := t / n
	nbALarge := t - aSmall*n

	return Partition{
		ALarge:   aLarge,
		ASmall:   aSmall,
		NbALarge: nbALarge,
		NbBlocks: n,
	}
}

// BlockLength returns the number of source symbols in block sbn.
func (p Partition) BlockLength(sbn uint32) uint64 {
	if uint64(sbn) < p.NbALarge {
		return p.ALarge
	}
	return p.ASmall
}
