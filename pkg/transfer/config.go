package transfer

import "github.com/fountaincodec/fountain/pkg/qr"

// Config enumerates a transfer's tunable knobs.
type Config struct {
	// ChunkSize is the starting symbol size T in bytes handed to
	// oti.DeriveOTI. DeriveOTI raises T above it when a transfer would
	// otherwise need more than 255 source blocks.
	ChunkSize uint16
	// AnchorEvery is the anchor cadence, counted in Data packets: the first
	// pull from the encoder is an Anchor, and another Anchor follows every
	// AnchorEvery Data packets. 1 means anchor and data packets alternate.
	AnchorEvery uint16
	// PixelScale is the QR raster upscale factor.
	PixelScale uint8
	// QrEcc is the QR error-correction level.
	QrEcc qr.Level
	// MimeHint is an optional content-type hint carried in the Anchor; ""
	// omits it from the wire entirely.
	MimeHint string
}

// DefaultConfig returns the baseline defaults: chunk_size=600,
// anchor_every=16, pixel_scale=4, qr_ecc=L.
func DefaultConfig() Config {
	return Config{
		ChunkSize:   600,
		AnchorEvery: 16,
		PixelScale:  4,
		QrEcc:       qr.LevelL,
	}
}
