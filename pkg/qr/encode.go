// Package qr implements turning a framed packet into a QR raster and
// back. The wire payload is always the packet's Base45 string, since the
// Base45 alphabet is a subset of QR's alphanumeric mode charset, so no
// byte-mode fallback is ever needed.
package qr

import (
	"fmt"

	qrlib "github.com/vitrun/qart/qr"

	"github.com/fountaincodec/fountain/pkg/base45"
)

// Level is the QR error-correction level.
type Level int

const (
	LevelL Level = iota
	LevelM
	LevelQ
	LevelH
)

func (l Level) native() qrlib.Level {
	switch l {
	case LevelL:
		return qrlib.L
	case LevelQ:
		return qrlib.Q
	case LevelH:
		return qrlib.H
	default:
		return qrlib.M
	}
}

// quietZoneModules is the required 4-module border on every edge of the
// code.
const quietZoneModules = 4

// EncodePacket renders one framed packet as a QR raster: Base45-encode the
// bytes, hand the string to the QR symbol encoder at ecc, then upscale by
// pixelScale (nearest-neighbour) with a 4-module quiet zone on every side.
// Two calls with identical arguments always produce an identical raster.
func EncodePacket(packetBytes []byte, pixelScale uint8, ecc Level) (Raster, error) {
	if pixelScale == 0 {
		pixelScale = 1
	}
	text := base45.Encode(packetBytes)

	code, err := qrlib.Encode(text, ecc.native())
	if err != nil {
		return Raster{}, fmt.Errorf("qr: encode %d bytes: %w", len(packetBytes), err)
	}

	modules := code.Size + 2*quietZoneModules
	scale := int(pixelScale)
	side := modules * scale
	pix := make([]bool, side*side)

	for my := 0; my < modules; my++ {
		qy := my - quietZoneModules
		for mx := 0; mx < modules; mx++ {
			qx := mx - quietZoneModules
			if qx < 0 || qx >= code.Size || qy < 0 || qy >= code.Size || !code.Black(qx, qy) {
				continue
			}
			paintBlock(pix, side, mx*scale, my*scale, scale)
		}
	}

	return Raster{Width: side, Height: side, Pix: pix}, nil
}

func paintBlock(pix []bool, side, x0, y0, scale int) {
	for dy := 0; dy < scale; dy++ {
		row := (y0 + dy) * side
		for dx := 0; dx < scale; dx++ {
			pix[row+x0+dx] = true
		}
	}
}
