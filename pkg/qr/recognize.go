package qr

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	qrcode "github.com/makiuchi-d/gozxing/multi/qrcode"

	"github.com/fountaincodec/fountain/pkg/base45"
)

// Recognize scans img for every QR code it contains and decodes each back
// to the packet bytes EncodePacket started from. A frame the reader can't
// cleanly read at all — motion blur, a half-captured carousel tick — is
// never an error: Recognize returns (nil, nil) and the caller just waits
// for the next frame. Results are deduplicated by content, since a single
// photographed frame can contain the same printed QR code more than once
// (e.g. reflections, overlapping crops) without that meaning two distinct
// packets were seen.
func Recognize(img image.Image) ([][]byte, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, nil
	}

	results, err := qrcode.NewQRCodeMultiReader().DecodeMultiple(bmp, nil)
	if err != nil || len(results) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(results))
	packets := make([][]byte, 0, len(results))
	for _, result := range results {
		text := result.GetText()
		if seen[text] {
			continue
		}
		seen[text] = true

		packet, err := base45.Decode(text)
		if err != nil {
			continue
		}
		packets = append(packets, packet)
	}
	if len(packets) == 0 {
		return nil, nil
	}
	return packets, nil
}
