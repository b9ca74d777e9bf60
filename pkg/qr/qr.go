// Package qr implements the out-of-band identity exchange boundary:
// peer uids travel between devices as scannable QR images. Only the
// round-trip contract matters to the rest of the system — Decode of an
// Encode result yields the original uid.
package qr

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Arnob004/FileShare/internal/core/domain"
)

const defaultImageSize = 256

// Codec encodes peer uids as PNG QR images and back.
type Codec struct {
	size int
}

// NewCodec returns a codec producing square images of the default size.
func NewCodec() *Codec {
	return &Codec{size: defaultImageSize}
}

// Encode renders uid as a PNG QR image.
func (c *Codec) Encode(uid domain.UID) ([]byte, error) {
	if uid == "" {
		return nil, fmt.Errorf("qr: empty uid")
	}
	data, err := qrcode.Encode(string(uid), qrcode.Medium, c.size)
	if err != nil {
		return nil, fmt.Errorf("qr: encode %q: %w", uid, err)
	}
	return data, nil
}

// Decode extracts the uid from a PNG QR image.
func (c *Codec) Decode(image []byte) (domain.UID, error) {
	img, err := png.Decode(bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("qr: decode png: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("qr: build bitmap: %w", err)
	}

	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("qr: no code found: %w", err)
	}
	return domain.UID(result.GetText()), nil
}
