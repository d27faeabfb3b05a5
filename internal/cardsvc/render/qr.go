package render

import (
	qrcode "github.com/skip2/go-qrcode"
)

// PNGEncoder encodes QR codes as square PNG images of Size pixels.
type PNGEncoder struct {
	Size int
}

func (e PNGEncoder) Encode(text string) ([]byte, error) {
	return qrcode.Encode(text, qrcode.Medium, e.Size)
}
