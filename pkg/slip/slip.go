// Package slip extracts the QR payload embedded in payment slip images so
// an expense can carry a machine-readable proof reference instead of a bare
// file path.
package slip

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// DecodeProof reads an image file and returns the text of the first QR code
// found in it
func DecodeProof(imgPath string) (string, error) {
	file, err := os.Open(imgPath)
	if err != nil {
		return "", fmt.Errorf("failed to open proof image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("failed to decode proof image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to build bitmap from proof image: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("no QR code found in proof image: %w", err)
	}
	return result.GetText(), nil
}
