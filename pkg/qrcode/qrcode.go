// Package qrcode renders PromptPay payment QR codes used to reimburse
// approved expenses.
package qrcode

import (
	"fmt"
	"os"
	"time"

	pp "github.com/Frontware/promptpay"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// Generate creates a PromptPay QR code image for the given recipient and
// amount and returns the written file name
func Generate(promptPayID string, amount int64) (string, error) {
	payment := pp.PromptPay{PromptPayID: promptPayID, Amount: float64(amount)}
	qrcodeStr, err := payment.Gen()
	if err != nil {
		return "", fmt.Errorf("error generating PromptPay data: %w", err)
	}

	qrc, err := qrcode.New(qrcodeStr)
	if err != nil {
		return "", fmt.Errorf("error creating QR code: %w", err)
	}

	filename := fmt.Sprintf("reimburse_%s_%d.jpg", promptPayID, time.Now().UnixNano())
	fileWriter, err := standard.New(filename)
	if err != nil {
		return "", fmt.Errorf("error creating file writer: %w", err)
	}

	if err = qrc.Save(fileWriter); err != nil {
		os.Remove(filename) // Clean up on error
		return "", fmt.Errorf("error saving QR code: %w", err)
	}

	return filename, nil
}

// Remove deletes the QR code file
func Remove(filename string) error {
	return os.Remove(filename)
}
