package qrcode

import (
	"encoding/json"
	"fmt"

	"memorylane/internal/domain/service"

	"github.com/skip2/go-qrcode"
)

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
}

// QRCodeData represents the QR code data structure
type QRCodeData struct {
	AccessID string `json:"access_id"`
	Type     string `json:"type"`
}

const accessQRType = "patient_access"

// NewQRCodeService creates a new QR code service instance
func NewQRCodeService(size int, errorCorrectionLevel string) service.QRCodeService {
	// Set error correction level
	var level qrcode.RecoveryLevel
	switch errorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: level,
	}
}

// GenerateAccessQR generates a QR code encoding a patient access ID
func (s *qrcodeService) GenerateAccessQR(accessID string) ([]byte, error) {
	if accessID == "" {
		return nil, fmt.Errorf("access ID is required")
	}

	// Create QR code data
	data := QRCodeData{
		AccessID: accessID,
		Type:     accessQRType,
	}

	// Convert to JSON
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal QR code data: %w", err)
	}

	// Generate QR code
	qrCode, err := qrcode.New(string(jsonData), s.errorCorrectionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	// Generate PNG image
	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}

	return pngBytes, nil
}

// ParseAccessQR parses QR code data and returns the patient access ID
func (s *qrcodeService) ParseAccessQR(qrData string) (string, error) {
	var data QRCodeData
	if err := json.Unmarshal([]byte(qrData), &data); err != nil {
		return "", fmt.Errorf("failed to unmarshal QR code data: %w", err)
	}

	// Validate type
	if data.Type != accessQRType {
		return "", fmt.Errorf("invalid QR code type: %s", data.Type)
	}

	if data.AccessID == "" {
		return "", fmt.Errorf("QR code is missing the access ID")
	}

	return data.AccessID, nil
}
