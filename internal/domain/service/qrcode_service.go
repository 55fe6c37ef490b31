package service

// QRCodeService defines the interface for QR code generation and parsing services
type QRCodeService interface {
	// GenerateAccessQR generates a QR code encoding a patient access ID
	GenerateAccessQR(accessID string) ([]byte, error)

	// ParseAccessQR parses QR code data and returns the patient access ID
	ParseAccessQR(qrData string) (string, error)
}
