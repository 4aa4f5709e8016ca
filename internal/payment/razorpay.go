package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrNotConfigured    = errors.New("razorpay key secret is not configured")
	ErrInvalidSignature = errors.New("invalid razorpay signature")
)

// RazorpayVerifier valida la firma que Razorpay devuelve al checkout:
// hex(HMAC-SHA256(secret, orderId + "|" + paymentId)).
type RazorpayVerifier struct {
	secret []byte
}

func NewRazorpayVerifier(secret string) *RazorpayVerifier {
	return &RazorpayVerifier{secret: []byte(secret)}
}

func (v *RazorpayVerifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compara en tiempo constante. Sin secreto no acepta ninguna firma.
func (v *RazorpayVerifier) Verify(orderID, paymentID, signature string) error {
	if len(v.secret) == 0 {
		return ErrNotConfigured
	}
	expected := v.Sign(orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
