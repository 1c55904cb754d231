package models

import "strings"

// VerifyCode checks a scanned code against the asset's assigned QR slug.
// Comparison trims surrounding whitespace and ignores case on both sides.
// Pure; no side effects.
//
// Errors: ErrMissingCode when the supplied code is blank, ErrNoQR when the
// asset has no code assigned, ErrQRMismatch when the codes differ.
func VerifyCode(asset *Asset, supplied string) error {
	supplied = strings.TrimSpace(supplied)
	if supplied == "" {
		return ErrMissingCode
	}
	assigned := strings.TrimSpace(asset.QRCode)
	if assigned == "" {
		return ErrNoQR
	}
	if !strings.EqualFold(assigned, supplied) {
		return ErrQRMismatch
	}
	return nil
}
