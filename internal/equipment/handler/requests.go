package handler

// codeRequest carries the QR code scanned at pickup or return.
type codeRequest struct {
	Code string `json:"code"`
}

type createAssetRequest struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Description string `json:"description"`
	QRCode      string `json:"qr_code"`
}

// updateAssetRequest uses pointers so absent fields are left untouched.
type updateAssetRequest struct {
	Name        *string `json:"name"`
	Brand       *string `json:"brand"`
	Model       *string `json:"model"`
	Description *string `json:"description"`
	QRCode      *string `json:"qr_code"`
}
