package payment

import (
	"net/url"
	"strings"

	"github.com/botmarket/server/internal/model"
)

// pixEnvelopes hold PIX data in the provider dialects seen so far.
var pixEnvelopes = [][]string{
	nil,
	{"pix"},
	{"data"},
	{"data", "pix"},
	{"charge"},
	{"payment"},
	{"point_of_interaction", "transaction_data"},
}

var (
	copyPasteNames = []string{
		"pix_copy_paste", "copy_paste", "copia_e_cola", "copiaecola", "pixCopiaECola",
		"qr_code_text", "qrcode_text", "qrCopyPaste", "brcode", "br_code", "emv", "pix_code",
	}
	imageNames = []string{
		"qr_code_image", "qrcode_image", "qr_code_base64", "qrCodeBase64", "qr_code_url",
		"qrcode_url", "qrImageUrl", "pix_qr_code_url", "qr_image",
	}
	// ambiguousNames may carry either the EMV text or an image, depending on provider.
	ambiguousNames = []string{"qr_code", "qrcode", "qrCode", "pix_qr_code"}
)

// pixRules expands every alias over every envelope.
func pixRules(names []string) []field {
	var rules []field
	for _, env := range pixEnvelopes {
		for _, n := range names {
			path := append(append([]string{}, env...), n)
			rules = append(rules, at(path...))
		}
	}
	return rules
}

var (
	copyPasteFields = pixRules(copyPasteNames)
	imageFields     = pixRules(imageNames)
	ambiguousFields = pixRules(ambiguousNames)
)

// ExtractPix returns the PIX payload embedded in a provider object, or nil.
func ExtractPix(raw map[string]any) *model.PixPayload {
	if raw == nil {
		return nil
	}

	p := &model.PixPayload{}
	p.CopyPaste, _ = first(raw, copyPasteFields)
	p.QRCodeImage, _ = first(raw, imageFields)

	for _, v := range all(raw, ambiguousFields) {
		switch {
		case looksLikeImage(v):
			if p.QRCodeImage == "" {
				p.QRCodeImage = v
			}
		case p.CopyPaste == "":
			p.CopyPaste = v
		}
	}

	if p.IsEmpty() {
		return nil
	}
	return p
}

// looksLikeImage distinguishes a QR image reference from an EMV copy-paste string.
func looksLikeImage(v string) bool {
	if strings.HasPrefix(v, "data:image") || strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return true
	}
	// EMV payloads start with the payload format indicator "000201".
	if strings.HasPrefix(v, "000201") {
		return false
	}
	return len(v) > 256 && !strings.ContainsAny(v, " *")
}

// redirectIDParams are the query parameters providers embed a checkout id in.
var redirectIDParams = []string{"id", "checkout_id", "payment_id", "transaction_id", "pix_id", "charge_id"}

// IDFromRedirectURL extracts a provider identifier from a checkout redirect URL.
func IDFromRedirectURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, p := range redirectIDParams {
		if v := strings.TrimSpace(q.Get(p)); v != "" {
			return v
		}
	}
	return ""
}
