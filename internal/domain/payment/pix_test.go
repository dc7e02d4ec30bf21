package payment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emv = "00020126580014br.gov.bcb.pix0136a629532e-7693-4846-852d-1bbff817b5a8520400005303986540510.005802BR5913Fulano de Tal6008BRASILIA62070503***63041D3D"

func TestExtractPix(t *testing.T) {
	t.Run("Top-level fields", func(t *testing.T) {
		p := ExtractPix(map[string]any{"copy_paste": emv, "qr_code_image": "https://qr.example/1.png"})
		require.NotNil(t, p)
		assert.Equal(t, emv, p.CopyPaste)
		assert.Equal(t, "https://qr.example/1.png", p.QRCodeImage)
	})

	t.Run("Nested transaction data", func(t *testing.T) {
		p := ExtractPix(map[string]any{
			"point_of_interaction": map[string]any{
				"transaction_data": map[string]any{
					"qr_code":        emv,
					"qr_code_base64": "iVBORw0KGgo=",
				},
			},
		})
		require.NotNil(t, p)
		assert.Equal(t, emv, p.CopyPaste)
		assert.Equal(t, "iVBORw0KGgo=", p.QRCodeImage)
	})

	t.Run("Ambiguous field holding an image", func(t *testing.T) {
		p := ExtractPix(map[string]any{"data": map[string]any{"qr_code": "data:image/png;base64,AAAA"}})
		require.NotNil(t, p)
		assert.Empty(t, p.CopyPaste)
		assert.Equal(t, "data:image/png;base64,AAAA", p.QRCodeImage)
	})

	t.Run("Long base64 without a prefix is an image", func(t *testing.T) {
		img := strings.Repeat("QUJD", 100)
		p := ExtractPix(map[string]any{"pix": map[string]any{"qrcode": img}})
		require.NotNil(t, p)
		assert.Equal(t, img, p.QRCodeImage)
	})

	t.Run("Nothing to extract", func(t *testing.T) {
		assert.Nil(t, ExtractPix(map[string]any{"id": "x", "status": "pending"}))
		assert.Nil(t, ExtractPix(nil))
	})
}

func TestIDFromRedirectURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://pay.example/checkout?id=abc", "abc"},
		{"https://pay.example/pix?foo=1&charge_id=px_9", "px_9"},
		{"https://pay.example/pix?checkout_id=c1&transaction_id=t1", "c1"},
		{"https://pay.example/checkout/abc", ""},
		{"::not a url", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IDFromRedirectURL(tt.url), tt.url)
	}
}
