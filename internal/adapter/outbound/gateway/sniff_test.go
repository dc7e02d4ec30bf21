package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffRecords(t *testing.T) {
	tests := []struct {
		name string
		body string
		ids  []string
	}{
		{"Bare array", `[{"id":"a"},{"id":"b"},"junk",{}]`, []string{"a", "b"}},
		{"List envelope", `{"data":[{"id":"a"}],"total":1}`, []string{"a"}},
		{"Alternate list key", `{"transactions":[{"id":"a"},{"id":"b"}]}`, []string{"a", "b"}},
		{"Single object", `{"id":"a","status":"paid"}`, []string{"a"}},
		{"Object envelope", `{"data":{"id":"a"}}`, []string{"a"}},
		{"Nested envelope", `{"data":{"results":[{"id":"a"}]}}`, []string{"a"}},
		{"Payment envelope", `{"payment":{"id":"a","status":"PAID"}}`, []string{"a"}},
		{"Order envelope beside flags", `{"success":true,"order":{"id":"a","status":"PAID"}}`, []string{"a"}},
		{"Checkout inside data", `{"data":{"checkout":{"id":"a"}}}`, []string{"a"}},
		{"Empty list", `{"data":[]}`, nil},
		{"Error body", `{"message":"not found"}`, nil},
		{"Status without identity", `{"status":"error","message":"boom"}`, nil},
		{"Empty body", ``, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := sniffRecords([]byte(tt.body))
			require.NoError(t, err)

			var ids []string
			for _, r := range records {
				ids = append(ids, r["id"].(string))
			}
			assert.Equal(t, tt.ids, ids)
		})
	}

	t.Run("Malformed JSON", func(t *testing.T) {
		_, err := sniffRecords([]byte(`{"id":`))
		assert.ErrorIs(t, err, errMalformedBody)
	})

	t.Run("Status-bearing object without an id", func(t *testing.T) {
		records, err := sniffRecords([]byte(`{"status":"PAID","paid_at":"2024-01-01"}`))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "PAID", records[0]["status"])
	})

	t.Run("Enveloped status-bearing object without an id", func(t *testing.T) {
		records, err := sniffRecords([]byte(`{"ok":true,"payment":{"status":"approved"}}`))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "approved", records[0]["status"])
	})

	t.Run("Envelope depth is bounded", func(t *testing.T) {
		records, err := sniffRecords([]byte(`{"data":{"data":{"data":{"id":"deep"}}}}`))
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
