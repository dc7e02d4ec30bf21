package gateway

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/botmarket/server/internal/domain/payment"
)

// listKeys are envelope keys that may hold the record list.
var listKeys = []string{"data", "items", "results", "payments", "orders", "transactions", "checkouts", "charges", "records"}

// recordKeys are envelope keys that may hold a single record object.
var recordKeys = []string{"payment", "order", "charge", "checkout", "transaction"}

// maxEnvelopeDepth bounds how many single-object envelopes are unwrapped.
const maxEnvelopeDepth = 2

var errMalformedBody = errors.New("malformed response body")

// sniffRecords decodes a 2xx body into zero or more record objects,
// whatever envelope the provider wraps them in.
func sniffRecords(body []byte) ([]map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errMalformedBody
	}
	return sniffValue(v, 0), nil
}

func sniffValue(v any, depth int) []map[string]any {
	switch t := v.(type) {
	case []any:
		return objects(t)
	case map[string]any:
		return sniffObject(t, depth)
	}
	return nil
}

func sniffObject(obj map[string]any, depth int) []map[string]any {
	for _, key := range listKeys {
		if list, ok := obj[key].([]any); ok {
			return objects(list)
		}
	}

	if payment.LooksLikeRecord(obj) {
		return []map[string]any{obj}
	}

	if depth < maxEnvelopeDepth {
		for _, keys := range [][]string{listKeys, recordKeys} {
			for _, key := range keys {
				if inner, ok := obj[key].(map[string]any); ok {
					if records := sniffObject(inner, depth+1); len(records) > 0 {
						return records
					}
				}
			}
		}
	}

	// A by-id body may describe its record without repeating the id.
	if payment.CarriesStatus(obj) {
		return []map[string]any{obj}
	}
	return nil
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok && len(obj) > 0 {
			out = append(out, obj)
		}
	}
	return out
}
