package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	payload := Payload{
		"name": "Ann",
		"age":  json.Number("31"),
		"address": map[string]any{
			"city": "Oslo",
			"geo":  map[string]any{"lat": 59.9},
		},
		"tags":    []any{"a", true},
		"choices": []string{"x", "y"},
		"empty":   map[string]any{},
		"missing": nil,
	}

	got := Flatten(payload)

	assert.Equal(t, map[string]string{
		"name":            "Ann",
		"age":             "31",
		"address.city":    "Oslo",
		"address.geo.lat": "59.9",
		"tags.0":          "a",
		"tags.1":          "true",
		"choices.0":       "x",
		"choices.1":       "y",
		"empty":           "",
		"missing":         "",
	}, got)
}

func TestSortedKeys(t *testing.T) {
	keys := SortedKeys(map[string]string{"b": "", "a.1": "", "a.0": ""})

	assert.Equal(t, []string{"a.0", "a.1", "b"}, keys)
}
