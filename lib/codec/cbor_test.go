// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type endpointSnapshot struct {
	Count    int            `json:"count"`
	Errors   int            `json:"errors"`
	MeanMs   float64        `json:"mean_ms"`
	Statuses map[string]int `json:"statuses,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := map[string]endpointSnapshot{
		"GET /projects": {Count: 3, Errors: 1, MeanMs: 12.5, Statuses: map[string]int{"200": 2, "500": 1}},
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]endpointSnapshot
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got := decoded["GET /projects"]
	if got.Count != 3 || got.Errors != 1 || got.MeanMs != 12.5 || got.Statuses["500"] != 1 {
		t.Errorf("roundtrip mismatch: got %+v", got)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding %d differs: %x vs %x", i, again, first)
		}
	}
}

func TestEncoderMatchesMarshal(t *testing.T) {
	value := endpointSnapshot{Count: 7}
	var buffer bytes.Buffer
	if err := NewEncoder(&buffer).Encode(value); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(buffer.Bytes(), data) {
		t.Errorf("encoder output %x differs from Marshal %x", buffer.Bytes(), data)
	}
}

func TestAnyMapsDecodeWithStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"count": 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		t.Errorf("decoded type = %T, want map[string]any", decoded)
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var target endpointSnapshot
	if err := Unmarshal([]byte{0xff, 0xfe}, &target); err == nil {
		t.Fatal("expected error for invalid CBOR")
	}
}
