// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	snapshotEncoding = mustEncMode(cbor.CoreDetEncOptions())
	snapshotDecoding = mustDecMode(cbor.DecOptions{
		// Untyped maps decode with string keys, matching encoding/json.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	})
)

func mustEncMode(options cbor.EncOptions) cbor.EncMode {
	mode, err := options.EncMode()
	if err != nil {
		panic("codec: building CBOR encode mode: " + err.Error())
	}
	return mode
}

func mustDecMode(options cbor.DecOptions) cbor.DecMode {
	mode, err := options.DecMode()
	if err != nil {
		panic("codec: building CBOR decode mode: " + err.Error())
	}
	return mode
}

// Marshal returns the deterministic CBOR encoding of value.
func Marshal(value any) ([]byte, error) {
	return snapshotEncoding.Marshal(value)
}

// Unmarshal decodes data into target.
func Unmarshal(data []byte, target any) error {
	return snapshotDecoding.Unmarshal(data, target)
}

// NewEncoder returns a stream encoder producing the same bytes as
// Marshal for each value.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return snapshotEncoding.NewEncoder(w)
}
