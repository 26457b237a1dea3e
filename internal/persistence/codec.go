// Package persistence provides PersistenceAdapter implementations backed
// by memory, SQLite, Postgres and Redis, sharing a gob codec for snapshots
// and event payloads.
package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/ratchetfsm/ratchet/pkg/api"
)

// EncodeState serializes a full machine snapshot using encoding/gob.
// Context, scratchpad and event payload types must be gob-encodable;
// custom types are registered by the caller with gob.Register.
func EncodeState[C any](st api.AllState[C]) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&st); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeState is the inverse of EncodeState.
func DecodeState[C any](data []byte) (api.AllState[C], error) {
	var st api.AllState[C]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return st, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}

// encodeValue serializes an arbitrary value behind an interface, so mixed
// concrete payload types round-trip through BLOB columns.
func encodeValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	iv := v
	if err := gob.NewEncoder(&buf).Encode(&iv); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeValue is the inverse of encodeValue. Empty input decodes to nil.
func decodeValue(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var iv any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&iv); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return iv, nil
}
