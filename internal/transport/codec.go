package transport

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeBatch serializes a batch into a binary MessagePack frame.
func EncodeBatch(b *Batch) ([]byte, error) {
	data, err := msgpack.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encoding batch for session %s: %w", b.SessionID, err)
	}
	return data, nil
}

// DecodeBatch parses a binary MessagePack frame into a batch.
func DecodeBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding batch: %w", err)
	}
	return &b, nil
}

// EncodeEvent serializes a client event.
func EncodeEvent(ev *Event) ([]byte, error) {
	data, err := msgpack.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", ev.Type, err)
	}
	return data, nil
}

// DecodeEvent parses a client event frame.
func DecodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := msgpack.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("decoding event: missing type")
	}
	return &ev, nil
}
