package hir

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// codecSchemaVersion is bumped whenever the encoded layout changes.
const codecSchemaVersion uint16 = 1

const codecMagic = "RAMC"

type codecHeader struct {
	Magic  string `msgpack:"magic"`
	Schema uint16 `msgpack:"schema"`
}

// Encode writes the lowered program as a compiled artifact. Spans are not
// persisted; a decoded program reports runtime errors by pc only.
func Encode(w io.Writer, p *Program) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(codecHeader{Magic: codecMagic, Schema: codecSchemaVersion}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode program: %w", err)
	}
	return nil
}

// Decode reads a compiled artifact produced by Encode.
func Decode(r io.Reader) (*Program, error) {
	dec := msgpack.NewDecoder(r)
	var hdr codecHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if hdr.Magic != codecMagic {
		return nil, fmt.Errorf("not a compiled RAM program")
	}
	if hdr.Schema != codecSchemaVersion {
		return nil, fmt.Errorf("unsupported artifact schema %d (want %d)", hdr.Schema, codecSchemaVersion)
	}
	var p Program
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return &p, nil
}
