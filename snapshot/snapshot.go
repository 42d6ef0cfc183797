package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Write writes a snapshot envelope: fixed header, codec name, compressed
// body holding the engine and store sections, and a CRC32 trailer covering
// every byte before it.
func Write(w io.Writer, h Header, engine, store []byte) error {
	body, err := compress(h.Compression, concat(engine, store))
	if err != nil {
		return fmt.Errorf("compress body: %w", err)
	}

	header := fileHeader{
		Magic:        MagicNumber,
		Version:      Version,
		Compression:  uint8(h.Compression),
		CodecNameLen: uint32(len(h.CodecName)),
		EngineLen:    uint64(len(engine)),
		StoreLen:     uint64(len(store)),
		BodyLen:      uint64(len(body)),
	}
	if h.IncludeObjects {
		header.IncludeObjects = 1
	}

	cw := NewChecksumWriter(w)

	if err := binary.Write(cw, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if _, err := cw.Write([]byte(h.CodecName)); err != nil {
		return fmt.Errorf("write codec name: %w", err)
	}

	if _, err := cw.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}

	// Trailer goes to the raw writer so it stays outside its own checksum.
	if err := binary.Write(w, binary.LittleEndian, cw.Sum()); err != nil {
		return fmt.Errorf("write checksum: %w", err)
	}

	return nil
}

// Read reads a snapshot envelope, verifies its checksum and returns the
// header with the decompressed engine and store sections.
//
// Snapshots whose header marks payload bytes as present are refused with
// ErrPayloadNotAllowed unless allowObjects is true; the refusal happens
// before any payload bytes are decoded.
func Read(r io.Reader, allowObjects bool) (Header, []byte, []byte, error) {
	cr := NewChecksumReader(r)

	var header fileHeader
	if err := binary.Read(cr, binary.LittleEndian, &header); err != nil {
		return Header{}, nil, nil, fmt.Errorf("read header: %w", err)
	}

	if header.Magic != MagicNumber {
		return Header{}, nil, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}

	if header.Version != Version {
		return Header{}, nil, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}

	if header.IncludeObjects != 0 && !allowObjects {
		return Header{}, nil, nil, ErrPayloadNotAllowed
	}

	name := make([]byte, header.CodecNameLen)
	if _, err := io.ReadFull(cr, name); err != nil {
		return Header{}, nil, nil, fmt.Errorf("read codec name: %w", err)
	}

	body := make([]byte, header.BodyLen)
	if _, err := io.ReadFull(cr, body); err != nil {
		return Header{}, nil, nil, fmt.Errorf("read body: %w", err)
	}

	var expected uint32
	if err := binary.Read(r, binary.LittleEndian, &expected); err != nil {
		return Header{}, nil, nil, fmt.Errorf("read checksum: %w", err)
	}

	if err := cr.Verify(expected); err != nil {
		return Header{}, nil, nil, err
	}

	sections, err := decompress(Compression(header.Compression), body)
	if err != nil {
		return Header{}, nil, nil, fmt.Errorf("decompress body: %w", err)
	}

	if uint64(len(sections)) != header.EngineLen+header.StoreLen {
		return Header{}, nil, nil, fmt.Errorf("body length mismatch: got %d, want %d", len(sections), header.EngineLen+header.StoreLen)
	}

	h := Header{
		CodecName:      string(name),
		Compression:    Compression(header.Compression),
		IncludeObjects: header.IncludeObjects != 0,
	}

	return h, sections[:header.EngineLen], sections[header.EngineLen:], nil
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
