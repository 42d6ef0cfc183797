// Package snapshot implements the versioned binary envelope wrapping index
// state: a fixed header, the engine and store sections, and a CRC32 trailer.
//
// Payload bytes ride inside the store section and are produced by an
// arbitrary codec, so decoding them can execute codec-specific logic on
// untrusted input. The envelope therefore records whether payloads are
// present, and Read refuses payload-bearing snapshots unless the caller
// opts in explicitly.
package snapshot

import "errors"

const (
	// MagicNumber identifies quadgo snapshot files (ASCII: "QSNP").
	MagicNumber = 0x51534E50
	// Version is the current envelope format version (v1.0.0).
	Version = 0x00010000
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")

	// ErrPayloadNotAllowed is returned when a snapshot carries payload bytes
	// and the reader did not opt in to decoding them.
	ErrPayloadNotAllowed = errors.New("snapshot contains payload data; opt in to decode it")
)

// fileHeader is the fixed-size header at the start of every snapshot.
// Variable-length fields (codec name, sections) follow it in order.
type fileHeader struct {
	Magic          uint32
	Version        uint32
	Compression    uint8
	IncludeObjects uint8
	Padding        [2]byte
	CodecNameLen   uint32
	EngineLen      uint64 // uncompressed engine section length
	StoreLen       uint64 // uncompressed store section length
	BodyLen        uint64 // on-disk body length after compression
}

// Header describes a snapshot envelope.
type Header struct {
	// CodecName is the stable name of the payload codec, recorded so files
	// stay self-describing.
	CodecName string

	// Compression is the body compression scheme.
	Compression Compression

	// IncludeObjects reports whether the store section carries payload bytes.
	IncludeObjects bool
}
