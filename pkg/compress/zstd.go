// Package compress wraps zstd framing for track archives and session files.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Ext is the file extension appended to compressed files
const Ext = ".zst"

var magic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// IsCompressed reports whether data starts with a zstd frame header
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// Compress encodes data as a single zstd stream
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := CompressTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompressTo writes data to w as a zstd stream
func CompressTo(w io.Writer, data []byte) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("zstd write: %w", err)
	}
	return enc.Close()
}

// Decompress decodes a zstd stream. Uncompressed input is returned unchanged.
func Decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}
	return DecompressFrom(bytes.NewReader(data))
}

// DecompressFrom reads a whole zstd stream from r
func DecompressFrom(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("zstd read: %w", err)
	}
	return out, nil
}
