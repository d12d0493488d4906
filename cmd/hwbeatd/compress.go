// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Spool file extensions. The extension doubles as the compression tag:
// the drain path picks its decoder from the file name alone, so a
// spool directory survives agent upgrades without a manifest.
const (
	extensionZstd = ".zst"
	extensionLZ4  = ".lz4"
	extensionRaw  = ".cbor"
)

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("spool: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("spool: zstd decoder initialization failed: " + err.Error())
	}
}

// compressBatch picks the spool encoding for one CBOR-encoded batch.
// It probes with zstd: a 1.5x ratio or better keeps the zstd output, a
// mild ratio trades some disk for the faster lz4 decode on drain, and
// anything below 1.1x is stored raw. CBOR metric batches repeat their
// metric names and label keys, so zstd wins almost always; the other
// branches cover pathological content.
func compressBatch(data []byte) ([]byte, string) {
	if len(data) == 0 {
		return data, extensionRaw
	}

	compressed := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(compressed))

	if ratio < 1.1 {
		return data, extensionRaw
	}
	if ratio < 1.5 {
		if frame, err := compressLZ4(data); err == nil && len(frame) < len(data) {
			return frame, extensionLZ4
		}
	}
	return compressed, extensionZstd
}

// decompressBatch reverses compressBatch, selecting the decoder from
// the file extension.
func decompressBatch(payload []byte, extension string) ([]byte, error) {
	switch extension {
	case extensionRaw:
		return payload, nil

	case extensionZstd:
		data, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return data, nil

	case extensionLZ4:
		return decompressLZ4(payload)

	default:
		return nil, fmt.Errorf("unknown spool extension %q", extension)
	}
}

// LZ4 uses the frame format rather than block mode: frames carry their
// own uncompressed size, so spool files need no side channel.

func compressLZ4(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer := lz4.NewWriter(&buffer)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buffer.Bytes(), nil
}

func decompressLZ4(payload []byte) ([]byte, error) {
	data, err := io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return data, nil
}
