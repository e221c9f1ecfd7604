package container

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/wippyai/binserde/errors"
)

// Compression is the body compression tag stored in the header.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

func (c Compression) valid() bool {
	return c <= CompressionZstd
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q", name)
	}
}

// zstdWindow is the encoder window. Decoders accept it or the blob length,
// whichever is larger.
const zstdWindow = 8 << 20

// The encoder is safe for concurrent use and expensive to create.
var zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
	return zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithWindowSize(zstdWindow))
})

// maxLZ4Ratio bounds lz4 block expansion: one input byte extends a literal
// or match run by at most 255 output bytes.
const maxLZ4Ratio = 255

// compress returns the stored body and the tag that describes it. Bodies
// that do not shrink are stored uncompressed.
func compress(blob []byte, c Compression) ([]byte, Compression, error) {
	var (
		stored []byte
		err    error
	)
	switch c {
	case CompressionNone:
		return blob, CompressionNone, nil
	case CompressionLZ4:
		stored, err = compressLZ4(blob)
	case CompressionZstd:
		stored, err = compressZstd(blob)
	default:
		return nil, c, errors.New(errors.PhaseContainer, errors.KindUnsupported).
			Value(uint8(c)).
			Detail("unsupported compression %s", c).
			Build()
	}
	if err != nil {
		return nil, c, errors.Wrap(errors.PhaseContainer, errors.KindInvalidData, err, c.String()+" compress")
	}
	if len(stored) == 0 || len(stored) >= len(blob) {
		return blob, CompressionNone, nil
	}
	return stored, c, nil
}

func decompress(stored []byte, c Compression, rawLen int) ([]byte, error) {
	var (
		blob []byte
		err  error
	)
	switch c {
	case CompressionNone:
		blob = stored
	case CompressionLZ4:
		blob, err = decompressLZ4(stored, rawLen)
	case CompressionZstd:
		blob, err = decompressZstd(stored, rawLen)
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseContainer, errors.KindCorrupt, err, c.String()+" decompress")
	}
	if len(blob) != rawLen {
		return nil, errors.New(errors.PhaseContainer, errors.KindInvalidLength).
			Value(len(blob)).
			Detail("%s body is %d bytes, header says %d", c, len(blob), rawLen).
			Build()
	}
	return blob, nil
}

func compressLZ4(blob []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(blob)))
	n, err := lz4.CompressBlock(blob, dst, nil)
	if err != nil {
		return nil, err
	}
	// 0 means incompressible
	return dst[:n], nil
}

func decompressLZ4(stored []byte, rawLen int) ([]byte, error) {
	if rawLen > maxLZ4Ratio*len(stored)+maxLZ4Ratio {
		return nil, fmt.Errorf("%d byte block cannot expand to %d bytes", len(stored), rawLen)
	}
	dst := make([]byte, rawLen)
	n, err := lz4.UncompressBlock(stored, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

func compressZstd(blob []byte) ([]byte, error) {
	enc, err := zstdEncoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(blob, nil), nil
}

// decompressZstd streams the frame so memory grows with the output actually
// produced, never past rawLen+1 bytes.
func decompressZstd(stored []byte, rawLen int) ([]byte, error) {
	window := min(max(uint64(rawLen), zstdWindow), zstd.MaxWindowSize)
	dec, err := zstd.NewReader(bytes.NewReader(stored),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxWindow(window),
		zstd.WithDecoderMaxMemory(MaxBlobSize))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out bytes.Buffer
	out.Grow(min(rawLen, 4*len(stored)))
	if _, err := io.Copy(&out, io.LimitReader(dec, int64(rawLen)+1)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
