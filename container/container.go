package container

import (
	"bytes"
	"io"

	"github.com/wippyai/binserde"
	"github.com/wippyai/binserde/errors"
	"github.com/wippyai/binserde/internal/binary"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// Options configure Write and Read.
type Options struct {
	Mode        binserde.Mode
	Compression Compression
	Checksum    bool
}

// DefaultOptions returns dedup mode, no compression and a checksum trailer.
func DefaultOptions() Options {
	return Options{
		Mode:     binserde.DedupMode(),
		Checksum: true,
	}
}

// Envelope is an opened container: its header and the uncompressed blob.
type Envelope struct {
	Header Header
	Blob   []byte

	// StoredSize is the body length on disk.
	StoredSize int
}

// Write serializes v with opts.Mode and writes it as a container.
func Write(w io.Writer, v any, opts Options) error {
	blob, err := binserde.SerializeWith(v, opts.Mode)
	if err != nil {
		return err
	}
	return WriteBlob(w, blob, opts)
}

// WriteBlob frames an already serialized blob. opts.Mode is not used.
func WriteBlob(w io.Writer, blob []byte, opts Options) error {
	if len(blob) > MaxBlobSize {
		return errors.InvalidLength(errors.PhaseContainer, nil, uint64(len(blob)), MaxBlobSize)
	}

	stored, c, err := compress(blob, opts.Compression)
	if err != nil {
		return err
	}
	h := Header{Version: Version, Compression: c}
	if opts.Checksum {
		h.Flags |= FlagChecksum
	}

	bw := binary.NewWriter(w)
	if _, err := bw.Write(h.AppendTo(make([]byte, 0, HeaderSize))); err != nil {
		return errors.IO(errors.PhaseContainer, err)
	}
	if err := bw.WriteU32LE(uint32(len(blob))); err != nil {
		return errors.IO(errors.PhaseContainer, err)
	}
	if err := bw.WriteU32LE(uint32(len(stored))); err != nil {
		return errors.IO(errors.PhaseContainer, err)
	}
	if _, err := bw.Write(stored); err != nil {
		return errors.IO(errors.PhaseContainer, err)
	}
	if h.HasChecksum() {
		sum := blake3.Sum256(blob)
		if _, err := bw.Write(sum[:]); err != nil {
			return errors.IO(errors.PhaseContainer, err)
		}
	}

	Logger().Debug("container written",
		zap.Stringer("compression", c),
		zap.Bool("checksum", h.HasChecksum()),
		zap.Int("blob_bytes", len(blob)),
		zap.Int("bytes", bw.Len()))
	return nil
}

// Read opens a container and decodes its blob into target in place.
func Read(r io.Reader, target any, opts Options) error {
	env, err := Open(r)
	if err != nil {
		return err
	}
	return env.Decode(target, opts.Mode)
}

// Open reads a whole container, decompresses the body and verifies the
// checksum trailer if present.
func Open(r io.Reader) (*Envelope, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	br := binary.NewReader(r)
	rawLen, err := readBodyLen(br, "blob")
	if err != nil {
		return nil, err
	}
	storedLen, err := readBodyLen(br, "body")
	if err != nil {
		return nil, err
	}
	if h.Compression == CompressionNone && storedLen != rawLen {
		return nil, errors.New(errors.PhaseContainer, errors.KindInvalidLength).
			Value(storedLen).
			Detail("uncompressed body is %d bytes, header says %d", storedLen, rawLen).
			Build()
	}

	stored, err := readBody(br, storedLen)
	if err != nil {
		return nil, err
	}
	blob, err := decompress(stored, h.Compression, rawLen)
	if err != nil {
		return nil, err
	}

	if h.HasChecksum() {
		var want [ChecksumSize]byte
		if _, err := br.Read(want[:]); err != nil {
			return nil, errors.IO(errors.PhaseContainer, err)
		}
		if got := blake3.Sum256(blob); got != want {
			return nil, errors.New(errors.PhaseContainer, errors.KindChecksum).
				Detail("blake3 mismatch: stored %x, computed %x", want[:8], got[:8]).
				Build()
		}
	}

	Logger().Debug("container read",
		zap.Uint16("version", h.Version),
		zap.Stringer("compression", h.Compression),
		zap.Bool("checksum", h.HasChecksum()),
		zap.Int("blob_bytes", rawLen))
	return &Envelope{Header: h, Blob: blob, StoredSize: storedLen}, nil
}

func readBodyLen(br *binary.Reader, what string) (int, error) {
	n, err := br.ReadU32LE()
	if err != nil {
		return 0, errors.WithPath(errors.IO(errors.PhaseContainer, err), what)
	}
	if n > MaxBlobSize {
		return 0, errors.InvalidLength(errors.PhaseContainer, []string{what}, uint64(n), MaxBlobSize)
	}
	return int(n), nil
}

// readBody reads n stored bytes. The buffer grows as bytes arrive, so a
// header claiming a large body costs nothing until the body is there.
func readBody(br *binary.Reader, n int) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, br, int64(n)); err != nil {
		return nil, errors.WithPath(errors.IO(errors.PhaseContainer, err), "body")
	}
	return buf.Bytes(), nil
}

// Decode decodes the blob into target in place.
func (e *Envelope) Decode(target any, mode binserde.Mode) error {
	return binserde.DeserializeInto(e.Blob, target, mode)
}

// Table reads the dedup string table at the front of the blob and returns
// it with the offset where the payload starts. Without dedup the table is
// empty and the payload starts at 0.
func (e *Envelope) Table(mode binserde.Mode) (*binserde.DedupContext, int, error) {
	if !mode.Dedup {
		ctx := binserde.NewDedupContext()
		ctx.Freeze()
		return ctx, 0, nil
	}
	r := bytes.NewReader(e.Blob)
	ctx, err := binserde.ReadTable(binserde.NewDeserializer(r, nil, mode))
	if err != nil {
		return nil, 0, err
	}
	return ctx, len(e.Blob) - r.Len(), nil
}

// Payload returns the blob bytes following the string table.
func (e *Envelope) Payload(mode binserde.Mode) ([]byte, error) {
	_, off, err := e.Table(mode)
	if err != nil {
		return nil, err
	}
	return e.Blob[off:], nil
}
