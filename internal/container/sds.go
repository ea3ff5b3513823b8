package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ReadMagic reads a signature from r and identifies it.
func ReadMagic(r io.Reader) (Format, error) {
	var mark [MagicSize]byte
	if _, err := io.ReadFull(r, mark[:]); err != nil {
		return FormatUnknown, fmt.Errorf("tlg: reading signature: %w", err)
	}
	f := Detect(mark[:])
	if f == FormatUnknown {
		return FormatUnknown, ErrInvalidMagic
	}
	return f, nil
}

// ReadChunkHeader reads a chunk name and payload size. ok is false when
// fewer than four name bytes remain, which ends the chunk list.
func ReadChunkHeader(r io.Reader) (fourcc, size uint32, ok bool, err error) {
	var hdr [ChunkHeaderSize]byte
	n, err := io.ReadFull(r, hdr[:])
	switch {
	case n < 4 && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)):
		return 0, 0, false, nil
	case n < 4:
		return 0, 0, false, fmt.Errorf("tlg: reading chunk name: %w", err)
	case err != nil:
		return 0, 0, false, fmt.Errorf("tlg: reading chunk size: %w", err)
	}
	return binary.LittleEndian.Uint32(hdr[0:]), binary.LittleEndian.Uint32(hdr[4:]), true, nil
}

// ScanChunks walks the chunk list that follows the embedded stream and
// merges every tag it can parse into tags. Unknown chunks are skipped.
// A malformed tag entry stops the scan without an error.
func ScanChunks(r io.ReadSeeker, tags map[string]string) error {
	for {
		fourcc, size, ok, err := ReadChunkHeader(r)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		slog.Debug("tlg: chunk", "name", FourCCString(fourcc), "size", size)

		if fourcc != FourCCTags {
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return fmt.Errorf("tlg: skipping chunk %q: %w", FourCCString(fourcc), err)
			}
			continue
		}

		// Read through a limit so a forged size cannot force a huge
		// allocation before the stream runs out.
		payload, err := io.ReadAll(io.LimitReader(r, int64(size)))
		if err != nil {
			return fmt.Errorf("tlg: reading tags: %w", err)
		}
		if len(payload) != int(size) {
			return fmt.Errorf("tlg: reading tags: %w", io.ErrUnexpectedEOF)
		}
		if !ParseTags(payload, tags) {
			slog.Debug("tlg: malformed tag entry, ignoring remaining chunks")
			return nil
		}
	}
}

// WriteChunk writes a chunk header followed by its payload.
func WriteChunk(w io.Writer, fourcc uint32, payload []byte) error {
	var hdr [ChunkHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], fourcc)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
