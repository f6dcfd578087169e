package iff

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

// Reader drives chunk traversal over a seekable stream. A chunk's iteration
// cursor never advances past its aligned end; entering a chunk narrows the
// readable region to its payload, leaving it restores the parent's bound and
// seeks to the chunk's aligned end regardless of how much of the payload was
// consumed.
type Reader struct {
	r    io.ReadSeeker
	f    Format
	cur  *Chunk // active chunk, nil at the outermost level
	size int64  // stream length, resolved lazily
	err  error  // first I/O error, sticky
}

// NewReader creates a chunk reader over stream using the given framing.
func NewReader(r io.ReadSeeker, f Format) *Reader {
	return &Reader{r: r, f: f}
}

// Format returns the framing the reader was created with.
func (p *Reader) Format() Format {
	return p.f
}

// Err returns the first I/O error encountered during traversal. Natural end
// of stream and truncated trailing headers are not errors.
func (p *Reader) Err() error {
	return p.err
}

// Offset returns the current stream position.
func (p *Reader) Offset() int64 {
	off, err := p.r.Seek(0, io.SeekCurrent)
	if err != nil {
		p.setErr(err)
		return 0
	}
	return off
}

// Handler is called for every chunk at the level Parse iterates. While the
// handler runs the reader is positioned at the chunk's payload and bounded
// by it, so the handler may call Chunks to descend into children.
type Handler func(p *Reader, c Chunk) error

// Parse rewinds the stream and invokes handler for every root-level chunk.
func (p *Reader) Parse(handler Handler) error {
	if _, err := p.r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("unable to rewind stream: %w", err)
	}
	p.cur, p.err = nil, nil

	var herr error
	for c := range p.Chunks() {
		if herr = handler(p, c); herr != nil {
			break
		}
	}
	if herr != nil {
		return herr
	}
	return p.err
}

// Chunks yields sibling chunks at the current nesting level, in file order,
// optionally filtered by type. Iteration is bounded by the enclosing chunk
// (or the stream itself at the outermost level) and terminates silently on a
// truncated trailing header. While the loop body runs, the yielded chunk is
// the active one; afterwards the stream is always left at the chunk's
// aligned end so sibling headers start on an aligned boundary.
func (p *Reader) Chunks(types ...TypeID) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		for p.err == nil && !p.pastEnd() {
			c, ok := p.readHeader()
			if !ok {
				return
			}

			keep := true
			if len(types) != 0 {
				keep = false
				for _, t := range types {
					if c.TypeID == t {
						keep = true
						break
					}
				}
			}

			more := true
			if keep {
				parent := p.cur
				p.cur = &c
				more = yield(c)
				p.cur = parent
			}

			if _, err := p.r.Seek(c.AlignedEnd(p.f), io.SeekStart); err != nil {
				p.setErr(err)
				return
			}
			if !more {
				return
			}
		}
	}
}

// ReadChunkData seeks to and reads exactly the chunk's payload, leaving the
// stream at the payload end. The caller is responsible for realignment
// before continuing sibling iteration (Chunks does it automatically).
func (p *Reader) ReadChunkData(c Chunk) ([]byte, error) {
	if c.DataLength < 0 {
		return nil, fmt.Errorf("chunk %s has invalid payload length %d", c.TypeID, c.DataLength)
	}
	if _, err := p.r.Seek(c.DataOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("unable to seek to chunk %s payload: %w", c.TypeID, err)
	}
	buf := make([]byte, c.DataLength)
	if _, err := io.ReadFull(p.r, buf); err != nil {
		return nil, fmt.Errorf("unable to read chunk %s payload: %w", c.TypeID, err)
	}
	return buf, nil
}

// Read pulls exactly len(b) bytes at the current position. Used by semantic
// decoders for fixed-width records inside a chunk payload.
func (p *Reader) Read(b []byte) error {
	if _, err := io.ReadFull(p.r, b); err != nil {
		return err
	}
	return nil
}

// ReadString reads a NUL-terminated string at the current position, bounded
// by the active chunk. The terminating NUL is consumed but not returned.
func (p *Reader) ReadString() (string, error) {
	var (
		out []byte
		one [1]byte
	)
	for !p.pastEnd() {
		if _, err := io.ReadFull(p.r, one[:]); err != nil {
			return "", err
		}
		if one[0] == 0 {
			return string(out), nil
		}
		out = append(out, one[0])
	}
	return string(out), errors.New("unterminated string in chunk")
}

// Realign seeks forward to the next chunk-alignment boundary.
func (p *Reader) Realign() {
	off := p.Offset()
	if aligned := Align(off, p.f.ChunkAlignment); aligned != off {
		if _, err := p.r.Seek(aligned, io.SeekStart); err != nil {
			p.setErr(err)
		}
	}
}

// pastEnd reports whether the cursor reached the end of the active chunk's
// payload. This is the normal termination condition, not a failure.
func (p *Reader) pastEnd() bool {
	if p.err != nil {
		return true
	}
	if p.cur == nil {
		return false
	}
	return p.Offset() >= p.cur.DataEnd()
}

// readHeader decodes the next chunk header at the current position. A short
// read is treated as natural end of iteration: real-world files carry
// trailing padding shorter than a full header.
func (p *Reader) readHeader() (Chunk, bool) {
	hdr := make([]byte, p.f.HeaderSize())
	if _, err := io.ReadFull(p.r, hdr); err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			p.setErr(err)
		}
		return Chunk{}, false
	}

	typeID := TypeID(p.f.Uint(hdr[:p.f.TypeIDBytes]))
	sizeAt := Align(int64(p.f.TypeIDBytes), p.f.HeaderAlignment)
	length := int64(p.f.Uint(hdr[sizeAt : sizeAt+int64(p.f.SizeBytes)]))

	off := p.Offset()
	if length < 0 || length > p.bound()-off {
		p.setErr(fmt.Errorf("chunk %s declares invalid payload length %d", typeID, length))
		return Chunk{}, false
	}

	return Chunk{TypeID: typeID, DataOffset: off, DataLength: length}, p.err == nil
}

// bound returns the stream offset iteration must never read past: the end of
// the active chunk's payload, or the end of the stream at the outermost
// level. A header declaring a payload past this point is structurally broken
// and the whole parse is abandoned.
func (p *Reader) bound() int64 {
	if p.cur != nil {
		return p.cur.DataEnd()
	}
	if p.size == 0 {
		cur := p.Offset()
		end, err := p.r.Seek(0, io.SeekEnd)
		if err != nil {
			p.setErr(err)
			return 0
		}
		if _, err := p.r.Seek(cur, io.SeekStart); err != nil {
			p.setErr(err)
			return 0
		}
		p.size = end
	}
	return p.size
}

func (p *Reader) setErr(err error) {
	if p.err == nil {
		p.err = err
	}
}
