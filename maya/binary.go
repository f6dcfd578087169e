package maya

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mayadep/iff"
)

// Container and group tags of the Maya binary format. Group chunks (FOR4 /
// FOR8 and LIS4 / LIS8) carry a 4-byte group tag in front of their payload;
// everything else hangs off those groups.
var (
	magicFOR4 = iff.Tag("FOR4")
	magicFOR8 = iff.Tag("FOR8")
	tagLIS4   = iff.Tag("LIS4")
	tagLIS8   = iff.Tag("LIS8")

	groupMaya     = iff.Tag("Maya")
	groupHeader   = iff.Tag("HEAD")
	groupFileRefs = iff.Tag("FREF")
	groupConn     = iff.Tag("CONN")
	groupConnList = iff.Tag("CONS")

	tagVersion    = iff.Tag("VERS")
	tagPlugin     = iff.Tag("PLUG")
	tagFileInfo   = iff.Tag("FINF")
	tagAngleUnit  = iff.Tag("AUNI")
	tagLinearUnit = iff.Tag("LUNI")
	tagTimeUnit   = iff.Tag("TUNI")

	tagFileRef = iff.Tag("FREF")
	tagCreate  = iff.Tag("CREA")
	tagSelect  = iff.Tag("SLCT")
	tagAttr    = iff.Tag("ATTR")
	tagFlags   = iff.Tag("FLGS")

	tagString  = iff.Tag("STR ")
	tagDouble  = iff.Tag("DBLE")
	tagDouble3 = iff.Tag("DBL3")
)

// File texture paths are stored under this attribute short name. It is the
// only string attribute treated as a dependency candidate.
const fileTextureAttr = "ftn"

// connection records start with a fixed preamble we do not decode
const (
	connPreamble32 = 9
	connPreamble64 = 17
)

var attrSliceRe = regexp.MustCompile(`\[(\d+):(\d+)\]`)

// BinaryParser decodes the IFF binary serialization (.mb) into a
// SceneDocument. One parser decodes one stream, no state is shared between
// files, so parsers may run concurrently one per input.
type BinaryParser struct {
	log *zap.Logger
	doc *SceneDocument

	p         *iff.Reader
	maya64    bool
	nodeChunk iff.TypeID
	listChunk iff.TypeID
}

// NewBinaryParser creates a parser logging through log.
func NewBinaryParser(log *zap.Logger) *BinaryParser {
	if log == nil {
		log = zap.NewNop()
	}
	return &BinaryParser{log: log.Named("maya.binary"), doc: &SceneDocument{}}
}

// Document returns the decoded scene document.
func (b *BinaryParser) Document() *SceneDocument {
	return b.doc
}

// DependencyPaths returns external file paths the decoded scene depends on:
// reference paths plus file-texture path attributes, in first-occurrence
// order without duplicates.
func (b *BinaryParser) DependencyPaths() []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if len(p) == 0 {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, ref := range b.doc.References {
		add(ref)
	}
	for _, a := range b.doc.Attributes {
		if a.Kind != AttrKindString || attrShortName(a.Name) != fileTextureAttr {
			continue
		}
		if s, ok := a.Value.(string); ok {
			add(s)
		}
	}
	return out
}

// Parse decodes the whole stream. The container variant is selected by the
// 4-byte magic signature: FOR4 is the 32-bit framing, FOR8 the 64-bit one
// used by Maya 2014+. Anything else is a structural error.
func (b *BinaryParser) Parse(r io.ReadSeeker) error {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return fmt.Errorf("unable to read magic number: %w", err)
	}

	var format iff.Format
	switch iff.Tag(string(magic[:])) {
	case magicFOR4:
		format, b.maya64 = iff.Format32, false
		b.nodeChunk, b.listChunk = magicFOR4, tagLIS4
	case magicFOR8:
		format, b.maya64 = iff.Format64, true
		b.nodeChunk, b.listChunk = magicFOR8, tagLIS8
	default:
		return fmt.Errorf("%w: % X", ErrBadMagic, magic[:])
	}

	b.p = iff.NewReader(r, format)
	return b.p.Parse(b.onChunk)
}

// onChunk dispatches one chunk. Unrecognized chunk types are skipped - they
// are forward-compatible noise, not errors.
func (b *BinaryParser) onChunk(p *iff.Reader, c iff.Chunk) error {
	switch c.TypeID {
	case b.nodeChunk:
		tag, err := b.readGroupTag(p)
		if err != nil {
			return nil
		}
		switch tag {
		case groupMaya:
			b.handleAll(p)
		case groupHeader:
			b.parseHeader(p)
		case groupFileRefs:
			b.parseFileReferences(p)
		case groupConn:
			b.parseConnection(p)
		default:
			b.parseNode(p, tag)
		}
	case b.listChunk:
		tag, err := b.readGroupTag(p)
		if err != nil {
			return nil
		}
		if tag == groupConnList {
			b.handleAll(p)
		}
	}
	return nil
}

// handleAll descends into the active chunk's children unconditionally.
func (b *BinaryParser) handleAll(p *iff.Reader) {
	for c := range p.Chunks() {
		_ = b.onChunk(p, c)
	}
}

// readGroupTag reads the 4-byte group tag in front of a group chunk's
// payload and realigns for the first child header. Group tags stay 4 bytes
// wide even in the 64-bit framing.
func (b *BinaryParser) readGroupTag(p *iff.Reader) (iff.TypeID, error) {
	var raw [4]byte
	if err := p.Read(raw[:]); err != nil {
		return 0, err
	}
	p.Realign()
	return iff.Tag(string(raw[:])), nil
}

func (b *BinaryParser) parseHeader(p *iff.Reader) {
	var angle, linear, time string
	partial := false
	commit := func() {
		if len(angle) != 0 && len(linear) != 0 && len(time) != 0 {
			b.doc.Units = append(b.doc.Units, Units{Angle: angle, Linear: linear, Time: time})
			angle, linear, time = "", "", ""
			partial = false
		}
	}

	for c := range p.Chunks() {
		data, err := p.ReadChunkData(c)
		if err != nil {
			continue
		}
		switch c.TypeID {
		case tagVersion:
			b.doc.Version = cstring(data)
		case tagPlugin:
			parts := cstrings(data)
			pl := Plugin{Name: parts[0]}
			if len(parts) > 1 {
				pl.Version = parts[1]
			}
			b.doc.Plugins = append(b.doc.Plugins, pl)
		case tagFileInfo:
			parts := cstrings(data)
			fi := FileInfo{Key: parts[0]}
			if len(parts) > 1 {
				fi.Value = parts[1]
			}
			b.doc.FileInfos = append(b.doc.FileInfos, fi)
		case tagAngleUnit:
			angle, partial = cstring(data), true
			commit()
		case tagLinearUnit:
			linear, partial = cstring(data), true
			commit()
		case tagTimeUnit:
			time, partial = cstring(data), true
			commit()
		}
	}

	if partial {
		// non-standard header, tolerated
		b.log.Debug("Scene header supplied fewer than three unit tokens",
			zap.String("angle", angle), zap.String("linear", linear), zap.String("time", time))
	}
}

// parseFileReferences collects one NUL-terminated reference path per child.
func (b *BinaryParser) parseFileReferences(p *iff.Reader) {
	for c := range p.Chunks(tagFileRef) {
		data, err := p.ReadChunkData(c)
		if err != nil {
			continue
		}
		if path := cstring(data); len(path) != 0 {
			b.doc.References = append(b.doc.References, path)
		}
	}
}

// parseConnection skips the fixed preamble and reads the two plug names.
func (b *BinaryParser) parseConnection(p *iff.Reader) {
	skip := connPreamble32
	if b.maya64 {
		skip = connPreamble64
	}
	if err := p.Read(make([]byte, skip)); err != nil {
		return
	}
	src, err := p.ReadString()
	if err != nil {
		return
	}
	dst, err := p.ReadString()
	if err != nil {
		return
	}
	b.doc.Connections = append(b.doc.Connections, Connection{Src: src, Dst: dst})
}

// parseNode handles a node creation group: CREA yields the node record,
// SLCT / ATTR / FLGS are consumed and discarded, anything else is a typed
// attribute value.
func (b *BinaryParser) parseNode(p *iff.Reader, tag iff.TypeID) {
	typeName := TypeName(tag)
	for c := range p.Chunks() {
		switch c.TypeID {
		case tagCreate:
			data, err := p.ReadChunkData(c)
			if err != nil {
				continue
			}
			if len(data) < 2 {
				continue
			}
			// strip the outer bracket bytes before splitting on NUL
			parts := cstrings(data[1 : len(data)-1])
			node := Node{TypeName: typeName, Name: parts[0]}
			if len(parts) > 1 {
				node.Parent = parts[1]
			}
			b.doc.Nodes = append(b.doc.Nodes, node)
		case tagSelect, tagAttr, tagFlags:
			// structurally consumed, nothing to keep
		default:
			b.parseAttribute(p, c)
		}
	}
}

// parseAttribute decodes one typed attribute value chunk: NUL-terminated
// attribute name, one flag byte we deliberately do not decode, then the
// value encoded per the chunk tag. Unrecognized value tags are recorded as
// extended and intentionally left unparsed.
func (b *BinaryParser) parseAttribute(p *iff.Reader, c iff.Chunk) {
	name, err := p.ReadString()
	if err != nil {
		return
	}
	if err := p.Read(make([]byte, 1)); err != nil {
		return
	}
	count := attrElementCount(name)

	attr := Attribute{Name: name, Count: count}
	order := p.Format().Order

	switch c.TypeID {
	case tagString:
		value, err := p.ReadString()
		if err != nil {
			return
		}
		attr.Kind, attr.Value = AttrKindString, value
	case tagDouble:
		values, err := readDoubles(p, c, order, count)
		if err != nil {
			return
		}
		attr.Kind, attr.Value = AttrKindDouble, values
	case tagDouble3:
		values, err := readDoubles(p, c, order, 3*count)
		if err != nil {
			return
		}
		attr.Kind, attr.Value = AttrKindDouble3, values
	default:
		attr.Kind = AttrKindExtended
	}

	b.doc.Attributes = append(b.doc.Attributes, attr)
}

// readDoubles reads n big-endian float64 values at the current position. The
// count comes from the attribute name suffix, so it is checked against the
// space actually left in the chunk before anything is allocated.
func readDoubles(p *iff.Reader, c iff.Chunk, order binary.ByteOrder, n int) ([]float64, error) {
	if rem := (c.DataEnd() - p.Offset()) / 8; int64(n) > rem {
		return nil, fmt.Errorf("attribute declares %d values, chunk has room for %d", n, rem)
	}
	buf := make([]byte, 8*n)
	if err := p.Read(buf); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(order.Uint64(buf[8*i : 8*i+8]))
	}
	return out, nil
}

// attrElementCount derives the element count from an array-slice suffix in
// the attribute name, e.g. "wm[0:3]" has 4 elements. Plain names count as 1.
func attrElementCount(name string) int {
	m := attrSliceRe.FindStringSubmatch(name)
	if m == nil {
		return 1
	}
	lo, err1 := strconv.Atoi(m[1])
	hi, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || hi < lo {
		return 1
	}
	return hi - lo + 1
}

// attrShortName strips plug punctuation from an attribute name: leading
// dots and any array-slice suffix.
func attrShortName(name string) string {
	name = strings.TrimPrefix(name, ".")
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

// cstring returns the bytes up to the first NUL as a string.
func cstring(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}

// cstrings splits a NUL-delimited blob, dropping the trailing empty part
// a terminating NUL produces.
func cstrings(data []byte) []string {
	parts := strings.Split(string(data), "\x00")
	if n := len(parts); n > 1 && len(parts[n-1]) == 0 {
		parts = parts[:n-1]
	}
	return parts
}
