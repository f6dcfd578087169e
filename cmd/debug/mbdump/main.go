// mbdump prints the chunk tree of a Maya binary scene (.mb) for format
// exploration. Group chunks are shown with their group tag and known node
// type tags are annotated with a human readable name; leaf payloads get a
// short printable preview.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"time"

	"mayadep/iff"
	"mayadep/maya"
	"mayadep/utils/debug"
)

var (
	magicFOR4 = iff.Tag("FOR4")
	magicFOR8 = iff.Tag("FOR8")
	tagLIS4   = iff.Tag("LIS4")
	tagLIS8   = iff.Tag("LIS8")
)

const previewLimit = 48

func main() {
	full := flag.Bool("full", false, "do not truncate payload previews")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mbdump [-full] <file.mb>\n\n")
		fmt.Fprintf(os.Stderr, "Prints the IFF chunk tree of a Maya binary scene to stdout.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	defer func(startedAt time.Time) {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", time.Since(startedAt))
	}(time.Now())

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}

	tree, err := dumpTree(data, *full)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dump %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Print(tree)
}

func dumpTree(data []byte, full bool) (string, error) {

	if len(data) < 4 {
		return "", fmt.Errorf("file too short (%d bytes)", len(data))
	}

	var f iff.Format
	switch magic := iff.Tag(string(data[:4])); magic {
	case magicFOR4:
		f = iff.Format32
	case magicFOR8:
		f = iff.Format64
	default:
		return "", fmt.Errorf("not a Maya binary file (magic %s)", magic)
	}

	tw := debug.NewTreeWriter()
	p := iff.NewReader(bytes.NewReader(data), f)
	err := p.Parse(func(p *iff.Reader, c iff.Chunk) error {
		return dumpChunk(p, c, tw, 0, full)
	})
	return tw.String(), err
}

func dumpChunk(p *iff.Reader, c iff.Chunk, tw *debug.TreeWriter, depth int, full bool) error {
	if isGroup(c.TypeID) {
		var tag [4]byte
		if err := p.Read(tag[:]); err != nil {
			return err
		}
		p.Realign()

		group := iff.Tag(string(tag[:]))
		label := group.String()
		if name := maya.TypeName(group); name != maya.UnknownTypeName {
			label += " (" + name + ")"
		}
		tw.Line(depth, "%s %s size=%d", c.TypeID, label, c.DataLength)

		for child := range p.Chunks() {
			if err := dumpChunk(p, child, tw, depth+1, full); err != nil {
				return err
			}
		}
		return p.Err()
	}

	data, err := p.ReadChunkData(c)
	if err != nil {
		return err
	}
	limit := previewLimit
	if full {
		limit = 0
	}
	tw.DataBlock(depth, fmt.Sprintf("%s size=%d", c.TypeID, c.DataLength), data, limit)
	return nil
}

func isGroup(t iff.TypeID) bool {
	return t == magicFOR4 || t == magicFOR8 || t == tagLIS4 || t == tagLIS8
}
