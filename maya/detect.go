package maya

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"

	"mayadep/common"
)

// Custom matchers so that scene files are recognized by content when the
// extension is ambiguous or absent. Maya binary files start with one of the
// two container signatures, ASCII scenes with the exporter's banner comment.
var (
	mayaBinaryType = filetype.NewType("mb", "application/x-maya-binary")
	mayaAsciiType  = filetype.NewType("ma", "application/x-maya-ascii")

	asciiBanner = []byte("//Maya ASCII")
)

func init() {
	filetype.AddMatcher(mayaBinaryType, func(buf []byte) bool {
		return len(buf) >= 4 && (bytes.HasPrefix(buf, []byte("FOR4")) || bytes.HasPrefix(buf, []byte("FOR8")))
	})
	filetype.AddMatcher(mayaAsciiType, func(buf []byte) bool {
		return bytes.HasPrefix(buf, asciiBanner)
	})
}

// DetectKind selects the serialization of a scene file. Extension dispatch
// is authoritative; content sniffing is the fallback for unknown extensions.
func DetectKind(path string) (common.SceneKind, error) {
	if kind := common.KindForExt(filepath.Ext(path)); kind != common.SceneKindUnknown {
		return kind, nil
	}
	return SniffKind(path)
}

// SniffKind detects the serialization by file content alone.
func SniffKind(path string) (common.SceneKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return common.SceneKindUnknown, err
	}
	defer f.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return common.SceneKindUnknown, err
	}

	t, err := filetype.Match(head[:n])
	if err != nil {
		return common.SceneKindUnknown, err
	}
	switch t {
	case mayaBinaryType:
		return common.SceneKindBinary, nil
	case mayaAsciiType:
		return common.SceneKindAscii, nil
	}
	return common.SceneKindUnknown, nil
}
