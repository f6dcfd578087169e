package maya

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"mayadep/common"
)

// Dependencies parses one scene file with the decoder for kind and returns
// the raw dependency path list, unnormalized and in first-occurrence order.
func Dependencies(path string, kind common.SceneKind, log *zap.Logger) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open scene file: %w", err)
	}
	defer f.Close()
	return Decode(f, kind, log)
}

// Decode runs the decoder for kind over an already opened stream.
func Decode(r io.ReadSeeker, kind common.SceneKind, log *zap.Logger) ([]string, error) {
	switch kind {
	case common.SceneKindAscii:
		p := NewAsciiParser(log)
		if err := p.Parse(r); err != nil {
			return nil, fmt.Errorf("unable to parse Maya ASCII scene: %w", err)
		}
		return p.DependencyPaths(), nil
	case common.SceneKindBinary:
		p := NewBinaryParser(log)
		if err := p.Parse(r); err != nil {
			return nil, fmt.Errorf("unable to parse Maya binary scene: %w", err)
		}
		return p.DependencyPaths(), nil
	default:
		return nil, fmt.Errorf("unsupported scene kind %s", kind)
	}
}
