package maya

import (
	_ "embed"
	"strings"

	"mayadep/iff"
)

// UnknownTypeName is returned for node chunk tags missing from the table.
// Unknown node types are forward-compatible noise, never an error.
const UnknownTypeName = "unknown"

//go:embed typeids.dat
var typeIDData string

var typeNames = loadTypeNames(typeIDData)

func loadTypeNames(data string) map[iff.TypeID]string {
	out := make(map[iff.TypeID]string)
	for line := range strings.Lines(data) {
		line = strings.TrimSpace(line)
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		tag, name, ok := strings.Cut(line, " ")
		if !ok || len(tag) != 4 {
			continue
		}
		out[iff.Tag(tag)] = strings.TrimSpace(name)
	}
	return out
}

// TypeName resolves a node chunk tag to its node type name.
func TypeName(id iff.TypeID) string {
	if name, ok := typeNames[id]; ok {
		return name
	}
	return UnknownTypeName
}
