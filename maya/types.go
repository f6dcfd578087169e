// Package maya decodes both serializations of Maya scene files - the ASCII
// command stream (.ma) and the IFF binary container (.mb) - just deep enough
// to recover the external file paths a scene depends on. It is strictly
// read-only: nothing is ever written back.
package maya

import (
	"errors"
)

// ErrBadMagic is reported when a binary stream starts with neither of the
// two known container signatures.
var ErrBadMagic = errors.New("bad magic number in Maya binary file")

// AttrKind tells how a typed attribute value was encoded.
type AttrKind int

const (
	AttrKindString AttrKind = iota
	AttrKindDouble
	AttrKindDouble3
	// AttrKindExtended marks attribute value types we recognize structurally
	// but intentionally leave unparsed.
	AttrKindExtended
)

func (k AttrKind) String() string {
	switch k {
	case AttrKindString:
		return "string"
	case AttrKindDouble:
		return "double"
	case AttrKindDouble3:
		return "double3"
	default:
		return "extended"
	}
}

// Plugin is one required-plugin record from the scene header.
type Plugin struct {
	Name    string
	Version string
}

// FileInfo is one free-form (key, value) pair from the scene header.
type FileInfo struct {
	Key   string
	Value string
}

// Units are committed only when the header block supplied all three tokens.
type Units struct {
	Angle  string
	Linear string
	Time   string
}

// Node is one created node: resolved type name, node name and the optional
// parent it was created under.
type Node struct {
	TypeName string
	Name     string
	Parent   string
}

// Connection is one (source plug, destination plug) pair.
type Connection struct {
	Src string
	Dst string
}

// Attribute is one typed attribute record. Value holds a string for
// AttrKindString, []float64 for the double kinds and nil for extended kinds.
type Attribute struct {
	Name  string
	Count int
	Kind  AttrKind
	Value any
}

// SceneDocument is the decoder output for one parse pass. It is owned
// exclusively by that parse and discarded once dependency paths have been
// extracted from it.
type SceneDocument struct {
	Version     string
	Plugins     []Plugin
	FileInfos   []FileInfo
	Units       []Units
	Nodes       []Node
	Connections []Connection
	References  []string
	Attributes  []Attribute
}
