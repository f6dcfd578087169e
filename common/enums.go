package common

import "strings"

// Serialization of a Maya scene file.
// ENUM(unknown, ascii, binary)
type SceneKind int

// Ext returns conventional file extension for the scene kind.
func (k SceneKind) Ext() string {
	switch k {
	case SceneKindAscii:
		return ".ma"
	case SceneKindBinary:
		return ".mb"
	default:
		return ""
	}
}

// KindForExt maps a file extension to the scene kind it conventionally
// carries. Extension match is case-insensitive, unknown extensions map to
// SceneKindUnknown.
func KindForExt(ext string) SceneKind {
	switch {
	case strings.EqualFold(ext, ".ma"):
		return SceneKindAscii
	case strings.EqualFold(ext, ".mb"):
		return SceneKindBinary
	default:
		return SceneKindUnknown
	}
}
