package resolve

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"mayadep/common"
)

func writeScene(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	return common.CleanPath(path)
}

// chunk32 encodes a single 32-bit framing chunk with padding.
func chunk32(tag string, data []byte) []byte {
	var out []byte
	out = append(out, tag...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)
	for pad := (4 - len(data)%4) % 4; pad > 0; pad-- {
		out = append(out, 0)
	}
	return out
}

// group32 encodes a FOR4 group with the given group tag and children.
func group32(group string, children ...[]byte) []byte {
	payload := []byte(group)
	for _, c := range children {
		payload = append(payload, c...)
	}
	return chunk32("FOR4", payload)
}

// binaryScene builds a minimal Maya binary container with file references.
func binaryScene(refs ...string) []byte {
	var children [][]byte
	for _, ref := range refs {
		children = append(children, chunk32("FREF", append([]byte(ref), 0)))
	}
	return group32("Maya", group32("FREF", children...))
}

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t)
}

func TestFiles_Ascii(t *testing.T) {
	dir := t.TempDir()

	tex := filepath.Join(dir, "textures", "wood.png")
	scene := writeScene(t, filepath.Join(dir, "scene.ma"), fmt.Sprintf(`//Maya ASCII 2024 scene
file -r "%s/subscene.ma";
setAttr ".ftn" -type "string" "%s";
`, filepath.ToSlash(dir), filepath.ToSlash(tex)))

	res := Files([]string{scene}, Options{}, testLogger(t))

	if len(res.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", res.Errors)
	}
	deps, ok := res.Deps[scene]
	if !ok {
		t.Fatalf("No result for %s, have %v", scene, res.Deps)
	}
	want := []string{
		common.CleanPath(filepath.Join(dir, "subscene.ma")),
		common.CleanPath(tex),
	}
	slices.Sort(want)
	got := append([]string(nil), deps...)
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Errorf("Deps = %v, want %v", deps, want)
	}
}

func TestFiles_DedupAndSelfReference(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "scene.ma")
	scene := writeScene(t, path, fmt.Sprintf(`//Maya ASCII 2024 scene
file -r "%[1]s/other.ma";
file -rdi 1 -ns "other" "%[1]s/other.ma";
file -r "%[1]s/scene.ma";
`, filepath.ToSlash(dir)))

	res := Files([]string{scene}, Options{}, testLogger(t))

	deps := res.Deps[scene]
	want := []string{common.CleanPath(filepath.Join(dir, "other.ma"))}
	if !slices.Equal(deps, want) {
		t.Errorf("Deps = %v, want %v (deduplicated, no self-reference)", deps, want)
	}
}

func TestFiles_NaturalOrder(t *testing.T) {
	dir := t.TempDir()

	scene := writeScene(t, filepath.Join(dir, "scene.ma"), `//Maya ASCII 2024 scene
setAttr ".ftn" -type "string" "/assets/tex10.png";
setAttr ".ftn" -type "string" "/assets/tex2.png";
setAttr ".ftn" -type "string" "/assets/tex1.png";
`)

	res := Files([]string{scene}, Options{}, testLogger(t))

	want := []string{"/assets/tex1.png", "/assets/tex2.png", "/assets/tex10.png"}
	if !slices.Equal(res.Deps[scene], want) {
		t.Errorf("Deps = %v, want %v (natural order)", res.Deps[scene], want)
	}
}

func TestFiles_Binary(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "scene.mb")
	if err := os.WriteFile(path, binaryScene("/assets/rig.ma", "/assets/rig.ma", "/assets/env.mb"), 0644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	scene := common.CleanPath(path)

	res := Files([]string{scene}, Options{}, testLogger(t))

	if len(res.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", res.Errors)
	}
	want := []string{"/assets/env.mb", "/assets/rig.ma"}
	if !slices.Equal(res.Deps[scene], want) {
		t.Errorf("Deps = %v, want %v", res.Deps[scene], want)
	}
}

func TestFiles_PartialSuccess(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "broken.mb")
	if err := os.WriteFile(bad, []byte("JUNKJUNKJUNK"), 0644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	bad = common.CleanPath(bad)

	good := writeScene(t, filepath.Join(dir, "good.ma"), `//Maya ASCII 2024 scene
setAttr ".ftn" -type "string" "/assets/tex.png";
`)
	missing := common.CleanPath(filepath.Join(dir, "missing.ma"))

	res := Files([]string{bad, good, missing}, Options{}, testLogger(t))

	if len(res.Deps) != 1 {
		t.Errorf("Deps = %v, want single entry for good file", res.Deps)
	}
	if !slices.Equal(res.Deps[good], []string{"/assets/tex.png"}) {
		t.Errorf("Deps[%s] = %v", good, res.Deps[good])
	}
	if _, ok := res.Errors[bad]; !ok {
		t.Errorf("Expected error for malformed file %s", bad)
	}
	if _, ok := res.Errors[missing]; !ok {
		t.Errorf("Expected error for missing file %s", missing)
	}
}

func TestFiles_CorruptChunkLength(t *testing.T) {
	dir := t.TempDir()

	// valid FOR8 container whose inner chunk declares an all-ones size,
	// which wraps to a negative payload length
	var evil []byte
	evil = append(evil, "FOR8"...)
	evil = append(evil, 0, 0, 0, 0)
	evil = binary.BigEndian.AppendUint64(evil, 24)
	evil = append(evil, "Maya"...)
	evil = append(evil, 0, 0, 0, 0)
	evil = append(evil, "FREF"...)
	evil = append(evil, 0, 0, 0, 0)
	evil = binary.BigEndian.AppendUint64(evil, ^uint64(0))

	bad := filepath.Join(dir, "corrupt.mb")
	if err := os.WriteFile(bad, evil, 0644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	bad = common.CleanPath(bad)

	good := writeScene(t, filepath.Join(dir, "good.ma"), `//Maya ASCII 2024 scene
setAttr ".ftn" -type "string" "/assets/tex.png";
`)

	res := Files([]string{bad, good}, Options{}, testLogger(t))

	if _, ok := res.Errors[bad]; !ok {
		t.Errorf("Expected error for corrupt container %s, have %v", bad, res.Errors)
	}
	if !slices.Equal(res.Deps[good], []string{"/assets/tex.png"}) {
		t.Errorf("Deps[%s] = %v, corrupt sibling must not affect it", good, res.Deps[good])
	}
}

func TestFiles_Recursive(t *testing.T) {
	dir := t.TempDir()
	slash := filepath.ToSlash(dir)

	a := writeScene(t, filepath.Join(dir, "a.ma"), fmt.Sprintf(`//Maya ASCII 2024 scene
file -r "%s/b.ma";
setAttr ".ftn" -type "string" "/assets/tex.png";
`, slash))
	b := writeScene(t, filepath.Join(dir, "b.ma"), fmt.Sprintf(`//Maya ASCII 2024 scene
file -r "%s/a.ma";
setAttr ".ftn" -type "string" "/assets/other.png";
`, slash))

	t.Run("recursion with cycle", func(t *testing.T) {
		res := Files([]string{a}, Options{Recursive: true}, testLogger(t))

		if len(res.Errors) != 0 {
			t.Fatalf("Errors = %v, want none", res.Errors)
		}
		if _, ok := res.Deps[a]; !ok {
			t.Errorf("Missing result for %s", a)
		}
		if _, ok := res.Deps[b]; !ok {
			t.Errorf("Missing result for referenced scene %s", b)
		}
		// textures are leaves, only the two scenes are resolved
		if len(res.Deps) != 2 {
			t.Errorf("Deps has %d entries, want 2: %v", len(res.Deps), res.Deps)
		}
	})

	t.Run("no recursion by default", func(t *testing.T) {
		res := Files([]string{a}, Options{}, testLogger(t))

		if len(res.Deps) != 1 {
			t.Errorf("Deps has %d entries, want 1: %v", len(res.Deps), res.Deps)
		}
	})
}

func TestFiles_UnknownExtension(t *testing.T) {
	dir := t.TempDir()

	t.Run("sniffed text scene", func(t *testing.T) {
		scene := writeScene(t, filepath.Join(dir, "scene.txt"), `//Maya ASCII 2024 scene
setAttr ".ftn" -type "string" "/assets/tex.png";
`)
		res := Files([]string{scene}, Options{}, testLogger(t))
		if !slices.Equal(res.Deps[scene], []string{"/assets/tex.png"}) {
			t.Errorf("Deps = %v, want texture path", res.Deps[scene])
		}
	})

	t.Run("not a scene", func(t *testing.T) {
		other := writeScene(t, filepath.Join(dir, "notes.txt"), "just some text\n")
		res := Files([]string{other}, Options{}, testLogger(t))
		if _, ok := res.Errors[other]; !ok {
			t.Errorf("Expected error for non-scene file, got %v", res.Deps)
		}
	})
}

func TestSelectKind_TextSizeLimit(t *testing.T) {
	dir := t.TempDir()

	// binary content behind a text extension
	path := filepath.Join(dir, "mislabeled.ma")
	data := binaryScene("/assets/rig.ma")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	scene := common.CleanPath(path)

	t.Run("limit disabled trusts extension", func(t *testing.T) {
		res := Files([]string{scene}, Options{}, testLogger(t))
		// parsed as text, no statements recognized, empty dependency list
		if deps, ok := res.Deps[scene]; !ok || len(deps) != 0 {
			t.Errorf("Deps = %v, Errors = %v, want empty success", res.Deps, res.Errors)
		}
	})

	t.Run("oversized text scene is sniffed", func(t *testing.T) {
		res := Files([]string{scene}, Options{TextSizeLimit: 1}, testLogger(t))
		if !slices.Equal(res.Deps[scene], []string{"/assets/rig.ma"}) {
			t.Errorf("Deps = %v, want binary decode result", res.Deps[scene])
		}
	})
}

func TestNormalize(t *testing.T) {
	got := normalize([]string{
		`C:\assets\tex.png`,
		"/scenes/self.ma",
		"/assets//shared/env.mb",
		"C:/assets/tex.png",
		"",
	}, "/scenes/self.ma")

	want := []string{"/assets/shared/env.mb", "C:/assets/tex.png"}
	if !slices.Equal(got, want) {
		t.Errorf("normalize() = %v, want %v", got, want)
	}
}
