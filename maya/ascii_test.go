package maya

import (
	"strings"
	"testing"
)

func parseAscii(t *testing.T, text string) *AsciiParser {
	t.Helper()
	p := NewAsciiParser(nil)
	if err := p.Parse(strings.NewReader(text)); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestAsciiParser_SetAttrFileTexture(t *testing.T) {
	p := parseAscii(t, `setAttr ".ftn" -type "string" "textures/wood.png";`+"\n")
	got := p.DependencyPaths()
	if len(got) != 1 || got[0] != "textures/wood.png" {
		t.Errorf("DependencyPaths() = %v, want [textures/wood.png]", got)
	}
}

func TestAsciiParser_FileReference(t *testing.T) {
	p := parseAscii(t, `file -r -ns "char" "assets/char.ma";`+"\n")
	got := p.DependencyPaths()
	if len(got) != 1 || got[0] != "assets/char.ma" {
		t.Errorf("DependencyPaths() = %v, want [assets/char.ma]", got)
	}
}

func TestAsciiParser_FileFlagGrammar(t *testing.T) {
	cases := []struct {
		name string
		stmt string
		want string
	}{
		{"reference node flag", `file -rdi 1 -ns "env" -rfn "envRN" -typ "mayaAscii" "scenes/env.ma";`, "scenes/env.ma"},
		{"defer reference", `file -r -dr 1 "scenes/props.mb";`, "scenes/props.mb"},
		{"operation flag", `file -op "v=0;" -r "scenes/rig.ma";`, "scenes/rig.ma"},
		{"bare path", `file "scenes/plain.ma";`, "scenes/plain.ma"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := parseAscii(t, tc.stmt+"\n")
			got := p.DependencyPaths()
			if len(got) != 1 || got[0] != tc.want {
				t.Errorf("DependencyPaths() = %v, want [%s]", got, tc.want)
			}
		})
	}
}

func TestAsciiParser_EscapedQuote(t *testing.T) {
	var tokens []string
	p := NewAsciiParser(nil)
	p.handlers["probe"] = func(args []string) { tokens = args }
	if err := p.Parse(strings.NewReader(`probe "a \"quoted\" path.ma";` + "\n")); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("tokens = %v, want a single token", tokens)
	}
	if tokens[0] != `a \"quoted\" path.ma` {
		t.Errorf("token = %q, want verbatim quoted content", tokens[0])
	}
}

func TestAsciiParser_MultiLineStatement(t *testing.T) {
	text := "file -r\n" +
		"\t-ns \"char\"\n" +
		"\t\"assets/char.ma\";\n"
	p := parseAscii(t, text)
	got := p.DependencyPaths()
	if len(got) != 1 || got[0] != "assets/char.ma" {
		t.Errorf("DependencyPaths() = %v, want [assets/char.ma]", got)
	}
}

func TestAsciiParser_CommentsAndUnknownCommands(t *testing.T) {
	text := "//Maya ASCII 2020 scene\n" +
		"//Name: shot.ma\n" +
		"requires maya \"2020\";\n" +
		"currentUnit -l centimeter -a degree -t film;\n" +
		"createNode transform -n \"group1\";\n" +
		`file -r "assets/ref.ma";` + "\n"
	p := parseAscii(t, text)
	got := p.DependencyPaths()
	if len(got) != 1 || got[0] != "assets/ref.ma" {
		t.Errorf("DependencyPaths() = %v, want [assets/ref.ma]", got)
	}
}

func TestAsciiParser_Dedup(t *testing.T) {
	text := `file -r "assets/ref.ma";` + "\n" +
		`file -r "assets/ref.ma";` + "\n" +
		`setAttr ".ftn" -type "string" "tex/wood.png";` + "\n" +
		`setAttr ".ftn" -type "string" "tex/wood.png";` + "\n"
	p := parseAscii(t, text)
	got := p.DependencyPaths()
	if len(got) != 2 {
		t.Errorf("DependencyPaths() = %v, want two unique paths", got)
	}
}

func TestAsciiParser_SetAttrNonPathAttributes(t *testing.T) {
	text := `setAttr ".v" 0;` + "\n" +
		`setAttr ".fc" -type "string" "not_a_texture";` + "\n" +
		`setAttr ".ftn" 1;` + "\n" // not typed string but defaults to string type and matches
	p := parseAscii(t, text)
	got := p.DependencyPaths()
	// last statement defaults to type "string" so its final token is recorded
	if len(got) != 1 || got[0] != "1" {
		t.Errorf("DependencyPaths() = %v, want [1]", got)
	}
}

func TestAsciiParser_StatementWithoutTerminatorAtEOF(t *testing.T) {
	p := parseAscii(t, `file -r "assets/tail.ma"`)
	// unterminated trailing statement is still assembled
	got := p.DependencyPaths()
	if len(got) != 1 || got[0] != "assets/tail.ma" {
		t.Errorf("DependencyPaths() = %v, want [assets/tail.ma]", got)
	}
}
