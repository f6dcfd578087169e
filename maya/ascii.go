package maya

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"
)

// AsciiParser extracts dependency paths from the text serialization (.ma):
// a stream of ";"-terminated statements in a quasi-shell grammar. Only the
// "file" and "setAttr" statements are interpreted, everything else is
// assembled and dropped.
type AsciiParser struct {
	log      *zap.Logger
	handlers map[string]func(args []string)
	refPaths []string
}

// NewAsciiParser creates a parser logging through log.
func NewAsciiParser(log *zap.Logger) *AsciiParser {
	if log == nil {
		log = zap.NewNop()
	}
	a := &AsciiParser{log: log.Named("maya.ascii")}
	a.handlers = map[string]func([]string){
		"file":    a.handleFile,
		"setAttr": a.handleSetAttr,
	}
	return a
}

// DependencyPaths returns collected dependency paths in first-occurrence
// order without duplicates.
func (a *AsciiParser) DependencyPaths() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, p := range a.refPaths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Parse consumes the whole stream statement by statement.
func (a *AsciiParser) Parse(r io.Reader) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		lines, err := nextStatement(br)
		if len(lines) != 0 {
			a.parseStatement(lines)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if len(lines) == 0 {
			return nil
		}
	}
}

// nextStatement groups physical lines into one logical statement: lines are
// collected until one, stripped of its line ending, ends with the ";"
// terminator (which is dropped). Comment lines are skipped.
func nextStatement(br *bufio.Reader) ([]string, error) {
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if len(line) != 0 && !strings.HasPrefix(line, "//") {
			line = strings.TrimRight(line, "\r\n")
			switch {
			case len(line) != 0 && strings.HasSuffix(line, ";"):
				return append(lines, line[:len(line)-1]), err
			case len(line) != 0:
				lines = append(lines, line)
			}
		}
		if err != nil {
			return lines, err
		}
	}
}

// parseStatement splits off the command name and tokenizes the rest. The
// remainder of the first line goes back into the fragment set as the first
// argument fragment.
func (a *AsciiParser) parseStatement(lines []string) {
	command, rest, _ := strings.Cut(lines[0], " ")
	command = strings.TrimLeft(command, " \t")
	lines[0] = rest

	handler, ok := a.handlers[command]
	if !ok {
		// unrecognized commands are ignored without error
		return
	}
	handler(tokenize(lines))
}

// tokenize produces the statement's ordered argument list. Quoted arguments
// ( ' or " ) become one token with their content taken verbatim; a backslash
// escapes a would-be closing quote. Everything else splits on whitespace.
func tokenize(lines []string) []string {
	var args []string
	for _, line := range lines {
		for {
			line = strings.TrimLeft(line, " \t")
			if len(line) == 0 {
				break
			}

			if line[0] == '"' || line[0] == '\'' {
				delim := line[0]
				escaped := false
				end := len(line)
				for i := 1; i < len(line); i++ {
					switch {
					case !escaped && line[i] == delim:
						end = i
						i = len(line)
					case !escaped && line[i] == '\\':
						escaped = true
					default:
						escaped = false
					}
				}
				args = append(args, line[1:end])
				if end+1 < len(line) {
					line = line[end+1:]
				} else {
					line = ""
				}
				continue
			}

			arg, rest, _ := strings.Cut(line, " ")
			args = append(args, arg)
			line = rest
		}
	}
	return args
}

// handleFile scans leading flags of a "file" statement, skipping the known
// number of tokens per flag; the first non-flag token is the file path.
func (a *AsciiParser) handleFile(args []string) {
	i := 0
scan:
	for i < len(args) {
		switch args[i] {
		case "-r", "--reference":
			i++
		case "-rdi", "--referenceDepthInfo",
			"-ns", "--namespace",
			"-dr", "--deferReference",
			"-rfn", "--referenceNode",
			"-op",
			"-typ":
			i += 2
		default:
			break scan
		}
	}

	if i >= len(args) {
		return
	}
	path := args[i]
	for _, known := range a.refPaths {
		if known == path {
			return
		}
	}
	a.refPaths = append(a.refPaths, path)
}

// handleSetAttr records string values of the file-texture-path attribute.
// Without an explicit -type flag the value defaults to the final token and
// the type to "string".
func (a *AsciiParser) handleSetAttr(args []string) {
	if len(args) == 0 {
		return
	}

	name := args[0]
	if len(name) != 0 && (name[0] == '.' || name[0] == '-') {
		name = name[1:]
	}
	args = args[1:]
	if len(args) == 0 {
		return
	}

	var (
		attrType string
		values   []string
	)
	for i := 1; i < len(args); i++ {
		if args[i] == "-type" || args[i] == "--type" {
			if i+1 < len(args) {
				attrType = args[i+1]
				values = args[i+2:]
			}
			i++
		}
	}

	if len(values) == 0 {
		values = args[len(args)-1:]
	}
	if len(attrType) == 0 {
		attrType = "string"
	}

	if attrType == "string" && attrShortName(name) == fileTextureAttr && len(values) != 0 {
		// real scenes store the path as a single token
		a.refPaths = append(a.refPaths, values[0])
	}
}
