// Package resolve implements dependency resolution over batches of scene
// files: decoder selection, path normalization, deduplication and optional
// recursion into discovered sub-scenes.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"mayadep/common"
	"mayadep/maya"
)

// Options control resolution policy.
type Options struct {
	// Recursive resolves dependencies of discovered sub-scenes as well.
	Recursive bool
	// TextSizeLimit routes text scenes larger than this many bytes through
	// the content probe instead of trusting the extension. Zero disables
	// the override; extension dispatch stays authoritative either way.
	TextSizeLimit int64
}

// Result holds the outcome of one resolution batch: dependency paths per
// input file plus an error slot for every file that failed. Partial success
// is the default mode - one malformed file never aborts the batch.
type Result struct {
	Deps   map[string][]string
	Errors map[string]error
}

func newResult() *Result {
	return &Result{
		Deps:   make(map[string][]string),
		Errors: make(map[string]error),
	}
}

// Files resolves every path in the batch. Each resulting dependency list is
// deduplicated, normalized, free of self-references and naturally ordered.
func Files(paths []string, opts Options, log *zap.Logger) *Result {
	if log == nil {
		log = zap.NewNop()
	}
	res := newResult()
	for _, path := range paths {
		if len(path) == 0 {
			continue
		}
		resolveOne(common.CleanPath(os.ExpandEnv(path)), opts, res, log)
	}
	return res
}

// resolveOne resolves a single normalized path, guarding against cycles by
// never revisiting a path already present as a result key.
func resolveOne(path string, opts Options, res *Result, log *zap.Logger) {
	if _, done := res.Deps[path]; done {
		return
	}
	if _, failed := res.Errors[path]; failed {
		return
	}

	log.Debug("Resolving scene file", zap.String("file", path))

	deps, err := dependencies(path, opts, log)
	if err != nil {
		log.Warn("Unable to resolve scene file", zap.String("file", path), zap.Error(err))
		res.Errors[path] = err
		return
	}
	res.Deps[path] = deps

	if !opts.Recursive {
		return
	}
	for _, dep := range deps {
		// only sub-scenes are resolvable, textures and caches are leaves
		if common.KindForExt(filepath.Ext(dep)) == common.SceneKindUnknown {
			continue
		}
		resolveOne(dep, opts, res, log)
	}
}

// dependencies decodes one scene file and post-processes its raw dependency
// list: CleanPath normalization, set semantics, self-reference exclusion and
// natural ordering for stable output.
func dependencies(path string, opts Options, log *zap.Logger) (deps []string, rerr error) {
	// NOTE: a hostile or damaged container must never take the rest of the
	// batch down with it, so a decoder panic becomes this file's error.
	defer func() {
		if r := recover(); r != nil {
			log.Error("Decoder panic",
				zap.String("file", path), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			deps, rerr = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scene file is not accessible: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}

	kind, err := selectKind(path, fi.Size(), opts)
	if err != nil {
		return nil, err
	}

	raw, err := maya.Dependencies(path, kind, log)
	if err != nil {
		return nil, err
	}
	return normalize(raw, path), nil
}

// normalize post-processes a raw dependency list: CleanPath each entry, drop
// empties, duplicates and references to self, order naturally.
func normalize(raw []string, self string) []string {
	seen := make(map[string]struct{})
	deps := make([]string, 0, len(raw))
	for _, dep := range raw {
		dep = common.CleanPath(dep)
		if len(dep) == 0 || dep == self {
			continue
		}
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool { return natural.Less(deps[i], deps[j]) })
	return deps
}

// selectKind picks the decoder: extension first, content probe for unknown
// extensions and for text files above the configured size limit.
func selectKind(path string, size int64, opts Options) (common.SceneKind, error) {
	kind := common.KindForExt(filepath.Ext(path))

	if kind == common.SceneKindUnknown {
		sniffed, err := maya.SniffKind(path)
		if err != nil {
			return kind, err
		}
		if sniffed == common.SceneKindUnknown {
			return kind, fmt.Errorf("not a recognized Maya scene file (.ma, .mb): %s", path)
		}
		return sniffed, nil
	}

	if kind == common.SceneKindAscii && opts.TextSizeLimit > 0 && size > opts.TextSizeLimit {
		// oversized text scene, double-check the signature before committing
		// to the line oriented decoder
		if sniffed, err := maya.SniffKind(path); err == nil && sniffed != common.SceneKindUnknown {
			return sniffed, nil
		}
	}
	return kind, nil
}
