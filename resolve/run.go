package resolve

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mayadep/archive"
	"mayadep/common"
	"mayadep/maya"
	"mayadep/state"
)

// Run implements the deps subcommand: expand inputs into scene files,
// resolve their dependencies and write the report.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("resolve")

	if cmd.Args().Len() == 0 {
		return errors.New("no input files have been specified")
	}

	opts := Options{
		Recursive:     env.Recursive || env.Cfg.Parser.Recursive,
		TextSizeLimit: env.Cfg.Parser.TextSizeLimit,
	}
	followArchives := env.FollowArchives || env.Cfg.Parser.FollowArchives

	log.Info("Processing starting", zap.Strings("inputs", cmd.Args().Slice()), zap.Bool("recursive", opts.Recursive))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	var (
		files    []string
		archives []string
	)
	res := newResult()

	for _, src := range cmd.Args().Slice() {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := common.CleanPath(os.ExpandEnv(src))

		fi, err := os.Stat(path)
		if err != nil {
			log.Warn("Unable to access input", zap.String("input", src), zap.Error(err))
			res.Errors[path] = fmt.Errorf("input is not accessible: %w", err)
			continue
		}

		if fi.Mode().IsDir() {
			f, a, err := expandDir(ctx, path, followArchives, log)
			if err != nil {
				return err
			}
			files, archives = append(files, f...), append(archives, a...)
			continue
		}
		if !fi.Mode().IsRegular() {
			res.Errors[path] = fmt.Errorf("not a regular file: %s", path)
			continue
		}

		if followArchives {
			isArc, err := isArchiveFile(path)
			if err != nil {
				log.Warn("Unable to check input type", zap.String("input", src), zap.Error(err))
				res.Errors[path] = err
				continue
			}
			if isArc {
				archives = append(archives, path)
				continue
			}
		}
		files = append(files, path)
	}

	batch := Files(files, opts, log)
	for k, v := range batch.Deps {
		res.Deps[k] = v
	}
	for k, v := range batch.Errors {
		res.Errors[k] = v
	}

	for _, arc := range archives {
		if err := resolveArchive(ctx, arc, res, log); err != nil {
			log.Warn("Unable to process archive", zap.String("archive", arc), zap.Error(err))
			res.Errors[arc] = err
		}
	}

	if len(res.Deps) == 0 && len(res.Errors) != 0 {
		report(res, env, log)
		return errors.New("no scene file could be resolved")
	}
	return report(res, env, log)
}

// expandDir walks the directory tree collecting scene files by extension
// and, when requested, zip archives by content signature.
func expandDir(ctx context.Context, dir string, followArchives bool, log *zap.Logger) (files, archives []string, err error) {
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		if common.KindForExt(filepath.Ext(path)) != common.SceneKindUnknown {
			files = append(files, common.CleanPath(path))
			return nil
		}

		if followArchives {
			isArc, err := isArchiveFile(path)
			if err != nil {
				log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
				return nil
			}
			if isArc {
				archives = append(archives, common.CleanPath(path))
			}
		}
		return nil
	})
	return files, archives, err
}

// resolveArchive resolves scene files stored inside a zip archive without
// extracting them. Result keys are "<archive>!<entry>". Entries are decoded
// from memory, recursion does not apply inside archives.
func resolveArchive(ctx context.Context, path string, res *Result, log *zap.Logger) error {
	count := 0
	defer func() {
		if count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	return archive.Walk(path, archive.MatchExtensions(common.SceneKindAscii.Ext(), common.SceneKindBinary.Ext()),
		func(arc string, f *zip.File) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			count++
			key := arc + "!" + f.FileHeader.Name

			r, err := f.Open()
			if err != nil {
				res.Errors[key] = err
				return nil
			}
			data, err := io.ReadAll(r)
			r.Close()
			if err != nil {
				res.Errors[key] = err
				return nil
			}

			raw, err := maya.Decode(bytes.NewReader(data), common.KindForExt(filepath.Ext(f.FileHeader.Name)), log)
			if err != nil {
				log.Warn("Unable to resolve scene file in archive",
					zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
				res.Errors[key] = err
				return nil
			}
			res.Deps[key] = normalize(raw, "")
			return nil
		})
}

// report writes the result to the requested destination, as text or JSON,
// and stores the JSON form in the debug report when one was requested.
func report(res *Result, env *state.LocalEnv, log *zap.Logger) error {

	data, err := json.MarshalIndent(jsonResult(res), "", "  ")
	if err != nil {
		return fmt.Errorf("unable to serialize result: %w", err)
	}
	env.Rpt.StoreData("deps.json", data)

	out := []byte(formatText(res))
	if env.JSONOutput {
		out = append(data, '\n')
	}

	if len(env.OutputPath) == 0 {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(env.OutputPath, out, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	log.Info("Result written", zap.String("file", env.OutputPath))
	return nil
}

type resultJSON struct {
	Deps   map[string][]string `json:"result"`
	Errors map[string]string   `json:"errors,omitempty"`
}

func jsonResult(res *Result) resultJSON {
	out := resultJSON{Deps: res.Deps, Errors: make(map[string]string)}
	for k, v := range res.Errors {
		out.Errors[k] = v.Error()
	}
	return out
}

func formatText(res *Result) string {

	keys := make([]string, 0, len(res.Deps)+len(res.Errors))
	for k := range res.Deps {
		keys = append(keys, k)
	}
	for k := range res.Errors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return natural.Less(keys[i], keys[j]) })

	var sb strings.Builder
	for _, k := range keys {
		if err, failed := res.Errors[k]; failed {
			fmt.Fprintf(&sb, "%s: ERROR: %s\n", k, err)
			continue
		}
		fmt.Fprintf(&sb, "%s:\n", k)
		for _, dep := range res.Deps[k] {
			fmt.Fprintf(&sb, "\t%s\n", dep)
		}
	}
	return sb.String()
}

// isArchiveFile checks file content signature, extension is not trusted.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}

	t, err := filetype.Match(head[:n])
	if err != nil {
		return false, err
	}
	return t == matchers.TypeZip, nil
}
