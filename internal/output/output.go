package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mark3labs/refitgen/internal/emitter/refit"
)

// ErrExists is returned when a destination holds a file that was not produced
// by refitgen and overwriting was not requested.
var ErrExists = errors.New("output: destination exists")

// PlannedFile describes one file Write would place on disk.
type PlannedFile struct {
	Path    string // absolute destination
	RelPath string // artifact name
	Size    int
	Mode    os.FileMode
	Exists  bool
}

// Options controls how artifacts are placed.
type Options struct {
	// Force overwrites destinations that were not generated by refitgen.
	Force  bool
	Logger zerolog.Logger
}

// Option mutates Options.
type Option func(*Options)

func WithForce(force bool) Option             { return func(o *Options) { o.Force = force } }
func WithLogger(logger zerolog.Logger) Option { return func(o *Options) { o.Logger = logger } }

func newOptions(opts []Option) Options {
	o := Options{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Destinations maps artifacts to absolute paths under target. A target ending
// in ".cs" names the file for a lone artifact; anything else is a directory.
func Destinations(target string, artifacts []refit.Artifact) ([]string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		target = "."
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	if strings.EqualFold(filepath.Ext(abs), ".cs") {
		if len(artifacts) != 1 {
			return nil, fmt.Errorf("output %q names a file but %d artifacts were produced", target, len(artifacts))
		}
		return []string{abs}, nil
	}
	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if a.Name != filepath.Base(a.Name) || a.Name == "." || a.Name == ".." {
			return nil, fmt.Errorf("artifact name %q is not a plain file name", a.Name)
		}
		paths = append(paths, filepath.Join(abs, a.Name))
	}
	return paths, nil
}

// Plan reports what Write would do without touching the file system.
func Plan(target string, artifacts []refit.Artifact, opts ...Option) ([]PlannedFile, error) {
	o := newOptions(opts)
	paths, err := Destinations(target, artifacts)
	if err != nil {
		return nil, err
	}
	planned := make([]PlannedFile, 0, len(artifacts))
	for i, a := range artifacts {
		exists, err := checkDestination(paths[i], o.Force)
		if err != nil {
			return nil, err
		}
		planned = append(planned, PlannedFile{
			Path:    paths[i],
			RelPath: a.Name,
			Size:    len(a.Content),
			Mode:    0o644,
			Exists:  exists,
		})
	}
	return planned, nil
}

// rename is replaced in tests to simulate a failing filesystem.
var rename = os.Rename

// Write stages every artifact next to its destination and renames the staged
// files into place only after all of them were written. Existing files are
// moved aside first; if any rename fails every destination is restored to
// its previous content and staged files are removed.
func Write(target string, artifacts []refit.Artifact, opts ...Option) ([]PlannedFile, error) {
	o := newOptions(opts)
	planned, err := Plan(target, artifacts, opts...)
	if err != nil {
		return nil, err
	}

	staged := make([]string, 0, len(planned))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}
	for i, p := range planned {
		dir := filepath.Dir(p.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			cleanup()
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
		tmp, err := stage(dir, p.RelPath, artifacts[i].Content)
		if err != nil {
			cleanup()
			return nil, err
		}
		staged = append(staged, tmp)
	}

	if err := commit(planned, staged); err != nil {
		cleanup()
		return nil, err
	}
	for _, p := range planned {
		o.Logger.Debug().Str("path", p.Path).Int("bytes", p.Size).Msg("wrote artifact")
	}
	return planned, nil
}

// commit renames staged files over their destinations as one unit.
func commit(planned []PlannedFile, staged []string) error {
	backups := make([]string, len(planned))
	placed := 0
	rollback := func() {
		for i := placed - 1; i >= 0; i-- {
			if backups[i] == "" {
				_ = os.Remove(planned[i].Path)
			}
		}
		for i, bak := range backups {
			if bak != "" {
				_ = rename(bak, planned[i].Path)
			}
		}
	}

	for i, p := range planned {
		if p.Exists {
			bak := staged[i] + ".bak"
			if err := rename(p.Path, bak); err != nil {
				rollback()
				return fmt.Errorf("back up %s: %w", p.RelPath, err)
			}
			backups[i] = bak
		}
		if err := rename(staged[i], p.Path); err != nil {
			rollback()
			return fmt.Errorf("rename %s: %w", p.RelPath, err)
		}
		placed = i + 1
	}
	for _, bak := range backups {
		if bak != "" {
			_ = os.Remove(bak)
		}
	}
	return nil
}

func stage(dir, name, content string) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("write temp %s: %w", name, err)
	}
	tmp := f.Name()
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write temp %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write temp %s: %w", name, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("chmod temp %s: %w", name, err)
	}
	return tmp, nil
}

// checkDestination reports whether path exists. Previously generated files
// are always replaceable; other regular files need force.
func checkDestination(path string, force bool) (bool, error) {
	st, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return true, fmt.Errorf("output path %q is a directory", path)
	}
	if force || generated(path) {
		return true, nil
	}
	return true, fmt.Errorf("%w: %q was not generated by refitgen (use --force to overwrite)", ErrExists, path)
}

func generated(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, len(refit.AutoGeneratedHeader))
	n, _ := io.ReadFull(f, buf)
	return string(buf[:n]) == refit.AutoGeneratedHeader
}
