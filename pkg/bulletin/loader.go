package bulletin

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// FS is the filesystem capability the loader needs.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

// OSFS reads from the local filesystem.
type OSFS struct{}

func (OSFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (OSFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

// LoadOptions tunes a single Load call.
type LoadOptions struct {
	// CompositionOverride selects the composition explicitly instead of
	// inferring it from the document.
	CompositionOverride string
}

// Loader guards, reads, parses and validates bulletin data files relative to
// Root. Zero-valued fields fall back to the OS filesystem, the failsafe
// parser, the default registry and the shared cache.
type Loader struct {
	Root     string
	FS       FS
	Parser   Parser
	Registry *Registry
	Cache    *Cache
	Logger   *slog.Logger
}

// NewLoader returns a loader rooted at root with default collaborators.
func NewLoader(root string) *Loader {
	return &Loader{Root: root}
}

// Load reads relativePath under the loader root and returns validated data
// together with the selected composition id and the absolute source path.
func (l *Loader) Load(relativePath string, opts LoadOptions) (LoadedConfig, error) {
	if err := ValidatePath(relativePath); err != nil {
		return LoadedConfig{}, err
	}

	absPath, err := l.absolute(relativePath)
	if err != nil {
		return LoadedConfig{}, err
	}

	if entry, ok := l.cache().get(relativePath); ok {
		id := entry.compositionID
		if opts.CompositionOverride != "" {
			id = opts.CompositionOverride
			if err := l.registry().Validate(entry.doc, id); err != nil {
				return LoadedConfig{}, err
			}
		}
		l.logger().Debug("bulletin cache hit", "path", relativePath, "composition", id)
		return LoadedConfig{Data: entry.data, CompositionID: id, SourcePath: absPath}, nil
	}

	info, err := l.fs().Stat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LoadedConfig{}, &FileNotFoundError{Path: absPath}
		}
		return LoadedConfig{}, &FileReadError{Path: absPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return LoadedConfig{}, &NotAFileError{Path: absPath}
	}

	raw, err := l.fs().ReadFile(absPath)
	if err != nil {
		return LoadedConfig{}, &FileReadError{Path: absPath, Err: err}
	}
	if !utf8.Valid(raw) {
		return LoadedConfig{}, &FileReadError{Path: absPath, Err: errors.New("file is not valid UTF-8 text")}
	}

	doc, data, inferred, err := l.decode(raw, absPath, opts.CompositionOverride)
	if err != nil {
		return LoadedConfig{}, err
	}
	l.cache().put(relativePath, doc, data, inferred)

	id := inferred
	if opts.CompositionOverride != "" {
		id = opts.CompositionOverride
	}
	l.logger().Debug("bulletin loaded", "path", absPath, "composition", id,
		"highlights", len(data.Highlights), "minor_items", len(data.MinorItems))
	return LoadedConfig{Data: data, CompositionID: id, SourcePath: absPath}, nil
}

// LoadInline validates text that was supplied in memory, for example data
// embedded in the binary. Results are cached under logicalPath, so a second
// call with the same key does not parse again.
func (l *Loader) LoadInline(logicalPath, text string) (Data, error) {
	if err := ValidatePath(logicalPath); err != nil {
		return Data{}, err
	}
	if entry, ok := l.cache().get(logicalPath); ok {
		return entry.data, nil
	}
	if !utf8.ValidString(text) {
		return Data{}, &FileReadError{Path: logicalPath, Err: errors.New("text is not valid UTF-8")}
	}

	doc, data, inferred, err := l.decode([]byte(text), logicalPath, "")
	if err != nil {
		return Data{}, err
	}
	l.cache().put(logicalPath, doc, data, inferred)
	return data, nil
}

// decode parses and validates raw text. It returns the parsed tree, the
// typed data and the inferred composition id; validation runs against the
// override when one is given.
func (l *Loader) decode(raw []byte, source, override string) (map[string]any, Data, string, error) {
	parsed, err := l.parser().Parse(raw, source)
	if err != nil {
		var parseErr *YamlParseError
		if errors.As(err, &parseErr) {
			return nil, Data{}, "", err
		}
		return nil, Data{}, "", &YamlParseError{Source: source, Err: err}
	}

	doc, ok := parsed.(map[string]any)
	if !ok || doc == nil {
		return nil, Data{}, "", &InvalidDataTypeError{Source: source, Got: describe(parsed)}
	}

	registry := l.registry()
	inferred := registry.Infer(doc)
	id := inferred
	if override != "" {
		id = override
	}
	if err := registry.Validate(doc, id); err != nil {
		return nil, Data{}, "", err
	}
	data, err := Decode(doc)
	if err != nil {
		return nil, Data{}, "", err
	}
	return doc, data, inferred, nil
}

func (l *Loader) absolute(relativePath string) (string, error) {
	root := l.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(relativePath)))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", relativePath, err)
	}
	return abs, nil
}

func (l *Loader) fs() FS {
	if l.FS == nil {
		return OSFS{}
	}
	return l.FS
}

func (l *Loader) parser() Parser {
	if l.Parser == nil {
		return FailsafeParser{}
	}
	return l.Parser
}

func (l *Loader) registry() *Registry {
	if l.Registry == nil {
		return defaultRegistry
	}
	return l.Registry
}

func (l *Loader) cache() *Cache {
	if l.Cache == nil {
		return sharedCache
	}
	return l.Cache
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}
