package bulletin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bulletin/pkg/bulletin/examples"
)

const minimalYAML = "version: v1.0.0\nreleaseDate: \"2024-01-15\"\n"

func writeData(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMinimalDocument(t *testing.T) {
	root := t.TempDir()
	path := writeData(t, root, "public/data/minimal.yaml", minimalYAML)

	loader := &Loader{Root: root, Cache: NewCache()}
	cfg, err := loader.Load("public/data/minimal.yaml", LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, CompositionUpdateBulletin, cfg.CompositionID)
	assert.Equal(t, path, cfg.SourcePath)
	assert.True(t, filepath.IsAbs(cfg.SourcePath))
	assert.Equal(t, "v1.0.0", cfg.Data.Version)
	assert.Equal(t, "2024-01-15", cfg.Data.ReleaseDate)
	assert.Empty(t, cfg.Data.Highlights)
	assert.Empty(t, cfg.Data.MinorItems)
}

func TestLoadCompositionOverride(t *testing.T) {
	root := t.TempDir()
	writeData(t, root, "data.yaml", minimalYAML)
	loader := &Loader{Root: root, Cache: NewCache()}

	cfg, err := loader.Load("data.yaml", LoadOptions{CompositionOverride: CompositionReleaseNotesMobile})
	require.NoError(t, err)
	assert.Equal(t, CompositionReleaseNotesMobile, cfg.CompositionID)

	// A cache hit infers the same id a fresh load would.
	cfg, err = loader.Load("data.yaml", LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, CompositionUpdateBulletin, cfg.CompositionID)

	cfg, err = loader.Load("data.yaml", LoadOptions{CompositionOverride: CompositionReleaseNotesMobile})
	require.NoError(t, err)
	assert.Equal(t, CompositionReleaseNotesMobile, cfg.CompositionID)

	_, err = loader.Load("data.yaml", LoadOptions{CompositionOverride: "Nope"})
	vErr := requireValidation(t, err)
	assert.Equal(t, "composition", vErr.Field)

	fresh := &Loader{Root: root, Cache: NewCache()}
	_, err = fresh.Load("data.yaml", LoadOptions{CompositionOverride: "Nope"})
	vErr = requireValidation(t, err)
	assert.Equal(t, "composition", vErr.Field)
}

func TestLoadFailures(t *testing.T) {
	root := t.TempDir()
	writeData(t, root, "list.yaml", "- a\n- b\n")
	writeData(t, root, "empty.yaml", "")
	writeData(t, root, "broken.yaml", "version: [v1\n")
	writeData(t, root, "binary.yaml", "version: \xff\xfe\n")
	writeData(t, root, "invalid.yaml", "version: v1\nreleaseDate: \"2024-01-15\"\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "folder.yaml"), 0o755))

	tests := []struct {
		path     string
		code     Code
		category string
	}{
		{path: "missing.yaml", code: CodeFileNotFound, category: "io"},
		{path: "folder.yaml", code: CodeNotAFile, category: "io"},
		{path: "binary.yaml", code: CodeFileRead, category: "io"},
		{path: "broken.yaml", code: CodeYAMLParse, category: "parse"},
		{path: "list.yaml", code: CodeInvalidDataType, category: "validation"},
		{path: "empty.yaml", code: CodeInvalidDataType, category: "validation"},
		{path: "invalid.yaml", code: CodeValidation, category: "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			loader := &Loader{Root: root, Cache: NewCache()}
			cfg, err := loader.Load(tt.path, LoadOptions{})
			require.Error(t, err)
			assert.Equal(t, LoadedConfig{}, cfg)

			var coded Error
			require.True(t, errors.As(err, &coded), "got %T", err)
			assert.Equal(t, tt.code, coded.Code())
			assert.Equal(t, tt.category, coded.Code().Category())
			assert.Zero(t, loader.Cache.Len())
		})
	}
}

func TestLoadCachesByPath(t *testing.T) {
	root := t.TempDir()
	path := writeData(t, root, "data.yaml", minimalYAML)
	loader := &Loader{Root: root, Cache: NewCache()}

	first, err := loader.Load("data.yaml", LoadOptions{})
	require.NoError(t, err)
	first.Data.Highlights = append(first.Data.Highlights, HighlightItem{Title: "mutated"})

	require.NoError(t, os.Remove(path))

	second, err := loader.Load("data.yaml", LoadOptions{})
	require.NoError(t, err)
	assert.Empty(t, second.Data.Highlights)
	assert.Equal(t, path, second.SourcePath)

	loader.Cache.Reset()
	_, err = loader.Load("data.yaml", LoadOptions{})
	var notFound *FileNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

type countingParser struct {
	calls int
}

func (p *countingParser) Parse(text []byte, source string) (any, error) {
	p.calls++
	return FailsafeParser{}.Parse(text, source)
}

func TestLoadInlineParsesOnce(t *testing.T) {
	parser := &countingParser{}
	spy := &spyFS{inner: OSFS{}}
	loader := &Loader{FS: spy, Parser: parser, Cache: NewCache()}

	first, err := loader.LoadInline("update-bulletin/inline.yaml", minimalYAML)
	require.NoError(t, err)
	second, err := loader.LoadInline("update-bulletin/inline.yaml", minimalYAML)
	require.NoError(t, err)

	assert.Equal(t, 1, parser.calls)
	assert.Equal(t, first, second)
	assert.Zero(t, spy.calls)
}

func TestLoadInlineErrors(t *testing.T) {
	loader := &Loader{Cache: NewCache()}

	_, err := loader.LoadInline("../escape.yaml", minimalYAML)
	var traversal *PathTraversalError
	assert.True(t, errors.As(err, &traversal))

	_, err = loader.LoadInline("inline.yaml", "version: 1.0\n")
	vErr := requireValidation(t, err)
	assert.Equal(t, "version", vErr.Field)
	assert.Zero(t, loader.Cache.Len())
}

func TestSharedCacheReset(t *testing.T) {
	t.Cleanup(ResetCache)
	ResetCache()

	parser := &countingParser{}
	loader := &Loader{Parser: parser}
	_, err := loader.LoadInline("update-bulletin/shared.yaml", minimalYAML)
	require.NoError(t, err)
	_, err = loader.LoadInline("update-bulletin/shared.yaml", minimalYAML)
	require.NoError(t, err)
	assert.Equal(t, 1, parser.calls)

	ResetCache()
	_, err = loader.LoadInline("update-bulletin/shared.yaml", minimalYAML)
	require.NoError(t, err)
	assert.Equal(t, 2, parser.calls)
}

func TestBundledExamplesValidate(t *testing.T) {
	names := examples.Names()
	require.NotEmpty(t, names)

	loader := &Loader{Cache: NewCache()}
	for _, name := range names {
		logical, text, err := examples.Read(name)
		require.NoError(t, err)
		data, err := loader.LoadInline(logical, text)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data.Version)
	}

	_, _, err := examples.Read("does-not-exist")
	assert.Error(t, err)
}
