package bulletin

import (
	"fmt"
	"strings"
)

// Code identifies the kind of a loader failure.
type Code string

const (
	CodePathTraversal   Code = "PATH_TRAVERSAL_ERROR"
	CodeAbsolutePath    Code = "ABSOLUTE_PATH_ERROR"
	CodeFileNotFound    Code = "FILE_NOT_FOUND"
	CodeNotAFile        Code = "NOT_A_FILE"
	CodeFileRead        Code = "FILE_READ_ERROR"
	CodeYAMLParse       Code = "YAML_PARSE_ERROR"
	CodeInvalidDataType Code = "INVALID_DATA_TYPE"
	CodeValidation      Code = "VALIDATION_ERROR"
)

// Category groups codes the way they are reported to content authors.
func (c Code) Category() string {
	switch c {
	case CodePathTraversal, CodeAbsolutePath:
		return "input"
	case CodeFileNotFound, CodeNotAFile, CodeFileRead:
		return "io"
	case CodeYAMLParse:
		return "parse"
	case CodeInvalidDataType, CodeValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is implemented by every failure the loader returns.
type Error interface {
	error
	Code() Code
}

// PathTraversalError rejects paths with a ".." segment.
type PathTraversalError struct {
	Path string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("invalid path %q: path traversal detected", e.Path)
}

func (e *PathTraversalError) Code() Code { return CodePathTraversal }

// AbsolutePathError rejects absolute paths; data files are project relative.
type AbsolutePathError struct {
	Path string
}

func (e *AbsolutePathError) Error() string {
	return fmt.Sprintf("invalid path %q: absolute paths not allowed", e.Path)
}

func (e *AbsolutePathError) Code() Code { return CodeAbsolutePath }

// FileNotFoundError reports a missing data file.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("data file not found: %s", e.Path)
}

func (e *FileNotFoundError) Code() Code { return CodeFileNotFound }

// NotAFileError reports a path that exists but is not a regular file.
type NotAFileError struct {
	Path string
}

func (e *NotAFileError) Error() string {
	return fmt.Sprintf("path is not a file: %s", e.Path)
}

func (e *NotAFileError) Code() Code { return CodeNotAFile }

// FileReadError wraps the OS error raised while reading a data file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read file %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

func (e *FileReadError) Code() Code { return CodeFileRead }

// YamlParseError wraps a syntax or schema-restriction failure from the parser.
type YamlParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *YamlParseError) Error() string {
	var b strings.Builder
	b.WriteString("YAML parsing failed")
	if e.Source != "" {
		b.WriteString(" (")
		b.WriteString(e.Source)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *YamlParseError) Unwrap() error { return e.Err }

func (e *YamlParseError) Code() Code { return CodeYAMLParse }

// InvalidDataTypeError reports a document whose root is not a mapping.
type InvalidDataTypeError struct {
	Source string
	Got    string
}

func (e *InvalidDataTypeError) Error() string {
	if e.Got == "" {
		return "YAML data must be an object"
	}
	return fmt.Sprintf("YAML data must be an object, got %s", e.Got)
}

func (e *InvalidDataTypeError) Code() Code { return CodeInvalidDataType }

// ValidationError names the first violated data-contract rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	if strings.Contains(e.Message, e.Field) {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Code() Code { return CodeValidation }

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var (
	_ Error = (*PathTraversalError)(nil)
	_ Error = (*AbsolutePathError)(nil)
	_ Error = (*FileNotFoundError)(nil)
	_ Error = (*NotAFileError)(nil)
	_ Error = (*FileReadError)(nil)
	_ Error = (*YamlParseError)(nil)
	_ Error = (*InvalidDataTypeError)(nil)
	_ Error = (*ValidationError)(nil)
)
