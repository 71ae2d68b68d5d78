package chemfiles

import "github.com/pkg/errors"

// Error is the generic fallback error kind. The other kinds in this file
// are separate types, not *Error values, so a type switch on *Error
// matches only errors built by NewError.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

// NewError builds a generic Error, wrapping formatting like errors.Errorf.
func NewError(format string, args ...interface{}) error {
	return &Error{errors.Errorf(format, args...).Error()}
}

// FileError is raised by the file substrate: I/O failures, EOF, unreadable
// compression, non-seekable streams.
type FileError struct {
	msg string
}

func (e *FileError) Error() string { return e.msg }

func NewFileError(format string, args ...interface{}) error {
	return &FileError{errors.Errorf(format, args...).Error()}
}

// FormatError is raised by format adapters and the registry: malformed
// files, unsupported operations, unknown extensions.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string { return e.msg }

func NewFormatError(format string, args ...interface{}) error {
	return &FormatError{errors.Errorf(format, args...).Error()}
}

// WrapFormatError adds format-adapter context to a lower-level error,
// e.g. a FileError encountered mid-parse.
func WrapFormatError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &FormatError{errors.Wrapf(err, format, args...).Error()}
}

// MemoryError reports an allocation-sized operation that cannot be
// satisfied. No function in this package returns one; Frame.Resize and
// Topology.Resize return no error.
type MemoryError struct {
	msg string
}

func (e *MemoryError) Error() string { return e.msg }

func NewMemoryError(format string, args ...interface{}) error {
	return &MemoryError{errors.Errorf(format, args...).Error()}
}

// SelectionError is raised by the selection tokenizer/parser/evaluator. It
// carries a byte offset into the selection string when one is known.
type SelectionError struct {
	msg    string
	Offset int
}

func (e *SelectionError) Error() string { return e.msg }

func NewSelectionError(offset int, format string, args ...interface{}) error {
	msg := errors.Errorf(format, args...).Error()
	return &SelectionError{msg: msg, Offset: offset}
}

// ConfigurationError is raised when caller input is structurally invalid:
// a velocity slice or topology override whose size does not match the
// frame, a Property read as the wrong kind, or an atom with no known VdW
// radius during bond guessing. Atom masses and atom indices are not
// validated.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string { return e.msg }

func NewConfigurationError(format string, args ...interface{}) error {
	return &ConfigurationError{errors.Errorf(format, args...).Error()}
}
