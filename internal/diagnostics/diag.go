package diagnostics

import (
	"errors"
	"fmt"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Kind classifies every failure the tool can report.
type Kind string

const (
	Validation        Kind = "validation"
	DimensionMismatch Kind = "dimension_mismatch"
	IOFailure         Kind = "io"
	Skippable         Kind = "skippable"
)

// Diagnostic is the JSON record pushed to diagnostic clients.
type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Error is a classified failure. Op names the step that failed and Path the
// file or directory involved, when there is one.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s %s", e.Op, e.Path)
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Op
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Validationf reports a bad argument before any I/O happens.
func Validationf(format string, args ...any) error {
	return &Error{Kind: Validation, Err: fmt.Errorf(format, args...)}
}

// IO wraps a filesystem or codec failure.
func IO(op, path string, err error) error {
	return &Error{Kind: IOFailure, Op: op, Path: path, Err: err}
}

// Mismatch reports images of one mask set that disagree on size.
func Mismatch(path string, err error) error {
	return &Error{Kind: DimensionMismatch, Op: "mask", Path: path, Err: err}
}

// Skip reports a single unit of work that was dropped without aborting the run.
func Skip(op string, err error) error {
	return &Error{Kind: Skippable, Op: op, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain, or ""
// when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsSkippable(err error) bool { return KindOf(err) == Skippable }

// FromError turns an error into a diagnostic record.
func FromError(err error) Diagnostic {
	d := Diagnostic{Severity: Err, Code: "ERROR", Summary: err.Error()}
	var e *Error
	if !errors.As(err, &e) {
		return d
	}
	switch e.Kind {
	case Validation:
		d.Code = "ARGS.INVALID"
		d.SuggestedFixes = []string{"weights and scale must be inside their documented ranges"}
	case DimensionMismatch:
		d.Code = "MASK.DIMENSIONS"
		d.LikelyCauses = []string{"r.png, g.png and b.png were exported at different sizes"}
	case IOFailure:
		d.Code = "IO.FAILED"
		d.LikelyCauses = []string{"missing file", "unwritable directory", "corrupt PNG"}
	case Skippable:
		d.Severity = Warn
		d.Code = "OUTPUT.SKIPPED"
	}
	if e.Path != "" {
		d.Evidence = map[string]any{"path": e.Path}
	}
	return d
}
