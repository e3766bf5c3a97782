package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/steveyegge/redline/internal/importer"
	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/validation"
)

// Exit codes. Import distinguishes a rejected snapshot from a failed write.
const (
	exitOK          = 0
	exitFailure     = 1
	exitPersistence = 2
)

// hintError carries an actionable suggestion alongside the error.
type hintError struct {
	err  error
	hint string
}

func (e *hintError) Error() string { return e.err.Error() }
func (e *hintError) Unwrap() error { return e.err }

func withHint(err error, hint string) error {
	return &hintError{err: err, hint: hint}
}

// formError reports every invalid field of a submitted form.
type formError struct {
	kind   string
	fields validation.FieldErrors
}

func (e *formError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.kind, e.fields.Error())
}

// checkForm returns a formError when fields is non-empty.
func checkForm(kind string, fields validation.FieldErrors) error {
	if len(fields) == 0 {
		return nil
	}
	return &formError{kind: kind, fields: fields}
}

// silentError sets the exit code for a failure the command already
// reported on its own.
type silentError struct {
	code int
}

func (e *silentError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	var silent *silentError
	var persist *importer.PersistenceError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &silent):
		return silent.code
	case errors.As(err, &persist):
		return exitPersistence
	default:
		return exitFailure
	}
}

// errorCode is the machine-readable code in JSON error output.
func errorCode(err error) string {
	var vErr *importer.ValidationError
	var pErr *importer.PersistenceError
	var fErr *formError
	switch {
	case errors.As(err, &vErr):
		return "invalid_snapshot"
	case errors.As(err, &pErr):
		return "import_failed"
	case errors.As(err, &fErr):
		return "invalid_form"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, storage.ErrConflict):
		return "conflict"
	case errors.Is(err, storage.ErrInUse):
		return "in_use"
	}
	return ""
}

// reportError writes err to stderr, as JSON when --json is set, and
// returns the exit code.
func (a *app) reportError(err error) int {
	code := exitCode(err)
	var silent *silentError
	if errors.As(err, &silent) {
		return code
	}

	var hint string
	var hErr *hintError
	if errors.As(err, &hErr) {
		hint = hErr.hint
	}
	var fields validation.FieldErrors
	var fErr *formError
	if errors.As(err, &fErr) {
		fields = fErr.fields
	}

	if a.jsonOutput {
		obj := map[string]any{"error": err.Error()}
		if c := errorCode(err); c != "" {
			obj["code"] = c
		}
		if hint != "" {
			obj["hint"] = hint
		}
		if len(fields) > 0 {
			obj["fields"] = fields
		}
		writeJSON(a.stderr, obj)
		return code
	}

	if fErr != nil {
		fmt.Fprintf(a.stderr, "Error: invalid %s\n", fErr.kind)
		writeFieldErrors(a.stderr, fields)
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	if hint != "" {
		fmt.Fprintf(a.stderr, "Hint: %s\n", hint)
	}
	return code
}

func writeFieldErrors(w io.Writer, fields validation.FieldErrors) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
	}
}

// warn writes a warning to stderr unless --quiet is set.
func (a *app) warn(format string, args ...any) {
	if a.quiet {
		return
	}
	fmt.Fprintf(a.stderr, "Warning: "+format+"\n", args...)
}
