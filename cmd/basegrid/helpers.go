// Shared helpers for basegrid CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/basegrid/internal/app"
	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// systemError marks failures of the local environment, as opposed to bad
// input.
type systemError struct{ err error }

func (e systemError) Error() string { return e.err.Error() }
func (e systemError) Unwrap() error { return e.err }

func sysErr(err error) error {
	if err == nil {
		return nil
	}
	return systemError{err}
}

// exitCode maps an error to the process exit code. Server 5xx responses,
// unreachable servers, exhausted reconnects and local failures are system
// errors; everything else is the user's to fix.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *types.StatusError
	if errors.As(err, &se) {
		if se.StatusCode >= 500 {
			return exitSysError
		}
		return exitUserError
	}
	var sys systemError
	if errors.As(err, &sys) || errors.Is(err, types.ErrTransport) || errors.Is(err, types.ErrRetriesExhausted) {
		return exitSysError
	}
	return exitUserError
}

// openApp builds the application context from the loaded config and the
// resolved cache directory. The caller must defer Close.
func openApp() (*app.App, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg := appConfig
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, sysErr(err)
	}
	return a, nil
}

// parseAssignments splits key=value arguments.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected key=value)", arg)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("field %q assigned twice", key)
		}
		out[key] = value
	}
	return out, nil
}

// buildQuery turns listing flags into a query. Sort specs name fields by
// key name, display name or id.
func buildQuery(fields []types.Field, search string, sorts []string, page int) (types.Query, error) {
	q := types.Query{Page: page}

	filter, ok := types.SearchFilter(search, fields)
	if !ok {
		return types.Query{}, fmt.Errorf("%w: table has no text fields to search", types.ErrInvalidFilter)
	}
	q.Filter = filter

	for _, spec := range sorts {
		s, err := types.ParseSort(spec)
		if err != nil {
			return types.Query{}, err
		}
		f, ok := types.FieldByKey(fields, s.FieldID)
		if !ok {
			f, ok = types.FieldByID(fields, s.FieldID)
		}
		if !ok {
			return types.Query{}, fmt.Errorf("%w: unknown field %q", types.ErrInvalidSort, s.FieldID)
		}
		s.FieldID = f.ID
		q.Sort = append(q.Sort, s)
	}
	return q, q.Validate()
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
