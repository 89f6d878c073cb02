// Package taskerrors collects the sentinel errors used across the engine.
//
// Every kind is a distinct value so callers can branch with errors.Is rather
// than string matching; component code wraps a sentinel with fmt.Errorf's
// %w verb to attach context without losing the underlying kind.
package taskerrors

import "errors"

// Document errors: surfaced while loading and parsing the job document.
var (
	ErrYamlParse = errors.New("failed to parse document")
	ErrSchema    = errors.New("document failed schema validation")
	ErrNoData    = errors.New("no data found in document")
)

// Validation errors: surfaced by the validator after a document parses.
var (
	ErrJobValidation  = errors.New("job validation failed")
	ErrHookValidation = errors.New("hook validation failed")
)

// Plugin errors: surfaced by the registry and executor.
var (
	ErrPluginNotFound       = errors.New("plugin not found")
	ErrPluginWrongInterface = errors.New("plugin does not satisfy the plugin contract")
	ErrPluginExecution      = errors.New("plugin execution failed")
	ErrPluginTimeout        = errors.New("plugin execution timed out")
	ErrPluginExternal       = errors.New("external plugin failed to load")
)

// Container errors: surfaced by the container driver.
var (
	ErrContainer     = errors.New("container driver error")
	ErrContainerExec = errors.New("container exited with a non-zero status")
)

// Job errors: surfaced by the job manager.
var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobFailed   = errors.New("job reached error status")
	ErrJobKill     = errors.New("kill signal received")
)

// Hook errors: surfaced by the hook manager.
var (
	ErrHookNotFound = errors.New("hook not found")
)
