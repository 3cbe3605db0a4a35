package logging

// Standardized attribute keys shared across components so log lines stay
// greppable regardless of which subsystem emitted them.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldSpecies   = "species"
	FieldProvider  = "provider"
	FieldAttempt   = "attempt"
	FieldDelay     = "delay"
	FieldURL       = "url"
	FieldPath      = "path"
	FieldCount     = "count"
)
