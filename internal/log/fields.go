// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldJobID     = "job_id"
	FieldRequestID = "request_id"
	FieldScene     = "scene"
	FieldClipID    = "clip_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStage     = "stage"
	FieldStatus    = "status"
	FieldAttempt   = "attempt"
	FieldProgress  = "progress"

	// Media fields
	FieldDurationMS = "duration_ms"
	FieldKeyword    = "keyword"
	FieldProvider   = "provider"
	FieldTone       = "tone"
	FieldTopic      = "topic"

	// Path fields
	FieldPath       = "path"
	FieldOutputPath = "output_path"

	// Error fields
	FieldErrorType = "error_type"
	FieldReason    = "reason"
)
