// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import (
	"fmt"
	"strings"
)

// ErrorType is a compact, typed failure signal. Keep these stable:
// metrics and client diagnostics depend on them.
type ErrorType string

const (
	ErrOracleFatal        ErrorType = "ORACLE_FATAL"
	ErrParse              ErrorType = "PARSE_ERROR"
	ErrGateReject         ErrorType = "GATE_REJECT"
	ErrAssetShortage      ErrorType = "ASSET_SHORTAGE"
	ErrAssetMissing       ErrorType = "ASSET_MISSING"
	ErrTimingMismatch     ErrorType = "TIMING_MISMATCH"
	ErrCodecFailure       ErrorType = "CODEC_FAILURE"
	ErrResourceExhaustion ErrorType = "RESOURCE_EXHAUSTION"
	ErrAuditNoGo          ErrorType = "AUDIT_NOGO"
	ErrUnknown            ErrorType = "UNKNOWN_ERROR"
)

// StageError carries a pipeline failure across the worker boundary with
// enough structure for job.result diagnostics.
type StageError struct {
	Stage       string
	Type        ErrorType
	Msg         string
	Diagnostics []string
	Err         error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError builds a StageError for the given stage and type.
func NewStageError(stage string, typ ErrorType, msg string) *StageError {
	return &StageError{Stage: stage, Type: typ, Msg: msg}
}

// WrapStageError attaches a cause.
func WrapStageError(stage string, typ ErrorType, msg string, err error) *StageError {
	return &StageError{Stage: stage, Type: typ, Msg: msg, Err: err}
}

// Result is the outcome of a validation gate.
type Result struct {
	Valid  bool     `json:"is_valid"`
	Errors []string `json:"errors,omitempty"`
}

// OK is the passing gate result.
func OK() Result { return Result{Valid: true} }

// Reject builds a failing gate result from the given findings.
func Reject(errs ...string) Result { return Result{Valid: false, Errors: errs} }

// Err converts a failing result into a StageError, nil when valid.
func (r Result) Err(stage string) error {
	if r.Valid {
		return nil
	}
	return &StageError{
		Stage:       stage,
		Type:        ErrGateReject,
		Msg:         strings.Join(r.Errors, "; "),
		Diagnostics: r.Errors,
	}
}
