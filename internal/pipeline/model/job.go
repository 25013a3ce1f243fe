// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// GenerateRequest is a validated video generation request.
type GenerateRequest struct {
	Topic           string `json:"topic"`
	DurationSeconds int    `json:"duration_seconds"`
	Tone            Tone   `json:"tone"`
	DryRun          bool   `json:"dry_run,omitempty"`
}

// Job is the unit of work tracked by the store. It is created by the
// HTTP layer and mutated exclusively by the worker that owns it.
type Job struct {
	ID              string    `json:"job_id"`
	Topic           string    `json:"topic"`
	DurationSeconds int       `json:"duration_seconds"`
	Tone            Tone      `json:"tone"`
	DryRun          bool      `json:"dry_run,omitempty"`
	Status          JobStatus `json:"status"`
	Progress        int       `json:"progress"`
	ETASeconds      int       `json:"eta_seconds"`
	Message         string    `json:"message,omitempty"`

	Result *JobResult `json:"result,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`

	CreatedAtUnix int64 `json:"created_at"`
	UpdatedAtUnix int64 `json:"updated_at"`

	// Seq is the durable store's arrival counter. CreatedAtUnix has
	// second granularity, so same-second enqueues need it to keep
	// strict FIFO across restarts.
	Seq uint64 `json:"seq,omitempty"`
}

// JobResult accumulates the published outcome of a job.
type JobResult struct {
	OutputPath      string   `json:"output_path,omitempty"`
	Script          *Script  `json:"script,omitempty"`
	TotalDurationMS int      `json:"total_duration_ms,omitempty"`
	Diagnostics     []string `json:"diagnostics,omitempty"`
	CompletedAtUnix int64    `json:"completed_at,omitempty"`
}

// Clone returns a deep copy so store readers never alias worker-owned state.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.Result != nil {
		res := *j.Result
		if j.Result.Script != nil {
			sc := j.Result.Script.Clone()
			res.Script = &sc
		}
		res.Diagnostics = append([]string(nil), j.Result.Diagnostics...)
		cp.Result = &res
	}
	return &cp
}
