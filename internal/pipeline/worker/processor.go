// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/ManuGH/reelforge/internal/audit"
	"github.com/ManuGH/reelforge/internal/captions"
	"github.com/ManuGH/reelforge/internal/config"
	"github.com/ManuGH/reelforge/internal/editplan"
	"github.com/ManuGH/reelforge/internal/log"
	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/ManuGH/reelforge/internal/pipeline/store"
	"github.com/ManuGH/reelforge/internal/render"
	"github.com/ManuGH/reelforge/internal/script"
	"github.com/ManuGH/reelforge/internal/timing"
	"github.com/ManuGH/reelforge/internal/tts"
	"github.com/ManuGH/reelforge/internal/visuals"
	"golang.org/x/sync/errgroup"
)

// nominalJobSeconds anchors the ETA estimate.
const nominalJobSeconds = 90

// visualAttempts is how often the visual builder may retry a scene
// before the shortage becomes fatal.
const visualAttempts = 2

// Renderer is the slice of the render adapter the processor needs.
type Renderer interface {
	RenderSegment(ctx context.Context, jobID string, sceneIndex int, in render.SegmentInput, outPath string) error
	Concat(ctx context.Context, jobID string, segmentPaths []string, outPath string) error
}

// Processor executes one job end to end. All stage dependencies are
// injected; tests swap in mocks.
type Processor struct {
	Store   store.JobStore
	Oracle  script.Oracle
	TTS     tts.Synthesizer
	Visuals *visuals.Builder
	Render  Renderer
	Cfg     config.Config
}

// Process runs the claimed job to a terminal status. It never returns
// an error: failures land on the job record, panics are contained.
func (p *Processor) Process(ctx context.Context, job *model.Job) {
	ctx = log.ContextWithJobID(ctx, job.ID)
	logger := log.WithComponentFromContext(ctx, "worker")

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("job panicked")
			p.fail(ctx, job.ID, model.NewStageError("worker", model.ErrUnknown,
				fmt.Sprintf("internal error: %v", r)))
		}
	}()

	logger.Info().
		Str(log.FieldTopic, job.Topic).
		Int("duration_seconds", job.DurationSeconds).
		Bool("dry_run", job.DryRun).
		Msg("job started")

	scr, err := p.generateScript(ctx, job)
	if err != nil {
		p.fail(ctx, job.ID, err)
		return
	}

	if job.DryRun {
		p.complete(ctx, job.ID, &model.JobResult{
			Script:          &scr,
			CompletedAtUnix: time.Now().Unix(),
		})
		logger.Info().Msg("dry run complete")
		return
	}

	// The job-level duration bound is checked before the fan-out: every
	// scene can pass its own gate while the concatenated total still
	// blows past the target, and an oversized script should fail before
	// any render work is spent on it.
	if res := timing.GateTotal(timing.ProjectedTotalMS(scr), job.DurationSeconds); !res.Valid {
		p.fail(ctx, job.ID, res.Err("audio"))
		return
	}

	artifacts, err := p.runScenes(ctx, job, scr)
	if err != nil {
		p.fail(ctx, job.ID, err)
		return
	}

	p.setStage(ctx, job.ID, model.StatusEditReady, 75, "all scenes rendered")

	outPath, totalMS, err := p.merge(ctx, job, artifacts)
	if err != nil {
		p.fail(ctx, job.ID, err)
		return
	}

	p.setStage(ctx, job.ID, model.StatusAuditing, 95, "final audit")
	verdict := audit.Audit(scr, artifacts)
	if !verdict.Go {
		p.fail(ctx, job.ID, verdict.Err())
		return
	}

	p.complete(ctx, job.ID, &model.JobResult{
		OutputPath:      outPath,
		Script:          &scr,
		TotalDurationMS: totalMS,
		CompletedAtUnix: time.Now().Unix(),
	})
	logger.Info().Str("output", outPath).Int(log.FieldDurationMS, totalMS).Msg("job complete")
}

// generateScript drives the oracle and the script gate, regenerating a
// rejected script up to the attempt limit. The deterministic fallback
// skeleton passes the gate by construction.
func (p *Processor) generateScript(ctx context.Context, job *model.Job) (model.Script, error) {
	logger := log.WithComponentFromContext(ctx, "worker")
	p.setStage(ctx, job.ID, model.StatusScripting, 5, "generating script")

	req := script.Request{
		Topic:           job.Topic,
		DurationSeconds: job.DurationSeconds,
		Tone:            job.Tone,
	}

	var lastReject model.Result
	for attempt := 1; attempt <= script.MaxGateAttempts; attempt++ {
		scr, err := p.Oracle.GenerateScript(ctx, req)
		if err != nil {
			return model.Script{}, err
		}

		res := script.Gate(scr)
		if res.Valid {
			p.setStage(ctx, job.ID, model.StatusScripting, 15, "script accepted")
			return scr, nil
		}
		lastReject = res
		logger.Warn().
			Int("attempt", attempt).
			Strs("findings", res.Errors).
			Msg("script rejected, regenerating")
	}
	return model.Script{}, lastReject.Err("script")
}

// runScenes fans the scenes out in parallel and collects artifacts in
// scene order. The first failure cancels the remaining scenes.
func (p *Processor) runScenes(ctx context.Context, job *model.Job, scr model.Script) ([]model.SceneArtifacts, error) {
	usage := visuals.NewUsage()
	artifacts := make([]model.SceneArtifacts, len(scr.Scenes))

	var done atomic.Int32
	total := len(scr.Scenes)

	g, gctx := errgroup.WithContext(ctx)
	for i, scene := range scr.Scenes {
		i, scene := i, scene
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = model.NewStageError("worker", model.ErrUnknown,
						fmt.Sprintf("scene %d panicked: %v", i, r))
				}
			}()

			art, serr := p.processScene(gctx, job, scene, i, total, usage)
			if serr != nil {
				return serr
			}
			artifacts[i] = art

			n := int(done.Add(1))
			progress := 15 + 60*n/total
			p.setStage(ctx, job.ID, model.StatusEditing, progress,
				fmt.Sprintf("scene %d/%d ready", n, total))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// processScene runs the sequential per-scene stages: audio, captions,
// visuals, edit plan, segment render. Each stage gates before the next.
func (p *Processor) processScene(ctx context.Context, job *model.Job, scene model.Scene, index, total int, usage *visuals.Usage) (model.SceneArtifacts, error) {
	ctx = log.ContextWithScene(ctx, index)
	logger := log.WithComponentFromContext(ctx, "worker")

	// Audio: deterministic timing first, then the synthesized file.
	p.touchStatus(ctx, job.ID, model.StatusAudioGen)
	audioRes := timing.SynthesizeScene(scene, index, total)
	audioRes.AudioPath = filepath.Join(p.Cfg.AudioDir(),
		fmt.Sprintf("%s_scene%d%s", job.ID, index, p.TTS.Ext()))

	if err := p.TTS.Synthesize(ctx, scene.Text, audioRes.DurationMS, audioRes.AudioPath); err != nil {
		// Timing stays authoritative; degrade to the silent track rather
		// than failing the scene.
		logger.Warn().Err(err).Msg("tts failed, writing silent track")
		audioRes.AudioPath = filepath.Join(p.Cfg.AudioDir(),
			fmt.Sprintf("%s_scene%d.wav", job.ID, index))
		if werr := tts.WriteSilentWAV(audioRes.AudioPath, audioRes.DurationMS); werr != nil {
			return model.SceneArtifacts{}, model.WrapStageError("audio", model.ErrUnknown,
				"silent fallback failed", werr)
		}
	}

	if res := script.KeywordCheck(scene); !res.Valid {
		logger.Warn().Strs("findings", res.Errors).Msg("keyword check flagged scene")
	}
	if res := timing.Gate(audioRes, job.DurationSeconds); !res.Valid {
		return model.SceneArtifacts{}, res.Err("audio")
	}

	// Captions.
	p.touchStatus(ctx, job.ID, model.StatusCaptionGen)
	caps := captions.Group(audioRes.Timestamps)
	if res := captions.Gate(caps, audioRes.DurationMS); !res.Valid {
		return model.SceneArtifacts{}, res.Err("captions")
	}

	// Visuals, with a bounded retry: transient provider trouble gets one
	// more chance before the shortage is fatal.
	p.touchStatus(ctx, job.ID, model.StatusVisualGen)
	var clips []model.VisualClip
	var verr error
	for attempt := 1; attempt <= visualAttempts; attempt++ {
		clips, verr = p.Visuals.Build(ctx, job.ID, scene.Keywords, audioRes.DurationMS, usage)
		if verr == nil {
			if res := visuals.Gate(clips, audioRes.DurationMS); !res.Valid {
				verr = res.Err("visuals")
				continue
			}
			break
		}
		logger.Warn().Err(verr).Int("attempt", attempt).Msg("visual timeline attempt failed")
	}
	if verr != nil {
		return model.SceneArtifacts{}, verr
	}

	// Edit plan.
	p.touchStatus(ctx, job.ID, model.StatusEditing)
	plan, err := editplan.Build(audioRes, caps, clips)
	if err != nil {
		return model.SceneArtifacts{}, err
	}
	if res := editplan.Gate(plan, audioRes.DurationMS); !res.Valid {
		return model.SceneArtifacts{}, res.Err("editplan")
	}

	// Segment render.
	segPath := filepath.Join(p.Cfg.TempRenderDir(), fmt.Sprintf("%s_scene%d.mp4", job.ID, index))
	err = p.Render.RenderSegment(ctx, job.ID, index, render.SegmentInput{
		Plan:       plan,
		Visuals:    clips,
		Captions:   caps,
		AudioPath:  audioRes.AudioPath,
		DurationMS: audioRes.DurationMS,
	}, segPath)
	if err != nil {
		return model.SceneArtifacts{}, err
	}

	return model.SceneArtifacts{
		Index:       index,
		Scene:       scene,
		Audio:       audioRes,
		Captions:    caps,
		Visuals:     clips,
		Plan:        plan,
		SegmentPath: segPath,
	}, nil
}

// merge concatenates the rendered segments behind the scene barrier.
func (p *Processor) merge(ctx context.Context, job *model.Job, artifacts []model.SceneArtifacts) (string, int, error) {
	p.setStage(ctx, job.ID, model.StatusMerging, 85, "concatenating segments")

	paths := make([]string, len(artifacts))
	totalMS := 0
	for i, a := range artifacts {
		paths[i] = a.SegmentPath
		totalMS += a.Audio.DurationMS
	}

	outPath := filepath.Join(p.Cfg.TempOutputDir(), fmt.Sprintf("%s_final.mp4", job.ID))
	if err := p.Render.Concat(ctx, job.ID, paths, outPath); err != nil {
		return "", 0, err
	}
	return outPath, totalMS, nil
}

// setStage records a status, progress and message transition.
func (p *Processor) setStage(ctx context.Context, id string, status model.JobStatus, progress int, msg string) {
	_, err := p.Store.Update(ctx, id, func(j *model.Job) error {
		j.Status = status
		j.Progress = progress
		j.ETASeconds = (100 - progress) * nominalJobSeconds / 100
		j.Message = msg
		j.UpdatedAtUnix = time.Now().Unix()
		return nil
	})
	if err != nil {
		logger := log.WithComponentFromContext(ctx, "worker")
		logger.Warn().Err(err).Msg("status update failed")
	}
}

// touchStatus updates the informational sub-status without moving
// progress. Scenes race on this by design; last writer wins.
func (p *Processor) touchStatus(ctx context.Context, id string, status model.JobStatus) {
	_, err := p.Store.Update(ctx, id, func(j *model.Job) error {
		if j.Status.IsTerminal() {
			return nil
		}
		j.Status = status
		j.UpdatedAtUnix = time.Now().Unix()
		return nil
	})
	if err != nil {
		logger := log.WithComponentFromContext(ctx, "worker")
		logger.Warn().Err(err).Msg("status update failed")
	}
}

func (p *Processor) complete(ctx context.Context, id string, result *model.JobResult) {
	jobsTotal.WithLabelValues("completed").Inc()
	_, err := p.Store.Update(ctx, id, func(j *model.Job) error {
		j.Status = model.StatusCompleted
		j.Progress = 100
		j.ETASeconds = 0
		j.Message = "completed"
		j.Result = result
		j.UpdatedAtUnix = time.Now().Unix()
		return nil
	})
	if err != nil {
		logger := log.WithComponentFromContext(ctx, "worker")
		logger.Error().Err(err).Msg("completing job failed")
	}
}

func (p *Processor) fail(ctx context.Context, id string, cause error) {
	logger := log.WithComponentFromContext(ctx, "worker")

	errType := model.ErrUnknown
	var diagnostics []string
	var stageErr *model.StageError
	if errors.As(cause, &stageErr) {
		errType = stageErr.Type
		diagnostics = stageErr.Diagnostics
	}

	jobsTotal.WithLabelValues("failed").Inc()
	logger.Error().
		Err(cause).
		Str(log.FieldErrorType, string(errType)).
		Msg("job failed")

	_, err := p.Store.Update(ctx, id, func(j *model.Job) error {
		j.Status = model.StatusFailed
		j.Message = "failed"
		j.Error = cause.Error()
		j.ErrorType = string(errType)
		if len(diagnostics) > 0 {
			if j.Result == nil {
				j.Result = &model.JobResult{}
			}
			j.Result.Diagnostics = diagnostics
		}
		j.UpdatedAtUnix = time.Now().Unix()
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("recording failure failed")
	}
}
