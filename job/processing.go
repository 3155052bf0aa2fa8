// Package job runs staged encode and decode requests through the frame
// pipeline and records their outcome.
package job

import (
	"context"
	"fmt"
	"time"

	"vidstego/config"
	"vidstego/failures"
	"vidstego/logger"
	"vidstego/models"
	"vidstego/payload"
	"vidstego/publish"
	"vidstego/storage"
	"vidstego/success"
	"vidstego/taskqueue"
	"vidstego/transform"
	"vidstego/video"
)

// Options configure a Processor.
type Options struct {
	FallbackFPS float64
	Targets     []config.PublishTarget // outputs are mirrored here after success
}

// Processor executes jobs on a dispatcher and owns their file lifecycle.
type Processor struct {
	storage    *storage.Manager
	dispatcher *taskqueue.Dispatcher
	opts       Options
}

// EncodeResult describes a finished encode.
type EncodeResult struct {
	Job    models.Job
	Output video.Result
}

// DecodeResult describes a finished decode and the text it recovered.
type DecodeResult struct {
	Job        models.Job
	Output     video.Result
	HiddenText string
}

// NewProcessor builds a processor on top of a storage manager and dispatcher.
func NewProcessor(mgr *storage.Manager, disp *taskqueue.Dispatcher, opts Options) *Processor {
	return &Processor{storage: mgr, dispatcher: disp, opts: opts}
}

// Encode re-muxes the job's upload unchanged and associates text with the
// produced file. The upload is removed whatever the outcome.
func (p *Processor) Encode(ctx context.Context, job models.Job, text string) (EncodeResult, error) {
	defer p.finalize(job)
	start := time.Now()

	var out video.Result
	err := p.dispatcher.Submit(ctx, job.ID, func() error {
		runCtx := context.WithoutCancel(ctx)
		res, err := video.Run(runCtx, job.InputPath, job.OutputPath, transform.Identity(), video.Options{
			FallbackFPS: p.opts.FallbackFPS,
			Metadata:    map[string]string{"comment": payload.TagPrefix + job.ID},
		})
		if err != nil {
			return err
		}
		// the comment tag still resolves the job when hashing fails
		fp, err := payload.Fingerprint(res.OutputPath)
		if err != nil {
			logger.Warnf("job %s output not fingerprinted, storing by job id only: %v", job.ID, err)
			fp = ""
		}
		if err := payload.PutForJob(job.ID, fp, text); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		p.fail(job, err)
		return EncodeResult{}, err
	}

	p.succeed(ctx, job, out, start)
	return EncodeResult{Job: job, Output: out}, nil
}

// Decode recovers the text associated with the job's upload and renders it
// onto every frame of a new video.
func (p *Processor) Decode(ctx context.Context, job models.Job) (DecodeResult, error) {
	defer p.finalize(job)
	start := time.Now()

	var (
		out  video.Result
		text string
	)
	err := p.dispatcher.Submit(ctx, job.ID, func() error {
		runCtx := context.WithoutCancel(ctx)
		info, err := video.Probe(runCtx, job.InputPath)
		if err != nil {
			return err
		}
		fp, err := payload.Fingerprint(job.InputPath)
		if err != nil {
			return fmt.Errorf("fingerprint input: %w", err)
		}
		text = payload.Lookup(fp, payload.JobIDFromTag(info.Tags["comment"]))
		logger.Debugf("job %s recovered payload of %d bytes", job.ID, len(text))

		res, err := video.Run(runCtx, job.InputPath, job.OutputPath, transform.Overlay(transform.DecodedLabel+text), video.Options{
			FallbackFPS: p.opts.FallbackFPS,
		})
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		p.fail(job, err)
		return DecodeResult{}, err
	}

	p.succeed(ctx, job, out, start)
	return DecodeResult{Job: job, Output: out, HiddenText: text}, nil
}

func (p *Processor) finalize(job models.Job) {
	if err := p.storage.Finalize(job); err != nil {
		logger.Errorf("Failed to remove upload for job %s: %v", job.ID, err)
	}
}

func (p *Processor) fail(job models.Job, cause error) {
	logger.Errorf("%s job %s failed: %v", job.Kind, job.ID, cause)
	if err := p.storage.Discard(job); err != nil {
		logger.Errorf("Failed to discard output for job %s: %v", job.ID, err)
	}
	if err := failures.StoreFailure(job.ID, string(job.Kind), job.OriginalName, cause); err != nil {
		logger.Errorf("Failed to store failure record for job %s: %v", job.ID, err)
	}
	p.dispatcher.Forget(job.ID)
}

func (p *Processor) succeed(ctx context.Context, job models.Job, out video.Result, start time.Time) {
	elapsed := time.Since(start)
	logger.Infof("%s job %s done: %d frames %dx%d in %v", job.Kind, job.ID, out.Frames, out.Source.Width, out.Source.Height, elapsed)

	err := success.StoreSuccess(success.SuccessRecord{
		JobID:      job.ID,
		Kind:       string(job.Kind),
		OutputName: job.OutputName(),
		Frames:     out.Frames,
		Width:      out.Source.Width,
		Height:     out.Source.Height,
		FPS:        out.FPS,
		Elapsed:    elapsed.String(),
	})
	if err != nil {
		logger.Errorf("Failed to store success record for job %s: %v", job.ID, err)
	}
	p.dispatcher.Forget(job.ID)

	if len(p.opts.Targets) > 0 {
		if err := publish.File(context.WithoutCancel(ctx), p.opts.Targets, out.OutputPath); err != nil {
			logger.Warnf("Publishing job %s was incomplete: %v", job.ID, err)
		}
	}
}
