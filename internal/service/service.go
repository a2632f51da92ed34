// Package service is the orchestration facade: it classifies submitted URLs,
// routes them to single-item, playlist or recognition jobs, and owns each
// job's state transitions in the progress store. Front ends talk only to this
// package.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/soundgrab/soundgrab/internal/acquire"
	"github.com/soundgrab/soundgrab/internal/config"
	"github.com/soundgrab/soundgrab/internal/errs"
	"github.com/soundgrab/soundgrab/internal/ffmpeg"
	"github.com/soundgrab/soundgrab/internal/jobs"
	"github.com/soundgrab/soundgrab/internal/model"
	"github.com/soundgrab/soundgrab/internal/playlist"
	"github.com/soundgrab/soundgrab/internal/recognize"
	"github.com/soundgrab/soundgrab/internal/source"
)

// SubmitRequest describes a single or playlist acquisition.
type SubmitRequest struct {
	URL        string
	CustomName string

	// TrimStart and TrimEnd cut the finished single-item download to a time
	// range. Ignored for playlists.
	TrimStart *float64
	TrimEnd   *float64
}

// Service wires the acquisition strategies, playlist orchestrator and
// recognition pipeline behind the job protocol.
type Service struct {
	cfg        *config.Config
	strategies *acquire.Set
	playlists  *playlist.Orchestrator
	recognizer *recognize.Pipeline
	store      *jobs.Store
	runner     *jobs.Runner
	logger     *log.Logger
}

// New assembles a fully wired service from configuration.
func New(cfg *config.Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	strategies := acquire.NewSet(acquire.Options{
		EngineDir:     cfg.Download.EngineDir,
		Bitrate:       cfg.Download.Bitrate,
		SpotdlCommand: cfg.Download.SpotdlCommand,
		Logger:        logger,
	})

	store := jobs.NewStore(logger)

	fingerprinter := recognize.NewClient(cfg.Recognizer.URL, cfg.Recognizer.Token, logger)
	resolver := recognize.NewLinkResolver(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, logger)

	return &Service{
		cfg:        cfg,
		strategies: strategies,
		playlists:  playlist.NewOrchestrator(strategies, cfg.Download.Dir, logger),
		recognizer: recognize.NewPipeline(recognize.Options{
			Strategies:     strategies,
			Fingerprinter:  fingerprinter,
			Resolver:       resolver,
			EngineDir:      cfg.Download.EngineDir,
			WorkDir:        cfg.Download.Dir,
			SegmentSeconds: float64(cfg.Download.SegmentSeconds),
			LaunchLocal:    cfg.Recognizer.LaunchLocal,
			Logger:         logger,
		}),
		store:  store,
		runner: jobs.NewRunner(store, logger),
		logger: logger.With("component", "service"),
	}
}

// Store exposes the job progress store for point lookups and subscriptions.
func (s *Service) Store() *jobs.Store { return s.store }

// Start launches background maintenance. It returns immediately.
func (s *Service) Start(ctx context.Context) {
	s.store.StartEviction(ctx)
}

// Submit validates the request and starts a background acquisition job. The
// returned job id is immediately pollable.
func (s *Service) Submit(req SubmitRequest) (string, error) {
	src, err := source.Classify(req.URL)
	if err != nil {
		return "", err
	}

	if req.TrimStart != nil && req.TrimEnd != nil && *req.TrimEnd <= *req.TrimStart {
		return "", &errs.InvalidRangeError{Start: *req.TrimStart, End: *req.TrimEnd}
	}

	if src.IsPlaylist {
		return s.runner.Launch(model.JobKindPlaylist, func(ctx context.Context, job model.Job) error {
			return s.runPlaylist(ctx, job, req.URL, src)
		}), nil
	}
	return s.runner.Launch(model.JobKindSingle, func(ctx context.Context, job model.Job) error {
		return s.runSingle(ctx, job, req, src)
	}), nil
}

// SubmitRecognition starts a background recognition job.
func (s *Service) SubmitRecognition(url string, timecodes []float64, keepFile bool) (string, error) {
	if _, err := source.Classify(url); err != nil {
		return "", &errs.UnsupportedSourceError{URL: url, Reason: "cannot classify source for recognition"}
	}

	return s.runner.Launch(model.JobKindRecognition, func(ctx context.Context, job model.Job) error {
		job.State = model.JobStateDownloading
		job.Message = "downloading audio for analysis"
		s.store.Put(job)

		report, err := s.recognizer.Recognize(ctx, url, timecodes, keepFile)
		if err != nil {
			return err
		}

		current, ok := s.store.Get(job.ID)
		if !ok {
			return nil
		}
		current.State = model.JobStateCompleted
		current.Percent = 100
		current.Message = ""
		current.Recognition = &report
		s.store.Put(current)
		return nil
	}), nil
}

// Artifact returns the downloadable result of a completed job. The file must
// still exist on disk.
func (s *Service) Artifact(jobID string) (model.JobResult, error) {
	job, ok := s.store.Get(jobID)
	if !ok {
		return model.JobResult{}, fmt.Errorf("job %s not found", jobID)
	}
	if job.State != model.JobStateCompleted || job.Result == nil {
		return model.JobResult{}, fmt.Errorf("job %s has no artifact", jobID)
	}
	if _, err := os.Stat(job.Result.ArtifactPath); err != nil {
		return model.JobResult{}, fmt.Errorf("artifact for job %s is gone", jobID)
	}
	return *job.Result, nil
}

// ScheduleArtifactCleanup arms the delayed deletion of a served artifact.
func (s *Service) ScheduleArtifactCleanup(path string) {
	jobs.ScheduleRemoval(path, s.logger)
}

// DeleteJob removes a job's artifact and its progress record.
func (s *Service) DeleteJob(jobID string) error {
	job, ok := s.store.Get(jobID)
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}

	if job.Result != nil {
		if err := os.Remove(job.Result.ArtifactPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove artifact: %w", err)
		}
	}

	s.store.Delete(jobID)
	return nil
}

// runSingle drives one single-item acquisition job to a terminal state.
func (s *Service) runSingle(ctx context.Context, job model.Job, req SubmitRequest, src model.MediaSource) error {
	strat, err := s.strategies.For(src.Platform)
	if err != nil {
		return err
	}

	job.State = model.JobStateDownloading
	s.store.Put(job)

	destPath := filepath.Join(s.cfg.Download.Dir, job.ID+".mp3")

	onProgress := func(p model.Progress) {
		current, ok := s.store.Get(job.ID)
		if !ok || current.State.IsTerminal() {
			return
		}
		current.Percent = p.Percent
		current.ETALowSec = p.ETALowSec
		current.ETAHighSec = p.ETAHighSec
		if p.Converting {
			current.State = model.JobStateConverting
		} else {
			current.State = model.JobStateDownloading
		}
		s.store.Put(current)
	}

	result, err := strat.Acquire(ctx, req.URL, destPath, req.CustomName, onProgress)
	if err != nil {
		os.Remove(destPath)
		return err
	}

	if req.TrimStart != nil || req.TrimEnd != nil {
		current, ok := s.store.Get(job.ID)
		if !ok {
			// The client deleted the job mid-run; discard the work.
			os.Remove(result.FilePath)
			return nil
		}
		current.State = model.JobStateConverting
		current.Message = "trimming"
		s.store.Put(current)

		if err := s.trimInPlace(ctx, result.FilePath, req.TrimStart, req.TrimEnd); err != nil {
			os.Remove(result.FilePath)
			return err
		}
	}

	current, ok := s.store.Get(job.ID)
	if !ok {
		os.Remove(result.FilePath)
		return nil
	}
	current.State = model.JobStateCompleted
	current.Percent = 100
	current.Message = ""
	current.ETALowSec, current.ETAHighSec = 0, 0
	current.Result = &model.JobResult{
		ArtifactPath: result.FilePath,
		DisplayName:  result.DisplayName,
	}
	s.store.Put(current)
	return nil
}

// runPlaylist drives one playlist job to a terminal state.
func (s *Service) runPlaylist(ctx context.Context, job model.Job, url string, src model.MediaSource) error {
	job.State = model.JobStateDownloading
	s.store.Put(job)

	onProgress := func(percent float64, message string) {
		current, ok := s.store.Get(job.ID)
		if !ok || current.State.IsTerminal() {
			return
		}
		current.Percent = percent
		current.Message = message
		s.store.Put(current)
	}

	archive, err := s.playlists.Process(ctx, url, src, onProgress)
	if err != nil {
		return err
	}

	current, ok := s.store.Get(job.ID)
	if !ok {
		os.Remove(archive.Path)
		return nil
	}
	current.State = model.JobStateCompleted
	current.Percent = 100
	current.Message = ""
	current.Result = &model.JobResult{
		ArtifactPath: archive.Path,
		DisplayName:  archive.DisplayName,
		IsArchive:    true,
	}
	s.store.Put(current)
	return nil
}

// trimInPlace cuts the file to the requested range, replacing the original.
func (s *Service) trimInPlace(ctx context.Context, path string, start, end *float64) error {
	engine, err := ffmpeg.Resolve(s.cfg.Download.EngineDir)
	if err != nil {
		return err
	}

	trimmed := filepath.Join(filepath.Dir(path), "trim_"+filepath.Base(path))
	if err := engine.Trim(ctx, path, trimmed, start, end); err != nil {
		return err
	}
	return os.Rename(trimmed, path)
}
