package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/soundgrab/soundgrab/internal/config"
	"github.com/soundgrab/soundgrab/internal/model"
	"github.com/soundgrab/soundgrab/internal/server"
	"github.com/soundgrab/soundgrab/internal/service"
	"github.com/soundgrab/soundgrab/internal/timecode"
)

const version = "0.1.0"

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	app := &cli.Command{
		Name:    "soundgrab",
		Usage:   "Acquire, trim and recognize audio from media URLs",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			serveCommand(logger),
			getCommand(logger),
			recognizeCommand(logger),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func setup(cmd *cli.Command, logger *log.Logger) (*service.Service, *config.Config, error) {
	if cmd.Bool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, nil, err
	}

	return service.New(cfg, logger), cfg, nil
}

func serveCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, cfg, err := setup(cmd, logger)
			if err != nil {
				return err
			}
			svc.Start(ctx)

			srv := server.New(svc, logger)
			addr := cfg.Server.Addr()
			logger.Info("listening", "addr", addr)
			return http.ListenAndServe(addr, srv.Routes())
		},
	}
}

func getCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Download one URL (or playlist) and wait for the result",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Custom display name for the output",
			},
			&cli.StringFlag{
				Name:  "trim",
				Usage: "Trim range as \"start;end\" timecodes, e.g. \"19.30;1h\"",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			url := cmd.Args().First()
			if url == "" {
				return fmt.Errorf("missing URL argument")
			}

			svc, _, err := setup(cmd, logger)
			if err != nil {
				return err
			}

			req := service.SubmitRequest{URL: url, CustomName: cmd.String("name")}
			if trim := cmd.String("trim"); trim != "" {
				bounds, err := timecode.ParseList(trim, false)
				if err != nil {
					return err
				}
				if len(bounds) != 2 {
					return fmt.Errorf("trim needs exactly two timecodes, got %d", len(bounds))
				}
				req.TrimStart, req.TrimEnd = &bounds[0], &bounds[1]
			}

			id, err := svc.Submit(req)
			if err != nil {
				return err
			}

			job, err := waitForJob(ctx, svc, id, logger)
			if err != nil {
				return err
			}
			logger.Info("done", "file", job.Result.ArtifactPath, "name", job.Result.DisplayName)
			return nil
		},
	}
}

func recognizeCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:      "recognize",
		Usage:     "Identify music in the audio behind a URL",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "timecodes",
				Aliases: []string{"t"},
				Usage:   "Offsets to sample, e.g. \"30;1.00;1h\" (default 30;60;90)",
			},
			&cli.BoolFlag{
				Name:  "keep",
				Usage: "Keep the downloaded audio file after analysis",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			url := cmd.Args().First()
			if url == "" {
				return fmt.Errorf("missing URL argument")
			}

			svc, _, err := setup(cmd, logger)
			if err != nil {
				return err
			}

			var offsets []float64
			if tcs := cmd.String("timecodes"); tcs != "" {
				offsets, err = timecode.ParseList(tcs, false)
				if err != nil {
					return err
				}
			}

			id, err := svc.SubmitRecognition(url, offsets, cmd.Bool("keep"))
			if err != nil {
				return err
			}

			job, err := waitForJob(ctx, svc, id, logger)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(job.Recognition, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// waitForJob follows a job's progress until it terminates.
func waitForJob(ctx context.Context, svc *service.Service, id string, logger *log.Logger) (model.Job, error) {
	var lastPercent float64 = -1

	for {
		job, ok := svc.Store().Get(id)
		if !ok {
			return model.Job{}, fmt.Errorf("job %s disappeared", id)
		}

		if job.Percent != lastPercent {
			logger.Info("progress", "state", job.State, "percent", fmt.Sprintf("%.0f%%", job.Percent))
			lastPercent = job.Percent
		}

		if job.State == model.JobStateError {
			return job, fmt.Errorf("%s", job.Error)
		}
		if job.State == model.JobStateCompleted {
			return job, nil
		}

		select {
		case <-time.After(250 * time.Millisecond):
		case <-ctx.Done():
			return job, ctx.Err()
		}
	}
}
