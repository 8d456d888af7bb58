package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"klipper-postproc/pkg/config"
	perrors "klipper-postproc/pkg/errors"
	"klipper-postproc/pkg/log"
	"klipper-postproc/pkg/metrics"
	"klipper-postproc/pkg/pipeline"
	"klipper-postproc/pkg/region"
	"klipper-postproc/pkg/watch"
)

// defaultCurveConfig is read from the working directory by the curves
// command when no --config is given.
const defaultCurveConfig = "curve_speed_config.cfg"

type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger

	configPath string
	logLevel   string
	logFormat  string
}

// configure applies the environment and then the log flags to l.
func (a *app) configure(l *log.Logger, cmd *cobra.Command) error {
	log.ConfigureFromEnv(l)
	if cmd.Flags().Changed("log-level") {
		l.SetLevel(log.ParseLevel(a.logLevel))
	}
	if cmd.Flags().Changed("log-format") {
		f, err := log.ParseFormat(a.logFormat)
		if err != nil {
			return perrors.UsageError("%v", err)
		}
		l.SetFormat(f)
	}
	return nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "klipper-postproc",
		Short:         "Inject Klipper velocity limits into sliced G-code",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return perrors.UsageError("unknown command %q", args[0])
			}
			_ = cmd.Help()
			return perrors.UsageError("a command is required")
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupLogging(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return perrors.UsageError("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "profile file (.cfg, .toml, .yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		a.scvCmd(),
		a.curvesCmd(),
		a.topAccelCmd(),
		a.allCmd(),
		a.watchCmd(),
	)
	return root
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return perrors.UsageError("usage: klipper-postproc %s", usage)
		}
		return nil
	}
}

func (a *app) setupLogging(cmd *cobra.Command) error {
	a.logger = log.New("postproc")
	a.logger.SetWriter(a.stderr)
	return a.configure(a.logger, cmd)
}

// profile loads --config, or fallback when --config is unset. Only the
// fallback may be missing.
func (a *app) profile(fallback string) (config.Profile, error) {
	logger := a.logger.WithPrefix("config")
	if a.configPath != "" {
		return config.LoadProfile(a.configPath, false, logger)
	}
	return config.LoadProfile(fallback, true, logger)
}

func (a *app) runJob(ctx context.Context, in, out string, strategies ...region.Strategy) (pipeline.Result, error) {
	return pipeline.Job{
		Input:      in,
		Output:     out,
		Strategies: strategies,
		Logger:     a.logger.WithPrefix("pipeline"),
	}.Run(ctx)
}

func (a *app) scvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scv <file.gcode>",
		Short: "Tune square corner velocity to outer-wall corner angles, in place",
		Args:  exactArgs(1, "scv <input_file.gcode>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.profile("")
			if err != nil {
				return err
			}
			corner, err := p.CornerStrategy()
			if err != nil {
				return err
			}
			_, err = a.runJob(cmd.Context(), args[0], "", corner)
			return err
		},
	}
}

func (a *app) curvesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "curves <file.gcode>",
		Short: "Raise acceleration through long smooth curves and arcs, in place",
		Long: "Raise acceleration and corner velocity through long smooth curves and arcs.\n" +
			"Without --config, " + defaultCurveConfig + " in the working directory is used if present.",
		Args: exactArgs(1, "curves <input.gcode>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.profile(defaultCurveConfig)
			if err != nil {
				return err
			}
			if _, err := a.runJob(cmd.Context(), args[0], "", p.CurveStrategy()); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "✔ Curve speedup post-processing complete: %s\n", args[0])
			return nil
		},
	}
}

func (a *app) topAccelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topaccel <input.gcode> <output.gcode> <config.cfg>",
		Short: "Lower wall acceleration in layers near top surfaces",
		Args:  exactArgs(3, "topaccel <input.gcode> <output.gcode> <config.cfg>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out, cfgPath := args[0], args[1], args[2]
			p, err := config.LoadProfile(cfgPath, false, a.logger.WithPrefix("config"))
			if err != nil {
				return err
			}
			if _, err := a.runJob(cmd.Context(), in, out, p.TopSurfaceStrategy()); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Processed %s and wrote to %s\n", in, out)
			return nil
		},
	}
}

// strategies builds the annotators for a watch or all mode. Top surface
// runs first so its walls are marked before corner tuning.
func strategies(p config.Profile, mode string) ([]region.Strategy, error) {
	var out []region.Strategy
	if mode == "all" || mode == "topaccel" {
		out = append(out, p.TopSurfaceStrategy())
	}
	if mode == "all" || mode == "scv" {
		corner, err := p.CornerStrategy()
		if err != nil {
			return nil, err
		}
		out = append(out, corner)
	}
	if mode == "all" || mode == "curves" {
		out = append(out, p.CurveStrategy())
	}
	if out == nil {
		return nil, perrors.UsageError("unknown mode %q (want all, scv, curves or topaccel)", mode)
	}
	return out, nil
}

func (a *app) allCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "all <file.gcode>",
		Short: "Apply top surface, corner and curve annotation in one pass",
		Args:  exactArgs(1, "all <input.gcode> [-o output.gcode]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.profile("")
			if err != nil {
				return err
			}
			ss, err := strategies(p, "all")
			if err != nil {
				return err
			}
			res, err := a.runJob(cmd.Context(), args[0], output, ss...)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Processed %s and wrote to %s (%d directives)\n", res.Input, res.Output, res.Directives())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: rewrite input)")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var (
		outDir      string
		mode        string
		settle      time.Duration
		metricsAddr string
		logFile     string
		logMaxSize  int64
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Annotate G-code files as they appear in a directory",
		Args:  exactArgs(1, "watch <dir> --out <dir>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				return perrors.UsageError("--out is required")
			}
			p, err := a.profile("")
			if err != nil {
				return err
			}
			ss, err := strategies(p, mode)
			if err != nil {
				return err
			}

			logger := a.logger
			if logFile != "" {
				fl, w, err := log.NewConsoleAndFileLogger("postproc", a.stderr, log.RotationConfig{
					Filename:   logFile,
					MaxSize:    logMaxSize,
					MaxBackups: 3,
				})
				if err != nil {
					return perrors.OutputError(logFile, err)
				}
				defer w.Close()
				if err := a.configure(fl, cmd); err != nil {
					return err
				}
				logger = fl
				logger.Info("logging to %s", w.Filename())
			}

			ctx := cmd.Context()
			m := metrics.NewPostproc()
			if metricsAddr != "" {
				srv := metrics.NewServer(m, metricsAddr)
				srvCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				go func() {
					if err := srv.ListenAndServe(srvCtx); err != nil {
						logger.WithError(err).Error("metrics server stopped")
					}
				}()
				logger.Info("serving metrics on %s", metricsAddr)
			}

			w, err := watch.New(watch.Config{
				Dir:        args[0],
				OutDir:     outDir,
				Settle:     settle,
				Strategies: ss,
				Logger:     logger.WithPrefix("watch"),
				Metrics:    m,
			})
			if err != nil {
				return perrors.Wrap(err, perrors.ErrInputRead, "cannot watch directory").SetFile(args[0])
			}
			return w.Run(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&outDir, "out", "", "directory for annotated files (required)")
	f.StringVar(&mode, "mode", "all", "annotation: all, scv, curves or topaccel")
	f.DurationVar(&settle, "settle", watch.DefaultSettle, "quiet period before a file is processed")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.StringVar(&logFile, "log-file", "", "also log to this file, rotating it")
	f.Int64Var(&logMaxSize, "log-max-size", 10<<20, "rotate the log file at this many bytes")
	return cmd
}
