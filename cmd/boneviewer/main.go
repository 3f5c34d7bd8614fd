// Command boneviewer opens a window showing a procedural skeleton whose bones can be picked and
// rotated with the keyboard.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Carmen-Shannon/oxy-rig/engine"
	"github.com/Carmen-Shannon/oxy-rig/engine/config"
	"github.com/Carmen-Shannon/oxy-rig/engine/profiler"
	"github.com/Carmen-Shannon/oxy-rig/engine/renderer"
	"github.com/Carmen-Shannon/oxy-rig/engine/window"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:          "boneviewer",
		Short:        "Interactive skeleton viewer",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.config(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cfg, f.software, newLogger(f.verbose))
		},
	}
	f.register(cmd.Flags())
	cmd.AddCommand(newDefaultsCommand())
	return cmd
}

// newDefaultsCommand prints the built-in configuration, as a starting point for a config file.
func newDefaultsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the default configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Default().Write(cmd.OutOrStdout())
		},
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run(cfg viewerConfig, software bool, logger *slog.Logger) error {
	sc, err := buildScene(cfg.Config, logger)
	if err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
	)
	if err != nil {
		sc.Close()
		return err
	}

	mode := renderer.PresentModeUncapped
	if cfg.Window.VSync {
		mode = renderer.PresentModeVSync
	}
	r, err := renderer.NewRenderer(win,
		renderer.WithPresentMode(mode),
		renderer.WithClearColor(cfg.Colors.Background),
		renderer.WithForceSoftwareRenderer(software),
		renderer.WithLogger(logger),
	)
	if err != nil {
		sc.Close()
		_ = win.Close()
		return err
	}

	cam := buildCamera(cfg.Config, win.Width(), win.Height())
	eng, err := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithCamera(cam),
		engine.WithScene(sc),
		engine.WithRotationStep(cfg.Input.RotationStep),
		engine.WithHandleSize(cfg.Picking.HandleSize),
		engine.WithProfiling(cfg.Profiler.Enabled),
		engine.WithProfiler(profiler.NewProfiler(
			profiler.WithInterval(cfg.Profiler.Interval),
			profiler.WithLogger(logger),
		)),
		engine.WithRenderFrameLimit(cfg.frameLimit),
		engine.WithLogger(logger),
	)
	if err != nil {
		r.Release()
		sc.Close()
		_ = win.Close()
		return err
	}
	defer eng.Close()

	return eng.Run()
}
