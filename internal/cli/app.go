// Package cli implements the verdict command line application: analyze
// runs the scoring and attribution pipeline, report regenerates HTML from
// stored results, serve puts stored reports behind local HTTP.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/verdict-ml/verdict/internal/config"
)

const appStateKey = "app-state"

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to a YAML config file (optional)",
	}

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dbFlag = &cli.StringFlag{
		Name:  "db",
		Usage: "Path to the SQLite database file",
	}
)

type appState struct {
	Config *config.Config
	Logger *zap.Logger
}

func getState(c *cli.Context) *appState {
	return c.App.Metadata[appStateKey].(*appState)
}

// Execute creates and runs the CLI application.
func Execute() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:            "verdict",
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:        time.Now(),
		HideHelpCommand: true,
		Usage:           "Score texts with a BERT classifier and attribute each score over its tokens",
		Flags: []cli.Flag{
			configFlag,
			debugFlag,
			dbFlag,
		},
		Commands: []*cli.Command{
			analyzeCmd,
			reportCmd,
			serveCmd,
			versionCmd,
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String(configFlag.Name))
			if err != nil {
				return err
			}
			if c.Bool(debugFlag.Name) {
				cfg.Debug = true
			}
			if c.IsSet(dbFlag.Name) {
				cfg.DB = c.String(dbFlag.Name)
			}

			logger, err := newLogger(cfg.Debug)
			if err != nil {
				return err
			}

			c.App.Metadata[appStateKey] = &appState{Config: cfg, Logger: logger}
			return nil
		},
		After: func(c *cli.Context) error {
			if st, ok := c.App.Metadata[appStateKey].(*appState); ok && st.Logger != nil {
				_ = st.Logger.Sync()
			}
			return nil
		},
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
