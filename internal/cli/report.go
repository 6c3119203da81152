package cli

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/verdict-ml/verdict/internal/report"
	"github.com/verdict-ml/verdict/internal/store"
)

var (
	runFlag = &cli.StringFlag{
		Name:  "run",
		Usage: "Run id to render (default: the latest run)",
	}

	reportCmd = &cli.Command{
		Name:   "report",
		Usage:  "Regenerate an HTML report from stored results",
		Action: cmdReport,
		Flags: []cli.Flag{
			runFlag,
			outFlag,
		},
	}
)

func cmdReport(c *cli.Context) error {
	st := getState(c)
	cfg := st.Config
	if c.IsSet(outFlag.Name) {
		cfg.Out = c.String(outFlag.Name)
	}

	s, err := store.Open(cfg.DB, st.Logger)
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := loadRun(s, c.String(runFlag.Name))
	if err != nil {
		return err
	}

	set, err := s.GetResults(run.ID)
	if err != nil {
		return err
	}

	if err := writeHTMLFile(cfg.Out, set, runMeta(run)); err != nil {
		return err
	}
	st.Logger.Info("report written",
		zap.String("run", run.ID),
		zap.String("path", cfg.Out))
	return nil
}

// loadRun resolves an explicit run id, or falls back to the latest run.
func loadRun(s *store.Store, id string) (*store.Run, error) {
	if id != "" {
		run, err := s.GetRun(id)
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, errors.Errorf("run not found: %s", id)
		}
		return run, nil
	}

	run, err := s.LatestRun()
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, errors.New("no stored runs (run analyze with --save first)")
	}
	return run, nil
}

func runMeta(run *store.Run) report.Meta {
	return report.Meta{
		Checkpoint: run.Checkpoint,
		Dataset:    run.Dataset,
		Steps:      run.Steps,
		Method:     run.Method,
		Created:    run.Created,
	}
}
