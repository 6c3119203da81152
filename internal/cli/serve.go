package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verdict-ml/verdict/internal/config"
	"github.com/verdict-ml/verdict/internal/store"
)

const serverShutdownTimeout = 5 * time.Second

var (
	addrFlag = &cli.StringFlag{
		Name:  "addr",
		Usage: "Listen address",
		Value: config.DefaultAddr,
	}

	serveCmd = &cli.Command{
		Name:   "serve",
		Usage:  "Serve stored reports over local HTTP",
		Action: cmdServe,
		Flags: []cli.Flag{
			addrFlag,
		},
	}
)

func cmdServe(c *cli.Context) error {
	st := getState(c)
	cfg := st.Config
	if c.IsSet(addrFlag.Name) {
		cfg.Addr = c.String(addrFlag.Name)
	}

	s, err := store.Open(cfg.DB, st.Logger)
	if err != nil {
		return err
	}
	defer s.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	newHandler(s, st.Logger).register(router)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st.Logger.Info("server started", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		st.Logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
