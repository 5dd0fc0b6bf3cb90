package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/KAsare1/Postly-server/cmd/api"
	"github.com/KAsare1/Postly-server/service/cache"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (SIGHUP flushes the page cache)",
		RunE:  serveCommand,
	}
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pages, err := cache.Open(ctx, e.cfg, e.log)
	if err != nil {
		return err
	}
	e.log.WithField("backend", e.cfg.CacheBackend).Info("Page cache ready")

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go flushOnHangup(ctx, pages, hup, e.log)

	return api.NewApiServer(e.cfg, e.db, pages, e.log).Run(ctx)
}

// flushOnHangup clears pages every time hup fires, until ctx is done.
func flushOnHangup(ctx context.Context, pages cache.PageCache, hup <-chan os.Signal, log logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := pages.Clear(ctx); err != nil {
				log.WithError(err).Error("Page cache flush failed")
				continue
			}
			log.Info("Page cache flushed")
		}
	}
}
