package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/readlater/internal/config"
	"github.com/runnerr0/readlater/internal/logger"
	"github.com/runnerr0/readlater/internal/render"
	"github.com/runnerr0/readlater/internal/source"
	"github.com/runnerr0/readlater/internal/web"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, store, closeStore, err := openLibrary(c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if cfg.Source.OwnerColumn != "" && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("source.owner_column requires auth.jwt_secret (or %s)", config.EnvJWTSecret)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := openSource(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer closeSrc()

	handler, err := newHandler(cfg, src, time.Now)
	if err != nil {
		return err
	}

	listen := c.listen
	if listen == nil {
		listen = func(addr string) (net.Listener, error) { return net.Listen("tcp", addr) }
	}
	ln, err := listen(cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	srv := web.NewServer(cfg.Addr(), handler, time.Duration(cfg.Server.ReadHeaderTimeoutSeconds)*time.Second)
	return serve(ctx, srv, ln, time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
}

// newHandler assembles the web reader from config.
func newHandler(cfg *config.Config, src source.Source, clock func() time.Time) (http.Handler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h, err := web.NewRouter(web.Deps{
		Source:   src,
		Renderer: render.NewHTMLRenderer(),
		Clock:    clock,
		Location: loc,
		Auth:     web.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.CookieName, clock),
		Metrics:  web.NewMetrics(reg),
		Slow:     time.Second,
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// serve runs srv on ln until ctx is done, then drains it within grace.
func serve(ctx context.Context, srv *web.Server, ln net.Listener, grace time.Duration) error {
	if grace <= 0 {
		grace = 10 * time.Second
	}
	log := logger.Named("serve")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
