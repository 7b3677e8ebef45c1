package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/relaygrid/wiremux/internal/admin"
	"github.com/relaygrid/wiremux/internal/bufpool"
	"github.com/relaygrid/wiremux/internal/config"
	"github.com/relaygrid/wiremux/internal/engine"
	"github.com/relaygrid/wiremux/internal/gobmarshal"
	"github.com/relaygrid/wiremux/internal/localservice"
	"github.com/relaygrid/wiremux/internal/observability"
	"github.com/relaygrid/wiremux/internal/transport"
	"github.com/relaygrid/wiremux/internal/workerpool"
)

func main() {
	log.Logger = observability.InitLogger("wiremuxd")

	configPath := "cmd/wiremuxd/config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", configPath).Msg("falling back to default config")
		cfg = config.Default()
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "wiremuxd: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.EngineConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services := localservice.New()
	services.Register("echo", localservice.EchoFactory)

	pool := bufpool.New(4096)
	marshaller := gobmarshal.New([]byte{})
	executor := workerpool.New(8, 64)
	defer executor.Close()

	adminSrv := admin.New(cfg.Name, log.Logger)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	defer ln.Close()

	listener := transport.NewListener(log.Logger, func(conn *transport.Conn) transport.Dispatcher {
		e := engine.New()
		e.Transport = conn
		e.Pool = pool
		e.Marshaller = marshaller
		e.ServiceRegistry = services
		e.Executor = executor
		e.Log = log.Logger
		e.Metrics = observability.EngineMetrics{Node: cfg.Name}

		remote := conn.RemoteAddr()
		adminSrv.Track(remote, e)
		return &trackedEngine{Engine: e, untrack: func() { adminSrv.Untrack(remote) }}
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- listener.Serve(ctx, ln)
	}()

	adminServer := &http.Server{Addr: cfg.AdminAddr, Handler: adminSrv.Handler()}
	go func() {
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("admin server stopped")
		}
	}()

	log.Info().Str("addr", cfg.Addr).Str("admin_addr", cfg.AdminAddr).Msg("wiremuxd started")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("listener stopped")
		}
	}

	listener.CloseAll()
	_ = adminServer.Close()
	return nil
}

// trackedEngine wraps *engine.Engine so its Teardown also untracks it from
// the admin server's /debug/registries view.
type trackedEngine struct {
	*engine.Engine
	untrack func()
}

func (t *trackedEngine) Teardown() {
	t.Engine.Teardown()
	t.untrack()
}
