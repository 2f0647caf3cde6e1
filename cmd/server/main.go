package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-oauth-facade/auth"
	"github.com/jrsteele09/go-oauth-facade/auth/coderepo"
	"github.com/jrsteele09/go-oauth-facade/clients"
	fakeclientrepo "github.com/jrsteele09/go-oauth-facade/clients/repofake"
	"github.com/jrsteele09/go-oauth-facade/grant"
	"github.com/jrsteele09/go-oauth-facade/internal/config"
	"github.com/jrsteele09/go-oauth-facade/internal/metrics"
	"github.com/jrsteele09/go-oauth-facade/server"
	"github.com/jrsteele09/go-oauth-facade/storage/postgres"
	"github.com/jrsteele09/go-oauth-facade/token"
	"github.com/jrsteele09/go-oauth-facade/token/redisrepo"
	tokenfakerepo "github.com/jrsteele09/go-oauth-facade/token/repofake"
	"github.com/jrsteele09/go-oauth-facade/users"
	fakeuserrepo "github.com/jrsteele09/go-oauth-facade/users/repofake"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout   = 5 * time.Second
	codePurgeInterval = time.Minute
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	logger := setupLogger(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()

	st, err := openStores(ctx, c)
	if err != nil {
		return err
	}
	defer st.close()

	codes := coderepo.NewInMemoryRepo()
	go purgeCodes(ctx, codes, c.GetAuthCodeTimeout())

	tokens := token.NewManager(st.tokens, c)
	authService, err := auth.NewService(auth.Repos{
		Users:   users.NewService(st.users),
		Clients: st.clients,
		Codes:   codes,
	}, tokens, c)
	if err != nil {
		return err
	}
	dispatcher := authService.Register(grant.NewBuilder(), c.GetEnabledGrantTypes()).Build()

	options := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(metrics.New()),
	}
	for name, check := range st.checks {
		options = append(options, server.WithHealthCheck(name, check))
	}
	handler, err := server.New(c, server.Repos{Users: st.users, Clients: st.clients}, dispatcher, tokens, options...)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func setupLogger(c config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stdout
	if c.GetEnv() == config.EnvDevelopment {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	}
	logger := zerolog.New(out).With().Timestamp().Str("app", c.GetAppName()).Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}

// stores groups the repositories selected by STORAGE and TOKEN_STORE.
type stores struct {
	users   users.Repo
	clients clients.Repo
	tokens  token.Repo
	checks  map[string]server.HealthChecker
	closers []io.Closer
}

func (s *stores) close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}
}

func openStores(ctx context.Context, c config.Config) (*stores, error) {
	st := &stores{checks: map[string]server.HealthChecker{}}

	var db *postgres.DB
	if c.GetStorage() == config.StoragePostgres || c.GetTokenStore() == config.StoragePostgres {
		var err error
		if db, err = postgres.Open(ctx, c.GetDatabaseURL()); err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db)
		st.checks["postgres"] = db
	}

	switch c.GetStorage() {
	case config.StoragePostgres:
		st.users = postgres.NewUserRepo(db)
		st.clients = postgres.NewClientRepo(db)
	default:
		st.users = fakeuserrepo.NewFakeUserRepo()
		st.clients = fakeclientrepo.NewFakeClientRepo()
	}

	switch c.GetTokenStore() {
	case config.StoragePostgres:
		st.tokens = postgres.NewTokenRepo(db)
	case config.StorageRedis:
		rdb, err := redisrepo.NewFromURL(c.GetRedisURL())
		if err != nil {
			st.close()
			return nil, err
		}
		st.tokens = rdb
		st.closers = append(st.closers, rdb)
		st.checks["redis"] = rdb
	default:
		st.tokens = tokenfakerepo.NewFakeTokensRepo()
	}

	zerolog.Ctx(ctx).Info().
		Str("storage", c.GetStorage()).
		Str("token_store", c.GetTokenStore()).
		Msg("stores configured")
	return st, nil
}

func purgeCodes(ctx context.Context, codes *coderepo.InMemoryRepo, ttl time.Duration) {
	ticker := time.NewTicker(codePurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := codes.Purge(now.Add(-ttl)); n > 0 {
				zerolog.Ctx(ctx).Debug().Int("purged", n).Msg("expired authorization codes removed")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
