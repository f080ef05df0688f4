// Command blackjack serves a single local blackjack campaign over HTTP.
package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	mrand "math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"blackjack/internal/app"
	"blackjack/internal/config"
	"blackjack/internal/ports"
	"blackjack/internal/ports/httpapi"
	"blackjack/internal/ports/memstore"
	"blackjack/internal/ports/redisstore"
	"blackjack/internal/ports/sqlstore"
	"blackjack/internal/ports/stdlog"
	"blackjack/internal/records"
)

// localOwner keys the single player's records in shared stores.
const localOwner = "local"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadEnv()
	if err != nil {
		return err
	}
	logger := stdlog.New(log.Default(), os.Getenv("DEBUG") != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scenarios, err := config.LoadScenarios(cfg.ScenariosPath)
	if err != nil {
		return err
	}

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed = cryptoSeed()
	}
	session, err := app.NewSession(ctx, app.SessionConfig{
		Scenarios:  scenarios,
		Repository: records.NewRepository(store, logger),
		Rng:        mrand.New(mrand.NewSource(seed)),
	})
	if err != nil {
		return err
	}

	server := httpapi.New(session, logger, nil)
	go server.Run(ctx, cfg.Tick)

	srv := &http.Server{Addr: cfg.Addr, Handler: server.Router(), ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s with %d scenarios (%s store)", cfg.Addr, len(scenarios), cfg.Store)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Env) (ports.KVStore, io.Closer, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db.Store(localOwner), db, nil
	case config.StorePostgres:
		db, err := sqlstore.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return db.Store(localOwner), db, nil
	case config.StoreRedis:
		s, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.StoreMemory:
		return memstore.New(), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func cryptoSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err == nil {
		return int64(binary.LittleEndian.Uint64(b[:]))
	}
	return time.Now().UnixNano()
}
