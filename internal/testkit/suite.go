package testkit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

// Suite manages the Postgres and Redis containers shared by integration tests.
type Suite struct {
	mu    sync.Mutex
	cfg   Config
	pg    *PostgresModule
	redis *RedisModule
	ready bool
}

var (
	globalSuite *Suite
	globalOnce  sync.Once
)

// Global returns the singleton Suite instance.
func Global() *Suite {
	globalOnce.Do(func() {
		globalSuite = &Suite{cfg: LoadConfig()}
	})
	return globalSuite
}

// Setup starts both containers in parallel, or uses the external overrides.
// If either fails, the other is terminated. Setup fails if called twice
// without Shutdown in between.
func (s *Suite) Setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return fmt.Errorf("suite already set up; call Shutdown first")
	}

	var (
		pg    *PostgresModule
		redis *RedisModule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pg, err = StartPostgres(gctx, &s.cfg)
		if err != nil {
			return fmt.Errorf("setup postgres: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		redis, err = StartRedis(gctx, &s.cfg)
		if err != nil {
			return fmt.Errorf("setup redis: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if !s.cfg.KeepContainers {
			s.terminate(ctx, pg, redis)
		}
		return err
	}

	s.pg, s.redis, s.ready = pg, redis, true
	return nil
}

// Shutdown terminates all containers unless KEEP_CONTAINERS is set.
func (s *Suite) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return
	}
	s.ready = false

	if s.cfg.KeepContainers {
		fmt.Println("KEEP_CONTAINERS=true, skipping container cleanup")
		fmt.Println("  Postgres DSN:", s.pg.DSN())
		fmt.Println("  Redis URL:", s.redis.URL())
		return
	}

	if err := s.terminate(ctx, s.pg, s.redis); err != nil {
		fmt.Println("warning: failed to terminate containers:", err)
	}
}

func (s *Suite) terminate(ctx context.Context, pg *PostgresModule, redis *RedisModule) error {
	var errs []error
	if redis != nil {
		if err := redis.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if pg != nil {
		if err := pg.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PostgresDSN returns the connection string for the test Postgres database.
func (s *Suite) PostgresDSN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pg == nil {
		return ""
	}
	return s.pg.DSN()
}

// RedisURL returns the redis:// URL of the test Redis instance.
func (s *Suite) RedisURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redis == nil {
		return ""
	}
	return s.redis.URL()
}

// Run sets up the suite, calls the afterSetup callbacks, runs the tests and
// shuts down. Intended for use in TestMain.
func (s *Suite) Run(m *testing.M, afterSetup ...func() error) {
	ctx := context.Background()

	if err := s.Setup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "integration test setup failed: %v\n", err)
		os.Exit(1)
	}

	for _, fn := range afterSetup {
		if err := fn(); err != nil {
			fmt.Fprintf(os.Stderr, "afterSetup callback failed: %v\n", err)
			s.Shutdown(ctx)
			os.Exit(1)
		}
	}

	code := m.Run()

	s.Shutdown(ctx)
	os.Exit(code)
}

// Run is a package-level convenience that delegates to Global().Run.
func Run(m *testing.M, afterSetup ...func() error) {
	Global().Run(m, afterSetup...)
}
