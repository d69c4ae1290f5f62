package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/beveragedistro/ops-backend/internal/stock"
	"github.com/beveragedistro/ops-backend/pkg/config"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/logger"
	"github.com/beveragedistro/ops-backend/pkg/redis"
)

const lockName = "stock-reconcile"

type reconciler interface {
	Check(ctx context.Context, productKey string) ([]stock.Drift, error)
	Fix(ctx context.Context, productKey string) ([]stock.Drift, error)
}

type locker interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "stock-reconcile"})
	_ = godotenv.Load()

	product := flag.String("product", "", "only reconcile this product key")
	fix := flag.Bool("fix", false, "rewrite stored stock to the replayed expectation")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "stock-reconcile",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg, *product, *fix); err != nil {
		logg.Error(context.Background(), "stock reconcile failed", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger, product string, fix bool) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"product": product, "fix": fix})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	rec, err := stock.NewReconciler(dbClient.DB(), nil)
	if err != nil {
		return err
	}

	var lock locker
	if fix {
		var redisClient *redis.Client
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()

		if lock, err = redis.NewLock(redisClient, redisClient.LockKey(lockName), cfg.Reconcile.LockTTL); err != nil {
			return err
		}
	}

	drifts, err := reconcile(ctx, rec, lock, product, fix)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "drifted", countDrifted(drifts)), "stock reconcile finished")
	return printDrifts(os.Stdout, drifts, fix)
}

// reconcile checks drift, or rewrites it while holding lock when fix is set.
func reconcile(ctx context.Context, rec reconciler, lock locker, product string, fix bool) ([]stock.Drift, error) {
	if !fix {
		return rec.Check(ctx, product)
	}
	if lock == nil {
		return nil, errors.New("fix requires a lock")
	}
	var fixed []stock.Drift
	err := lock.Do(ctx, func(ctx context.Context) error {
		var err error
		fixed, err = rec.Fix(ctx, product)
		return err
	})
	if errors.Is(err, redis.ErrLockHeld) {
		return nil, fmt.Errorf("another reconcile run is in progress: %w", err)
	}
	return fixed, err
}

func printDrifts(w io.Writer, drifts []stock.Drift, fixed bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tSTORED\tEXPECTED\tDELTA\tSTATUS")
	for _, d := range drifts {
		status := "ok"
		switch {
		case fixed:
			status = "fixed"
		case !d.InSync():
			status = "drift"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%+d\t%s\n", d.ProductKey, d.Stored, d.Expected, d.Delta(), status)
	}
	return tw.Flush()
}

func countDrifted(drifts []stock.Drift) int {
	n := 0
	for _, d := range drifts {
		if !d.InSync() {
			n++
		}
	}
	return n
}
