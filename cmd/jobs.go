package cmd

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-onboarding/app/repository"
	"github.com/vibast-solutions/ms-go-onboarding/config"

	_ "github.com/go-sql-driver/mysql"
)

var cleanupWorker bool

var cleanupSessionsCmd = &cobra.Command{
	Use:   "cleanup-sessions",
	Short: "Purge wizard session state untouched for longer than the session TTL",
	Run: func(_ *cobra.Command, _ []string) {
		runCleanup(cleanupWorker)
	},
}

func init() {
	rootCmd.AddCommand(cleanupSessionsCmd)
	cleanupSessionsCmd.Flags().BoolVar(&cleanupWorker, "worker", false, "Run continuously using configured interval")
}

func runCleanup(worker bool) {
	cfg, store, cleanup := mustCreateKeyValueStore()
	defer cleanup()

	job := func() error {
		cutoff := time.Now().Add(-cfg.Onboarding.SessionTTL)
		purged, err := store.DeleteStale(context.Background(), cutoff)
		if err != nil {
			return err
		}
		logrus.WithField("purged", purged).Info("Stale wizard sessions purged")
		return nil
	}

	if worker {
		runWorker("cleanup_sessions", cfg.Jobs.CleanupInterval, job)
		return
	}
	runJob("cleanup_sessions", job)
}

func runWorker(name string, interval time.Duration, fn func() error) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runJob(name, fn)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, fn)
		}
	}
}

// mustCreateKeyValueStore opens the MySQL-backed store. The Redis store
// expires keys through its TTL, so the cleanup job only applies to MySQL.
func mustCreateKeyValueStore() (*config.Config, *repository.MySQLKeyValueStore, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	if cfg.Onboarding.Store != config.StoreMySQL {
		logrus.Fatal("cleanup-sessions only applies to the mysql store; redis expires keys via TTL")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, repository.NewMySQLKeyValueStore(db), cleanup
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
