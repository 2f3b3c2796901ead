package cmd

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/rm-hull/godx"

	"github.com/rm-hull/api-pgd-client/internal"
	"github.com/rm-hull/api-pgd-client/internal/metrics"
	"github.com/rm-hull/api-pgd-client/pkg/pgd"
)

// bootstrap loads the environment and builds the PGD client shared by every
// command. observer may be nil.
func bootstrap(observer pgd.Observer) (*pgd.Client, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	godx.GitVersion()
	godx.EnvironmentVars()
	godx.UserInfo()

	opts := []pgd.Option{pgd.WithLoggingEnabled()}
	if observer != nil {
		opts = append(opts, pgd.WithObserver(observer))
	}

	client, err := pgd.New(pgd.LoadConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to configure PGD client: %w", err)
	}
	return client, nil
}

// openOutbox connects to and migrates the outbox database.
func openOutbox(dbPath string) (internal.OutboxRepository, error) {
	db, err := internal.Connect(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := internal.Migrate(dbPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate SQL: %w", err)
	}

	return internal.NewOutboxRepository(db), nil
}

// bootstrapWithOutbox is bootstrap plus the outbox, with metrics registered on
// the default Prometheus registry.
func bootstrapWithOutbox(dbPath string) (*pgd.Client, internal.OutboxRepository, *metrics.Observer, error) {
	observer, err := metrics.NewObserver(nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	client, err := bootstrap(observer)
	if err != nil {
		return nil, nil, nil, err
	}

	repo, err := openOutbox(dbPath)
	if err != nil {
		return nil, nil, nil, err
	}

	return client, repo, observer, nil
}
