package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/rm-hull/api-pgd-client/internal"
	"github.com/rm-hull/api-pgd-client/internal/models"
	"github.com/rm-hull/api-pgd-client/pkg/pgd"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Import queues the records in path for upload. A .csv file holds
// participants, one per row with a header line; anything else is read as a
// JSON array of records of the given kind.
func Import(dbPath, path, kind string) error {
	k, err := models.ParseOutboxKind(kind)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close %s: %v", path, err)
		}
	}()

	var entries []models.OutboxEntry
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		if k != models.KindParticipant {
			return errors.Newf("CSV import only supports participants, not %s", k)
		}
		entries, err = participantsFromCSV(f)
	} else {
		entries, err = entriesFromJSON(f, k)
	}
	if err != nil {
		return err
	}

	repo, err := openOutbox(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Printf("failed to close repository: %v", err)
		}
	}()

	n, err := repo.Enqueue(entries)
	if err != nil {
		return err
	}
	log.Printf("queued %d %s records", n, k)
	return nil
}

func participantsFromCSV(f *os.File) ([]models.OutboxEntry, error) {
	var entries []models.OutboxEntry
	for record := range internal.ParseCSV(f, true, models.ParticipantFromCSV) {
		if record.Error != nil {
			return nil, errors.Wrap(record.Error, "failed to load participants")
		}
		entry, err := models.ParticipantEntry(record.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func entriesFromJSON(f *os.File, kind models.OutboxKind) ([]models.OutboxEntry, error) {
	decoder := json.NewDecoder(f)
	var entries []models.OutboxEntry
	var err error

	switch kind {
	case models.KindParticipant:
		entries, err = decodeAll(decoder, models.ParticipantEntry)
	case models.KindDeliveryPlan:
		entries, err = decodeAll(decoder, models.DeliveryPlanEntry)
	case models.KindWorkPlan:
		entries, err = decodeAll(decoder, models.WorkPlanEntry)
	case models.KindUser:
		entries, err = decodeAll(decoder, models.UserEntry)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s records", kind)
	}
	return entries, nil
}

func decodeAll[T any](decoder *jsoniter.Decoder, toEntry func(*T) (models.OutboxEntry, error)) ([]models.OutboxEntry, error) {
	var records []*T
	if err := decoder.Decode(&records); err != nil {
		return nil, err
	}

	entries := make([]models.OutboxEntry, 0, len(records))
	for _, record := range records {
		entry, err := toEntry(record)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Sync dispatches one batch of the outbox straight away.
func Sync(dbPath string, batchSize int, ratePerSecond float64) error {
	return withClient(func(ctx context.Context, client *pgd.Client) error {
		repo, err := openOutbox(dbPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := repo.Close(); err != nil {
				log.Printf("failed to close repository: %v", err)
			}
		}()

		dispatcher := internal.NewDispatcher(client, repo, newLimiter(ratePerSecond))
		result, err := dispatcher.Dispatch(ctx, batchSize)
		log.Printf("dispatched %d records, %d failed", result.Sent, result.Failed)
		return err
	})
}
