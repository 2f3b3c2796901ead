package internal

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

const CRON_SCHEDULE_DISPATCH = "*/15 * * * *" // Every 15 minutes

func StartCron(dispatcher *Dispatcher, schedule string, batchSize int) (*cron.Cron, error) {
	if schedule == "" {
		schedule = CRON_SCHEDULE_DISPATCH
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	log.Printf("Starting CRON job to dispatch the outbox (%s)", schedule)

	if _, err := c.AddFunc(schedule, func() {
		result, err := dispatcher.Dispatch(context.Background(), batchSize)
		if err != nil {
			log.Printf("Error dispatching outbox: %v\n", err)
		}
		if result.Sent > 0 || result.Failed > 0 {
			log.Printf("Dispatched outbox: %d sent, %d failed", result.Sent, result.Failed)
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
