package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/rm-hull/api-pgd-client/internal/models"
	"github.com/rm-hull/api-pgd-client/pkg/pgd"
)

// rootContext is cancelled on SIGINT or SIGTERM.
func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withClient runs fn with a configured client and a cancellable context.
func withClient(fn func(ctx context.Context, client *pgd.Client) error) error {
	client, err := bootstrap(nil)
	if err != nil {
		return err
	}
	ctx, stop := rootContext()
	defer stop()
	return fn(ctx, client)
}

// newLimiter allows ratePerSecond uploads; zero or less is unlimited.
func newLimiter(ratePerSecond float64) *rate.Limiter {
	if ratePerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(ratePerSecond), 1)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

func Token() error {
	return withClient(func(ctx context.Context, client *pgd.Client) error {
		token, err := client.GetToken(ctx)
		if err != nil {
			return err
		}
		return printJSON(token)
	})
}

func FetchUser(email string) error {
	return withClient(func(ctx context.Context, client *pgd.Client) error {
		user, err := client.FetchUser(ctx, email)
		if err != nil {
			return err
		}
		return printJSON(user)
	})
}

func FetchUsers() error {
	return withClient(func(ctx context.Context, client *pgd.Client) error {
		users, err := client.FetchUsers(ctx)
		if err != nil {
			return err
		}
		return printJSON(users)
	})
}

func FetchParticipant(lotacao int, siape, originUnit string, authorizerUnit int, asCSV bool) error {
	return withClient(func(ctx context.Context, client *pgd.Client) error {
		participant, err := client.FetchParticipant(ctx, lotacao, siape, originUnit, authorizerUnit)
		if err != nil {
			return err
		}
		if !asCSV {
			return printJSON(participant)
		}

		w := csv.NewWriter(os.Stdout)
		if err := w.Write(models.ParticipantCSVHeaders); err != nil {
			return err
		}
		if err := w.Write(models.ParticipantToCSV(participant)); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
}

func FetchDeliveryPlan(planID, originUnit string, authorizerUnit int) error {
	return withClient(func(ctx context.Context, client *pgd.Client) error {
		plan, err := client.FetchDeliveryPlan(ctx, planID, originUnit, authorizerUnit)
		if err != nil {
			return err
		}
		return printJSON(plan)
	})
}

func FetchWorkPlan(planID, originUnit string, authorizerUnit int) error {
	return withClient(func(ctx context.Context, client *pgd.Client) error {
		plan, err := client.FetchWorkPlan(ctx, planID, originUnit, authorizerUnit)
		if err != nil {
			return err
		}
		return printJSON(plan)
	})
}
