package internal

import (
	"context"
	"log"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/rm-hull/api-pgd-client/internal/models"
	"github.com/rm-hull/api-pgd-client/pkg/pgd"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Uploader is the part of the PGD client the dispatcher needs.
type Uploader interface {
	UpsertParticipant(ctx context.Context, p *pgd.Participant) (any, error)
	UpsertDeliveryPlan(ctx context.Context, plan *pgd.DeliveryPlan) (any, error)
	UpsertWorkPlan(ctx context.Context, plan *pgd.WorkPlan) (any, error)
	UpsertUser(ctx context.Context, user *pgd.User) (any, error)
}

// DispatchObserver is told the outcome of every dispatched entry.
type DispatchObserver interface {
	ObserveDispatch(kind string, sent bool)
}

type DispatchResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type Dispatcher struct {
	client   Uploader
	repo     OutboxRepository
	limiter  *rate.Limiter
	observer DispatchObserver
}

type DispatcherOption func(*Dispatcher)

func WithDispatchObserver(observer DispatchObserver) DispatcherOption {
	return func(d *Dispatcher) {
		d.observer = observer
	}
}

// NewDispatcher creates a Dispatcher. A nil limiter means no rate limit.
func NewDispatcher(client Uploader, repo OutboxRepository, limiter *rate.Limiter, opts ...DispatcherOption) *Dispatcher {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	d := &Dispatcher{
		client:  client,
		repo:    repo,
		limiter: limiter,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch uploads up to batchSize pending entries, one at a time. An entry
// that fails to upload is marked failed and the batch carries on; repository
// errors and context cancellation stop it.
func (d *Dispatcher) Dispatch(ctx context.Context, batchSize int) (DispatchResult, error) {
	var result DispatchResult

	entries, err := d.repo.Pending(batchSize)
	if err != nil {
		return result, errors.Wrap(err, "failed to read outbox")
	}

	for _, entry := range entries {
		if err := d.limiter.Wait(ctx); err != nil {
			return result, errors.Wrap(err, "dispatch interrupted")
		}

		response, err := d.upload(ctx, &entry)
		if err != nil {
			log.Printf("failed to upload %s %s: %v", entry.Kind, entry.Key, err)
			if err := d.repo.MarkFailed(entry.ID, err.Error()); err != nil {
				return result, err
			}
			result.Failed++
			d.observe(entry.Kind, false)
			continue
		}

		encoded, err := json.MarshalToString(response)
		if err != nil {
			encoded = ""
		}
		if err := d.repo.MarkSent(entry.ID, encoded); err != nil {
			return result, err
		}
		result.Sent++
		d.observe(entry.Kind, true)
	}

	return result, nil
}

func (d *Dispatcher) upload(ctx context.Context, entry *models.OutboxEntry) (any, error) {
	switch entry.Kind {
	case models.KindParticipant:
		var p pgd.Participant
		if err := entry.DecodePayload(&p); err != nil {
			return nil, err
		}
		return d.client.UpsertParticipant(ctx, &p)

	case models.KindDeliveryPlan:
		var plan pgd.DeliveryPlan
		if err := entry.DecodePayload(&plan); err != nil {
			return nil, err
		}
		return d.client.UpsertDeliveryPlan(ctx, &plan)

	case models.KindWorkPlan:
		var plan pgd.WorkPlan
		if err := entry.DecodePayload(&plan); err != nil {
			return nil, err
		}
		return d.client.UpsertWorkPlan(ctx, &plan)

	case models.KindUser:
		var user pgd.User
		if err := entry.DecodePayload(&user); err != nil {
			return nil, err
		}
		return d.client.UpsertUser(ctx, &user)

	default:
		return nil, errors.Newf("unknown record kind: %q", entry.Kind)
	}
}

func (d *Dispatcher) observe(kind models.OutboxKind, sent bool) {
	if d.observer != nil {
		d.observer.ObserveDispatch(string(kind), sent)
	}
}
