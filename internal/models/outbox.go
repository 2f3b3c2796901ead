package models

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/rm-hull/api-pgd-client/pkg/pgd"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type OutboxKind string

const (
	KindParticipant  OutboxKind = "participant"
	KindDeliveryPlan OutboxKind = "delivery_plan"
	KindWorkPlan     OutboxKind = "work_plan"
	KindUser         OutboxKind = "user"
)

// ParseOutboxKind accepts the kind names used on the command line.
func ParseOutboxKind(s string) (OutboxKind, error) {
	switch kind := OutboxKind(s); kind {
	case KindParticipant, KindDeliveryPlan, KindWorkPlan, KindUser:
		return kind, nil
	default:
		return "", errors.Newf("unknown record kind: %q", s)
	}
}

type OutboxStatus string

const (
	StatusPending OutboxStatus = "pending"
	StatusSent    OutboxStatus = "sent"
	StatusFailed  OutboxStatus = "failed"
)

// OutboxEntry is a record waiting to be upserted to the API. Key identifies
// the record so that enqueuing it again replaces the queued version.
type OutboxEntry struct {
	ID        int64        `json:"id"`
	Kind      OutboxKind   `json:"kind"`
	Key       string       `json:"key"`
	Payload   string       `json:"payload"`
	Status    OutboxStatus `json:"status"`
	Attempts  int          `json:"attempts"`
	LastError *string      `json:"last_error,omitempty"`
	Response  *string      `json:"response,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type OutboxCount struct {
	Kind     OutboxKind   `json:"kind"`
	Status   OutboxStatus `json:"status"`
	Attempts int          `json:"attempts"`
	Count    int          `json:"count"`
}

type OutboxStatistics struct {
	Total               int                       `json:"total"`
	ByStatus            map[string]int            `json:"by_status"`
	ByKind              map[string]map[string]int `json:"by_kind"`
	AttemptDistribution map[string]int            `json:"attempt_distribution"`
	AverageAttempts     map[string]float64        `json:"average_attempts"`
	MaxAttempts         map[string]int            `json:"max_attempts"`
}

// NewOutboxEntry serialises record as the payload of a pending entry.
func NewOutboxEntry(kind OutboxKind, key string, record any) (OutboxEntry, error) {
	payload, err := json.MarshalToString(record)
	if err != nil {
		return OutboxEntry{}, errors.Wrapf(err, "failed to encode %s %s", kind, key)
	}
	return OutboxEntry{
		Kind:    kind,
		Key:     key,
		Payload: payload,
		Status:  StatusPending,
	}, nil
}

// DecodePayload unmarshals the entry payload into target.
func (e *OutboxEntry) DecodePayload(target any) error {
	if err := json.UnmarshalFromString(e.Payload, target); err != nil {
		return errors.Wrapf(err, "invalid %s payload for %s", e.Kind, e.Key)
	}
	return nil
}

func (e *OutboxEntry) ToTuple(now time.Time) []any {
	return []any{
		string(e.Kind),
		e.Key,
		e.Payload,
		now,
		now,
	}
}

func ParticipantEntry(p *pgd.Participant) (OutboxEntry, error) {
	key := fmt.Sprintf("%s/%d/%d/%s", p.OrigemUnidade, p.CodUnidadeAutorizadora, p.CodUnidadeLotacao, p.MatriculaSIAPE)
	return NewOutboxEntry(KindParticipant, key, p)
}

func DeliveryPlanEntry(plan *pgd.DeliveryPlan) (OutboxEntry, error) {
	key := fmt.Sprintf("%s/%d/%s", plan.OrigemUnidade, plan.CodUnidadeAutorizadora, plan.IDPlanoEntregas)
	return NewOutboxEntry(KindDeliveryPlan, key, plan)
}

func WorkPlanEntry(plan *pgd.WorkPlan) (OutboxEntry, error) {
	key := fmt.Sprintf("%s/%d/%s", plan.OrigemUnidade, plan.CodUnidadeAutorizadora, plan.IDPlanoTrabalho)
	return NewOutboxEntry(KindWorkPlan, key, plan)
}

func UserEntry(user *pgd.User) (OutboxEntry, error) {
	return NewOutboxEntry(KindUser, user.Email, user)
}
