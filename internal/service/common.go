package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"freightops/internal/model"
	"freightops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Workflow events pushed to dashboards after commit
const (
	EventShipmentRegistered    = "shipment.registered"
	EventDeliveryCreated       = "delivery.created"
	EventDeliveryStatusChanged = "delivery.status_changed"
	EventLabourAssigned        = "labour.assigned"
	EventLabourTransition      = "labour.transition"
	EventLabourPayment         = "labour.payment"
	EventFareSettled           = "vehicle.fare_settled"
	EventVehicleTransaction    = "vehicle.transaction"
	EventTripLogged            = "trip.logged"
)

const dateLayout = "2006-01-02"

// EventPublisher receives workflow events. Implementations must not block.
type EventPublisher interface {
	Publish(eventType string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Actor is the authenticated caller a mutating operation is attributed to
type Actor struct {
	ID       uuid.UUID
	Username string
	Role     string
}

func (a Actor) validate() error {
	if a.ID == uuid.Nil {
		return Validation("caller identity is required")
	}
	return nil
}

func (a Actor) ref() *uuid.UUID {
	id := a.ID
	return &id
}

// writeAudit records an audit entry on whatever transaction ctx carries
func writeAudit(ctx context.Context, repo repository.AuditRepository, actor Actor, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     actor.ref(),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := repo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, Validation("invalid %s", field)
	}
	return id, nil
}

func parseOptionalID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339 and returns a UTC time
func parseDate(raw, field string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, Validation("invalid %s, expected YYYY-MM-DD", field)
	}
	return t.UTC(), nil
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// checkCents rejects amounts finer than the 2 decimal places money columns store
func checkCents(field string, amounts ...decimal.Decimal) error {
	for _, d := range amounts {
		if !d.Equal(d.Round(2)) {
			return Validation("%s must have at most 2 decimal places", field)
		}
	}
	return nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return page, limit
}
