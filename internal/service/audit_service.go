package service

import (
	"context"
	"fmt"
	"time"

	"freightops/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     *string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// AuditLogFilter is the typed query of the audit listing. Dates are
// YYYY-MM-DD and bound whole days.
type AuditLogFilter struct {
	Action   string
	EntityID string
	UserID   string
	From     string
	To       string
	Page     int
	Limit    int
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, filter AuditLogFilter) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns a page of audit entries, newest first
func (s *auditService) GetAuditLogs(ctx context.Context, filter AuditLogFilter) ([]AuditLogResponse, int64, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	query := repository.AuditFilter{Action: filter.Action, EntityID: filter.EntityID, Page: page, Limit: limit}

	userID, err := parseOptionalID(filter.UserID, "user_id")
	if err != nil {
		return nil, 0, err
	}
	query.UserID = userID

	if filter.From != "" {
		from, err := parseDate(filter.From, "from")
		if err != nil {
			return nil, 0, err
		}
		start, _ := repository.DayBounds(from)
		query.From = &start
	}
	if filter.To != "" {
		to, err := parseDate(filter.To, "to")
		if err != nil {
			return nil, 0, err
		}
		_, end := repository.DayBounds(to)
		query.To = &end
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return nil, 0, Validation("to must not be before from")
	}

	logs, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		if l.User != nil {
			username = l.User.Username
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     idString(l.UserID),
			Username:   username,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return res, total, nil
}
