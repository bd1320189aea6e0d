package audit

import (
	"context"
	"encoding/json"
	"time"

	appctx "shopledger/internal/core/context"
	"shopledger/internal/core/id"
	"shopledger/pkg/logger"
)

// systemActor is recorded when no authenticated user is present in context.
const systemActor = "system"

// Service records and lists audit events.
//
// Record never returns an error: an audit write failure must not mask the
// success of the caller's primary operation. Failures are surfaced on the
// operational log at error level instead.
type Service struct {
	repo Repository
}

// NewService creates a new audit service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one audit event. The actor name is taken from the request
// context. info is marshalled to JSON; an unmarshalable payload degrades to
// an empty object rather than dropping the event.
func (s *Service) Record(ctx context.Context, detail, category, route string, info any) {
	user := appctx.GetUserName(ctx)
	if user == "" {
		user = systemActor
	}

	payload := json.RawMessage("{}")
	if info != nil {
		data, err := json.Marshal(info)
		if err != nil {
			logger.Warn(ctx, "audit payload not serializable",
				"detail", detail,
				"route", route,
				"error", err,
			)
		} else {
			payload = data
		}
	}

	event := Event{
		ID:             id.New(),
		User:           user,
		Detail:         detail,
		EventCategory:  category,
		Route:          route,
		AdditionalInfo: payload,
		Timestamp:      time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		// Swallowed deliberately: the primary operation already succeeded.
		logger.Error(ctx, "audit event write failed",
			"detail", detail,
			"category", category,
			"route", route,
			"error", err,
		)
	}
}

// List returns events matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Event, error) {
	if filter.Limit <= 0 {
		filter.Limit = 200
	}
	return s.repo.List(ctx, filter)
}
