/**
 * @description
 * This file contains the core business logic of the card-point-service. The
 * Service builds the outbound payload for a card, performs the single upstream
 * call and classifies the outcome, then emits a lookup event.
 *
 * @dependencies
 * - context, log, time: Standard Go libraries.
 * - github.com/google/uuid: Event identifiers.
 * - internal/domain, pkg/pointclient: Models and the upstream client.
 */
package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/card-point-service/internal/domain"
	"github.com/transfa/card-point-service/pkg/pointclient"
)

const eventPublishTimeout = 2 * time.Second

// PointQuerier performs the upstream exchange.
type PointQuerier interface {
	QueryPoints(ctx context.Context, payload pointclient.PointRequest) (*pointclient.RawResponse, error)
}

// EventPublisher publishes lookup events. Implementations must be safe for concurrent use.
type EventPublisher interface {
	PublishPointChecked(ctx context.Context, event domain.PointCheckedEvent) error
}

// Service orchestrates a point lookup.
type Service struct {
	client   PointQuerier
	template pointclient.PayloadTemplate
	events   EventPublisher
	now      func() time.Time
}

// NewService creates a new Service. events may be nil.
func NewService(client PointQuerier, template pointclient.PayloadTemplate, events EventPublisher) *Service {
	return &Service{
		client:   client,
		template: template,
		events:   events,
		now:      time.Now,
	}
}

// CheckCardPoints runs one lookup. It never returns an error: every failure is
// folded into the returned PointResult.
//
// The upstream call is detached from the caller's cancellation; only the
// client's own timeout bounds it.
func (s *Service) CheckCardPoints(ctx context.Context, query domain.CardQuery) domain.PointResult {
	payload := s.template.Build(query.CardNumber)

	raw, err := s.client.QueryPoints(context.WithoutCancel(ctx), payload)
	result := Classify(raw, err)

	switch {
	case result.Success:
		log.Printf("level=info component=app op=check_card_points card=%s outcome=%s has_value=%t", query.Masked(), result.Outcome(), result.HasValue)
	case result.FailureKind == domain.FailureBusiness:
		log.Printf("level=warn component=app op=check_card_points card=%s outcome=%s upstream_status=%d detail=%q", query.Masked(), result.Outcome(), result.UpstreamStatus, result.Detail)
	default:
		log.Printf("level=warn component=app op=check_card_points card=%s outcome=%s err=%v", query.Masked(), result.Outcome(), err)
	}

	s.publish(ctx, query, result)
	return result
}

func (s *Service) publish(ctx context.Context, query domain.CardQuery, result domain.PointResult) {
	if s.events == nil {
		return
	}

	event := domain.PointCheckedEvent{
		EventID:        uuid.NewString(),
		MaskedCard:     query.Masked(),
		Outcome:        result.Outcome(),
		HasValue:       result.HasValue,
		AmountDisplay:  result.AmountDisplay,
		FailureKind:    string(result.FailureKind),
		UpstreamStatus: result.UpstreamStatus,
		OccurredAt:     s.now().UTC(),
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if err := s.events.PublishPointChecked(publishCtx, event); err != nil {
		log.Printf("level=warn component=app op=publish_point_checked event_id=%s err=%v", event.EventID, err)
	}
}
