/**
 * @description
 * This file defines the core data models for card point lookups: the inbound
 * card query, the normalized lookup result and the internal event published
 * after every lookup.
 *
 * @notes
 * - Nothing here is persisted. Every value lives for a single request.
 * - The JSON envelope written back to callers is built in internal/api from
 *   PointResult, so the wire field names stay out of the domain model.
 */
package domain

import (
	"errors"
	"time"
	"unicode/utf8"
)

// MinCardNumberLength is the shortest card identifier accepted by the API.
const MinCardNumberLength = 15

// ErrInvalidCardNumber is returned when a card identifier is missing or too short.
var ErrInvalidCardNumber = errors.New("card number must be at least 15 characters")

// FailureKind separates failures reported by the upstream from failures to reach it.
type FailureKind string

const (
	FailureBusiness  FailureKind = "business"
	FailureTransport FailureKind = "transport"
)

// CardQuery carries the caller-supplied card identifier.
type CardQuery struct {
	CardNumber string
}

// NewCardQuery validates the identifier and wraps it in a CardQuery.
func NewCardQuery(cardNumber string) (CardQuery, error) {
	if utf8.RuneCountInString(cardNumber) < MinCardNumberLength {
		return CardQuery{}, ErrInvalidCardNumber
	}
	return CardQuery{CardNumber: cardNumber}, nil
}

// Masked returns the card identifier with everything after the first four characters hidden.
func (q CardQuery) Masked() string {
	return MaskCardNumber(q.CardNumber)
}

// MaskCardNumber keeps the first four characters of a card identifier for logging.
func MaskCardNumber(cardNumber string) string {
	runes := []rune(cardNumber)
	if len(runes) <= 4 {
		return string(runes) + "..."
	}
	return string(runes[:4]) + "..."
}

// PointResult is the normalized outcome of a single point lookup.
// Exactly one of the success or failure field groups is meaningful,
// depending on Success.
type PointResult struct {
	Success bool

	// Success fields.
	HasValue      bool
	Value         float64
	AmountDisplay string

	// Failure fields.
	FailureKind    FailureKind
	Detail         string
	UpstreamStatus int
	Timeout        bool
}

// Outcome is a short label for the result, used for metrics and events.
func (r PointResult) Outcome() string {
	switch {
	case r.Success:
		return "success"
	case r.FailureKind == FailureBusiness:
		return "business_failure"
	case r.Timeout:
		return "timeout"
	default:
		return "network_error"
	}
}

// PointCheckedEvent is published after every classified lookup.
type PointCheckedEvent struct {
	EventID        string    `json:"event_id"`
	MaskedCard     string    `json:"masked_card"`
	Outcome        string    `json:"outcome"`
	HasValue       bool      `json:"has_value"`
	AmountDisplay  string    `json:"amount_display,omitempty"`
	FailureKind    string    `json:"failure_kind,omitempty"`
	UpstreamStatus int       `json:"upstream_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
