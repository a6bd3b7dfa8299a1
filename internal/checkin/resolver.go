package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"school_transport/internal/models"
)

// Response messages returned to the reader.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	MessageCardNotFound   = "Card not found"
	MessageInternalError  = "Internal error"
	MessageMissingCardID  = "Missing card_id"
	MessageInvalidPayload = "Invalid JSON payload"

	logMessageUnknownCard = "Card not registered"
)

var (
	ErrCardNotFound = errors.New("card not found")
	ErrLookupFailed = errors.New("card lookup failed")
	ErrLogFailed    = errors.New("trip log not stored")
)

// Registry is the storage the resolver needs.
type Registry interface {
	FindCard(ctx context.Context, cardID string) (*models.StudentCard, error)
	AppendTripLog(ctx context.Context, log *models.TripLog) error
}

// Publisher receives every stored trip log.
type Publisher interface {
	Publish(log models.TripLog)
}

// Response is the JSON body sent back to the reader.
type Response struct {
	Status      string `json:"status"`
	StudentName string `json:"student_name,omitempty"`
	StudentID   uint   `json:"student_id,omitempty"`
	Message     string `json:"message,omitempty"`
}

type Resolver struct {
	registry  Registry
	publisher Publisher
	now       func() time.Time
}

// NewResolver returns a resolver backed by registry. publisher may be nil.
func NewResolver(registry Registry, publisher Publisher) *Resolver {
	return &Resolver{
		registry:  registry,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CheckIn resolves the card of req to a student and appends exactly one trip log.
// The returned error is ErrCardNotFound for unknown cards, or wraps ErrLookupFailed / ErrLogFailed.
// The Response is always usable as the reply body.
func (r *Resolver) CheckIn(ctx context.Context, req Request) (Response, error) {
	entry := &models.TripLog{
		CardID:    req.CardID,
		RouteID:   req.RouteID,
		Timestamp: req.Timestamp,
		EventType: req.EventType,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}
	if entry.EventType == "" {
		entry.EventType = models.EventCheckIn
	}
	if req.GPSLat != nil {
		entry.GPSLat = *req.GPSLat
	}
	if req.GPSLon != nil {
		entry.GPSLon = *req.GPSLon
	}

	fields := logrus.Fields{"card_id": req.CardID, "event_type": entry.EventType}

	card, err := r.registry.FindCard(ctx, req.CardID)
	var (
		resp    Response
		outcome error
	)
	switch {
	case err != nil:
		logrus.WithError(err).WithFields(fields).Error("Check-in: card lookup failed")
		entry.Status = models.TripStatusError
		entry.Message = err.Error()
		resp = Response{Status: StatusError, Message: MessageInternalError}
		outcome = fmt.Errorf("%w: %v", ErrLookupFailed, err)
	case card == nil:
		logrus.WithFields(fields).Warn("Check-in: unknown card")
		entry.Status = models.TripStatusDenied
		entry.Message = logMessageUnknownCard
		resp = Response{Status: StatusError, Message: MessageCardNotFound}
		outcome = ErrCardNotFound
	default:
		studentID := card.StudentID
		entry.StudentID = &studentID
		entry.Status = models.TripStatusSuccess
		entry.Message = fmt.Sprintf("%s %s", card.Student.Name, actionVerb(entry.EventType))
		resp = Response{Status: StatusSuccess, StudentName: card.Student.Name, StudentID: studentID}
		fields["student_id"] = studentID
	}

	if err := r.registry.AppendTripLog(ctx, entry); err != nil {
		logrus.WithError(err).WithFields(fields).Error("Check-in: failed to store trip log")
		return Response{Status: StatusError, Message: MessageInternalError}, fmt.Errorf("%w: %v", ErrLogFailed, err)
	}

	if r.publisher != nil {
		r.publisher.Publish(*entry)
	}
	if outcome == nil {
		logrus.WithFields(fields).Info("Check-in recorded")
	}
	return resp, outcome
}

func actionVerb(eventType string) string {
	if eventType == models.EventCheckOut {
		return "checked out"
	}
	return "checked in"
}
