package checkin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school_transport/internal/models"
)

type fakeRegistry struct {
	cards     map[string]*models.StudentCard
	lookupErr error
	appendErr error
	logs      []models.TripLog
}

func (f *fakeRegistry) FindCard(_ context.Context, cardID string) (*models.StudentCard, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.cards[cardID], nil
}

func (f *fakeRegistry) AppendTripLog(_ context.Context, log *models.TripLog) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	log.ID = uint(len(f.logs) + 1)
	f.logs = append(f.logs, *log)
	return nil
}

type fakePublisher struct{ published []models.TripLog }

func (f *fakePublisher) Publish(log models.TripLog) { f.published = append(f.published, log) }

func newRegistry() *fakeRegistry {
	card := &models.StudentCard{CardID: "ABC123", StudentID: 7, Active: true, Status: models.CardStatusActive}
	card.Student = models.Student{Name: "Nguyen Van Minh"}
	card.Student.ID = 7
	return &fakeRegistry{cards: map[string]*models.StudentCard{"ABC123": card}}
}

func fixedResolver(reg Registry, pub Publisher, now time.Time) *Resolver {
	r := NewResolver(reg, pub)
	r.now = func() time.Time { return now }
	return r
}

func TestCheckInKnownCard(t *testing.T) {
	reg := newRegistry()
	pub := &fakePublisher{}
	now := time.Date(2024, 9, 5, 6, 45, 0, 0, time.UTC)
	lat, lon := 16.05, 108.2
	routeID := uint(2)

	resp, err := fixedResolver(reg, pub, now).CheckIn(context.Background(), Request{
		CardID: "ABC123", GPSLat: &lat, GPSLon: &lon, RouteID: &routeID,
	})
	require.NoError(t, err)

	assert.Equal(t, Response{Status: StatusSuccess, StudentName: "Nguyen Van Minh", StudentID: 7}, resp)
	require.Len(t, reg.logs, 1)
	entry := reg.logs[0]
	assert.Equal(t, models.TripStatusSuccess, entry.Status)
	assert.Equal(t, models.EventCheckIn, entry.EventType)
	assert.Equal(t, "Nguyen Van Minh checked in", entry.Message)
	require.NotNil(t, entry.StudentID)
	assert.Equal(t, uint(7), *entry.StudentID)
	assert.Equal(t, &routeID, entry.RouteID)
	assert.Equal(t, now, entry.Timestamp)
	assert.Equal(t, 16.05, entry.GPSLat)
	assert.Equal(t, 108.2, entry.GPSLon)
	assert.Equal(t, reg.logs, pub.published)
}

func TestCheckInInactiveCardStillResolves(t *testing.T) {
	reg := newRegistry()
	reg.cards["ABC123"].Active = false
	reg.cards["ABC123"].Status = models.CardStatusLost

	resp, err := NewResolver(reg, nil).CheckIn(context.Background(), Request{CardID: "ABC123", EventType: models.EventCheckOut})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, resp.Status)
	require.Len(t, reg.logs, 1)
	assert.Equal(t, "Nguyen Van Minh checked out", reg.logs[0].Message)
}

func TestCheckInUnknownCard(t *testing.T) {
	reg := newRegistry()
	pub := &fakePublisher{}
	ts := time.Date(2024, 9, 5, 6, 0, 0, 0, time.UTC)

	resp, err := NewResolver(reg, pub).CheckIn(context.Background(), Request{CardID: "ZZZ999", Timestamp: ts})
	assert.ErrorIs(t, err, ErrCardNotFound)

	assert.Equal(t, Response{Status: StatusError, Message: MessageCardNotFound}, resp)
	require.Len(t, reg.logs, 1)
	entry := reg.logs[0]
	assert.Equal(t, models.TripStatusDenied, entry.Status)
	assert.Equal(t, "Card not registered", entry.Message)
	assert.Equal(t, "ZZZ999", entry.CardID)
	assert.Nil(t, entry.StudentID)
	assert.Equal(t, ts, entry.Timestamp)
	assert.Len(t, pub.published, 1)
}

func TestCheckInLookupFailure(t *testing.T) {
	reg := newRegistry()
	reg.lookupErr = errors.New("connection refused")

	resp, err := NewResolver(reg, nil).CheckIn(context.Background(), Request{CardID: "ABC123"})
	assert.ErrorIs(t, err, ErrLookupFailed)

	assert.Equal(t, Response{Status: StatusError, Message: MessageInternalError}, resp)
	require.Len(t, reg.logs, 1)
	assert.Equal(t, models.TripStatusError, reg.logs[0].Status)
	assert.Equal(t, "connection refused", reg.logs[0].Message)
}

func TestCheckInLogFailure(t *testing.T) {
	reg := newRegistry()
	reg.appendErr = errors.New("disk full")
	pub := &fakePublisher{}

	resp, err := NewResolver(reg, pub).CheckIn(context.Background(), Request{CardID: "ABC123"})
	assert.ErrorIs(t, err, ErrLogFailed)

	assert.Equal(t, MessageInternalError, resp.Message)
	assert.Empty(t, pub.published)
}
