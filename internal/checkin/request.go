package checkin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"school_transport/internal/models"
)

var (
	ErrMalformedPayload = errors.New("malformed check-in payload")
	ErrMissingCardID    = errors.New("missing card_id")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidEventType = errors.New("invalid event_type")
)

// timestamp layouts accepted from readers, tried in order; zoneless layouts are read as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Request is a parsed check-in posted by an RFID reader.
type Request struct {
	CardID    string
	GPSLat    *float64
	GPSLon    *float64
	Timestamp time.Time // zero means "now"
	EventType string
	RouteID   *uint
}

type payload struct {
	CardID    cardID          `json:"card_id"`
	GPSLat    *float64        `json:"gps_lat"`
	GPSLon    *float64        `json:"gps_lon"`
	Timestamp json.RawMessage `json:"timestamp"`
	EventType string          `json:"event_type"`
	RouteID   *uint           `json:"route_id"`
}

// cardID accepts both "04A1B2" and bare numeric UIDs some readers send.
type cardID string

func (c *cardID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = cardID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("card_id: %w", err)
	}
	*c = cardID(n.String())
	return nil
}

// ParseRequest decodes a reader payload. Only card_id is required.
func ParseRequest(body []byte) (Request, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	req := Request{
		CardID:  strings.TrimSpace(string(p.CardID)),
		GPSLat:  p.GPSLat,
		GPSLon:  p.GPSLon,
		RouteID: p.RouteID,
	}
	if req.CardID == "" {
		return Request{}, ErrMissingCardID
	}

	switch p.EventType {
	case "":
		req.EventType = models.EventCheckIn
	case models.EventCheckIn, models.EventCheckOut:
		req.EventType = p.EventType
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrInvalidEventType, p.EventType)
	}

	ts, err := parseTimestamp(p.Timestamp)
	if err != nil {
		return Request{}, err
	}
	req.Timestamp = ts
	return req, nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimestamp, raw)
		}
		return fromEpoch(n)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(n)
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// maxEpoch is 9999-12-31T23:59:59Z, the last second RFC 3339 can print.
const maxEpoch = 253402300799

// fromEpoch reads Unix seconds. NaN, infinities and values outside
// [0, maxEpoch] are rejected before the int64 conversion can overflow.
func fromEpoch(sec float64) (time.Time, error) {
	if math.IsNaN(sec) || sec < 0 || sec > maxEpoch {
		return time.Time{}, fmt.Errorf("%w: epoch %v out of range", ErrInvalidTimestamp, sec)
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC(), nil
}
