package geocoding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultBatchSize bounds how many pending records a single sweep touches.
const DefaultBatchSize = 100

// ErrUnsupportedModel is returned for a model name nobody registered.
var ErrUnsupportedModel = errors.New("model does not support geocoding")

// Geocodable is a record whose coordinates come from its address.
type Geocodable interface {
	GeocodeAddress() Address
	SetCoordinates(lat, lon float64)
}

// Source loads and persists one kind of geocodable record.
type Source interface {
	// Pending returns up to limit records that still miss a coordinate.
	Pending(ctx context.Context, limit int) ([]Geocodable, error)
	Find(ctx context.Context, ids []uint) ([]Geocodable, error)
	// SaveCoordinates persists both coordinates of rec in a single write.
	SaveCoordinates(ctx context.Context, rec Geocodable) error
}

// Summary reports what a batch run did.
type Summary struct {
	Model     string `json:"model"`
	Processed int    `json:"processed"`
	Located   int    `json:"located"`
	Failed    int    `json:"failed"`
}

// Service geocodes records of every registered model.
type Service struct {
	lookup    Lookup
	defaults  Address
	batchSize int

	mu      sync.RWMutex
	sources map[string]Source
}

// NewService creates a service. defaults fills City/State/Country/PostalCode when a
// record does not provide them.
func NewService(lookup Lookup, defaults Address, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		lookup:    lookup,
		defaults:  defaults,
		batchSize: batchSize,
		sources:   make(map[string]Source),
	}
}

// Register makes a model available to GeocodeIDs and the sweeps.
func (s *Service) Register(model string, src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[model] = src
}

// Models lists the registered model names, sorted.
func (s *Service) Models() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) source(model string) (Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
	}
	return src, nil
}

// GeocodeRecord resolves rec's address and sets its coordinates in memory.
// A record without an address or without a match is reset to (0, 0).
// It reports whether the record ended up located.
func (s *Service) GeocodeRecord(ctx context.Context, rec Geocodable) bool {
	addr := rec.GeocodeAddress()
	if strings.TrimSpace(addr.Street) == "" {
		rec.SetCoordinates(0, 0)
		return false
	}

	results := s.lookup.Geocode(ctx, s.withDefaults(addr), 1)
	if len(results) == 0 {
		logrus.WithField("street", addr.Street).Warn("GeocodeRecord: no geocoding results")
		rec.SetCoordinates(0, 0)
		return false
	}

	rec.SetCoordinates(results[0].Lat, results[0].Lon)
	logrus.WithFields(logrus.Fields{
		"street": addr.Street,
		"lat":    results[0].Lat,
		"lon":    results[0].Lon,
	}).Info("GeocodeRecord: geocoded")
	return results[0].Lat != 0 && results[0].Lon != 0
}

func (s *Service) withDefaults(addr Address) Address {
	if addr.City == "" {
		addr.City = s.defaults.City
	}
	if addr.State == "" {
		addr.State = s.defaults.State
	}
	if addr.Country == "" {
		addr.Country = s.defaults.Country
	}
	if addr.PostalCode == "" {
		addr.PostalCode = s.defaults.PostalCode
	}
	return addr
}

// GeocodeIDs geocodes the given records of model and saves the results.
func (s *Service) GeocodeIDs(ctx context.Context, model string, ids []uint) (Summary, error) {
	src, err := s.source(model)
	if err != nil {
		return Summary{Model: model}, err
	}
	if len(ids) == 0 {
		return Summary{Model: model}, nil
	}

	records, err := src.Find(ctx, ids)
	if err != nil {
		return Summary{Model: model}, fmt.Errorf("loading %s records: %w", model, err)
	}
	return s.run(ctx, model, src, records), nil
}

// Sweep geocodes one page of model's records that still miss coordinates.
// Running it again only picks up what is still missing.
func (s *Service) Sweep(ctx context.Context, model string) (Summary, error) {
	src, err := s.source(model)
	if err != nil {
		return Summary{Model: model}, err
	}

	records, err := src.Pending(ctx, s.batchSize)
	if err != nil {
		return Summary{Model: model}, fmt.Errorf("loading pending %s records: %w", model, err)
	}
	logrus.WithFields(logrus.Fields{"model": model, "count": len(records)}).Info("Sweep: found records to geocode")
	return s.run(ctx, model, src, records), nil
}

// SweepAll sweeps every registered model. Errors are logged and do not stop other models.
func (s *Service) SweepAll(ctx context.Context) []Summary {
	var summaries []Summary
	for _, model := range s.Models() {
		summary, err := s.Sweep(ctx, model)
		if err != nil {
			logrus.WithError(err).WithField("model", model).Error("SweepAll: sweep failed")
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func (s *Service) run(ctx context.Context, model string, src Source, records []Geocodable) Summary {
	summary := Summary{Model: model}
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		summary.Processed++
		if s.GeocodeRecord(ctx, rec) {
			summary.Located++
		}
		if err := src.SaveCoordinates(ctx, rec); err != nil {
			summary.Failed++
			logrus.WithError(err).WithField("model", model).Error("Geocode: saving coordinates failed")
		}
	}
	return summary
}
