package inventory

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ukydev/autoserve/internal/models"
)

const instrumentationName = "github.com/ukydev/autoserve/internal/inventory"

// MinQueryLength is the shortest search query accepted after trimming.
const MinQueryLength = 2

// ErrQueryTooShort is returned by Search for queries under MinQueryLength characters.
var ErrQueryTooShort = errors.New("Search query must be at least 2 characters")

// Lookup stock labels.
const (
	StatusInStock    = models.StockIn
	StatusLowStock   = models.StockLow
	StatusOutOfStock = models.StockOut
)

// ClassifyLookupStock labels a catalog stock level: above 10 is in stock, 1 to 10 is low.
// Stored inventory items use InventoryItem.StockStatus, which is relative to minStock.
func ClassifyLookupStock(stock int) string {
	switch {
	case stock > 10:
		return StatusInStock
	case stock > 0:
		return StatusLowStock
	default:
		return StatusOutOfStock
	}
}

// Policy decides which catalogs a lookup consults.
type Policy int

const (
	// LocalOnly never contacts the remote catalog.
	LocalOnly Policy = iota
	// RemoteThenLocal tries the remote catalog once and falls back to the local one
	// on error or an empty result.
	RemoteThenLocal
	// RemoteOnly surfaces remote errors to the caller.
	RemoteOnly
)

func (p Policy) String() string {
	switch p {
	case RemoteThenLocal:
		return "remote_then_local"
	case RemoteOnly:
		return "remote_only"
	default:
		return "local_only"
	}
}

// PolicyForMode maps an INVENTORY_API_MODE value to a Policy. Unknown modes are local only.
func PolicyForMode(mode string) Policy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "hybrid", "odoo", "external":
		return RemoteThenLocal
	case "remote":
		return RemoteOnly
	default:
		return LocalOnly
	}
}

// StockInfo is the stock view of a part.
type StockInfo struct {
	PartNumber string `json:"partNumber"`
	Name       string `json:"name"`
	Stock      int    `json:"stock"`
	Available  bool   `json:"available"`
	Status     string `json:"status"`
}

// PriceInfo is the price view of a part.
type PriceInfo struct {
	PartNumber  string    `json:"partNumber"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Unit        string    `json:"unit"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter(instrumentationName) }
}

// WithClock sets the time source used for PriceInfo.LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service answers part lookups according to its Policy.
type Service struct {
	local  Catalog
	remote Catalog
	policy Policy

	tracer    trace.Tracer
	meter     metric.Meter
	fallbacks metric.Int64Counter
	now       func() time.Time
}

// NewService builds a lookup service. remote may be nil, in which case the policy is
// forced to LocalOnly.
func NewService(local, remote Catalog, policy Policy, opts ...Option) (*Service, error) {
	if local == nil {
		return nil, errors.New("inventory: local catalog is required")
	}
	s := &Service{
		local:  local,
		remote: remote,
		policy: policy,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if remote == nil && policy != LocalOnly {
		log.WithField("policy", policy.String()).Warn("No remote inventory configured, using local catalog only")
		s.policy = LocalOnly
	}

	counter, err := s.meter.Int64Counter("inventory.fallbacks",
		metric.WithDescription("Remote inventory lookups answered by the local catalog"))
	if err != nil {
		return nil, err
	}
	s.fallbacks = counter
	return s, nil
}

// Policy reports the effective lookup policy.
func (s *Service) Policy() Policy { return s.policy }

func isEmpty[T any](v T) bool {
	switch x := any(v).(type) {
	case []Part:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case *Part:
		return x == nil
	}
	return false
}

// lookup runs op against the catalogs allowed by the policy. Under RemoteThenLocal a
// remote error or empty result is answered locally and never returned.
func lookup[T any](ctx context.Context, s *Service, name string, op func(context.Context, Catalog) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, "inventory."+name,
		trace.WithAttributes(attribute.String("inventory.policy", s.policy.String())))
	defer span.End()

	if s.policy == LocalOnly {
		span.SetAttributes(attribute.String("inventory.source", "local"))
		return op(ctx, s.local)
	}

	res, err := op(ctx, s.remote)
	if s.policy == RemoteOnly {
		span.SetAttributes(attribute.String("inventory.source", "remote"))
		if err != nil && !errors.Is(err, ErrPartNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return res, err
	}

	if err == nil && !isEmpty(res) {
		span.SetAttributes(attribute.String("inventory.source", "remote"))
		return res, nil
	}

	reason := "empty"
	entry := log.WithField("operation", name)
	if err != nil && !errors.Is(err, ErrPartNotFound) {
		reason = "error"
		span.RecordError(err)
		entry = entry.WithError(err)
	}
	entry.WithField("reason", reason).Warn("Remote inventory unavailable, using local catalog")
	s.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", name),
		attribute.String("reason", reason),
	))
	span.SetAttributes(attribute.String("inventory.source", "local"))
	return op(ctx, s.local)
}

// Search finds parts matching query. The query is trimmed and must be at least
// two characters, counted as runes.
func (s *Service) Search(ctx context.Context, query string) ([]Part, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	return lookup(ctx, s, "search", func(ctx context.Context, c Catalog) ([]Part, error) { return c.Search(ctx, q) })
}

// Part returns the part with partNumber, ignoring case.
func (s *Service) Part(ctx context.Context, partNumber string) (*Part, error) {
	return lookup(ctx, s, "part", func(ctx context.Context, c Catalog) (*Part, error) { return c.Part(ctx, partNumber) })
}

// Stock returns the stock level and lookup status of a part.
func (s *Service) Stock(ctx context.Context, partNumber string) (*StockInfo, error) {
	p, err := s.Part(ctx, partNumber)
	if err != nil {
		return nil, err
	}
	return &StockInfo{
		PartNumber: p.PartNumber,
		Name:       p.Name,
		Stock:      p.Stock,
		Available:  p.Stock > 0,
		Status:     ClassifyLookupStock(p.Stock),
	}, nil
}

// Price returns the list price of a part.
func (s *Service) Price(ctx context.Context, partNumber string) (*PriceInfo, error) {
	p, err := s.Part(ctx, partNumber)
	if err != nil {
		return nil, err
	}
	return &PriceInfo{
		PartNumber:  p.PartNumber,
		Name:        p.Name,
		Price:       p.Price,
		Unit:        p.Unit,
		LastUpdated: s.now().UTC(),
	}, nil
}

// Categories lists the part categories.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return lookup(ctx, s, "categories", func(ctx context.Context, c Catalog) ([]string, error) { return c.Categories(ctx) })
}

// PartsByCategory lists the parts in category.
func (s *Service) PartsByCategory(ctx context.Context, category string) ([]Part, error) {
	return lookup(ctx, s, "parts_by_category", func(ctx context.Context, c Catalog) ([]Part, error) {
		return c.PartsByCategory(ctx, category)
	})
}
