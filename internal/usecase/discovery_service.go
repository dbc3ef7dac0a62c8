package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/shelfscout/backend/internal/domain"
	"github.com/shelfscout/backend/internal/infrastructure/metrics"
)

// Discovery outcome labels
const (
	DiscoveryFound         = "found"
	DiscoveryFallbackFound = "fallback_found"
	DiscoveryNotFound      = "not_found"
)

// DiscoveryMetrics receives per-source and per-run observations
type DiscoveryMetrics interface {
	ObserveSourceAttempt(source, outcome string, took time.Duration)
	ObserveDiscovery(outcome string, took time.Duration)
}

// DiscoveryConfig holds configuration for the discovery service
type DiscoveryConfig struct {
	EarlyExitThreshold int
	TrimDivisor        int
	MaxSearchTerms     int
	PolitenessDelay    time.Duration
	// ParallelSources queries all primary sources of one term concurrently.
	// Results are still pooled in source order.
	ParallelSources bool
}

// DiscoveryService turns an item name and city into one representative price
// by querying retail sources for several variants of the name
type DiscoveryService struct {
	primary    []domain.PriceSource
	fallback   domain.PriceSource
	expander   *SearchTermExpander
	aggregator *Aggregator
	metrics    DiscoveryMetrics

	earlyExit int
	delay     time.Duration
	parallel  bool
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewDiscoveryService creates a discovery service. fallback and m may be nil.
func NewDiscoveryService(
	primary []domain.PriceSource,
	fallback domain.PriceSource,
	m DiscoveryMetrics,
	config DiscoveryConfig,
) *DiscoveryService {
	earlyExit := config.EarlyExitThreshold
	if earlyExit <= 0 {
		earlyExit = 5
	}
	delay := config.PolitenessDelay
	if delay < 0 {
		delay = 0
	}

	return &DiscoveryService{
		primary:    primary,
		fallback:   fallback,
		expander:   NewSearchTermExpander(config.MaxSearchTerms),
		aggregator: NewAggregator(config.TrimDivisor),
		metrics:    m,
		earlyExit:  earlyExit,
		delay:      delay,
		parallel:   config.ParallelSources,
		sleep:      sleepContext,
	}
}

// DiscoverPrice returns the estimated price of itemName in city.
// domain.ErrNoPriceData means no source produced a usable candidate.
func (s *DiscoveryService) DiscoverPrice(ctx context.Context, itemName, city string) (float64, error) {
	d, err := s.Discover(ctx, domain.PriceQuery{ItemName: itemName, City: city})
	if err != nil {
		return 0, err
	}
	if !d.Found {
		return 0, domain.ErrNoPriceData
	}
	return d.Price, nil
}

// Discover runs the full pipeline and returns the estimate with its diagnostics.
// Flow: expand terms -> query sources per term -> fallback if nothing -> classify -> filter -> trimmed mean
func (s *DiscoveryService) Discover(ctx context.Context, query domain.PriceQuery) (*domain.Discovery, error) {
	query.ItemName = strings.TrimSpace(query.ItemName)
	query.City = strings.TrimSpace(query.City)
	if query.ItemName == "" {
		return nil, fmt.Errorf("%w: item name", domain.ErrMissingParameter)
	}

	start := time.Now()
	logger := log.With().
		Str("component", "discovery").
		Str("item", query.ItemName).
		Str("city", query.City).
		Logger()

	d := &domain.Discovery{
		Query: query,
		Terms: s.expander.Expand(query.ItemName),
	}
	logger.Info().Strs("terms", d.Terms).Msg("discovery started")

	politeAfter := false
	for _, term := range d.Terms {
		var (
			attempts []domain.SourceAttempt
			err      error
		)
		if s.parallel {
			if politeAfter {
				if err := s.sleep(ctx, s.delay); err != nil {
					return nil, err
				}
			}
			attempts, err = s.fetchParallel(ctx, term, query.City)
		} else {
			attempts, politeAfter, err = s.fetchSequential(ctx, term, query.City, politeAfter)
		}
		if err != nil {
			return nil, err
		}

		if s.parallel {
			politeAfter = false
		}
		for _, a := range attempts {
			d.Attempts = append(d.Attempts, a)
			d.RawPool = append(d.RawPool, a.Prices...)
			if s.parallel && len(a.Prices) > 0 {
				politeAfter = true
			}
		}

		if len(d.RawPool) >= s.earlyExit {
			logger.Debug().Str("term", term).Int("pool", len(d.RawPool)).Msg("enough candidates, stopping early")
			break
		}
	}

	if len(d.RawPool) == 0 && s.fallback != nil {
		logger.Info().Str("source", s.fallback.Name()).Msg("no candidates from primary sources, trying fallback")
		a := s.attempt(ctx, s.fallback, query.ItemName, query.City)
		a.Fallback = true
		d.Attempts = append(d.Attempts, a)
		d.RawPool = append(d.RawPool, a.Prices...)
		d.UsedFallback = true
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.Category = Classify(query.ItemName)
	if len(d.RawPool) > 0 {
		d.Filtered = FilterByEnvelope(d.RawPool, d.Category)
		d.Price, d.Found = s.aggregator.Aggregate(d.Filtered)
	}

	outcome := DiscoveryNotFound
	switch {
	case d.Found && d.UsedFallback:
		outcome = DiscoveryFallbackFound
	case d.Found:
		outcome = DiscoveryFound
	}
	if s.metrics != nil {
		s.metrics.ObserveDiscovery(outcome, time.Since(start))
	}

	logger.Info().
		Str("outcome", outcome).
		Str("category", string(d.Category)).
		Int("pool", len(d.RawPool)).
		Int("filtered", len(d.Filtered)).
		Float64("price", d.Price).
		Dur("took", time.Since(start)).
		Msg("discovery finished")

	return d, nil
}

// fetchSequential queries the primary sources one at a time. After a source
// that produced candidates the next request waits for the politeness delay.
func (s *DiscoveryService) fetchSequential(
	ctx context.Context,
	term, city string,
	politeAfter bool,
) ([]domain.SourceAttempt, bool, error) {
	attempts := make([]domain.SourceAttempt, 0, len(s.primary))

	for _, src := range s.primary {
		if politeAfter {
			if err := s.sleep(ctx, s.delay); err != nil {
				return nil, false, err
			}
		}

		a := s.attempt(ctx, src, term, city)
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		attempts = append(attempts, a)
		politeAfter = len(a.Prices) > 0
	}

	return attempts, politeAfter, nil
}

// fetchParallel queries all primary sources at once. Each goroutine writes
// only its own slot so the pool keeps source order.
func (s *DiscoveryService) fetchParallel(ctx context.Context, term, city string) ([]domain.SourceAttempt, error) {
	attempts := make([]domain.SourceAttempt, len(s.primary))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.primary {
		g.Go(func() error {
			attempts[i] = s.attempt(gctx, src, term, city)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

// attempt runs one fetch and records it. A source error is contained here:
// it is logged and counted, never returned.
func (s *DiscoveryService) attempt(ctx context.Context, src domain.PriceSource, term, city string) domain.SourceAttempt {
	start := time.Now()
	prices, err := src.Fetch(ctx, term, city)
	took := time.Since(start)

	a := domain.SourceAttempt{
		Source:   src.Name(),
		Term:     term,
		Duration: took,
	}

	outcome := metrics.OutcomeEmpty
	switch {
	case err != nil:
		a.Err = err
		outcome = metrics.OutcomeError
		if !errors.Is(err, context.Canceled) {
			log.Warn().
				Str("component", "discovery").
				Str("source", a.Source).
				Str("term", term).
				Err(err).
				Msg("source failed")
		}
	case len(prices) > 0:
		a.Prices = prices
		outcome = metrics.OutcomeHit
		log.Debug().
			Str("component", "discovery").
			Str("source", a.Source).
			Str("term", term).
			Int("candidates", len(prices)).
			Msg("source returned candidates")
	}

	if s.metrics != nil {
		s.metrics.ObserveSourceAttempt(a.Source, outcome, took)
	}
	return a
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
