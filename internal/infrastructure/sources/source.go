package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfscout/backend/internal/domain"
)

// strategyKind says how a page is obtained
type strategyKind int

const (
	viaRenderer strategyKind = iota
	viaHTTP
)

func (k strategyKind) String() string {
	if k == viaRenderer {
		return "render"
	}
	return "http"
}

// strategy is one way of getting a retailer's result page for a term
type strategy struct {
	kind    strategyKind
	url     func(term, city string) string
	referer string
}

// Source is a retailer whose search results are fetched by an ordered list of
// strategies. The first strategy that yields candidates wins.
type Source struct {
	name       string
	strategies []strategy
	// exclusive sources use the renderer when one is configured and plain HTTP
	// only when it is not
	exclusive bool

	renderer  domain.PageRenderer
	client    *http.Client
	extractor domain.PriceExtractor
}

// Deps are the collaborators shared by every source
type Deps struct {
	// Renderer may be nil when browser rendering is disabled
	Renderer  domain.PageRenderer
	Client    *http.Client
	Extractor domain.PriceExtractor
}

func newSource(name string, deps Deps, strategies ...strategy) *Source {
	return &Source{
		name:       name,
		strategies: strategies,
		renderer:   deps.Renderer,
		client:     deps.Client,
		extractor:  deps.Extractor,
	}
}

// Name returns the source identifier used in logs and metrics
func (s *Source) Name() string {
	return s.name
}

// Fetch runs the strategies for term in order. It returns candidates from the
// first productive strategy, (nil, nil) when every attempted strategy came back
// clean but empty, and a *domain.FetchError when every attempted strategy failed.
func (s *Source) Fetch(ctx context.Context, term, city string) ([]float64, error) {
	var (
		failures  []error
		attempted int
		rendered  bool
	)

	for _, st := range s.strategies {
		if err := ctx.Err(); err != nil {
			return nil, &domain.FetchError{Source: s.name, Term: term, Err: err}
		}

		switch st.kind {
		case viaRenderer:
			if s.renderer == nil {
				continue
			}
		case viaHTTP:
			if s.client == nil || (s.exclusive && rendered) {
				continue
			}
		}

		attempted++
		url := st.url(term, city)
		start := time.Now()

		content, err := s.load(ctx, st, url)
		if err != nil {
			log.Debug().
				Str("component", "sources").
				Str("source", s.name).
				Str("strategy", st.kind.String()).
				Str("url", url).
				Err(err).
				Msg("strategy failed")
			failures = append(failures, fmt.Errorf("%s: %w", st.kind, err))
			continue
		}
		if st.kind == viaRenderer {
			rendered = true
		}

		prices := s.extractor.Extract(content)
		log.Debug().
			Str("component", "sources").
			Str("source", s.name).
			Str("strategy", st.kind.String()).
			Int("candidates", len(prices)).
			Dur("took", time.Since(start)).
			Msg("strategy finished")

		if len(prices) > 0 {
			return prices, nil
		}
	}

	if attempted > 0 && len(failures) == attempted {
		return nil, &domain.FetchError{Source: s.name, Term: term, Err: errors.Join(failures...)}
	}
	return nil, nil
}

func (s *Source) load(ctx context.Context, st strategy, url string) (string, error) {
	if st.kind == viaRenderer {
		return s.renderer.Render(ctx, url)
	}
	return getPage(ctx, s.client, url, st.referer)
}
