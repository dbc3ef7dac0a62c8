package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"github.com/shelfscout/backend/internal/domain"
	"github.com/shelfscout/backend/internal/infrastructure/useragent"
)

// ErrPoolClosed is returned by Acquire after Close
var ErrPoolClosed = errors.New("browser pool closed")

// systemChromium is preferred when present (container images ship it)
const systemChromium = "/usr/bin/chromium-browser"

// Config holds configuration for the rendering pool
type Config struct {
	Size          int
	Bin           string
	RenderTimeout time.Duration
	SettleDelay   time.Duration
}

// Session is one headless browser owned by at most one goroutine at a time
type Session struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	userAgent string
	renders   int
}

func (s *Session) close() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			log.Debug().Str("component", "browser").Err(err).Msg("browser close failed")
		}
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	log.Debug().Str("component", "browser").Int("renders", s.renders).Msg("browser session closed")
}

// Pool hands out browser sessions. Sessions are launched lazily on first use,
// reused across queries, and torn down by Close. A launch failure disables the
// pool so callers fall back to plain HTTP instead of relaunching every request.
type Pool struct {
	cfg    Config
	slots  chan struct{}
	idle   chan *Session
	launch func(ctx context.Context) (*Session, error)

	mu       sync.Mutex
	closed   bool
	disabled error
}

// NewPool creates an empty pool; no browser is started until the first Acquire
func NewPool(cfg Config) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}

	p := &Pool{
		cfg:   cfg,
		slots: make(chan struct{}, cfg.Size),
		idle:  make(chan *Session, cfg.Size),
	}
	p.launch = p.launchSession
	return p
}

// Acquire returns an idle session, launches a new one while under capacity,
// or blocks until a session is released or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	if err := p.usable(); err != nil {
		return nil, err
	}

	select {
	case s := <-p.idle:
		return s, nil
	default:
	}

	select {
	case s := <-p.idle:
		return s, nil
	case p.slots <- struct{}{}:
		s, err := p.launch(ctx)
		if err != nil {
			<-p.slots
			p.disable(err)
			return nil, fmt.Errorf("%w: %v", domain.ErrBrowserUnavailable, err)
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session to the pool
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}

	p.mu.Lock()
	if !p.closed {
		// capacity equals pool size, so this never blocks
		p.idle <- s
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	s.close()
	<-p.slots
}

// Discard closes a session that is no longer trustworthy and frees its slot
func (p *Pool) Discard(s *Session) {
	if s == nil {
		return
	}
	s.close()
	<-p.slots
}

// Close tears down idle sessions; sessions still in use are closed on Release
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case s := <-p.idle:
			s.close()
			<-p.slots
		default:
			log.Info().Str("component", "browser").Msg("browser pool closed")
			return
		}
	}
}

// Render loads url in a pooled session and returns the rendered HTML
func (p *Pool) Render(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RenderTimeout)
	defer cancel()

	s, err := p.Acquire(ctx)
	if err != nil {
		return "", err
	}

	html, err := p.render(ctx, s, url)
	if err != nil && ctx.Err() == nil {
		// the browser itself misbehaved, not the deadline
		p.Discard(s)
		return "", err
	}
	p.Release(s)
	return html, err
}

func (p *Pool) render(ctx context.Context, s *Session, url string) (string, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	pg := page.Context(ctx)
	if err := pg.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.userAgent}); err != nil {
		return "", fmt.Errorf("set user agent: %w", err)
	}
	if err := pg.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width: 1920, Height: 1080, DeviceScaleFactor: 1,
	}); err != nil {
		return "", fmt.Errorf("set viewport: %w", err)
	}
	if err := pg.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", url, err)
	}

	// search results are filled in by scripts after the load event
	if p.cfg.SettleDelay > 0 {
		select {
		case <-time.After(p.cfg.SettleDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	html, err := pg.HTML()
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	s.renders++
	return html, nil
}

func (p *Pool) usable() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	if p.disabled != nil {
		return fmt.Errorf("%w: %v", domain.ErrBrowserUnavailable, p.disabled)
	}
	return nil
}

func (p *Pool) disable(err error) {
	p.mu.Lock()
	p.disabled = err
	p.mu.Unlock()
	log.Warn().Str("component", "browser").Err(err).Msg("browser launch failed, rendering disabled")
}

// launchSession starts a headless Chromium and connects to it. The browser
// outlives ctx; only the decision to launch is bound to it.
func (p *Pool) launchSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu")

	bin := p.cfg.Bin
	if bin == "" {
		if _, err := os.Stat(systemChromium); err == nil {
			bin = systemChromium
		}
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect chromium: %w", err)
	}

	log.Info().Str("component", "browser").Str("bin", bin).Msg("browser session launched")

	return &Session{
		browser:   b,
		launcher:  l,
		userAgent: useragent.Random(),
	}, nil
}
