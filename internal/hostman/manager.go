package hostman

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

// HostInfo stores crawl policy & limiter for one host.
type HostInfo struct {
	robotsOnce sync.Once
	robots     *robotstxt.RobotsData // nil if fetch failed or robots are ignored
	limiter    *rate.Limiter         // one token per request delay
}

// Manager holds HostInfo for every host we touch.
type Manager struct {
	mu            sync.Mutex
	hosts         map[string]*HostInfo
	userAgent     string
	delay         time.Duration // minimum spacing between requests to one host
	timeout       time.Duration // robots.txt download timeout
	respectRobots bool
	client        *http.Client
}

// New returns a ready Manager. A zero delay disables rate limiting.
func New(ua string, delay, robotsTimeout time.Duration, respectRobots bool) *Manager {
	return &Manager{
		userAgent:     ua,
		hosts:         make(map[string]*HostInfo),
		delay:         delay,
		timeout:       robotsTimeout,
		respectRobots: respectRobots,
		client:        http.DefaultClient,
	}
}

// Check returns (allowed, waitFn). waitFn blocks on the host's token bucket.
func (m *Manager) Check(ctx context.Context, u *url.URL) (bool, func(ctx context.Context) error) {
	h := m.host(ctx, u)

	allowed := true
	if h.robots != nil {
		grp := h.robots.FindGroup(m.userAgent)
		allowed = grp.Test(u.EscapedPath())
	}

	return allowed, h.limiter.Wait
}

// host lazily creates the HostInfo. robots.txt is fetched once per host
// outside the manager lock, so a slow host only blocks its own requests.
func (m *Manager) host(ctx context.Context, u *url.URL) *HostInfo {
	m.mu.Lock()
	h, ok := m.hosts[u.Host]
	if !ok {
		limit := rate.Inf
		if m.delay > 0 {
			limit = rate.Every(m.delay)
		}
		h = &HostInfo{limiter: rate.NewLimiter(limit, 1)}
		m.hosts[u.Host] = h
	}
	m.mu.Unlock()

	if m.respectRobots {
		h.robotsOnce.Do(func() {
			h.robots = m.fetchRobots(ctx, u.Scheme, u.Host)
		})
	}
	return h
}

// --- helpers -------------------------------------------------------------

func (m *Manager) fetchRobots(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := scheme + "://" + host + "/robots.txt"

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil // treat as no robots file
	}
	defer resp.Body.Close()

	// FromResponse maps 4xx to allow-all and 5xx to disallow-all.
	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return robots
}
