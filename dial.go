package vecsearch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kailas-cloud/vecsearch/internal/transport/httpjson"
	"github.com/kailas-cloud/vecsearch/internal/transport/memory"
	redistransport "github.com/kailas-cloud/vecsearch/internal/transport/redis"
)

// driverFor picks a transport from the URI scheme, falling back to the
// configured driver for tcp:// and Host/Port endpoints.
func driverFor(cfg *clientConfig, t Target) string {
	switch t.Scheme {
	case "memory":
		return driverMemory
	case "http", "https":
		return driverHTTP
	case "redis", "rediss":
		if cfg.driver == driverValkey {
			return driverValkey
		}
		return driverRedis
	case "valkey":
		return driverValkey
	}
	if cfg.driver == "" {
		return driverHTTP
	}
	return cfg.driver
}

// dial opens the transport selected by cfg for target.
func (c *Client) dial(ctx context.Context, t Target) (Transport, error) {
	if c.cfg.dialer != nil {
		return c.cfg.dialer.Dial(ctx, t)
	}

	driver := driverFor(c.cfg, t)
	switch driver {
	case driverMemory:
		e := c.cfg.engine
		if e == nil {
			e = memory.NewEngine()
			c.cfg.engine = e
		}
		return e.Session(), nil

	case driverRedis, driverValkey:
		password := c.cfg.password
		if t.Password != "" {
			password = t.Password
		}
		tr, err := redistransport.Dial(ctx, redistransport.Config{
			Addrs:    []string{t.Addr},
			Password: password,
			TLS:      t.Scheme == "rediss",
			Valkey:   driver == driverValkey,
		})
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", t.Addr, err)
		}
		return tr, nil

	default:
		return httpjson.New(httpjson.Config{
			BaseURL:    baseURL(t),
			APIKey:     c.cfg.apiKey,
			HTTPClient: c.cfg.httpClient,
		}), nil
	}
}

func baseURL(t Target) string {
	if t.URL != nil && (t.Scheme == "http" || t.Scheme == "https") {
		u := *t.URL
		u.User = nil
		u.RawQuery = ""
		u.Fragment = ""
		return u.String()
	}
	return (&url.URL{Scheme: "http", Host: t.Addr}).String()
}
