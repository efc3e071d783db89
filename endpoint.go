package vecsearch

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// Endpoint locates the service. URI wins when set; otherwise Host and Port
// are both required.
//
// Accepted URI schemes: tcp, http, https, redis, rediss, valkey, memory.
type Endpoint struct {
	Host string
	Port int
	URI  string
}

// Target is an Endpoint after validation.
type Target struct {
	// Scheme is the URI scheme, empty for a Host/Port endpoint.
	Scheme string
	// Addr is host:port, empty for memory://.
	Addr string
	// Password is taken from the URI user info, if any.
	Password string
	// URL is the parsed URI, nil for a Host/Port endpoint.
	URL *url.URL
}

// Resolve validates e and returns its Target.
func (e Endpoint) Resolve() (Target, error) {
	if e.URI != "" {
		return parseURI(e.URI)
	}
	if e.Host == "" && e.Port == 0 {
		return Target{}, fmt.Errorf("%w: endpoint needs a uri or a host and port", ErrParam)
	}
	if e.Host == "" {
		return Target{}, fmt.Errorf("%w: endpoint host is required", ErrParam)
	}
	if e.Port <= 0 || e.Port > 65535 {
		return Target{}, fmt.Errorf("%w: endpoint port must be in [1, 65535], got %d", ErrParam, e.Port)
	}
	return Target{Addr: net.JoinHostPort(e.Host, strconv.Itoa(e.Port))}, nil
}

func parseURI(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: endpoint uri: %v", ErrParam, err)
	}
	t := Target{Scheme: u.Scheme, URL: u}
	switch u.Scheme {
	case "memory":
		return t, nil
	case "tcp", "http", "https", "redis", "rediss", "valkey":
	default:
		return Target{}, fmt.Errorf("%w: unsupported endpoint scheme %q", ErrParam, u.Scheme)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("%w: endpoint uri %q has no host", ErrParam, raw)
	}
	port := u.Port()
	if port == "" {
		port = defaultPort(u.Scheme)
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return Target{}, fmt.Errorf("%w: endpoint uri %q has invalid port", ErrParam, raw)
	}
	t.Addr = net.JoinHostPort(u.Hostname(), port)
	if u.User != nil {
		t.Password, _ = u.User.Password()
	}
	return t, nil
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	case "redis", "rediss", "valkey":
		return "6379"
	default:
		return "19530"
	}
}
