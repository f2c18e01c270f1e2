package db

import (
	"fmt"
	"net/url"
	"strings"
)

// ConnInfo is a parsed database URL.
type ConnInfo struct {
	Driver   string // "valkey" or "redis"
	Addr     string
	Username string
	Password string
}

// ParseURL splits a database URL of the form scheme://[user[:pass]@]host:port
// into connection parameters. Only the scheme is interpreted here; the
// configuration layer treats the URL as opaque.
func ParseURL(raw string) (ConnInfo, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ConnInfo{}, fmt.Errorf("parse database url: %w", err)
	}

	driver := strings.ToLower(u.Scheme)
	switch driver {
	case "valkey", "redis":
	default:
		return ConnInfo{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	addr := u.Host
	if addr == "" {
		return ConnInfo{}, fmt.Errorf("database url %q has no host", raw)
	}
	if u.Port() == "" {
		addr += ":6379"
	}

	info := ConnInfo{Driver: driver, Addr: addr}
	if u.User != nil {
		info.Username = u.User.Username()
		info.Password, _ = u.User.Password()
	}
	return info, nil
}

// Open connects a store for the given database URL. The connection is
// established lazily by the driver; use WaitForReady to block until the
// database answers.
func Open(rawURL string) (Store, error) {
	info, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return newRueidisStore(info)
}
