package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedSubnet decides whether a client address may reach the admin
// console. The zero value trusts everybody.
type TrustedSubnet struct {
	prefix netip.Prefix
}

// ParseTrustedSubnet parses a CIDR such as "192.168.0.0/24". An empty
// string yields a subnet that trusts every address.
func ParseTrustedSubnet(cidr string) (TrustedSubnet, error) {
	cidr = strings.TrimSpace(cidr)
	if cidr == "" {
		return TrustedSubnet{}, nil
	}

	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return TrustedSubnet{}, err
	}

	return TrustedSubnet{prefix: prefix.Masked()}, nil
}

// Open reports whether no restriction is configured.
func (s TrustedSubnet) Open() bool {
	return !s.prefix.IsValid()
}

// Contains reports whether addr, an IP with or without a port, is trusted.
func (s TrustedSubnet) Contains(addr string) bool {
	if s.Open() {
		return true
	}

	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return false
	}

	return s.prefix.Contains(ip.Unmap())
}

func (s TrustedSubnet) String() string {
	if s.Open() {
		return ""
	}
	return s.prefix.String()
}

// WithSubnet rejects requests whose X-Real-IP is outside the subnet.
func WithSubnet(subnet TrustedSubnet) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !subnet.Contains(r.Header.Get("X-Real-IP")) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
