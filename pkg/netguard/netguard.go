// Package netguard validates outbound webhook URLs before any network
// traffic is attempted. Subscriber URLs are attacker-controlled input, so
// loopback, private and link-local destinations are rejected unless the
// deployment explicitly opts in.
package netguard

import (
	"net"
	"net/url"
	"strings"
)

// Options control which destinations are allowed.
type Options struct {
	AllowPrivateHosts bool
	AllowHTTP         bool
}

func isPrivateIPv4(ip net.IP) bool {
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	if v4.Equal(net.IPv4zero) {
		return true
	}
	switch {
	case v4[0] == 10:
		return true
	case v4[0] == 127:
		return true
	case v4[0] == 192 && v4[1] == 168:
		return true
	case v4[0] == 172 && v4[1] >= 16 && v4[1] <= 31:
		return true
	case v4[0] == 169 && v4[1] == 254:
		return true
	}
	return false
}

func isPrivateIPv6(ip net.IP) bool {
	if ip.Equal(net.IPv6loopback) || ip.Equal(net.IPv6unspecified) {
		return true
	}
	// fc00::/7 unique local, fe80::/10 link-local
	return ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

// IsPrivateHost reports whether hostname resolves to a name or literal IP
// that must never receive webhook traffic. Unresolvable names are allowed
// here; DNS-level checks are out of scope for the filter.
func IsPrivateHost(hostname string) bool {
	normalized := strings.ToLower(strings.TrimSpace(hostname))
	if normalized == "" {
		return true
	}

	if normalized == "localhost" || strings.HasSuffix(normalized, ".local") {
		return true
	}

	ip := net.ParseIP(strings.Trim(normalized, "[]"))
	if ip == nil {
		return false
	}
	if ip.To4() != nil {
		return isPrivateIPv4(ip)
	}
	return isPrivateIPv6(ip)
}

// IsAllowedURL reports whether rawURL is a permitted webhook target:
// parseable, https (or http when opted in), and not a private host
// (unless opted in).
func IsAllowedURL(rawURL string, opts Options) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !opts.AllowHTTP {
			return false
		}
	default:
		return false
	}

	if parsed.Hostname() == "" {
		return false
	}

	if !opts.AllowPrivateHosts && IsPrivateHost(parsed.Hostname()) {
		return false
	}

	return true
}
