package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrInvalidURL is wrapped by every rejection from LinkValidator.
var ErrInvalidURL = errors.New("invalid URL")

// LinkValidator checks outbound links strictly: nothing is guessed or prefixed.
type LinkValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewLinkValidator creates a validator for links taken from post metadata.
func NewLinkValidator() *LinkValidator {
	return &LinkValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		MaxLength:       2048,
	}
}

// NewPermissiveLinkValidator allows loopback and private hosts, for API base
// URLs pointing at a local WordPress during development.
func NewPermissiveLinkValidator() *LinkValidator {
	return &LinkValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// Validate returns the parsed, re-serialized URL or an error wrapping ErrInvalidURL.
func (v *LinkValidator) Validate(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("%w: URL cannot be empty", ErrInvalidURL)
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("%w: URL too long (max %d characters)", ErrInvalidURL, v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` \t\r\n") {
		return "", fmt.Errorf("%w: URL contains invalid characters", ErrInvalidURL)
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !parsedURL.IsAbs() {
		return "", fmt.Errorf("%w: URL must be absolute", ErrInvalidURL)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: URL must use http or https protocol", ErrInvalidURL)
	}
	if parsedURL.Host == "" || parsedURL.Hostname() == "" {
		return "", fmt.Errorf("%w: URL must have a valid hostname", ErrInvalidURL)
	}
	if parsedURL.User != nil {
		return "", fmt.Errorf("%w: credentials are not allowed in links", ErrInvalidURL)
	}

	if err := v.validateHost(parsedURL.Host); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if strings.Contains(parsedURL.RawQuery, "<script") || strings.Contains(strings.ToLower(parsedURL.RawQuery), "javascript:") {
		return "", fmt.Errorf("%w: suspicious query parameters detected", ErrInvalidURL)
	}

	return parsedURL.String(), nil
}

func (v *LinkValidator) validateHost(host string) error {
	hostname := host
	if strings.Contains(host, ":") && !strings.HasSuffix(host, "]") {
		var err error
		hostname, _, err = net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
	}
	hostname = strings.Trim(hostname, "[]")

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsUnspecified() {
			return fmt.Errorf("unspecified address is not a destination")
		}
		if !v.AllowPrivateIPs && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
		return nil
	}

	for _, label := range strings.Split(hostname, ".") {
		if label == "" && !strings.HasSuffix(hostname, ".") {
			return fmt.Errorf("empty label in hostname %q", hostname)
		}
	}
	return nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}
