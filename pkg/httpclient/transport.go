package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"

	utls "github.com/refraction-networking/utls"
)

// Profile names a TLS ClientHello fingerprint.
type Profile string

const (
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileGo      Profile = "go"
)

// ParseProfile accepts a config string; empty maps to ProfileGo.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(s); p {
	case "":
		return ProfileGo, nil
	case ProfileChrome, ProfileFirefox, ProfileSafari, ProfileGo:
		return p, nil
	default:
		return "", fmt.Errorf("unknown tls profile %q", s)
	}
}

// Transport returns an http.RoundTripper that performs the TLS handshake with
// uTLS so the page scraper looks like the given browser. Some sites serve a
// challenge page to the Go TLS fingerprint, which would score as an empty page.
func Transport(p Profile) (http.RoundTripper, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if p == ProfileGo {
		return base, nil
	}

	var helloID utls.ClientHelloID
	switch p {
	case ProfileChrome:
		helloID = utls.HelloChrome_Auto
	case ProfileFirefox:
		helloID = utls.HelloFirefox_Auto
	case ProfileSafari:
		helloID = utls.HelloIOS_Auto
	default:
		return nil, fmt.Errorf("unknown tls profile %q", p)
	}

	// uTLS negotiates h2 in its ALPN but http.Transport can only speak
	// HTTP/1.1 over a custom DialTLSContext connection.
	base.ForceAttemptHTTP2 = false

	base.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		rawConn, err := base.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		conn := utls.UClient(rawConn, &utls.Config{
			ServerName: host,
			NextProtos: []string{"http/1.1"},
		}, helloID)
		if err := conn.HandshakeContext(ctx); err != nil {
			_ = rawConn.Close()
			return nil, fmt.Errorf("utls handshake with %s: %w", host, err)
		}
		return conn, nil
	}

	return base, nil
}
