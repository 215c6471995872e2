// Package bypass recognizes bot-protection challenge pages, so a scan that
// scored a challenge page instead of the real site can say so.
package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the part of an HTTP response the detectors inspect.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Detection names the vendor whose challenge was served. Vendor is empty
// when nothing was detected.
type Detection struct {
	Vendor string `json:"vendor,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Detected reports whether a challenge was recognized.
func (d Detection) Detected() bool { return d.Vendor != "" }

// Detector inspects a response for one vendor's signatures.
type Detector func(r Response) Detection

// DefaultDetectors returns the standard list of bot protection detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze returns the first detection among detectors.
func Analyze(r Response, detectors []Detector) Detection {
	for _, d := range detectors {
		if det := d(r); det.Detected() {
			return det
		}
	}
	return Detection{}
}

func blocked(status int) bool {
	return status == http.StatusForbidden || status == http.StatusServiceUnavailable || status == http.StatusTooManyRequests
}

func bodyHas(body []byte, markers ...string) string {
	for _, m := range markers {
		if bytes.Contains(body, []byte(m)) {
			return m
		}
	}
	return ""
}

func detectCloudflare(r Response) Detection {
	// The interstitial is sometimes served with 200.
	if m := bodyHas(r.Body, "<title>Just a moment...</title>", "/cdn-cgi/challenge-platform/"); m != "" {
		return Detection{Vendor: "Cloudflare", Reason: "body contains " + m}
	}
	if !blocked(r.StatusCode) {
		return Detection{}
	}
	if strings.Contains(strings.ToLower(r.Headers.Get("Server")), "cloudflare") {
		return Detection{Vendor: "Cloudflare", Reason: "server header"}
	}
	if m := bodyHas(r.Body, "cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare"); m != "" {
		return Detection{Vendor: "Cloudflare", Reason: "body contains " + m}
	}
	return Detection{}
}

func detectAkamai(r Response) Detection {
	if r.StatusCode != http.StatusForbidden {
		return Detection{}
	}
	if strings.Contains(strings.ToLower(r.Headers.Get("Server")), "akamai") {
		return Detection{Vendor: "Akamai", Reason: "server header"}
	}
	if bodyHas(r.Body, "Reference #") != "" && bodyHas(r.Body, "Access Denied") != "" {
		return Detection{Vendor: "Akamai", Reason: "access denied reference page"}
	}
	return Detection{}
}

func detectDataDome(r Response) Detection {
	if r.StatusCode != http.StatusForbidden {
		return Detection{}
	}
	if strings.Contains(strings.ToLower(r.Headers.Get("Server")), "datadome") {
		return Detection{Vendor: "DataDome", Reason: "server header"}
	}
	if r.Headers.Get("X-DataDome") != "" || r.Headers.Get("X-DataDome-Response") != "" {
		return Detection{Vendor: "DataDome", Reason: "datadome header"}
	}
	if m := bodyHas(r.Body, "geo.captcha-delivery.com", "datadome"); m != "" {
		return Detection{Vendor: "DataDome", Reason: "body contains " + m}
	}
	return Detection{}
}

func detectPerimeterX(r Response) Detection {
	if r.StatusCode != http.StatusForbidden {
		return Detection{}
	}
	if r.Headers.Get("X-Px-Captcha") != "" {
		return Detection{Vendor: "PerimeterX", Reason: "captcha header"}
	}
	if m := bodyHas(r.Body, "client.perimeterx.net", "px-captcha", "_pxBlock"); m != "" {
		return Detection{Vendor: "PerimeterX", Reason: "body contains " + m}
	}
	return Detection{}
}
