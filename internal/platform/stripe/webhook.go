// Copyright (c) 2026 ClarifyX. All rights reserved.

package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Event is a verified webhook event envelope.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

var (
	// ErrInvalidSignature indicates the payload failed HMAC verification.
	ErrInvalidSignature = errors.New("stripe: webhook signature verification failed")

	// ErrSignatureExpired indicates the signed timestamp fell outside the
	// replay tolerance window.
	ErrSignatureExpired = errors.New("stripe: webhook timestamp outside tolerance")
)

// ConstructEvent verifies a webhook payload against its Stripe-Signature
// header and unmarshals the event envelope.
//
// The header format is "t=<unix>,v1=<hex hmac>[,v1=...]". The HMAC is
// SHA-256 over "<t>.<payload>" keyed with the endpoint's webhook secret.
// Timestamps older or newer than tolerance are rejected to limit replays.
func (c *Client) ConstructEvent(payload []byte, sigHeader string, tolerance time.Duration) (*Event, error) {
	timestamp, signatures := parseSignatureHeader(sigHeader)
	if timestamp == "" || len(signatures) == 0 {
		return nil, ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if skew := time.Since(time.Unix(unix, 0)); skew > tolerance || skew < -tolerance {
		return nil, ErrSignatureExpired
	}

	expected := computeSignature(timestamp, payload, c.webhookSecret)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("stripe: parse webhook event: %w", err)
	}
	return &event, nil
}

// parseSignatureHeader extracts the timestamp and all v1 signatures.
func parseSignatureHeader(header string) (timestamp string, signatures []string) {
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	return timestamp, signatures
}

// computeSignature returns the hex HMAC-SHA256 of "<timestamp>.<payload>".
func computeSignature(timestamp string, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
