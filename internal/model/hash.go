package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent    = "kitty/event/v1"
	DomainActivity = "kitty/activity/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of a circle event.
// The same (circle, seq, kind, payload) always yields the same ID, which
// makes event-log writes idempotent.
func EventID(circleID string, seq int64, kind string, payload map[string]any) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"circle_id": circleID,
		"seq":       seq,
		"kind":      kind,
		"payload":   payload,
	})
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// ActivityID computes the content-addressed ID of an activity record.
// One record exists per (member, circle) pair.
func ActivityID(memberID, circleID string) string {
	canonical, err := MarshalCanonical(map[string]any{
		"member_id": memberID,
		"circle_id": circleID,
	})
	if err != nil {
		// Two strings always marshal.
		panic(err)
	}
	return hashWithDomain(DomainActivity, canonical)
}
