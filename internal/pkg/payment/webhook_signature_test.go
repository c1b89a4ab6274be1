package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signPayload(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyStripeSignatureValid(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	ts := now.Unix()

	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload(secret, ts, payload))
	if !verifyStripeSignatureAt(payload, header, secret, DefaultSignatureTolerance, now) {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifyStripeSignatureSecondV1Matches(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	ts := now.Unix()

	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", ts, "00ff", signPayload(secret, ts, payload))
	if !verifyStripeSignatureAt(payload, header, secret, DefaultSignatureTolerance, now) {
		t.Fatalf("expected signature with rolled secrets to verify")
	}
}

func TestVerifyStripeSignatureRejections(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	ts := now.Unix()
	valid := signPayload(secret, ts, payload)

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
		now     time.Time
	}{
		{name: "empty header", payload: payload, header: "", secret: secret, now: now},
		{name: "empty secret", payload: payload, header: fmt.Sprintf("t=%d,v1=%s", ts, valid), secret: "", now: now},
		{name: "wrong secret", payload: payload, header: fmt.Sprintf("t=%d,v1=%s", ts, signPayload("other", ts, payload)), secret: secret, now: now},
		{name: "tampered payload", payload: []byte(`{"id":"evt_2"}`), header: fmt.Sprintf("t=%d,v1=%s", ts, valid), secret: secret, now: now},
		{name: "missing timestamp", payload: payload, header: "v1=" + valid, secret: secret, now: now},
		{name: "stale timestamp", payload: payload, header: fmt.Sprintf("t=%d,v1=%s", ts, valid), secret: secret, now: now.Add(10 * time.Minute)},
		{name: "future timestamp", payload: payload, header: fmt.Sprintf("t=%d,v1=%s", ts, valid), secret: secret, now: now.Add(-10 * time.Minute)},
	}

	for _, tt := range tests {
		if verifyStripeSignatureAt(tt.payload, tt.header, tt.secret, DefaultSignatureTolerance, tt.now) {
			t.Fatalf("%s: expected verification to fail", tt.name)
		}
	}
}
