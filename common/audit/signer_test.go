package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSigner_Sign(t *testing.T) {
	signer := NewSigner("test-secret")
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	data := []byte("PK\x03\x04")

	sig := signer.Sign("req-1", ts, "acme", data)
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, signer.Sign("req-1", ts, "acme", data), "signatures are deterministic")

	// The same instant in another zone signs identically.
	assert.Equal(t, sig, signer.Sign("req-1", ts.In(time.FixedZone("CET", 3600)), "acme", data))

	tests := []struct {
		name      string
		requestID string
		ts        time.Time
		tenant    string
		data      []byte
	}{
		{"request id", "req-2", ts, "acme", data},
		{"timestamp", "req-1", ts.Add(time.Nanosecond), "acme", data},
		{"tenant", "req-1", ts, "globex", data},
		{"body", "req-1", ts, "acme", []byte("PK\x03\x05")},
		{"field boundary", "req-1\n" + ts.Format(time.RFC3339Nano), ts, "acme", data},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, sig, signer.Sign(tt.requestID, tt.ts, tt.tenant, tt.data))
		})
	}
}

func TestSigner_Verify(t *testing.T) {
	signer := NewSigner("test-secret")
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	data := []byte("%PDF-1.3")
	sig := signer.Sign("req-1", ts, "acme", data)

	assert.True(t, signer.Verify("req-1", ts, "acme", data, sig))
	assert.False(t, signer.Verify("req-1", ts, "acme", []byte("%PDF-1.4"), sig))
	assert.False(t, signer.Verify("req-1", ts, "acme", data, "deadbeef"))
	assert.False(t, NewSigner("other-secret").Verify("req-1", ts, "acme", data, sig))
}
