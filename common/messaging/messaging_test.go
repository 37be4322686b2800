package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	connected  bool
	requestErr error
	published  map[string][]byte
}

func (f *fakeClient) Publish(_ context.Context, subject string, data []byte) error {
	if f.published == nil {
		f.published = map[string][]byte{}
	}
	f.published[subject] = data
	return nil
}

func (f *fakeClient) Request(context.Context, string, []byte, time.Duration) (*Message, error) {
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &Message{Data: []byte("pong")}, nil
}

func (f *fakeClient) Subscribe(string, MessageHandler) (Subscription, error) { return nil, nil }
func (f *fakeClient) QueueSubscribe(string, string, MessageHandler) (Subscription, error) {
	return nil, nil
}
func (f *fakeClient) Close() error      { return nil }
func (f *fakeClient) Drain() error      { return nil }
func (f *fakeClient) IsConnected() bool { return f.connected }

func TestReply(t *testing.T) {
	client := &fakeClient{}
	msg := &Message{Subject: SubjectAlertingSummaryQuery, Reply: "_INBOX.1"}

	require.NoError(t, Reply(context.Background(), client, msg, map[string]string{"job_id": "j1"}))

	var got map[string]string
	require.NoError(t, json.Unmarshal(client.published["_INBOX.1"], &got))
	assert.Equal(t, "j1", got["job_id"])
}

func TestReply_NoReplySubject(t *testing.T) {
	err := Reply(context.Background(), &fakeClient{}, &Message{}, "x")
	assert.ErrorIs(t, err, ErrNoReplySubject)
}

func TestCheckClientHealth(t *testing.T) {
	tests := []struct {
		name      string
		client    Client
		connected bool
		errText   string
	}{
		{"nil client", nil, false, "messaging disabled"},
		{"disconnected", &fakeClient{}, false, "not connected to message broker"},
		{"healthy", &fakeClient{connected: true}, true, ""},
		{"no responders is healthy", &fakeClient{connected: true, requestErr: ErrNoResponders}, true, ""},
		{"request failure", &fakeClient{connected: true, requestErr: errors.New("timeout")}, true, "health check failed: timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := CheckClientHealth(context.Background(), tt.client)
			assert.Equal(t, tt.connected, status.Connected)
			assert.Equal(t, tt.errText, status.Error)
		})
	}
}
