package mqtt

import (
	"errors"
	"testing"
)

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name:     "SystemStatus",
			builder:  Topics{}.SystemStatus,
			expected: "handsense/system/status",
		},
		{
			name:     "JointState",
			builder:  Topics{}.JointState,
			expected: "handsense/state/joints",
		},
		{
			name:     "ShapeState",
			builder:  Topics{}.ShapeState,
			expected: "handsense/state/shape",
		},
		{
			name:     "ContactState",
			builder:  Topics{}.ContactState,
			expected: "handsense/state/contacts",
		},
		{
			name: "TactileState",
			builder: func() string {
				return Topics{}.TactileState("palm")
			},
			expected: "handsense/state/tactile/palm",
		},
		{
			name:     "JointCommand",
			builder:  Topics{}.JointCommand,
			expected: "handsense/command/joints",
		},
		{
			name:     "SpeedCommand",
			builder:  Topics{}.SpeedCommand,
			expected: "handsense/command/speed",
		},
		{
			name:     "ForceCommand",
			builder:  Topics{}.ForceCommand,
			expected: "handsense/command/force",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.builder(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsConnectedInitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestPublishValidation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{
			name:    "empty topic",
			topic:   "",
			wantErr: ErrInvalidTopic,
		},
		{
			name:    "invalid qos",
			topic:   Topics{}.JointState(),
			qos:     3,
			wantErr: ErrInvalidQoS,
		},
		{
			name:    "oversized payload",
			topic:   Topics{}.JointState(),
			payload: make([]byte, maxPayloadSize+1),
			wantErr: ErrPublishFailed,
		},
		{
			name:    "not connected",
			topic:   Topics{}.JointState(),
			payload: []byte(`{}`),
			wantErr: ErrNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	if err := client.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := client.Subscribe("handsense/#", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos error = %v", err)
	}
	if err := client.Subscribe("handsense/#", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}
	if err := client.Subscribe("handsense/#", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected error = %v", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("failed subscribes left %d tracked subscriptions", client.SubscriptionCount())
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := client.Unsubscribe("handsense/state/joints"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected error = %v", err)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on unconnected client = %v", err)
	}
}
