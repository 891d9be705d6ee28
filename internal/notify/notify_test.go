package notify

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegisterMessage(t *testing.T) {
	msg, err := parseRegisterMessage([]byte(`{"type":"register","monitor":"ops-dash"}`))
	require.NoError(t, err)
	assert.Equal(t, RegisterMessageType, msg.Type)
	assert.Equal(t, "ops-dash", msg.Monitor)
}

func TestParseRegisterMessageRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "hello"},
		{"missing monitor", `{"type":"register"}`},
		{"missing type", `{"monitor":"ops-dash"}`},
		{"empty object", `{}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseRegisterMessage([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestRegistryRegisterAndRemove(t *testing.T) {
	reg := NewRegistry()
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4242}

	reg.Register("ops-dash", addr)
	reg.Register("pager", addr)

	clients := reg.Snapshot()
	require.Len(t, clients, 2)

	// re-registering the same monitor replaces, not duplicates
	reg.Register("ops-dash", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5353})
	assert.Len(t, reg.Snapshot(), 2)

	reg.Remove("pager")
	clients = reg.Snapshot()
	require.Len(t, clients, 1)
	assert.Equal(t, "ops-dash", clients[0].Monitor)
	assert.Equal(t, 5353, clients[0].Addr.Port)
}

func TestRegistryIgnoresInvalidRegistrations(t *testing.T) {
	reg := NewRegistry()

	reg.Register("", &net.UDPAddr{})
	reg.Register("no-addr", nil)

	assert.Empty(t, reg.Snapshot())
}
