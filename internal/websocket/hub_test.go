package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causelist/pkg/contracts/domain"
	"causelist/pkg/contracts/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger())
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

// registerClient registers a client without starting its pumps so the
// test can read frames straight off the send buffer.
func registerClient(t *testing.T, hub *Hub, key string) *Client {
	t.Helper()
	client := NewClientWithConnection(hub, &fakeConn{}, key, testLogger())
	hub.Register(client)

	require.Eventually(t, func() bool {
		return hub.HasClient(key) || key == ""
	}, time.Second, 5*time.Millisecond)
	return client
}

// nextFrame reads one frame from the client buffer, skipping the
// connect greeting.
func nextFrame(t *testing.T, c *Client) events.Envelope {
	t.Helper()
	for {
		select {
		case payload := <-c.send:
			var env events.Envelope
			require.NoError(t, json.Unmarshal(payload, &env))
			if env.Type == events.MessageTypeConnect {
				continue
			}
			return env
		case <-time.After(time.Second):
			t.Fatal("no frame received")
		}
	}
}

func TestHubSendsConnectGreeting(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub, "alice")

	select {
	case payload := <-client.send:
		var env events.Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		assert.Equal(t, events.MessageTypeConnect, env.Type)
	case <-time.After(time.Second):
		t.Fatal("no greeting received")
	}
}

func TestSendRecordTargetsOnlyMatchingKey(t *testing.T) {
	hub := startHub(t)
	alice := registerClient(t, hub, "alice")
	bob := registerClient(t, hub, "bob")

	record := domain.Record{CNR: "DLND010012342024", Path: "/out/DLND010012342024.pdf"}
	hub.SendRecord("alice", "trace-1", record)

	env := nextFrame(t, alice)
	assert.Equal(t, events.MessageTypeRecord, env.Type)
	assert.Equal(t, "trace-1", env.TraceID)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var saved events.RecordSaved
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, record.CNR, saved.CNR)
	assert.Equal(t, record.Path, saved.Path)

	// Drain bob's greeting; nothing else should arrive
	select {
	case payload := <-bob.send:
		var bobEnv events.Envelope
		require.NoError(t, json.Unmarshal(payload, &bobEnv))
		assert.Equal(t, events.MessageTypeConnect, bobEnv.Type)
	case <-time.After(time.Second):
		t.Fatal("bob greeting missing")
	}
	select {
	case payload := <-bob.send:
		t.Fatalf("bob received unexpected frame: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendRecordReachesAllSocketsOfKey(t *testing.T) {
	hub := startHub(t)
	tab1 := registerClient(t, hub, "alice")
	tab2 := registerClient(t, hub, "alice")

	hub.SendRecord("alice", "", domain.Record{CNR: "X", Path: "/out/X.pdf"})

	for _, tab := range []*Client{tab1, tab2} {
		env := nextFrame(t, tab)
		assert.Equal(t, events.MessageTypeRecord, env.Type)
	}
}

func TestBroadcastStatusReachesAllClients(t *testing.T) {
	hub := startHub(t)
	alice := registerClient(t, hub, "alice")
	bob := registerClient(t, hub, "bob")

	hub.BroadcastStatus("", events.JobStatus{JobID: "job-1", Status: "running"})

	for _, c := range []*Client{alice, bob} {
		env := nextFrame(t, c)
		assert.Equal(t, events.MessageTypeJobStatus, env.Type)
	}
}

func TestSendErrorDelivered(t *testing.T) {
	hub := startHub(t)
	alice := registerClient(t, hub, "alice")

	hub.SendError("alice", "trace-9", events.ErrorPayload{Error: "captcha attempts exhausted"})

	env := nextFrame(t, alice)
	assert.Equal(t, events.MessageTypeError, env.Type)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var payload events.ErrorPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "captcha attempts exhausted", payload.Error)
}

func TestDirectedMessageDroppedWithoutClient(t *testing.T) {
	hub := startHub(t)
	before := GetMetrics().GetSnapshot()["messages"].(map[string]interface{})["dropped"].(int64)

	hub.SendRecord("nobody", "", domain.Record{CNR: "Y", Path: "/out/Y.pdf"})

	assert.Eventually(t, func() bool {
		dropped := GetMetrics().GetSnapshot()["messages"].(map[string]interface{})["dropped"].(int64)
		return dropped > before
	}, time.Second, 5*time.Millisecond)
}

func TestUnregisterRemovesKey(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub, "alice")

	hub.unregister <- client

	assert.Eventually(t, func() bool {
		return !hub.HasClient("alice")
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestRegisterAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.Register(NewClientWithConnection(hub, &fakeConn{}, "late", testLogger()))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register blocked after hub stop")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestStats(t *testing.T) {
	hub := startHub(t)
	registerClient(t, hub, "alice")

	stats := hub.Stats()
	assert.Equal(t, 1, stats["active_clients"])
	assert.Equal(t, 1, stats["client_keys"])
}
