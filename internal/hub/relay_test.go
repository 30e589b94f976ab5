package hub

import (
	"encoding/json"
	"testing"
	"time"

	"Massenger/internal/event"
	"Massenger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMessage(id string) *model.Message {
	return &model.Message{
		MessageID:      id,
		ConversationID: model.PairConversationID("alice", "bob"),
		SenderID:       "alice",
		ReceiverID:     "bob",
		Type:           model.MessageTypeText,
		Body:           "hello",
		CreatedAt:      time.Now().UTC(),
		Status:         model.StatusSent,
	}
}

func TestNotifyNewMessagePushesToReceiver(t *testing.T) {
	r := NewRegistry()
	relay := NewStatusRelay(r, zap.NewNop())

	bobTab1 := newFakeSession("conn-1", "bob")
	bobTab2 := newFakeSession("conn-2", "bob")
	aliceTab := newFakeSession("conn-3", "alice")
	r.Register(bobTab1)
	r.Register(bobTab2)
	r.Register(aliceTab)

	delivered := relay.NotifyNewMessage(testMessage("m-1"))
	require.True(t, delivered)

	for _, s := range []*fakeSession{bobTab1, bobTab2} {
		msgEvents := s.received(event.EventNewMessage)
		require.Len(t, msgEvents, 1)

		var msg model.Message
		require.NoError(t, json.Unmarshal(msgEvents[0].Payload, &msg))
		assert.Equal(t, "m-1", msg.MessageID)
		assert.Equal(t, model.StatusSent, msg.Status)

		dlvEvents := s.received(event.EventMessageDelivered)
		require.Len(t, dlvEvents, 1)

		var payload event.MessageDeliveredPayload
		require.NoError(t, json.Unmarshal(dlvEvents[0].Payload, &payload))
		assert.Equal(t, "m-1", payload.MessageID)
		assert.Equal(t, "bob", payload.ReceiverID)
	}

	// the sender's own connection hears nothing
	assert.Zero(t, aliceTab.count())
}

func TestNotifyNewMessageOfflineReceiver(t *testing.T) {
	r := NewRegistry()
	relay := NewStatusRelay(r, zap.NewNop())

	delivered := relay.NotifyNewMessage(testMessage("m-1"))
	assert.False(t, delivered)
}

func TestNotifyNewMessageAllPushesFail(t *testing.T) {
	r := NewRegistry()
	relay := NewStatusRelay(r, zap.NewNop())

	broken := newFakeSession("conn-1", "bob")
	broken.reject = true
	r.Register(broken)

	delivered := relay.NotifyNewMessage(testMessage("m-1"))
	assert.False(t, delivered, "a rejected push must not count as delivered")
}

func TestNotifyNewMessagePartialFailureStillDelivered(t *testing.T) {
	r := NewRegistry()
	relay := NewStatusRelay(r, zap.NewNop())

	broken := newFakeSession("conn-1", "bob")
	broken.reject = true
	healthy := newFakeSession("conn-2", "bob")
	r.Register(broken)
	r.Register(healthy)

	delivered := relay.NotifyNewMessage(testMessage("m-1"))
	assert.True(t, delivered)
	assert.Len(t, healthy.received(event.EventNewMessage), 1)
}

func TestNotifyMessagesRead(t *testing.T) {
	r := NewRegistry()
	relay := NewStatusRelay(r, zap.NewNop())

	alice := newFakeSession("conn-1", "alice")
	r.Register(alice)

	// bob read alice's messages
	relay.NotifyMessagesRead("alice", "bob", []string{"m-1", "m-2"})

	evs := alice.received(event.EventMessagesRead)
	require.Len(t, evs, 1)

	var payload event.MessagesReadPayload
	require.NoError(t, json.Unmarshal(evs[0].Payload, &payload))
	assert.Equal(t, "bob", payload.SenderID)
	assert.Equal(t, []string{"m-1", "m-2"}, payload.MessageIDs)
}

func TestNotifyMessagesReadEmptyBatchIsNoop(t *testing.T) {
	r := NewRegistry()
	relay := NewStatusRelay(r, zap.NewNop())

	alice := newFakeSession("conn-1", "alice")
	r.Register(alice)

	relay.NotifyMessagesRead("alice", "bob", nil)
	assert.Zero(t, alice.count())
}

func TestNotifyMessagesReadOfflineSender(t *testing.T) {
	r := NewRegistry()
	relay := NewStatusRelay(r, zap.NewNop())

	// never panics, never errors: persisted state carries the truth
	relay.NotifyMessagesRead("alice", "bob", []string{"m-1"})
}
