package service

import (
	"context"
	"errors"
	"testing"

	"Massenger/internal/db"
	"Massenger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Fakes ---

type fakeMessageRepo struct {
	inserted     []*model.Message
	insertErr    error
	delivered    []string
	deliveredErr error
	readIDs      []string
	readErr      error
	unread       int64
	fetched      *db.PaginatedResult[model.Message]
}

func (f *fakeMessageRepo) InsertMessage(_ context.Context, msg *model.Message) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	stored := *msg
	f.inserted = append(f.inserted, &stored)
	return "oid", nil
}

func (f *fakeMessageRepo) GetConversationMessages(_ context.Context, _ string, _ string, _ int64) (*db.PaginatedResult[model.Message], error) {
	return f.fetched, nil
}

func (f *fakeMessageRepo) MarkDelivered(_ context.Context, messageID string) error {
	if f.deliveredErr != nil {
		return f.deliveredErr
	}
	f.delivered = append(f.delivered, messageID)
	return nil
}

func (f *fakeMessageRepo) MarkConversationRead(_ context.Context, _ string, _ string) ([]string, error) {
	return f.readIDs, f.readErr
}

func (f *fakeMessageRepo) CountUnread(_ context.Context, _ string, _ string) (int64, error) {
	return f.unread, nil
}

type fakeConversationRepo struct {
	touched  []*model.Message
	touchErr error
	listed   []model.Conversation
}

func (f *fakeConversationRepo) Touch(_ context.Context, msg *model.Message) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched = append(f.touched, msg)
	return nil
}

func (f *fakeConversationRepo) ListForUser(_ context.Context, _ string) ([]model.Conversation, error) {
	return f.listed, nil
}

type fakeUserRepo struct {
	known       map[string]bool
	active      []model.User
	found       []model.User
	lastQuery   string
	lastExclude string
}

func (f *fakeUserRepo) GetUser(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) ListActive(_ context.Context) ([]model.User, error) {
	return f.active, nil
}

func (f *fakeUserRepo) Exists(_ context.Context, userID string) (bool, error) {
	return f.known[userID], nil
}

func (f *fakeUserRepo) Search(_ context.Context, query string, excludeUserID string) ([]model.User, error) {
	f.lastQuery = query
	f.lastExclude = excludeUserID
	return f.found, nil
}

type fakeNotifier struct {
	newMessages []*model.Message
	deliverable bool
	readSenders []string
	readReaders []string
	readBatches [][]string
}

func (f *fakeNotifier) NotifyNewMessage(msg *model.Message) bool {
	copied := *msg
	f.newMessages = append(f.newMessages, &copied)
	return f.deliverable
}

func (f *fakeNotifier) NotifyMessagesRead(senderID string, readerID string, messageIDs []string) {
	f.readSenders = append(f.readSenders, senderID)
	f.readReaders = append(f.readReaders, readerID)
	f.readBatches = append(f.readBatches, messageIDs)
}

func newTestService(msgs *fakeMessageRepo, convs *fakeConversationRepo, n *fakeNotifier) MessageService {
	users := &fakeUserRepo{known: map[string]bool{"alice": true, "bob": true}}
	return NewMessageService(msgs, convs, users, n, zap.NewNop())
}

// --- Tests ---

func TestSendMessagePersistsBeforePush(t *testing.T) {
	msgs := &fakeMessageRepo{}
	notifier := &fakeNotifier{deliverable: false}
	svc := newTestService(msgs, &fakeConversationRepo{}, notifier)

	got, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID:   "alice",
		ReceiverID: "bob",
		Body:       "hello",
	})
	require.NoError(t, err)

	require.Len(t, msgs.inserted, 1)
	require.Len(t, notifier.newMessages, 1)

	// persisted with status sent before the push was attempted
	assert.Equal(t, model.StatusSent, msgs.inserted[0].Status)
	assert.Equal(t, model.StatusSent, notifier.newMessages[0].Status)
	assert.NotEmpty(t, got.MessageID)
	assert.Equal(t, model.PairConversationID("alice", "bob"), got.ConversationID)

	// receiver offline: no delivered transition persisted
	assert.Empty(t, msgs.delivered)
	assert.Equal(t, model.StatusSent, got.Status)
}

func TestSendMessagePromotesDeliveredOnSuccessfulPush(t *testing.T) {
	msgs := &fakeMessageRepo{}
	notifier := &fakeNotifier{deliverable: true}
	svc := newTestService(msgs, &fakeConversationRepo{}, notifier)

	got, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID:   "alice",
		ReceiverID: "bob",
		Body:       "hello",
	})
	require.NoError(t, err)

	require.Len(t, msgs.delivered, 1)
	assert.Equal(t, got.MessageID, msgs.delivered[0])
	assert.Equal(t, model.StatusDelivered, got.Status)
}

func TestSendMessageInsertFailureNeverPushes(t *testing.T) {
	msgs := &fakeMessageRepo{insertErr: errors.New("mongo down")}
	notifier := &fakeNotifier{deliverable: true}
	svc := newTestService(msgs, &fakeConversationRepo{}, notifier)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID:   "alice",
		ReceiverID: "bob",
		Body:       "hello",
	})
	require.Error(t, err)
	assert.Empty(t, notifier.newMessages, "nothing may be pushed for an unpersisted message")
}

func TestSendMessageDeliveredPersistFailureIsSwallowed(t *testing.T) {
	msgs := &fakeMessageRepo{deliveredErr: errors.New("write conflict")}
	notifier := &fakeNotifier{deliverable: true}
	svc := newTestService(msgs, &fakeConversationRepo{}, notifier)

	got, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID:   "alice",
		ReceiverID: "bob",
		Body:       "hello",
	})
	require.NoError(t, err, "the committed write already succeeded")
	assert.Equal(t, model.StatusSent, got.Status)
}

func TestSendMessageTouchFailureIsSwallowed(t *testing.T) {
	msgs := &fakeMessageRepo{}
	convs := &fakeConversationRepo{touchErr: errors.New("upsert failed")}
	svc := newTestService(msgs, convs, &fakeNotifier{})

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID:   "alice",
		ReceiverID: "bob",
		Body:       "hello",
	})
	assert.NoError(t, err)
}

func TestSendMessageValidation(t *testing.T) {
	svc := newTestService(&fakeMessageRepo{}, &fakeConversationRepo{}, &fakeNotifier{})

	tests := []struct {
		name    string
		in      SendMessageInput
		wantErr error
	}{
		{
			name:    "missing receiver",
			in:      SendMessageInput{SenderID: "alice", Body: "hi"},
			wantErr: ErrMissingReceiver,
		},
		{
			name:    "self message",
			in:      SendMessageInput{SenderID: "alice", ReceiverID: "alice", Body: "hi"},
			wantErr: ErrSelfMessage,
		},
		{
			name:    "empty body without attachment",
			in:      SendMessageInput{SenderID: "alice", ReceiverID: "bob"},
			wantErr: ErrEmptyMessage,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SendMessage(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSendMessageUnknownReceiverIsRejected(t *testing.T) {
	msgs := &fakeMessageRepo{}
	notifier := &fakeNotifier{}
	svc := newTestService(msgs, &fakeConversationRepo{}, notifier)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID:   "alice",
		ReceiverID: "nobody",
		Body:       "hello",
	})
	assert.ErrorIs(t, err, ErrUnknownReceiver)
	assert.Empty(t, msgs.inserted, "nothing may be persisted for an unknown receiver")
	assert.Empty(t, notifier.newMessages)
}

func TestCountUnreadDelegatesToRepo(t *testing.T) {
	msgs := &fakeMessageRepo{unread: 4}
	svc := newTestService(msgs, &fakeConversationRepo{}, &fakeNotifier{})

	count, err := svc.CountUnread(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestMarkConversationReadNotifiesSender(t *testing.T) {
	msgs := &fakeMessageRepo{readIDs: []string{"m-1", "m-2"}}
	notifier := &fakeNotifier{}
	svc := newTestService(msgs, &fakeConversationRepo{}, notifier)

	// bob reads alice's messages
	ids, err := svc.MarkConversationRead(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"m-1", "m-2"}, ids)

	require.Len(t, notifier.readSenders, 1)
	assert.Equal(t, "alice", notifier.readSenders[0], "receipt goes to the original sender")
	assert.Equal(t, "bob", notifier.readReaders[0])
	assert.Equal(t, []string{"m-1", "m-2"}, notifier.readBatches[0])
}

func TestMarkConversationReadRepoFailure(t *testing.T) {
	msgs := &fakeMessageRepo{readErr: errors.New("mongo down")}
	notifier := &fakeNotifier{}
	svc := newTestService(msgs, &fakeConversationRepo{}, notifier)

	_, err := svc.MarkConversationRead(context.Background(), "bob", "alice")
	require.Error(t, err)
	assert.Empty(t, notifier.readSenders, "no receipt may be pushed for an unpersisted read")
}
