package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"connect-service/internal/identity"
	"connect-service/internal/models"
)

type MemberRepositoryMock struct {
	mock.Mock
}

func (m *MemberRepositoryMock) ResolveMember(ctx context.Context, authUserID string) (models.Member, error) {
	args := m.Called(ctx, authUserID)
	var member models.Member
	if val := args.Get(0); val != nil {
		member = val.(models.Member)
	}
	return member, args.Error(1)
}

func (m *MemberRepositoryMock) GetMember(ctx context.Context, memberID int) (models.Member, error) {
	args := m.Called(ctx, memberID)
	var member models.Member
	if val := args.Get(0); val != nil {
		member = val.(models.Member)
	}
	return member, args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) StartChat(ctx context.Context, memberID int, partnerID int) (models.Chat, error) {
	args := m.Called(ctx, memberID, partnerID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID int, memberID int) (bool, error) {
	args := m.Called(ctx, chatID, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, memberID int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, memberID)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) ListParticipants(ctx context.Context, memberID int) ([]models.ChatParticipant, error) {
	args := m.Called(ctx, memberID)
	var list []models.ChatParticipant
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatParticipant)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) MarkChatRead(ctx context.Context, chatID int, memberID int) error {
	args := m.Called(ctx, chatID, memberID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) CountMessagesSince(ctx context.Context, chatID int, memberID int, cutoff time.Time) (int, error) {
	args := m.Called(ctx, chatID, memberID, cutoff)
	return args.Int(0), args.Error(1)
}

type ConnectionRepositoryMock struct {
	mock.Mock
}

func (m *ConnectionRepositoryMock) CreateRequest(ctx context.Context, senderID int, receiverID int) (models.Connection, error) {
	args := m.Called(ctx, senderID, receiverID)
	var conn models.Connection
	if val := args.Get(0); val != nil {
		conn = val.(models.Connection)
	}
	return conn, args.Error(1)
}

func (m *ConnectionRepositoryMock) Decide(ctx context.Context, connectionID int, receiverID int, status models.ConnectionStatus) (models.Connection, error) {
	args := m.Called(ctx, connectionID, receiverID, status)
	var conn models.Connection
	if val := args.Get(0); val != nil {
		conn = val.(models.Connection)
	}
	return conn, args.Error(1)
}

func (m *ConnectionRepositoryMock) CountPending(ctx context.Context, memberID int) (int, error) {
	args := m.Called(ctx, memberID)
	return args.Int(0), args.Error(1)
}

func (m *ConnectionRepositoryMock) ListPending(ctx context.Context, memberID int) ([]models.Connection, error) {
	args := m.Called(ctx, memberID)
	var conns []models.Connection
	if val := args.Get(0); val != nil {
		conns = val.([]models.Connection)
	}
	return conns, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, recipientID int, kind models.NotificationType, title string, message string, data json.RawMessage) (models.Notification, error) {
	args := m.Called(ctx, recipientID, kind, title, message, data)
	var n models.Notification
	if val := args.Get(0); val != nil {
		n = val.(models.Notification)
	}
	return n, args.Error(1)
}

func (m *NotificationRepositoryMock) List(ctx context.Context, memberID int, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, memberID, limit)
	var ns []models.Notification
	if val := args.Get(0); val != nil {
		ns = val.([]models.Notification)
	}
	return ns, args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, notificationID int, memberID int) error {
	args := m.Called(ctx, notificationID, memberID)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) MarkAllRead(ctx context.Context, memberID int) (int, error) {
	args := m.Called(ctx, memberID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepositoryMock) CountUnread(ctx context.Context, memberID int) (int, error) {
	args := m.Called(ctx, memberID)
	return args.Int(0), args.Error(1)
}

type IdentityProviderMock struct {
	mock.Mock
}

func (m *IdentityProviderMock) CurrentUser(ctx context.Context, token string) (identity.User, error) {
	args := m.Called(ctx, token)
	var user identity.User
	if val := args.Get(0); val != nil {
		user = val.(identity.User)
	}
	return user, args.Error(1)
}
