package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"connect-service/internal/mocks"
	"connect-service/internal/models"
	"connect-service/internal/repositories"
	"connect-service/internal/ws"
)

func setupConnectionRouter(handler *ConnectionHandler, memberID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if memberID != 0 {
			c.Set("memberID", memberID)
		}
		c.Next()
	})
	r.POST("/connections", handler.CreateConnection)
	r.GET("/connections/pending", handler.ListPendingConnections)
	r.POST("/connections/:connection_id/decision", handler.DecideConnection)
	return r
}

func TestCreateConnectionSuccess(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	notifRepo := new(mocks.NotificationRepositoryMock)
	memberRepo := new(mocks.MemberRepositoryMock)
	handler := NewConnectionHandler(connRepo, notifRepo, memberRepo, ws.NewHub(), nil)
	router := setupConnectionRouter(handler, 1)

	conn := models.Connection{ID: 5, SenderID: 1, ReceiverID: 2, Status: models.ConnectionPending}
	connRepo.On("CreateRequest", mock.Anything, 1, 2).Return(conn, nil).Once()
	memberRepo.On("GetMember", mock.Anything, 1).Return(models.Member{ID: 1, FullName: "Ada"}, nil).Once()
	notifRepo.On("Create", mock.Anything, 2, models.NotificationConnectionRequest, "New connection request",
		"Ada wants to connect with you", mock.Anything).Return(models.Notification{ID: 9, RecipientID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections", bytes.NewBufferString(`{"receiver_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	connRepo.AssertExpectations(t)
	notifRepo.AssertExpectations(t)
}

func TestCreateConnectionSelf(t *testing.T) {
	handler := NewConnectionHandler(new(mocks.ConnectionRepositoryMock), new(mocks.NotificationRepositoryMock), new(mocks.MemberRepositoryMock), ws.NewHub(), nil)
	router := setupConnectionRouter(handler, 1)

	req := httptest.NewRequest(http.MethodPost, "/connections", bytes.NewBufferString(`{"receiver_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateConnectionDuplicate(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	handler := NewConnectionHandler(connRepo, new(mocks.NotificationRepositoryMock), new(mocks.MemberRepositoryMock), ws.NewHub(), nil)
	router := setupConnectionRouter(handler, 1)

	// The repository checks both orderings of the pair; a request in either
	// direction surfaces as the same conflict.
	connRepo.On("CreateRequest", mock.Anything, 1, 2).Return(models.Connection{}, repositories.ErrConnectionExists).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections", bytes.NewBufferString(`{"receiver_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	connRepo.AssertExpectations(t)
}

func TestCreateConnectionNoMember(t *testing.T) {
	handler := NewConnectionHandler(new(mocks.ConnectionRepositoryMock), new(mocks.NotificationRepositoryMock), new(mocks.MemberRepositoryMock), ws.NewHub(), nil)
	router := setupConnectionRouter(handler, 0)

	req := httptest.NewRequest(http.MethodPost, "/connections", bytes.NewBufferString(`{"receiver_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListPendingConnections(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	handler := NewConnectionHandler(connRepo, new(mocks.NotificationRepositoryMock), new(mocks.MemberRepositoryMock), ws.NewHub(), nil)
	router := setupConnectionRouter(handler, 3)

	connRepo.On("ListPending", mock.Anything, 3).Return([]models.Connection{
		{ID: 8, SenderID: 2, ReceiverID: 3, Status: models.ConnectionPending},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/connections/pending", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Connections []models.Connection `json:"connections"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Connections, 1)
	assert.Equal(t, 8, resp.Connections[0].ID)
	connRepo.AssertExpectations(t)
}

func TestDecideConnectionAccept(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	notifRepo := new(mocks.NotificationRepositoryMock)
	memberRepo := new(mocks.MemberRepositoryMock)
	handler := NewConnectionHandler(connRepo, notifRepo, memberRepo, ws.NewHub(), nil)
	router := setupConnectionRouter(handler, 3)

	decided := models.Connection{ID: 8, SenderID: 2, ReceiverID: 3, Status: models.ConnectionAccepted}
	connRepo.On("Decide", mock.Anything, 8, 3, models.ConnectionAccepted).Return(decided, nil).Once()
	memberRepo.On("GetMember", mock.Anything, 3).Return(models.Member{ID: 3, FullName: "Bea"}, nil).Once()
	notifRepo.On("Create", mock.Anything, 2, models.NotificationConnectionAccepted, "Connection accepted",
		"Bea accepted your connection request", mock.Anything).Return(models.Notification{ID: 11, RecipientID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections/8/decision", bytes.NewBufferString(`{"action":"accept"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	connRepo.AssertExpectations(t)
	notifRepo.AssertExpectations(t)
}

func TestDecideConnectionRejectSkipsNotification(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	notifRepo := new(mocks.NotificationRepositoryMock)
	handler := NewConnectionHandler(connRepo, notifRepo, new(mocks.MemberRepositoryMock), ws.NewHub(), nil)
	router := setupConnectionRouter(handler, 3)

	decided := models.Connection{ID: 8, SenderID: 2, ReceiverID: 3, Status: models.ConnectionRejected}
	connRepo.On("Decide", mock.Anything, 8, 3, models.ConnectionRejected).Return(decided, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections/8/decision", bytes.NewBufferString(`{"action":"reject"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	connRepo.AssertExpectations(t)
	notifRepo.AssertNotCalled(t, "Create")
}

func TestDecideConnectionTerminal(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	handler := NewConnectionHandler(connRepo, new(mocks.NotificationRepositoryMock), new(mocks.MemberRepositoryMock), ws.NewHub(), nil)
	router := setupConnectionRouter(handler, 3)

	// A second accept on an already-decided connection hits the terminal
	// state and is rejected.
	connRepo.On("Decide", mock.Anything, 8, 3, models.ConnectionAccepted).
		Return(models.Connection{}, repositories.ErrConnectionNotPending).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections/8/decision", bytes.NewBufferString(`{"action":"accept"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	connRepo.AssertExpectations(t)
}

func TestDecideConnectionInvalidAction(t *testing.T) {
	handler := NewConnectionHandler(new(mocks.ConnectionRepositoryMock), new(mocks.NotificationRepositoryMock), new(mocks.MemberRepositoryMock), ws.NewHub(), nil)
	router := setupConnectionRouter(handler, 3)

	req := httptest.NewRequest(http.MethodPost, "/connections/8/decision", bytes.NewBufferString(`{"action":"maybe"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
