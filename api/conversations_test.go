package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/service/dialogue"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestConversationHandler_message(t *testing.T) {
	mockService := &MockDialogueUseCase{}
	handler := NewConversationHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(messageRequest{Text: "my name is Anna"})
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/api/conversations/c1/messages", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	tableID := int64(2)
	mockService.On("HandleUtterance", c.Request.Context(), "c1", "my name is Anna").Return(dialogue.Result{
		Text:        "Done, Anna!",
		Reservation: &domain.Reservation{ID: 1, TableID: &tableID, CustomerName: "Anna", Status: domain.ReservationStatusNew},
		Analysis:    domain.ConfidenceAnalysis{Score: 1},
		Draft:       domain.BookingDraft{Name: "Anna", Zone: domain.ZoneWindow},
	})

	handler.message(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response messageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "c1", response.ConversationID)
	assert.Equal(t, "Done, Anna!", response.Text)
	require.NotNil(t, response.Reservation)
	assert.Equal(t, int64(2), *response.Reservation.TableID)
	assert.Equal(t, "new", response.Reservation.Status)
	assert.Equal(t, 1.0, response.Confidence.Score)
	assert.Empty(t, response.Confidence.Reasons)
	assert.Equal(t, "window", response.Draft.Zone)

	mockService.AssertExpectations(t)
}

func TestConversationHandler_messageBadBody(t *testing.T) {
	mockService := &MockDialogueUseCase{}
	handler := NewConversationHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/api/conversations/c1/messages", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.message(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "HandleUtterance", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversationHandler_start(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewConversationHandler(&MockDialogueUseCase{}).Register(router.Group("/api/conversations"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/conversations", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	_, err := uuid.Parse(response["conversation_id"])
	assert.NoError(t, err)
}
