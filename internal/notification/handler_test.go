package notification

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/internal/mocks"
	"github.com/collablink/collablink/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newNotificationRouter(svc *mocks.DispatcherServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	handler := NewNotificationHandler(svc)
	r.POST("/events", handler.CreateEvent)
	r.GET("/users/:id/notifications", handler.Inbox)
	r.PUT("/users/:id/preferences", handler.UpdatePreference)
	r.GET("/notifications/stats", handler.Stats)
	return r
}

func TestNotificationHandler_CreateEvent(t *testing.T) {
	validBody := `{"event_type":"promotion_created","title":"New promotion","message":"Acme launched","recipients":[{"user_id":1,"email":"one@example.com"}]}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*mocks.DispatcherServiceMock)
		expectedStatus int
	}{
		{
			name: "accepted event answers 202 with attempt count",
			body: validBody,
			setupMock: func(m *mocks.DispatcherServiceMock) {
				m.On("Accept", mock.Anything, mock.Anything).
					Return(&dto.EventAcceptedDTO{EventID: "event-1", Attempts: 3}, nil)
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "unknown event type fails validation",
			body:           `{"event_type":"account_deleted","title":"t","message":"m","recipients":[{"user_id":1}]}`,
			setupMock:      func(m *mocks.DispatcherServiceMock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty recipients fail validation",
			body:           `{"event_type":"promotion_created","title":"t","message":"m","recipients":[]}`,
			setupMock:      func(m *mocks.DispatcherServiceMock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed recipient email fails validation",
			body:           `{"event_type":"promotion_created","title":"t","message":"m","recipients":[{"user_id":1,"email":"not-an-email"}]}`,
			setupMock:      func(m *mocks.DispatcherServiceMock) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.DispatcherServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			newNotificationRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestNotificationHandler_Inbox(t *testing.T) {
	t.Run("lists notifications for the user", func(t *testing.T) {
		svc := new(mocks.DispatcherServiceMock)
		svc.On("ListInbox", mock.Anything, uint(42), 50).
			Return([]dto.InboxItemDTO{{ID: 1, Title: "New promotion"}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/users/42/notifications", nil)
		w := httptest.NewRecorder()
		newNotificationRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "New promotion")
	})

	t.Run("limit query param is honored", func(t *testing.T) {
		svc := new(mocks.DispatcherServiceMock)
		svc.On("ListInbox", mock.Anything, uint(42), 5).Return([]dto.InboxItemDTO{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/users/42/notifications?limit=5", nil)
		w := httptest.NewRecorder()
		newNotificationRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("non-numeric user id answers 400", func(t *testing.T) {
		svc := new(mocks.DispatcherServiceMock)

		req := httptest.NewRequest(http.MethodGet, "/users/abc/notifications", nil)
		w := httptest.NewRecorder()
		newNotificationRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNotificationHandler_UpdatePreference(t *testing.T) {
	svc := new(mocks.DispatcherServiceMock)
	svc.On("UpdatePreference", mock.Anything, uint(42), mock.MatchedBy(func(p *dto.PreferenceDTO) bool {
		return p.EventType == "promotion_created" && p.EmailEnabled != nil && !*p.EmailEnabled
	})).Return(nil)

	body := `{"event_type":"promotion_created","email_enabled":false}`
	req := httptest.NewRequest(http.MethodPut, "/users/42/preferences", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newNotificationRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
