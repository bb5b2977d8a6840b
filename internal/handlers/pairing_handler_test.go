package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
	"github.com/Spheerys/UpSignOn-pro-server/internal/services"
)

type pairingServiceMock struct {
	mock.Mock
}

func (m *pairingServiceMock) RequestAccess(ctx context.Context, groupID int, req *models.RequestAccessRequest) (*services.PairingResult, error) {
	args := m.Called(ctx, groupID, req)
	var result *services.PairingResult
	if v := args.Get(0); v != nil {
		result = v.(*services.PairingResult)
	}
	return result, args.Error(1)
}

func (m *pairingServiceMock) ConfirmDevice(ctx context.Context, groupID int, req *models.CheckDeviceRequest) error {
	args := m.Called(ctx, groupID, req)
	return args.Error(0)
}

func newPairingRouter(svc services.PairingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPairingHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/api/request-access", h.RequestAccess)
	r.POST("/api/:groupId/request-access", h.RequestAccess)
	r.POST("/api/check-device", h.CheckDevice)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestAccessHandler(t *testing.T) {
	body := `{"userEmail":"a@x.com","deviceId":"d1","deviceAccessCode":"c1"}`

	t.Run("fresh request answers 204", func(t *testing.T) {
		svc := new(pairingServiceMock)
		svc.On("RequestAccess", mock.Anything, 1, mock.AnythingOfType("*models.RequestAccessRequest")).
			Return(&services.PairingResult{}, nil).Once()

		w := postJSON(t, newPairingRouter(svc), "/api/request-access", body)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("known status answers 200", func(t *testing.T) {
		svc := new(pairingServiceMock)
		svc.On("RequestAccess", mock.Anything, 1, mock.Anything).
			Return(&services.PairingResult{AuthorizationStatus: models.StatusAuthorized}, nil).Once()

		w := postJSON(t, newPairingRouter(svc), "/api/request-access", body)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authorizationStatus":"AUTHORIZED"}`, w.Body.String())
	})

	t.Run("group id from path", func(t *testing.T) {
		svc := new(pairingServiceMock)
		svc.On("RequestAccess", mock.Anything, 4, mock.Anything).
			Return(&services.PairingResult{}, nil).Once()

		w := postJSON(t, newPairingRouter(svc), "/api/4/request-access", body)
		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("malformed body answers bare 401", func(t *testing.T) {
		svc := new(pairingServiceMock)
		w := postJSON(t, newPairingRouter(svc), "/api/request-access", "{not json")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "RequestAccess", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("disallowed email carries its code", func(t *testing.T) {
		svc := new(pairingServiceMock)
		svc.On("RequestAccess", mock.Anything, 1, mock.Anything).
			Return(nil, services.ErrEmailNotAllowed).Once()

		w := postJSON(t, newPairingRouter(svc), "/api/request-access", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"email_address_not_allowed"}`, w.Body.String())
	})
}

func TestCheckDeviceHandler(t *testing.T) {
	body := `{"userEmail":"a@x.com","deviceId":"d1","deviceAccessCode":"c1","deviceValidationCode":"abc12345"}`

	t.Run("confirmation answers 200", func(t *testing.T) {
		svc := new(pairingServiceMock)
		svc.On("ConfirmDevice", mock.Anything, 1, mock.AnythingOfType("*models.CheckDeviceRequest")).
			Return(nil).Once()

		w := postJSON(t, newPairingRouter(svc), "/api/check-device", body)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("expired code is reported explicitly", func(t *testing.T) {
		svc := new(pairingServiceMock)
		svc.On("ConfirmDevice", mock.Anything, 1, mock.Anything).
			Return(services.ErrPairingCodeExpired).Once()

		w := postJSON(t, newPairingRouter(svc), "/api/check-device", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"expired":true}`, w.Body.String())
	})

	t.Run("wrong code stays a bare 401", func(t *testing.T) {
		svc := new(pairingServiceMock)
		svc.On("ConfirmDevice", mock.Anything, 1, mock.Anything).
			Return(services.ErrUnauthorized).Once()

		w := postJSON(t, newPairingRouter(svc), "/api/check-device", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Body.String())
	})
}
