package logout

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

func TestLogoutHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-out", nil)
	req = req.WithContext(middlewarectx.WithCaller(req.Context(), models.Caller{UserID: "u-1", Role: "user"}))
	w := httptest.NewRecorder()

	New(slog.New(slog.NewTextHandler(io.Discard, nil))).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","data":{"message":"signed out"}}`, w.Body.String())
}
