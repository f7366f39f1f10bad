package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/postcraft/internal/service"
)

func TestRespondGenerationErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantText   string
	}{
		{"invalid platform", service.ErrInvalidPlatform, http.StatusBadRequest, "platform"},
		{"invalid tone", service.ErrInvalidTone, http.StatusBadRequest, "tone"},
		{"quota exceeded", fmt.Errorf("%w: no tokens", service.ErrQuotaExceeded), http.StatusPaymentRequired, "quota"},
		{"no subscription", service.ErrSubscriptionNotFound, http.StatusNotFound, "subscription"},
		{"content missing", service.ErrContentNotFound, http.StatusNotFound, "content"},
		{"version conflict", service.ErrVersionConflict, http.StatusConflict, "concurrently"},
		{"provider failure", &service.ProviderError{Provider: "openai", Message: "api error: down"}, http.StatusBadGateway, "api error: down"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "AI generation failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rr)

			respondGenerationError(c, "AI generation failed", tc.err)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tc.wantText) {
				t.Fatalf("expected body to mention %q, got %s", tc.wantText, rr.Body.String())
			}
		})
	}
}
