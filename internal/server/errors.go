package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/gemini"
	"github.com/shouni/go-storyboard-kit/pkg/storyboard"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor はエラーの分類を HTTP ステータスに対応付けるのだ。
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, storyboard.ErrEmptyScript),
		errors.Is(err, asset.ErrUnsupportedSource):
		return http.StatusBadRequest
	}
	switch gemini.Classify(err) {
	case gemini.KindRateLimit:
		return http.StatusTooManyRequests
	case gemini.KindSafety, gemini.KindRecitation:
		return http.StatusUnprocessableEntity
	case gemini.KindCanceled:
		return http.StatusRequestTimeout
	case gemini.KindTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := gemini.UserMessage(err)
	if status == http.StatusBadRequest {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}
