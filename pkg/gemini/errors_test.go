package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"github.com/shouni/go-storyboard-kit/pkg/extract"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "missing key", err: ErrMissingAPIKey, want: KindConfig},
		{name: "api error 429", err: genai.APIError{Code: 429, Message: "Too many requests"}, want: KindRateLimit},
		{name: "wrapped resource exhausted", err: fmt.Errorf("call: %w", genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}), want: KindRateLimit},
		{name: "url error", err: &url.Error{Op: "Post", URL: "https://example.com", Err: errors.New("connection reset")}, want: KindNetwork},
		{name: "safety finish reason", err: finishReasonError(genai.FinishReasonSafety, ""), want: KindSafety},
		{name: "image other", err: finishReasonError(genai.FinishReasonImageOther, ""), want: KindSafety},
		{name: "recitation", err: finishReasonError(genai.FinishReasonRecitation, ""), want: KindRecitation},
		{name: "no data", err: ErrNoData, want: KindNoData},
		{name: "structured", err: fmt.Errorf("decode: %w", extract.ErrStructuredData), want: KindStructured},
		{name: "canceled", err: context.Canceled, want: KindCanceled},
		{name: "deadline", err: context.DeadlineExceeded, want: KindTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("generate: %w", context.DeadlineExceeded), want: KindTimeout},
		{name: "url error with deadline", err: &url.Error{Op: "Post", URL: "https://example.com", Err: context.DeadlineExceeded}, want: KindTimeout},
		{name: "message quota", err: errors.New("Quota exceeded for project"), want: KindRateLimit},
		{name: "message fetch", err: errors.New("TypeError: Failed to fetch"), want: KindNetwork},
		{name: "message blocked", err: errors.New("request Blocked"), want: KindSafety},
		{name: "message valid json", err: errors.New("response was not valid JSON"), want: KindStructured},
		{name: "api error 400", err: genai.APIError{Code: 400, Message: "bad argument"}, want: KindUnknown},
		{name: "unknown", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err), "kind=%s", Classify(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(genai.APIError{Code: 429}))
	assert.True(t, IsRetryable(errors.New("resource_exhausted")))
	assert.True(t, IsRetryable(&url.Error{Op: "Get", Err: errors.New("eof")}))
	assert.False(t, IsRetryable(finishReasonError(genai.FinishReasonSafety, "")))
	assert.False(t, IsRetryable(extract.ErrStructuredData))
	assert.False(t, IsRetryable(ErrMissingAPIKey))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestClassify_DeadlineIsNotNetwork(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	err := ctx.Err()

	t.Run("期限切れは net.Error を満たしても通信エラーにしない", func(t *testing.T) {
		var netErr net.Error
		assert.True(t, errors.As(err, &netErr))
		assert.Equal(t, KindTimeout, Classify(err))
	})
	t.Run("期限切れは再試行しない", func(t *testing.T) {
		assert.False(t, IsRetryable(err))
		assert.False(t, IsRetryable(fmt.Errorf("call: %w", err)))
	})
	t.Run("利用者向けメッセージ", func(t *testing.T) {
		assert.Equal(t, MsgTimeout, UserMessage(err))
	})
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, MsgRateLimit, UserMessage(genai.APIError{Code: 429}))
	assert.Equal(t, MsgRecitation, UserMessage(ErrRecitation))
	assert.Equal(t, MsgNetwork, UserMessage(ErrNetwork))
	assert.Equal(t, MsgStructured, UserMessage(extract.ErrStructuredData))
	assert.Equal(t, MsgConfig, UserMessage(ErrMissingAPIKey))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Equal(t, MsgUnexpected, UserMessage(errors.New("  ")))

	msg := UserMessage(finishReasonError(genai.FinishReasonSafety, ""))
	assert.Contains(t, strings.ToLower(msg), "safety")
}
