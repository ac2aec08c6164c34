package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/go-storyboard-kit/pkg/extract"
)

var (
	// ErrMissingAPIKey は認証キーが環境に存在しないことを表します。
	ErrMissingAPIKey = errors.New("gemini: API key not found")
	// ErrRateLimited はレート制限・クォータ超過なのだ。
	ErrRateLimited = errors.New("gemini: rate limited")
	// ErrNetwork は通信経路の失敗なのだ。
	ErrNetwork = errors.New("gemini: network failure")
	// ErrSafetyBlocked はセーフティフィルタによる拒否なのだ。
	ErrSafetyBlocked = errors.New("gemini: blocked by safety filters")
	// ErrRecitation は著作物の引用ポリシーによる拒否なのだ。
	ErrRecitation = errors.New("gemini: blocked due to recitation")
	// ErrNoData はレスポンスに期待したデータが含まれていないことを表します。
	ErrNoData = errors.New("gemini: response contained no data")
)

// Kind はエラーの分類です。
type Kind int

const (
	KindNone Kind = iota
	KindConfig
	KindRateLimit
	KindNetwork
	KindSafety
	KindRecitation
	KindNoData
	KindStructured
	KindCanceled
	KindTimeout
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfig:
		return "config"
	case KindRateLimit:
		return "rate_limit"
	case KindNetwork:
		return "network"
	case KindSafety:
		return "safety"
	case KindRecitation:
		return "recitation"
	case KindNoData:
		return "no_data"
	case KindStructured:
		return "structured_data"
	case KindCanceled:
		return "canceled"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// 利用者に表示するメッセージなのだ
const (
	MsgConfig       = "API Key not found. Please configure your environment variables."
	MsgRateLimit    = "High traffic (Rate Limit). Auto-retrying..."
	MsgSafety       = "Generation blocked by safety filters. The AI detected sensitive content (face/identity/content policy). Try a simpler prompt."
	MsgRecitation   = "Blocked due to copyright recitation policy."
	MsgNetwork      = "Network connection issue. Please check your internet."
	MsgStructured   = "AI response structure error. Please try simplifying your script."
	MsgNoData       = "The model processed the request but returned no image data."
	MsgCanceled     = "The request was canceled."
	MsgTimeout      = "The request timed out. Please try again."
	MsgUnexpected   = "An unexpected error occurred."
	statusExhausted = "RESOURCE_EXHAUSTED"
)

// Classify はエラーを分類するのだ。
// まず番兵エラーや genai.APIError などの構造で判定し、
// 判定できなければ小文字化したメッセージの部分一致にフォールバックするのだ。
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if k := classifyStructured(err); k != KindUnknown {
		return k
	}
	return classifyMessage(err.Error())
}

func classifyStructured(err error) Kind {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return KindConfig
	case errors.Is(err, context.Canceled):
		return KindCanceled
	// DeadlineExceeded は net.Error も満たすので、通信エラーより先に判定するのだ
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrSafetyBlocked):
		return KindSafety
	case errors.Is(err, ErrRecitation):
		return KindRecitation
	case errors.Is(err, extract.ErrStructuredData):
		return KindStructured
	case errors.Is(err, ErrNoData):
		return KindNoData
	case errors.Is(err, ErrRateLimited):
		return KindRateLimit
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || strings.EqualFold(apiErr.Status, statusExhausted) {
			return KindRateLimit
		}
		return KindUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}
	return KindUnknown
}

func classifyMessage(msg string) Kind {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "quota"), strings.Contains(msg, "resource_exhausted"):
		return KindRateLimit
	case strings.Contains(msg, "safety"), strings.Contains(msg, "blocked"):
		return KindSafety
	case strings.Contains(msg, "recitation"):
		return KindRecitation
	case strings.Contains(msg, "network"), strings.Contains(msg, "fetch"):
		return KindNetwork
	case strings.Contains(msg, "valid json"):
		return KindStructured
	}
	return KindUnknown
}

// IsRetryable はレート制限と通信エラーだけを再試行対象とするのだ。
func IsRetryable(err error) bool {
	switch Classify(err) {
	case KindRateLimit, KindNetwork:
		return true
	}
	return false
}

// UserMessage は画面表示用のメッセージを返すのだ。
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch Classify(err) {
	case KindConfig:
		return MsgConfig
	case KindRateLimit:
		return MsgRateLimit
	case KindSafety:
		return MsgSafety
	case KindRecitation:
		return MsgRecitation
	case KindNetwork:
		return MsgNetwork
	case KindStructured:
		return MsgStructured
	case KindNoData:
		return MsgNoData
	case KindCanceled:
		return MsgCanceled
	case KindTimeout:
		return MsgTimeout
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return MsgUnexpected
}

// finishReasonError は STOP 以外の終了理由をエラーへ変換します。
func finishReasonError(reason genai.FinishReason, message string) error {
	detail := string(reason)
	if message != "" {
		detail += ": " + message
	}
	switch reason {
	case genai.FinishReasonSafety,
		genai.FinishReasonImageSafety,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonImageProhibitedContent,
		genai.FinishReasonBlocklist,
		genai.FinishReasonSPII,
		genai.FinishReasonImageOther:
		return fmt.Errorf("%w (%s)", ErrSafetyBlocked, detail)
	case genai.FinishReasonRecitation, genai.FinishReasonImageRecitation:
		return fmt.Errorf("%w (%s)", ErrRecitation, detail)
	case genai.FinishReasonNoImage:
		return fmt.Errorf("%w (%s)", ErrNoData, detail)
	}
	return fmt.Errorf("gemini: generation stopped: %s", detail)
}
