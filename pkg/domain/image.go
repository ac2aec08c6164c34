package domain

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// DefaultImageMimeType は MIME タイプが不明な場合に使う既定値なのだ。
const DefaultImageMimeType = "image/png"

var dataURIRegex = regexp.MustCompile(`^data:([^;,]+);base64,(.*)$`)

// ImagePayload はリクエストやレスポンスで受け渡す1枚分の画像データなのだ。
type ImagePayload struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// NewImagePayload はバイト列から画像ペイロードを作るのだ。
// mimeType が空ならバイト列から推定するのだよ。
func NewImagePayload(data []byte, mimeType string) ImagePayload {
	if mimeType == "" {
		mimeType = DetectMimeType(data)
	}
	return ImagePayload{MimeType: mimeType, Data: data}
}

// IsEmpty はデータを持たない場合に true を返します。
func (p ImagePayload) IsEmpty() bool {
	return len(p.Data) == 0
}

// DataURI は "data:<mime>;base64,<data>" 形式の文字列を返すのだ。
func (p ImagePayload) DataURI() string {
	mime := p.MimeType
	if mime == "" {
		mime = DefaultImageMimeType
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// ParseDataURI は data URI を画像ペイロードへ復元します。
func ParseDataURI(s string) (ImagePayload, error) {
	matches := dataURIRegex.FindStringSubmatch(strings.TrimSpace(s))
	if len(matches) != 3 {
		return ImagePayload{}, fmt.Errorf("%w: not a base64 data URI", ErrInvalidRequest)
	}
	data, err := base64.StdEncoding.DecodeString(matches[2])
	if err != nil {
		return ImagePayload{}, fmt.Errorf("data URI のデコードに失敗したのだ: %w", err)
	}
	return ImagePayload{MimeType: matches[1], Data: data}, nil
}

// IsDataURI は文字列が data URI かどうかを判定するのだ。
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// DetectMimeType はマジックバイトから MIME タイプを推定します。
func DetectMimeType(data []byte) string {
	if len(data) == 0 {
		return DefaultImageMimeType
	}
	mime := http.DetectContentType(data)
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return DefaultImageMimeType
	}
	return mime
}

// Extension は MIME タイプに対応する拡張子を返すのだ。
func (p ImagePayload) Extension() string {
	switch p.MimeType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
