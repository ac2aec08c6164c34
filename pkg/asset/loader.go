// Package asset はユーザーが指定した参照画像 (data URI、ローカルファイル、URL、gs:// / s3://) を読み込むのだ。
package asset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// DefaultMaxBytes は1枚の画像として受け付ける最大サイズです。
	DefaultMaxBytes = 20 << 20
	// DefaultFetchTimeout は URL から取得するときのタイムアウトなのだ。
	DefaultFetchTimeout = 30 * time.Second

	cacheExpiration = 30 * time.Minute
	cacheCleanup    = 1 * time.Hour
)

// ErrUnsupportedSource は画像として扱えない入力に対して返されるのだ。
var ErrUnsupportedSource = errors.New("asset: unsupported image source")

// Fetcher は URL から画像を取得する部分なのだ。httpkit.Client がこれを満たすのだ。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Loader は参照画像を読み込み、生成バックエンドが受け付ける形式 (PNG/JPEG) に揃えます。
// 同じソースの読み込みはキャッシュし、同時に来た要求は1回にまとめるのだ。
type Loader struct {
	fetcher  Fetcher
	reader   remoteio.InputReader
	cache    *cache.Cache
	group    singleflight.Group
	maxBytes int64
}

// NewLoader は Loader を生成します。
// fetcher が nil なら SSRF 対策付きの httpkit クライアントを、reader が nil ならローカルファイルだけ読める reader を使うのだ。
func NewLoader(fetcher Fetcher, reader remoteio.InputReader) *Loader {
	if fetcher == nil {
		fetcher = httpkit.New(DefaultFetchTimeout)
	}
	if reader == nil {
		reader = remoteio.NewUniversalInputReader(nil, nil)
	}
	return &Loader{
		fetcher:  fetcher,
		reader:   reader,
		cache:    cache.New(cacheExpiration, cacheCleanup),
		maxBytes: DefaultMaxBytes,
	}
}

// Load は source を解釈して画像ペイロードを返すのだ。
func (l *Loader) Load(ctx context.Context, source string) (domain.ImagePayload, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return domain.ImagePayload{}, fmt.Errorf("%w: empty source", ErrUnsupportedSource)
	}

	key := cacheKey(source)
	if v, ok := l.cache.Get(key); ok {
		if img, ok := v.(domain.ImagePayload); ok {
			return img, nil
		}
	}

	v, err, shared := l.group.Do(key, func() (interface{}, error) {
		// 待機中に他のゴルーチンが読み込みを終えている可能性があるので再確認するのだ
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		raw, err := l.read(ctx, source)
		if err != nil {
			return nil, err
		}
		img, err := normalize(raw)
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, img, cache.DefaultExpiration)
		return img, nil
	})
	if err != nil {
		return domain.ImagePayload{}, err
	}

	img, ok := v.(domain.ImagePayload)
	if !ok {
		return domain.ImagePayload{}, fmt.Errorf("unexpected return type from singleflight: %T", v)
	}
	slog.Debug("Reference image loaded", "source", describe(source), "mime_type", img.MimeType, "bytes", len(img.Data), "shared", shared)
	return img, nil
}

// LoadAll は複数のソースを順番に読み込みます。
func (l *Loader) LoadAll(ctx context.Context, sources []string) ([]domain.ImagePayload, error) {
	images := make([]domain.ImagePayload, 0, len(sources))
	for _, s := range sources {
		img, err := l.Load(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("%s の読み込みに失敗しました: %w", describe(s), err)
		}
		images = append(images, img)
	}
	return images, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	switch {
	case domain.IsDataURI(source):
		p, err := domain.ParseDataURI(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
		}
		return p.Data, nil
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return l.fetch(ctx, source)
	default:
		return l.open(ctx, source)
	}
}

// fetch は httpkit に任せるので、5xx や一時的な通信エラーはそちらで再試行されるのだ。
func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	data, err := l.fetcher.FetchBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("画像の取得に失敗しました: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrUnsupportedSource, l.maxBytes)
	}
	return data, nil
}

// open はローカルパスと gs:// / s3:// の URI を InputReader で開くのだ。
func (l *Loader) open(ctx context.Context, path string) ([]byte, error) {
	rc, err := l.reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("画像ファイルを開けません: %w", err)
	}
	defer rc.Close()
	return readLimited(rc, l.maxBytes)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("画像の読み込みに失敗しました: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrUnsupportedSource, limit)
	}
	return data, nil
}

// normalize は PNG/JPEG はそのまま通し、WebP/GIF は PNG に変換するのだ。
func normalize(data []byte) (domain.ImagePayload, error) {
	if len(data) == 0 {
		return domain.ImagePayload{}, fmt.Errorf("%w: empty image", ErrUnsupportedSource)
	}
	mime := http.DetectContentType(data)
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}

	var decode func(io.Reader) (image.Image, error)
	switch mime {
	case "image/png", "image/jpeg":
		return domain.ImagePayload{MimeType: mime, Data: data}, nil
	case "image/webp":
		decode = webp.Decode
	case "image/gif":
		decode = gif.Decode
	default:
		return domain.ImagePayload{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, mime)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return domain.ImagePayload{}, fmt.Errorf("%s のデコードに失敗しました: %w", mime, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return domain.ImagePayload{}, fmt.Errorf("PNG への変換に失敗しました: %w", err)
	}
	return domain.ImagePayload{MimeType: "image/png", Data: buf.Bytes()}, nil
}

func cacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// describe はログ用に data URI を短くするのだ。
func describe(source string) string {
	if domain.IsDataURI(source) && len(source) > 32 {
		return source[:32] + "..."
	}
	return source
}
