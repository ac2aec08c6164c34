package asset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func localFetcher() *httpkit.Client {
	return httpkit.New(time.Second, httpkit.WithSkipNetworkValidation(true))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoad_DataURI(t *testing.T) {
	l := NewLoader(nil, nil)
	raw := pngBytes(t)
	uri := domain.ImagePayload{MimeType: "image/png", Data: raw}.DataURI()

	img, err := l.Load(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, raw, img.Data)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t), 0o644))

	img, err := NewLoader(nil, nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)

	_, err = NewLoader(nil, nil).Load(context.Background(), filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestLoad_GIFIsConvertedToPNG(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 2, 2), []color.Color{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, pal, nil))
	uri := domain.ImagePayload{MimeType: "image/gif", Data: buf.Bytes()}.DataURI()

	img, err := NewLoader(nil, nil).Load(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	_, err = png.Decode(bytes.NewReader(img.Data))
	assert.NoError(t, err)
}

func TestLoad_Unsupported(t *testing.T) {
	l := NewLoader(nil, nil)

	_, err := l.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	uri := domain.ImagePayload{MimeType: "text/plain", Data: []byte("hello, world")}.DataURI()
	_, err = l.Load(context.Background(), uri)
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = l.Load(context.Background(), "data:image/png;base64")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestLoad_TooLarge(t *testing.T) {
	l := NewLoader(nil, nil)
	l.maxBytes = 8
	uri := domain.ImagePayload{MimeType: "image/png", Data: pngBytes(t)}.DataURI()

	// data URI は既にメモリ上にあるので上限の対象外なのだ
	_, err := l.Load(context.Background(), uri)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "big.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t), 0o644))
	_, err = l.Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestLoad_HTTPIsCachedAndCollapsed(t *testing.T) {
	raw := pngBytes(t)
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	l := NewLoader(localFetcher(), nil)
	url := srv.URL + "/ref.png"

	var wg sync.WaitGroup
	results := make([]domain.ImagePayload, 5)
	errs := make([]error, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = l.Load(context.Background(), url)
		}()
	}
	close(release)
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, raw, results[i].Data)
	}

	// 同時要求はまとめられ、以降はキャッシュから返すのだ
	_, err := l.Load(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoad_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewLoader(localFetcher(), nil).Load(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.True(t, httpkit.IsNonRetryableError(err))
}

func TestLoad_HTTPGuards(t *testing.T) {
	raw := pngBytes(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	t.Run("既定のクライアントは内部ネットワークへの取得を拒否する", func(t *testing.T) {
		_, err := NewLoader(nil, nil).Load(context.Background(), srv.URL+"/ref.png")
		require.Error(t, err)
		assert.Equal(t, int32(0), hits.Load())
	})

	t.Run("上限を超える応答は扱わない", func(t *testing.T) {
		l := NewLoader(localFetcher(), nil)
		l.maxBytes = 8
		_, err := l.Load(context.Background(), srv.URL+"/big.png")
		assert.ErrorIs(t, err, ErrUnsupportedSource)
	})
}

// fakeReader は gs:// / s3:// の URI をメモリ上のデータで返す InputReader なのだ。
type fakeReader struct {
	objects map[string][]byte
}

func (f fakeReader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("not found: %s: %w", path, os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f fakeReader) List(ctx context.Context, path string, cb func(string) error) error {
	return nil
}

func TestLoad_RemoteURI(t *testing.T) {
	raw := pngBytes(t)
	l := NewLoader(nil, fakeReader{objects: map[string][]byte{"s3://boards/ref.png": raw}})

	img, err := l.Load(context.Background(), "s3://boards/ref.png")
	require.NoError(t, err)
	assert.Equal(t, raw, img.Data)

	_, err = l.Load(context.Background(), "gs://boards/missing.png")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadAll(t *testing.T) {
	uri := domain.ImagePayload{MimeType: "image/png", Data: pngBytes(t)}.DataURI()
	images, err := NewLoader(nil, nil).LoadAll(context.Background(), []string{uri, uri})
	require.NoError(t, err)
	assert.Len(t, images, 2)
}
