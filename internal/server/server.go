// Package server は絵コンテとクリエイティブツールを HTTP で公開する gin サーバーなのだ。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/shouni/go-storyboard-kit/internal/builder"
)

const shutdownTimeout = 10 * time.Second

// NewRouter はルーティングを組み立てた gin エンジンを返します。
func NewRouter(app *builder.AppContext) *gin.Engine {
	h := &handler{app: app}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), CORS())

	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")
	v1.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/storyboards/export/zip"})))
	{
		sb := v1.Group("/storyboards")
		sb.POST("", h.createStoryboard)
		sb.POST("/export/html", h.exportHTML)
		sb.POST("/export/zip", h.exportZip)

		tools := v1.Group("/tools")
		tools.POST("/swot", h.swot)
		tools.POST("/marketing", h.marketing)
	}
	return r
}

// Run はサーバーを起動し、ctx がキャンセルされたら穏やかに停止するのだ。
func Run(ctx context.Context, app *builder.AppContext, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP サーバーを起動するのだ", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("サーバーの起動に失敗しました: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("HTTP サーバーを停止するのだ")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗しました: %w", err)
	}
	return nil
}
