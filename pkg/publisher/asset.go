package publisher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

const defaultContentType = "application/octet-stream"

// AssetManager は生成物の保存パスと永続化を管理します。
type AssetManager struct {
	writer  remoteio.OutputWriter
	baseDir string // 保存先のベースディレクトリ (例: "output/<run-id>" や "s3://bucket/output/<run-id>")
}

// NewAssetManager は AssetManager を生成します。writer が nil ならローカルにだけ書ける writer を使うのだ。
func NewAssetManager(writer remoteio.OutputWriter, baseDir string) *AssetManager {
	if writer == nil {
		writer = remoteio.NewUniversalIOWriter(nil, nil)
	}
	return &AssetManager{
		writer:  writer,
		baseDir: baseDir,
	}
}

// BaseDir は保存先のベースディレクトリを返します。
func (am *AssetManager) BaseDir() string {
	return am.baseDir
}

// Save はデータを保存し、その保存先のパスを返します。
func (am *AssetManager) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	fullPath, err := ResolveOutputPath(am.baseDir, fileName)
	if err != nil {
		return "", fmt.Errorf("asset_manager: %w", err)
	}
	// ローカルへの書き込みは ctx を見ないので、ここで打ち切るのだ
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := am.writer.Write(ctx, fullPath, bytes.NewReader(data), contentType(fullPath)); err != nil {
		return "", fmt.Errorf("asset_manager: %s の保存に失敗しました: %w", fileName, err)
	}
	slog.Debug("Asset saved", "path", fullPath, "bytes", len(data))
	return fullPath, nil
}

func contentType(p string) string {
	if path.Ext(p) == ".md" {
		return "text/markdown; charset=utf-8"
	}
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return defaultContentType
}
