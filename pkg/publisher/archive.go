package publisher

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const archiveImageDir = "images"

// ArchiveEntryName は ZIP 内でのシーン画像のパスを返します。
func ArchiveEntryName(sceneID int) string {
	return fmt.Sprintf("%s/scene_%d.png", archiveImageDir, sceneID)
}

// BuildArchive は生成に成功した画像だけを ZIP にまとめるのだ。画像の無いシーンは単に含めないのだ。
func BuildArchive(images domain.SceneImageMap) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, id := range images.SortedIDs() {
		w, err := zw.Create(ArchiveEntryName(id))
		if err != nil {
			return nil, fmt.Errorf("ZIP エントリの作成に失敗しました (scene %d): %w", id, err)
		}
		if _, err := w.Write(images[id].Data); err != nil {
			return nil, fmt.Errorf("ZIP への書き込みに失敗しました (scene %d): %w", id, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("ZIP の確定に失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
