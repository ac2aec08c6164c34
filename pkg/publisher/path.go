package publisher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

// ResolveOutputPath は、ベースとなるディレクトリとファイル名から最終的な出力パスを生成します。
// baseDir が gs:// や s3:// なら URL として結合するのだ。
// ファイル名がベースディレクトリの外を指す場合はエラーにするのだ。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", fmt.Errorf("ファイル名が空です")
	}
	if filepath.IsAbs(fileName) || strings.HasPrefix(fileName, "/") {
		return "", fmt.Errorf("絶対パスは指定できません: %s", fileName)
	}

	if urlpath.IsRemoteURI(baseDir) {
		for _, seg := range strings.Split(filepath.ToSlash(fileName), "/") {
			if seg == ".." {
				return "", fmt.Errorf("出力ディレクトリの外を指すパスです: %s", fileName)
			}
		}
		return urlpath.ResolvePath(baseDir, fileName)
	}

	base := filepath.Clean(baseDir)
	full := filepath.Join(base, fileName)
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("出力ディレクトリの外を指すパスです: %s", fileName)
	}
	return full, nil
}

// RunDir は実行ごとの出力先ディレクトリを返すのだ。runID が空ならベースディレクトリそのものなのだ。
func RunDir(baseDir, runID string) (string, error) {
	if runID == "" {
		if urlpath.IsRemoteURI(baseDir) {
			return strings.TrimSuffix(baseDir, "/"), nil
		}
		return filepath.Clean(baseDir), nil
	}
	return ResolveOutputPath(baseDir, runID)
}
