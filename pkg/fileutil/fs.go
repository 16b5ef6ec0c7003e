package fileutil

import (
	"os"
	"path/filepath"
)

// RealFS は実ファイルシステムへのアクセスを提供する
// 相対パスはベースパス（スクリプトのディレクトリ）から解決する
type RealFS struct {
	basePath string
}

// NewRealFS は実ファイルシステム用のRealFSを作成する
func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

// BasePath はベースパスを返す
func (r *RealFS) BasePath() string {
	return r.basePath
}

// Resolve は名前を実際に存在するパスへ解決する（大文字小文字を無視）
// 見つからない場合は解決前のパスとエラーを返す
func (r *RealFS) Resolve(name string) (string, error) {
	path := r.resolvePath(name)

	// まず直接アクセスを試みる
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	// 大文字小文字を無視して検索
	actual, err := FindFileCaseInsensitive(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return path, err
	}
	return actual, nil
}

// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
func (r *RealFS) ReadFile(name string) ([]byte, error) {
	path, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (r *RealFS) resolvePath(name string) string {
	if filepath.IsAbs(name) || r.basePath == "" {
		return filepath.Clean(name)
	}
	return filepath.Join(r.basePath, name)
}
