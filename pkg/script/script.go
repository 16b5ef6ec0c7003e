// Package script loads SQL script files into memory.
package script

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zurustar/sqhell/pkg/fileutil"
)

// ErrScriptNotFound はスクリプトファイルが存在しないことを示す
var ErrScriptNotFound = errors.New("script not found")

// Source は読み込まれたスクリプトを表す
type Source struct {
	Path    string // 絶対パス
	Dir     string // スクリプトのあるディレクトリ（相対パス解決の基準）
	Content string // UTF-8に変換された内容
	Size    int64  // ファイルサイズ（変換前のバイト数）
}

// Loader はスクリプトファイルの読み込みを行う
type Loader struct {
	encoding string
}

// NewLoader Loaderを作成
// encodingは fileutil.LookupEncoding が受け付ける名前（空ならUTF-8）
func NewLoader(encoding string) *Loader {
	return &Loader{
		encoding: encoding,
	}
}

// Load スクリプトファイル全体を読み込む
// 開けないファイルは空のスクリプトとして扱わず、即座にエラーを返す
func (l *Loader) Load(path string) (*Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve script path %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat script: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("script path is a directory: %s", path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	content, err := fileutil.DecodeText(data, l.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding: %w", err)
	}

	return &Source{
		Path:    abs,
		Dir:     filepath.Dir(abs),
		Content: content,
		Size:    info.Size(),
	}, nil
}
