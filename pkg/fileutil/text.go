package fileutil

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LookupEncoding は文字コード名（utf-8, shift_jis, euc-jp など）からエンコーディングを取得する
// 空文字列はUTF-8として扱う
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(strings.ToLower(name))
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return enc, nil
}

// DecodeText はバイト列を指定の文字コードからUTF-8文字列へ変換する
// 先頭のBOMは除去し、BOMがあればそちらの指定を優先する
func DecodeText(data []byte, encodingName string) (string, error) {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return "", err
	}

	decoder := unicode.BOMOverride(enc.NewDecoder())
	reader := transform.NewReader(bytes.NewReader(data), decoder)

	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", encodingName, err)
	}
	return string(utf8Data), nil
}
