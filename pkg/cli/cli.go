package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/sqhell/pkg/logger"
)

// ErrMissingScript はスクリプトパスが指定されていないことを示す
var ErrMissingScript = errors.New("missing script path")

// デフォルト値
const (
	DefaultLogLevel = "info"
	DefaultEncoding = "utf-8"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ScriptPath string        // 実行するSQLスクリプトのパス
	ConfigPath string        // 設定ファイル（TOML）のパス
	Encoding   string        // スクリプトの文字コード
	SoundFont  string        // MIDI再生用SoundFontのパス
	Timeout    time.Duration // タイムアウト時間（0は無制限）
	LogLevel   string        // ログレベル（debug, info, warn, error）
	Headless   bool          // ヘッドレスモード
	ShowHelp   bool          // ヘルプ表示フラグ
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// スクリプトパスの有無はここでは検証しない（--helpのみの起動を許すため）
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("sqhell", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", DefaultLogLevel, "ログレベル（短縮形）")
	fs.StringVar(&config.ConfigPath, "config", "", "設定ファイルのパス")
	fs.StringVar(&config.ConfigPath, "c", "", "設定ファイルのパス（短縮形）")
	fs.StringVar(&config.Encoding, "encoding", DefaultEncoding, "スクリプトの文字コード")
	fs.StringVar(&config.Encoding, "e", DefaultEncoding, "スクリプトの文字コード（短縮形）")
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFontファイルのパス")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}

	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	if config.LogLevel == DefaultLogLevel {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if config.Encoding == DefaultEncoding {
		if encodingEnv := os.Getenv("SQHELL_ENCODING"); encodingEnv != "" {
			config.Encoding = encodingEnv
		}
	}

	if config.SoundFont == "" {
		config.SoundFont = os.Getenv("SQHELL_SOUNDFONT")
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 位置引数（スクリプトのパス）
	if fs.NArg() > 0 {
		config.ScriptPath = fs.Arg(0)
	}

	return config, nil
}

// Validate 実行に必要な設定が揃っているか確認する
func (c *Config) Validate() error {
	if c.ScriptPath == "" {
		return ErrMissingScript
	}
	return nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// -flag=value 形式は次の引数を消費しない
			if strings.Contains(arg, "=") {
				continue
			}

			// ブール型フラグでない場合は次の引数も値として追加
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' && !isBoolFlag(arg) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

func isBoolFlag(arg string) bool {
	switch strings.TrimLeft(arg, "-") {
	case "h", "help", "headless":
		return true
	}
	return false
}

// PrintUsage 使い方の短い説明を表示
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: sqhell [options] <sql file>\n")
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `sqhell - SQL scripted graphics runner

Usage:
  sqhell [options] <sql file>

Arguments:
  sql file      実行するSQLスクリプト。文を1つずつコンパイル・実行した後、
                全ての文を無限ループで繰り返し実行する

Options:
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  -c, --config <file>         設定ファイル（TOML）。省略時はスクリプトと同じ場所の sqhell.toml
  -e, --encoding <name>       スクリプトの文字コード（デフォルト: utf-8）
  --soundfont <file>          MIDI再生用のSoundFont（.sf2）
  --headless                  ヘッドレスモード（ウィンドウ・GLなし、音声ミュート）
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル
  SQHELL_ENCODING=<name>      スクリプトの文字コード
  SQHELL_SOUNDFONT=<file>     SoundFontのパス

Examples:
  sqhell triangle.sql                 ウィンドウを開いて三角形を描画
  sqhell --timeout 10 triangle.sql    10秒後に自動終了
  sqhell --headless test.sql          ヘッドレスモードで実行
  sqhell -e shift_jis legacy.sql      Shift-JISのスクリプトを実行
`)
}
