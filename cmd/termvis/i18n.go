// Package main provides localization for the termvis CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Decoding":  "デコード",
		"Placement": "配置",
		"Playback":  "再生",
		"Debug":     "デバッグ",
		"Logging":   "ログ",

		// Root command
		"Decode images and videos onto the terminal":                                    "画像と動画をターミナルに描画",
		"termvis decodes still images and MP4 videos and draws them on terminal cells.": "termvisは静止画とMP4動画をデコードし、ターミナルのセルに描画します。",
		"Error: %s": "エラー: %s",
		"Exactly one FILE argument is required": "FILE引数を1つだけ指定してください",

		// Play command
		"Play an image or video in the terminal": "画像または動画をターミナルで再生",
		"Decode the file frame by frame and draw each frame on the terminal at its presentation time.": "ファイルを1フレームずつデコードし、各フレームを表示時刻にターミナルへ描画します。",

		// Snapshot command
		"Render the first frame to a PNG file": "最初のフレームをPNGファイルに描画",
		"Decode the first frame, optionally rotate it, and save it as a PNG image.": "最初のフレームをデコードし、必要に応じて回転してPNG画像として保存します。",
		"Output PNG file path (required)": "出力PNGファイルパス（必須）",
		"Rotation in degrees, clockwise":  "回転角度（度、時計回り）",

		// Info and caps commands
		"Show the streams of a file":      "ファイルのストリームを表示",
		"Show what each backend can open": "各バックエンドが開けるものを表示",
		"%s (%s backend)":                 "%s（%s バックエンド）",
		"%s: images=%t videos=%t":         "%s: 画像=%t 動画=%t",
		"ffmpeg: %s":                      "ffmpeg: %s",
		"ffmpeg: not found, videos cannot be decoded": "ffmpeg: 見つかりません。動画はデコードできません",

		// Version command
		"Show version information": "バージョン情報を表示",
		"termvis version %s":       "termvis バージョン %s",

		// Decoding flags
		"YAML configuration file":             "YAML設定ファイル",
		"Decode backend (none, image, video)": "デコードバックエンド（none, image, video）",
		"Resampling filter (lanczos, catmullrom, bilinear, nearest)": "リサンプリングフィルタ（lanczos, catmullrom, bilinear, nearest）",
		"Packets to feed the decoder before giving up on a frame":    "フレームを諦めるまでにデコーダへ送るパケット数",
		"Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)":  "ffmpegのパス（未指定時はFFMPEG_PATH環境変数、次にPATH）",

		// Placement flags
		"Scaling policy (none, scale, stretch)": "スケーリング方針（none, scale, stretch）",
		"Row of the top-left corner":            "左上隅の行",
		"Column of the top-left corner":         "左上隅の列",
		"Cell blitter (auto, halfblock, ascii)": "セル描画方式（auto, halfblock, ascii）",
		"Terminal rows (default: detected)":     "ターミナルの行数（デフォルト: 自動検出）",
		"Terminal columns (default: detected)":  "ターミナルの列数（デフォルト: 自動検出）",

		// Playback flags
		"Playback delay multiplier (2.0 plays at half speed)": "再生遅延の倍率（2.0で半分の速度）",
		"Do not show subtitles":                               "字幕を表示しない",

		// Debug and logging flags
		"Directory to dump rendered frames and subtitles into": "描画したフレームと字幕を書き出すディレクトリ",
		"Log level (debug, info, warn, error)":                 "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                              "すべてのログ出力を抑制",
	})
}
