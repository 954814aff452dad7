package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Player level messages (info)
		"Playing %s with %s backend":      "%s を %s バックエンドで再生中",
		"Played %d frames":                "%d フレームを再生しました",
		"Snapshot of %s: %dx%d":           "%s のスナップショット: %dx%d",
		"Output saved to %s":              "出力を %s に保存しました",
		"Interrupted, stopping playback":  "中断されました。再生を停止します",

		// Visual component
		"Opened %s with %s backend: %s %dx%d":               "%s を %s バックエンドで開きました: %s %dx%d",
		"Decoded frame %d: %dx%d %s -> %dx%d":               "フレーム %d をデコード: %dx%d %s -> %dx%d",
		"Surface resized to %dx%d":                          "サーフェスが %dx%d にリサイズされました",
		"Rotated %dx%d raster by %.3f rad into %dx%d":       "%dx%d のラスタを %.3f rad 回転し %dx%d にしました",
		"Skipping undecodable subtitle packet: %s":          "デコードできない字幕パケットをスキップ: %s",

		// Playback component
		"Stream ended after %d frames":          "%d フレームでストリームが終了しました",
		"Stream stopped by callback at frame %d": "フレーム %d でコールバックによりストリームを停止しました",
		"Subtitle at frame %d: %s":              "フレーム %d の字幕: %s",

		// Demuxer and decoder components
		"Track %d: %s %dx%d, timescale %d": "トラック %d: %s %dx%d, タイムスケール %d",
		"Decoding with %s":                 "%s でデコード中",

		// Warnings
		"Failed to save frame %d: %s":    "フレーム %d の保存に失敗しました: %s",
		"Failed to save subtitle: %s":    "字幕の保存に失敗しました: %s",
		"Failed to flush frame sink: %s": "フレームシンクのフラッシュに失敗しました: %s",
		"Failed to release visual: %s":   "ビジュアルの解放に失敗しました: %s",
		"Failed to destroy surface: %s":  "サーフェスの破棄に失敗しました: %s",
		"Failed to draw subtitle: %s":    "字幕の描画に失敗しました: %s",

		// Errors
		"Failed to open %s: %s":                 "%s を開けませんでした: %s",
		"Playback failed after %d frames: %s":   "%d フレーム後に再生に失敗しました: %s",
	})
}
