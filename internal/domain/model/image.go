package model

import (
	"bytes"
	"encoding/base64"
	"path/filepath"
	"strings"
)

const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEGIF  = "image/gif"
	MIMEWEBP = "image/webp"
)

var allowedImageExt = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// 拡張子の許可チェック（大文字小文字は無視）
func IsAllowedImageFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return allowedImageExt[ext]
}

// 先頭バイトから画像形式を判定する。不明はjpeg扱い。
func DetectImageMIME(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return MIMEPNG
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return MIMEJPEG
	case bytes.HasPrefix(b, []byte("GIF87a")), bytes.HasPrefix(b, []byte("GIF89a")):
		return MIMEGIF
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return MIMEWEBP
	}
	return MIMEJPEG
}

// data URI（<img src>にそのまま入る形）
func DataURI(mime string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if mime == "" {
		mime = DetectImageMIME(data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
