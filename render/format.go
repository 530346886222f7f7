package render

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat 表示不支持的输出格式。
var ErrUnknownFormat = errors.New("unknown image format")

// Format 是编码后的输出格式。
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	PDF  Format = "pdf"
)

// ParseFormat 解析格式名，空串返回 PNG。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "pdf":
		return PDF, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
	}
}

// ContentType 返回 HTTP Content-Type。
func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Ext 返回带点的文件扩展名。
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return ".jpg"
	case PDF:
		return ".pdf"
	default:
		return ".png"
	}
}

// DataURL 生成与 canvas.toDataURL 相同形式的字符串。
func DataURL(f Format, data []byte) string {
	return "data:" + f.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(data)
}
