package publisher

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidFilename = errors.New("invalid filename")
	ErrInvalidData     = errors.New("invalid image data")
	ErrWriteFailed     = errors.New("write failed")
)

const dataURLPrefix = "data:image/png;base64,"

// Publisher 把生成的图片落盘到 saveDir 下。
type Publisher struct {
	saveDir string
	verbose bool
	logger  *log.Logger
}

func New(saveDir string, verbose bool, logger *log.Logger) (*Publisher, error) {
	if strings.TrimSpace(saveDir) == "" {
		return nil, errors.New("save dir is required")
	}
	abs, err := filepath.Abs(saveDir)
	if err != nil {
		return nil, fmt.Errorf("resolve save dir: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{saveDir: abs, verbose: verbose, logger: logger}, nil
}

// Dir 返回保存目录的绝对路径。
func (p *Publisher) Dir() string { return p.saveDir }

func (p *Publisher) infof(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	p.logger.Printf("[INFO] "+format, args...)
}

// SaveImage 解码 base64（可带 data URL 前缀）并保存为 PNG，返回写入的路径。
func (p *Publisher) SaveImage(filename, data string) (string, error) {
	if _, err := p.resolve(filename, ".png"); err != nil {
		return "", err
	}
	raw, err := decodeBase64(data)
	if err != nil {
		return "", err
	}
	if _, err := png.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return "", fmt.Errorf("%w: not a PNG image", ErrInvalidData)
	}
	return p.Save(filename, raw, ".png")
}

// Save 把已编码的字节写到 filename，filename 必须以 ext 结尾。
// 先写临时文件再重命名，失败时不留下半截文件。
func (p *Publisher) Save(filename string, data []byte, ext string) (string, error) {
	path, err := p.resolve(filename, ext)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrInvalidData)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	tmp, err := os.CreateTemp(dir, ".golden-*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) (string, error) {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, cause)
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	p.infof("Saved %d bytes -> %s", len(data), path)
	return path, nil
}

// resolve 校验文件名并返回 saveDir 下的绝对路径。
func (p *Publisher) resolve(filename, ext string) (string, error) {
	name := strings.TrimSpace(filename)
	if name == "" {
		return "", fmt.Errorf("%w: filename is required", ErrInvalidFilename)
	}
	if !strings.EqualFold(filepath.Ext(name), ext) {
		return "", fmt.Errorf("%w: filename must end with %s", ErrInvalidFilename, ext)
	}
	local := filepath.FromSlash(name)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q escapes the save directory", ErrInvalidFilename, filename)
	}
	return filepath.Join(p.saveDir, local), nil
}

func decodeBase64(data string) ([]byte, error) {
	s := strings.TrimSpace(data)
	if len(s) >= len(dataURLPrefix) && strings.EqualFold(s[:len(dataURLPrefix)], dataURLPrefix) {
		s = s[len(dataURLPrefix):]
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidData)
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidData)
	}
	return raw, nil
}
