package style

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 500 * time.Millisecond

// Watch 监听主题文件变更并重新加载，直到 ctx 取消。
// 监听的是文件所在目录，这样编辑器“写临时文件再改名”的保存方式也能被捕获。
// 重载失败只记录日志，注册表保留上一次成功加载的主题。
func (r *Registry) Watch(ctx context.Context, path string, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(path)
		var pending time.Time
		ticker := time.NewTicker(reloadDebounce / 5)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					pending = time.Now()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Printf("[style] watcher error: %v", err)
			case <-ticker.C:
				if pending.IsZero() || time.Since(pending) < reloadDebounce {
					continue
				}
				pending = time.Time{}
				if err := r.LoadFile(path); err != nil {
					logger.Printf("[style] reload %s failed, keeping previous themes: %v", path, err)
					continue
				}
				logger.Printf("[style] reloaded %s (%d styles)", path, len(r.List()))
			}
		}
	}()
	return nil
}
