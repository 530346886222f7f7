package style

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Registry 保存可用主题，可被主题文件热更新，并发安全。
type Registry struct {
	mu     sync.RWMutex
	styles map[string]Spec
	order  []string
}

// NewRegistry 创建只包含内置主题的注册表。
func NewRegistry() *Registry {
	r := &Registry{}
	r.reset(nil)
	return r
}

// Get 按名称查找主题，空名称返回默认主题。
func (r *Registry) Get(name string) (Spec, error) {
	if name == "" {
		name = Default
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.styles[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownStyle, name)
	}
	return s, nil
}

// List 按展示顺序返回所有主题。
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.styles[name])
	}
	return out
}

// themeFile 是主题文件的 JSON 结构。
type themeFile struct {
	Styles []Spec `json:"styles"`
}

// LoadFile 读取主题文件并与内置主题合并；同名主题覆盖内置定义。
// 文件中任一主题不合法时整体失败，注册表保持原状。
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var tf themeFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("parse theme file %s: %w", path, err)
	}
	seen := map[string]bool{}
	for _, s := range tf.Styles {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("theme file %s: duplicate style %s", path, s.Name)
		}
		seen[s.Name] = true
	}
	r.reset(tf.Styles)
	return nil
}

func (r *Registry) reset(custom []Spec) {
	styles := map[string]Spec{}
	var order []string
	for _, s := range Builtins() {
		styles[s.Name] = s
		order = append(order, s.Name)
	}
	var extra []string
	for _, s := range custom {
		if _, ok := styles[s.Name]; !ok {
			extra = append(extra, s.Name)
		}
		styles[s.Name] = s
	}
	sort.Strings(extra)
	order = append(order, extra...)

	r.mu.Lock()
	r.styles = styles
	r.order = order
	r.mu.Unlock()
}
