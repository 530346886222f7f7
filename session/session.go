package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golden_quote/quote"
	"golden_quote/render"
	"golden_quote/style"
	"golden_quote/summarizer"
)

var (
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrBusy                 = errors.New("session is busy")
	ErrSummarizeUnavailable = errors.New("summarize unavailable")
	ErrNotFound             = errors.New("session not found")
)

// State 是弹窗的三种状态。
type State string

const (
	Idle           State = "idle"
	TextSelected   State = "text_selected"
	ImageGenerated State = "image_generated"
)

// Renderer 把卡片编码为图片字节。
type Renderer interface {
	Render(card render.Card, format render.Format) ([]byte, error)
}

// Styles 按名称查找主题，空名称返回默认主题。
type Styles interface {
	Get(name string) (style.Spec, error)
}

// Saver 把图片写到保存目录。
type Saver interface {
	Save(filename string, data []byte, ext string) (string, error)
}

// Summarizer 把长文本压缩成一句话，可以为空。
type Summarizer interface {
	Summarize(ctx context.Context, text string) (summarizer.Result, error)
}

// Deps 是会话依赖的协作者，同一个 Store 里的会话共用。
type Deps struct {
	Renderer      Renderer
	Styles        Styles
	Saver         Saver
	Summarizer    Summarizer
	CaptionPrefix string
}

// Image 是最近一次生成的图片。
type Image struct {
	Format render.Format
	Data   []byte
}

// Turn 记录一次命令及其后的状态。
type Turn struct {
	Command   string    `json:"command"`
	State     State     `json:"state"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session 持有一次选中-编辑-生成-保存的上下文，方法可并发调用。
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	deps    Deps
	state   State
	quote   quote.Quote
	style   string
	image   *Image
	busy    bool
	history []Turn
}

// New 创建空闲会话。
func New(id string, deps Deps) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		deps:      deps,
		state:     Idle,
	}
}

// Select 载入选中的文本和来源页面。空白文本返回 quote.ErrEmptyInput，状态不变。
func (s *Session) Select(text, title, url string) error {
	q, err := quote.New(text, title, url)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quote = q
	s.image = nil
	s.state = TextSelected
	s.appendTurn("select", "")
	return nil
}

// Edit 替换正文，丢弃已生成的图片。
func (s *Session) Edit(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked("edit", text)
}

func (s *Session) editLocked(command, text string) error {
	if s.state == Idle {
		return fmt.Errorf("%w: %s before select", ErrInvalidTransition, command)
	}
	normalized := quote.Normalize(text)
	if normalized == "" {
		return quote.ErrEmptyInput
	}
	s.quote.Text = normalized
	s.image = nil
	s.state = TextSelected
	s.appendTurn(command, "")
	return nil
}

// SetStyle 切换主题。空闲时也允许，供之后生成使用。
func (s *Session) SetStyle(name string) error {
	if _, err := s.deps.Styles.Get(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = name
	s.image = nil
	if s.state == ImageGenerated {
		s.state = TextSelected
	}
	s.appendTurn("style", name)
	return nil
}

// Generate 按当前文本和主题渲染图片。
func (s *Session) Generate(format render.Format) (Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Idle {
		return Image{}, fmt.Errorf("%w: generate before select", ErrInvalidTransition)
	}
	st, err := s.deps.Styles.Get(s.style)
	if err != nil {
		return Image{}, err
	}
	if format == "" {
		format = render.PNG
	}
	data, err := s.deps.Renderer.Render(render.Card{
		Text:    s.quote.Text,
		Caption: s.quote.Caption(s.deps.CaptionPrefix),
		Style:   st,
	}, format)
	if err != nil {
		return Image{}, err
	}
	s.image = &Image{Format: format, Data: data}
	s.state = ImageGenerated
	s.appendTurn("generate", string(format))
	return *s.image, nil
}

// Save 保存最近一次生成的图片，返回写入路径。
func (s *Session) Save(filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != ImageGenerated || s.image == nil {
		return "", fmt.Errorf("%w: save before generate", ErrInvalidTransition)
	}
	if s.deps.Saver == nil {
		return "", errors.New("no save directory configured")
	}
	path, err := s.deps.Saver.Save(filename, s.image.Data, s.image.Format.Ext())
	if err != nil {
		return "", err
	}
	s.appendTurn("save", path)
	return path, nil
}

// Summarize 用模型总结当前文本并替换之，等同于 Edit(summary)。
// 调用期间会话标记为忙，重复调用返回 ErrBusy；失败时文本保持不变。
func (s *Session) Summarize(ctx context.Context) (string, error) {
	if s.deps.Summarizer == nil {
		return "", ErrSummarizeUnavailable
	}
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: summarize before select", ErrInvalidTransition)
	}
	if s.busy {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.busy = true
	text := s.quote.Text
	s.mu.Unlock()

	res, err := s.deps.Summarizer.Summarize(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		return "", err
	}
	if err := s.editLocked("summarize", res.Summary); err != nil {
		return "", err
	}
	return res.Summary, nil
}

// Image 返回最近一次生成的图片。
func (s *Session) Image() (Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image == nil {
		return Image{}, false
	}
	return *s.image, true
}

// View 是会话对外的快照。
type View struct {
	ID       string        `json:"session_id"`
	State    State         `json:"state"`
	Text     string        `json:"text"`
	Title    string        `json:"title"`
	URL      string        `json:"url,omitempty"`
	Style    string        `json:"style"`
	Busy     bool          `json:"busy"`
	Format   render.Format `json:"format,omitempty"`
	ImageURL string        `json:"image,omitempty"`
	History  []Turn        `json:"history"`
}

// View 返回当前快照，图片以 data URL 形式附带。
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:      s.ID,
		State:   s.state,
		Text:    s.quote.Text,
		Title:   s.quote.Title,
		URL:     s.quote.URL,
		Style:   s.style,
		Busy:    s.busy,
		History: append([]Turn(nil), s.history...),
	}
	if v.Style == "" {
		v.Style = style.Default
	}
	if s.image != nil {
		v.Format = s.image.Format
		v.ImageURL = render.DataURL(s.image.Format, s.image.Data)
	}
	return v
}

// State 返回当前状态。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) appendTurn(command, note string) {
	s.history = append(s.history, Turn{
		Command:   command,
		State:     s.state,
		Note:      note,
		CreatedAt: time.Now(),
	})
}
