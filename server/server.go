package server

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"golden_quote/layout"
	"golden_quote/publisher"
	"golden_quote/quote"
	"golden_quote/render"
	"golden_quote/session"
	"golden_quote/style"
	"golden_quote/summarizer"
)

//go:embed web
var embeddedStatic embed.FS

// 上传的 base64 图片可能较大
const maxBodyBytes = 16 << 20

const summarizeFailedMsg = "生成总结时出错，请稍后重试"

// Options 汇总服务依赖，Summarizer 和 StaticFS 可以为空。
type Options struct {
	Renderer      *render.Renderer
	Styles        *style.Registry
	Publisher     *publisher.Publisher
	Summarizer    *summarizer.Summarizer
	StaticFS      fs.FS
	CaptionPrefix string
	Verbose       bool
	Logger        *log.Logger
}

type Server struct {
	renderer   *render.Renderer
	styles     *style.Registry
	publisher  *publisher.Publisher
	summarizer *summarizer.Summarizer
	store      *session.Store
	static     http.Handler
	prefix     string
	verbose    bool
	logger     *log.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Renderer == nil {
		return nil, errors.New("renderer required")
	}
	if opts.Styles == nil {
		return nil, errors.New("style registry required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("publisher required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	root := opts.StaticFS
	if root == nil {
		sub, err := fs.Sub(embeddedStatic, "web")
		if err != nil {
			return nil, err
		}
		root = sub
	}

	deps := session.Deps{
		Renderer:      opts.Renderer,
		Styles:        opts.Styles,
		Saver:         opts.Publisher,
		CaptionPrefix: opts.CaptionPrefix,
	}
	// 避免把 nil 指针装进接口
	if opts.Summarizer != nil {
		deps.Summarizer = opts.Summarizer
	}

	return &Server{
		renderer:   opts.Renderer,
		styles:     opts.Styles,
		publisher:  opts.Publisher,
		summarizer: opts.Summarizer,
		store:      session.NewStore(deps),
		static:     newStaticHandler(root),
		prefix:     opts.CaptionPrefix,
		verbose:    opts.Verbose,
		logger:     logger,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/summarize", s.handleSummarize)
	mux.HandleFunc("/save-image", s.handleSaveImage)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/styles", s.handleStyles)
	mux.HandleFunc("/api/sessions", s.handleSessionCreate)
	mux.HandleFunc("/api/sessions/", s.handleSessionByID)
	mux.Handle("/", s.static)
	return corsMiddleware(logMiddleware(s.logger, mux))
}

func (s *Server) infof(format string, args ...interface{}) {
	if !s.verbose {
		return
	}
	s.logger.Printf("[INFO] "+format, args...)
}

// --- Handlers ---

type summarizeReq struct {
	Text string `json:"text"`
}

type summarizeResp struct {
	Summary string `json:"summary"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req summarizeReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.summarizer == nil {
		writeError(w, http.StatusInternalServerError, summarizeFailedMsg)
		return
	}
	res, err := s.summarizer.Summarize(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, quote.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Printf("[server] summarize failed: %v", err)
		writeError(w, http.StatusInternalServerError, summarizeFailedMsg)
		return
	}
	s.infof("summarize ok provider=%s latency=%s", res.Provider, res.Latency)
	writeJSON(w, http.StatusOK, summarizeResp{Summary: res.Summary})
}

type saveImageReq struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

type saveImageResp struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleSaveImage(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req saveImageReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, saveImageResp{Error: err.Error()})
		return
	}
	path, err := s.publisher.SaveImage(req.Filename, req.Data)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Printf("[server] save image %q failed: %v", req.Filename, err)
		}
		writeJSON(w, status, saveImageResp{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, saveImageResp{Success: true, Path: path})
}

type renderReq struct {
	Text   string `json:"text"`
	Style  string `json:"style"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req renderReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, format, err := s.render(req)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) render(req renderReq) ([]byte, render.Format, error) {
	q, err := quote.New(req.Text, req.Title, req.URL)
	if err != nil {
		return nil, "", err
	}
	st, err := s.styles.Get(req.Style)
	if err != nil {
		return nil, "", err
	}
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		return nil, "", err
	}
	data, err := s.renderer.Render(render.Card{Text: q.Text, Caption: q.Caption(s.prefix), Style: st}, format)
	return data, format, err
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"styles": s.styles.List()})
}

type sessionCreateReq struct {
	Text  string `json:"text"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Style string `json:"style"`
}

type sessionActionReq struct {
	Text     string `json:"text"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Style    string `json:"style"`
	Format   string `json:"format"`
	Filename string `json:"filename"`
}

type sessionResp struct {
	session.View
	Path    string `json:"path,omitempty"`
	Summary string `json:"summary,omitempty"`
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req sessionCreateReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// 先校验再建会话，失败时不留下空会话
	if req.Style != "" {
		if _, err := s.styles.Get(req.Style); err != nil {
			writeErr(w, err)
			return
		}
	}
	if req.Text != "" {
		if _, err := quote.New(req.Text, req.Title, req.URL); err != nil {
			writeErr(w, err)
			return
		}
	}

	sess := s.store.Create()
	if err := initSession(sess, req); err != nil {
		// 校验之后主题可能被热重载移除
		s.store.Delete(sess.ID)
		writeErr(w, err)
		return
	}
	s.infof("session %s created", sess.ID)
	writeJSON(w, http.StatusCreated, sessionResp{View: sess.View()})
}

func initSession(sess *session.Session, req sessionCreateReq) error {
	if req.Style != "" {
		if err := sess.SetStyle(req.Style); err != nil {
			return err
		}
	}
	if req.Text != "" {
		return sess.Select(req.Text, req.Title, req.URL)
	}
	return nil
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	sess, err := s.store.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}

	if action == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, sessionResp{View: sess.View()})
		return
	}

	if !requirePost(w, r) {
		return
	}
	var req sessionActionReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp sessionResp
	switch action {
	case "select":
		err = sess.Select(req.Text, req.Title, req.URL)
	case "edit":
		err = sess.Edit(req.Text)
	case "style":
		err = sess.SetStyle(req.Style)
	case "generate":
		var format render.Format
		if format, err = render.ParseFormat(req.Format); err == nil {
			_, err = sess.Generate(format)
		}
	case "save":
		resp.Path, err = sess.Save(req.Filename)
	case "summarize":
		resp.Summary, err = sess.Summarize(r.Context())
	default:
		writeError(w, http.StatusNotFound, "unknown action "+action)
		return
	}
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			s.logger.Printf("[server] session %s %s failed: %v", id, action, err)
		}
		writeErr(w, err)
		return
	}
	s.infof("session %s %s -> %s", id, action, sess.State())
	resp.View = sess.View()
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// statusFor 把领域错误映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, quote.ErrEmptyInput),
		errors.Is(err, layout.ErrEmptyText),
		errors.Is(err, style.ErrUnknownStyle),
		errors.Is(err, render.ErrUnknownFormat),
		errors.Is(err, publisher.ErrInvalidFilename),
		errors.Is(err, publisher.ErrInvalidData):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrSummarizeUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	// 空请求体按 {} 处理
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if errors.Is(err, summarizer.ErrRequestFailed) {
		msg = summarizeFailedMsg
	}
	writeError(w, status, msg)
}
