// Package ws serves the preview session to browsers over websocket.
package ws

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	diag "github.com/Rifine/smix/internal/diagnostics"
	"github.com/Rifine/smix/internal/export"
	"github.com/Rifine/smix/internal/mix"
	"github.com/Rifine/smix/internal/preview"
	"github.com/Rifine/smix/internal/scale"
)

// Frame is one encoded preview sent to /ws clients.
type Frame struct {
	T       int64        `json:"t"`
	FrameID uint64       `json:"frame_id"`
	Args    preview.Args `json:"args"`
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	PNG     string       `json:"png"`
}

// Control is a message accepted on /control. Absent fields are left alone.
type Control struct {
	Weights *mix.Weight `json:"weights,omitempty"`
	Key     *string     `json:"key,omitempty"`
	Scale   *float32    `json:"scale,omitempty"`
	Save    *SaveReq    `json:"save,omitempty"`
}

// SaveReq asks for a save. Only the base name of Path is used; the file is
// always written into the host's output directory.
type SaveReq struct {
	Path   string `json:"path"`
	Filter string `json:"filter,omitempty"`
}

// State wraps a preview session for concurrent websocket handlers.
type State struct {
	mu      sync.Mutex
	session *preview.Session
	FPS     int
	log     zerolog.Logger
	out     *export.Exporter

	// AllowedOrigins lists browser origins accepted besides the serving host.
	AllowedOrigins []string

	last        *Frame
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	upgrader    websocket.Upgrader
}

// NewState serves s. Saves requested over /control land in outDir.
func NewState(s *preview.Session, fps int, outDir string, log zerolog.Logger) *State {
	st := &State{
		session:     s,
		FPS:         fps,
		log:         log,
		out:         export.New(outDir, s.Filter, log),
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
	st.upgrader = websocket.Upgrader{CheckOrigin: st.CheckOrigin}
	return st
}

// CheckOrigin accepts requests without an Origin header, requests from the
// serving host and requests from AllowedOrigins.
func (s *State) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.AllowedOrigins {
		if strings.EqualFold(strings.TrimRight(o, "/"), origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Routes registers every handler on mux.
func (s *State) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/masks", s.HandleMasks)
}

// RunRenderLoop ticks at FPS and broadcasts a frame only when the session was
// dirty. It returns when ctx is done.
func (s *State) RunRenderLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(max(1, s.FPS)))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if f, ok := s.Tick(); ok {
				s.broadcastFrame(f)
			}
		}
	}
}

// Tick runs one update of the session and returns the new frame if it changed.
func (s *State) Tick() (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, changed := s.session.Update()
	if !changed {
		return s.last, false
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.log.Error().Err(err).Msg("encode preview")
		return s.last, false
	}
	b := img.Bounds()
	s.last = &Frame{
		T:       time.Now().UnixNano(),
		FrameID: s.session.FrameID(),
		Args:    s.session.Current(),
		Width:   b.Dx(),
		Height:  b.Dy(),
		PNG:     base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
	return s.last, true
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	if s.last != nil {
		s.write(conn, s.last)
	}
	s.mu.Unlock()
	go s.drain(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go s.drain(conn, s.diagClients)
}

// drain reads until the peer goes away, then forgets conn.
func (s *State) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// HandleControlWS applies control messages and answers each with the
// resulting args.
func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Control
		if err := json.Unmarshal(data, &msg); err != nil {
			s.pushDiag(diag.Diagnostic{Severity: diag.Warn, Code: "CONTROL.INVALID", Summary: "Invalid control message", Detail: err.Error()})
			continue
		}
		args := s.applyControl(msg)
		if err := conn.WriteJSON(args); err != nil {
			return
		}
	}
}

func (s *State) applyControl(msg Control) preview.Args {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Weights != nil {
		s.session.SetWeights(*msg.Weights)
	}
	if msg.Key != nil && !s.session.Select(*msg.Key) {
		s.pushDiagLocked(diag.Diagnostic{
			Severity: diag.Warn, Code: "MASK.UNKNOWN", Summary: "Unknown mask set",
			Evidence: map[string]any{"key": *msg.Key},
		})
	}
	if msg.Scale != nil {
		s.session.SetScale(*msg.Scale)
	}
	if msg.Save != nil {
		s.save(*msg.Save)
	}
	return s.session.Current()
}

func (s *State) save(req SaveReq) {
	filter := s.session.Filter
	if req.Filter != "" {
		f, err := scale.ParseFilter(req.Filter)
		if err != nil {
			s.pushDiagLocked(diag.FromError(diag.Validationf("%v", err)))
			return
		}
		filter = f
	}
	path, err := s.savePath(req.Path)
	if err != nil {
		s.pushDiagLocked(diag.FromError(err))
		return
	}
	if err := s.session.Save(path, filter); err != nil {
		s.log.Error().Err(err).Msg("save failed")
		s.pushDiagLocked(diag.FromError(err))
		return
	}
	s.pushDiagLocked(diag.Diagnostic{Severity: diag.Info, Code: "SAVE.DONE", Summary: "Saved image", Detail: path})
}

// savePath keeps name inside the output directory. Directory parts of name
// are dropped.
func (s *State) savePath(name string) (string, error) {
	if name == "" {
		name = s.session.SuggestedName()
	}
	base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, `\`, "/")))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", diag.Validationf("save path %q has no file name", name)
	}
	if !strings.EqualFold(filepath.Ext(base), ".png") {
		base += ".png"
	}
	if err := s.out.EnsureDir(); err != nil {
		return "", err
	}
	return filepath.Join(s.out.Dir, base), nil
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := map[string]any{
		"frame_id": s.session.FrameID(),
		"uptime_s": time.Since(s.startTime).Seconds(),
		"state":    s.session.State().String(),
		"args":     s.session.Current(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) HandleMasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	keys := s.session.Keys()
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(keys)
}

func (s *State) write(conn *websocket.Conn, v any) {
	conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	if err := conn.WriteJSON(v); err != nil {
		s.log.Debug().Err(err).Msg("write frame")
	}
}

// broadcastFrame writes under the lock so each connection has one writer.
func (s *State) broadcastFrame(f *Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.write(c, f)
	}
}

func (s *State) pushDiag(d diag.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushDiagLocked(d)
}

func (s *State) pushDiagLocked(d diag.Diagnostic) {
	for c := range s.diagClients {
		s.write(c, d)
	}
}
