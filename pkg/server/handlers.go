package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"gemchat/pkg/chat"
	"gemchat/pkg/history"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

//go:embed static/index.html
var staticFiles embed.FS

// maxFormMemory bounds the multipart form kept in memory.
const maxFormMemory = 1 << 20

// stateResponse is chat.State plus the active model label.
type stateResponse struct {
	chat.State
	Model string `json:"model,omitempty"`
}

type sendRequest struct {
	Text string `json:"text"`
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("http_write_error", "error", err)
	}
}

func errorResp(code, message string, r *http.Request) errorResponse {
	return errorResponse{
		Error: apiError{
			Code:      code,
			Message:   message,
			RequestID: chimiddleware.GetReqID(r.Context()),
		},
	}
}

func (s *Server) state() stateResponse {
	return stateResponse{State: s.ctrl.Snapshot(), Model: s.modelLabel}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "index not available", r))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

// handleSendMessage appends the user message and answers 202 right away; the
// gateway call continues in the background.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	text, att, err := parseSendRequest(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}

	turn, ok := s.ctrl.Begin(text, att)
	if !ok {
		if s.ctrl.Loading() {
			writeJSON(w, http.StatusConflict, errorResp("BUSY", chat.ErrBusy.Error(), r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message text or image is required", r))
		return
	}

	s.turns.Add(1)
	go func() {
		defer s.turns.Done()
		s.ctrl.Complete(s.baseCtx, turn)
	}()

	writeJSON(w, http.StatusAccepted, s.state())
}

// parseSendRequest accepts either a JSON body {"text": ...} or a multipart
// form with a "text" field and an optional "file" image.
func parseSendRequest(w http.ResponseWriter, r *http.Request) (string, *chat.Attachment, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType != "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormMemory)
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", nil, errors.New("invalid request body")
		}
		return req.Text, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, chat.MaxAttachmentBytes+maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return "", nil, fmt.Errorf("invalid form: %w", err)
	}

	text := r.FormValue("text")
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return text, nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("invalid file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, chat.MaxAttachmentBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("invalid file: %w", err)
	}
	att, err := chat.NewAttachment(header.Filename, data)
	if err != nil {
		return "", nil, err
	}
	return text, att, nil
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	items, err := s.ctrl.History(r.Context())
	if err != nil {
		slog.Error("history_list_error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to list chats", r))
		return
	}
	if items == nil {
		items = []chat.ChatHistoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chats": items})
}

func (s *Server) handleNewChat(w http.ResponseWriter, r *http.Request) {
	s.ctrl.NewChat()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleSelectChat(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Chat ID is required", r))
		return
	}

	if err := s.ctrl.SelectChat(r.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to load chat", r))
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleToggleSidebar(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ToggleSidebar()
	writeJSON(w, http.StatusOK, s.state())
}
