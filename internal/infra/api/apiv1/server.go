// File: internal/infra/api/apiv1/server.go
package apiv1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/infra/logging"
	"pdf-ai-pipeline/internal/usecase"
)

const (
	defaultGuestUpload = 5 << 20
	defaultUserUpload  = 7 << 20
)

// Server holds the use cases behind the /api/v1 routes.
type Server struct {
	summarize usecase.SummarizeUseCase
	jobs      usecase.JobUseCase
	chat      usecase.ChatUseCase
	guests    usecase.GuestUseCase
	identity  *Identity
	limits    uploadLimits
	log       *zerolog.Logger
}

type uploadLimits struct {
	guest, user int64
}

func (l uploadLimits) of(c usecase.Caller) int64 {
	if c.IsGuest() {
		return l.guest
	}
	return l.user
}

type Options struct {
	Summarize usecase.SummarizeUseCase
	Jobs      usecase.JobUseCase
	Chat      usecase.ChatUseCase
	Guests    usecase.GuestUseCase
	JWTSecret string
	// Upload caps in MiB; zero selects the defaults (5 for guests, 7 for users).
	GuestUploadMB int
	UserUploadMB  int
}

func mib(n int, def int64) int64 {
	if n <= 0 {
		return def
	}
	return int64(n) << 20
}

func NewServer(o Options, log *zerolog.Logger) *Server {
	return &Server{
		summarize: o.Summarize,
		jobs:      o.Jobs,
		chat:      o.Chat,
		guests:    o.Guests,
		identity:  NewIdentity(o.JWTSecret),
		limits:    uploadLimits{guest: mib(o.GuestUploadMB, defaultGuestUpload), user: mib(o.UserUploadMB, defaultUserUpload)},
		log:       logging.Component(log, "apiv1"),
	}
}

// RegisterAPIV1 mounts the versioned routes on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/ai", func(r chi.Router) {
			r.Post("/summarize-sync", s.handleSummarizeSync)
			r.Post("/summarize-async", s.handleSummarizeAsync)
			r.Post("/chat/start", s.handleChatStart)
			r.Post("/chat", s.handleChat)
		})
		r.Route("/guest", func(r chi.Router) {
			r.Post("/session", s.handleGuestSession)
			r.Get("/{guestID}/usage", s.handleGuestUsage)
			r.Post("/{guestID}/use", s.handleGuestUse)
		})
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	l := logging.With(r.Context(), s.log)
	if status >= 500 {
		l.Error().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	} else {
		l.Debug().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request rejected")
	}
	writeError(w, status, messageFor(status), err)
}

func preferenceFrom(r *http.Request) (model.Preference, error) {
	q := r.URL.Query()
	p, err := model.ParseProvider(q.Get("llm_provider"))
	if err != nil {
		return model.Preference{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	m, err := model.ParseMode(q.Get("mode"), "")
	if err != nil {
		return model.Preference{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return model.Preference{Provider: p, Mode: m}, nil
}

// readPDF pulls the "file" part of a multipart upload of at most limit bytes.
func (s *Server) readPDF(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, "", fmt.Errorf("%w: maximum is %d MB", domain.ErrTooLarge, limit>>20)
		}
		return nil, "", fmt.Errorf("%w: multipart form: %v", domain.ErrInvalidInput, err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: missing file field", domain.ErrInvalidInput)
	}
	defer f.Close()
	if !isPDF(hdr) {
		return nil, "", fmt.Errorf("%w: only PDF files are accepted", domain.ErrInvalidInput)
	}
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read upload: %v", domain.ErrInvalidInput, err)
	}
	return b, filepath.Base(hdr.Filename), nil
}

func isPDF(h *multipart.FileHeader) bool {
	if strings.EqualFold(filepath.Ext(h.Filename), ".pdf") {
		return true
	}
	return h.Header.Get("Content-Type") == "application/pdf"
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// ---- AI ----

type summaryResponse struct {
	Summary  string `json:"summary"`
	Filename string `json:"filename"`
	Method   string `json:"method"`
}

func (s *Server) handleSummarizeSync(w http.ResponseWriter, r *http.Request) {
	pref, err := preferenceFrom(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	caller := s.identity.Caller(r)
	if caller.IsGuest() && caller.GuestID == "" {
		s.fail(w, r, fmt.Errorf("%w: sign in or send %s", domain.ErrInvalidInput, HeaderGuestID))
		return
	}
	if caller.IsGuest() {
		r = r.WithContext(logging.WithGuestID(r.Context(), caller.GuestID))
	}
	pdf, filename, err := s.readPDF(w, r, s.limits.of(caller))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	summary, err := s.summarize.SummarizeUpload(r.Context(), caller, pdf, pref)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: summary, Filename: filename, Method: "synchronous"})
}

type asyncResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
	PDFID  int64  `json:"pdf_id"`
	Method string `json:"method"`
}

func (s *Server) handleSummarizeAsync(w http.ResponseWriter, r *http.Request) {
	var req usecase.JobRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	job, err := s.jobs.Submit(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, asyncResponse{Status: "processing", JobID: job.ID, PDFID: job.PDFID, Method: "asynchronous"})
}

type chatStartResponse struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
}

func (s *Server) handleChatStart(w http.ResponseWriter, r *http.Request) {
	pref, err := preferenceFrom(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pdf, filename, err := s.readPDF(w, r, s.limits.of(s.identity.Caller(r)))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.chat.StartChat(r.Context(), pdf, filename, pref)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatStartResponse{SessionID: sess.ID, Filename: sess.Filename})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		s.fail(w, r, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput))
		return
	}
	answer, err := s.chat.SendMessage(logging.WithSessID(r.Context(), req.SessionID), req.SessionID, req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Answer: answer})
}

// ---- Guests ----

type guestSessionResponse struct {
	GuestID string `json:"guest_id"`
	model.QuotaStatus
}

func (s *Server) handleGuestSession(w http.ResponseWriter, r *http.Request) {
	id, st, err := s.guests.NewGuest(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, guestSessionResponse{GuestID: id, QuotaStatus: st})
}

func (s *Server) handleGuestUsage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "guestID")
	st, err := s.guests.Check(logging.WithGuestID(r.Context(), id), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGuestUse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "guestID")
	st, err := s.guests.Use(logging.WithGuestID(r.Context(), id), id)
	if errors.Is(err, domain.ErrQuotaExceeded) {
		writeJSON(w, http.StatusForbidden, st)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
