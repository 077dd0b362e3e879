package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ranjeet229/KnowledgeScout/internal/access"
	"github.com/ranjeet229/KnowledgeScout/internal/auth"
	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
	"github.com/ranjeet229/KnowledgeScout/internal/search"
)

// Request/response shapes. One typed struct per operation; validation
// happens here so the core only sees well-formed values.

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type askRequest struct {
	Query string `json:"query"`
	// K is a pointer so an omitted field gets the default while an
	// explicit value, however small, reaches the clamp in the engine.
	K *int `json:"k"`
}

type askResponse struct {
	Query      string             `json:"query"`
	Answer     string             `json:"answer"`
	References []search.Reference `json:"references"`
	Cached     bool               `json:"cached"`
}

type pagePayload struct {
	PageNumber int    `json:"pageNumber"`
	Content    string `json:"content"`
}

type docSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploadedAt"`
	Size       int64     `json:"size"`
	IsPrivate  bool      `json:"isPrivate"`
	PageCount  int       `json:"pageCount"`
	IsOwner    bool      `json:"isOwner"`
}

type listDocsResponse struct {
	Documents []docSummary `json:"documents"`
	Total     int64        `json:"total"`
	Limit     int          `json:"limit"`
	Offset    int          `json:"offset"`
}

type docResponse struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Filename   string        `json:"filename"`
	Content    string        `json:"content"`
	Pages      []pagePayload `json:"pages"`
	UploadedAt time.Time     `json:"uploadedAt"`
	Size       int64         `json:"size"`
	IsPrivate  bool          `json:"isPrivate"`
	ShareToken string        `json:"shareToken,omitempty"`
}

type ingestResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	IsPrivate  bool      `json:"isPrivate"`
	ShareToken string    `json:"shareToken,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
	PageCount  int       `json:"pageCount"`
}

type rebuildResponse struct {
	Message string `json:"message"`
	Stats   any    `json:"stats"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, kerr.InvalidInput("invalid request body"))
		return
	}

	u, token, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserPayload(u)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, kerr.InvalidInput("invalid request body"))
		return
	}

	u, token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserPayload(u)})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	owner := callerID(r.Context())
	if owner == "" {
		s.writeError(w, kerr.AuthRequired("Authentication required"))
		return
	}

	maxBytes := s.cfg.Ingest.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeError(w, kerr.InvalidInput("invalid multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, kerr.InvalidInput("No file uploaded"))
		return
	}
	defer file.Close()

	doc, err := s.ingest.IngestUpload(r.Context(), header.Filename, file,
		r.FormValue("title"), owner, r.FormValue("isPrivate") == "true")
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, ingestResponse{
		ID:         doc.ID,
		Title:      doc.Title,
		Filename:   doc.Filename,
		IsPrivate:  doc.IsPrivate,
		ShareToken: doc.ShareToken,
		UploadedAt: doc.UploadedAt,
		PageCount:  len(doc.Pages),
	})
}

func (s *Server) handleListDocs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		s.writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	caller := callerID(r.Context())
	docs, total, err := s.store.List(r.Context(), caller, limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]docSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, docSummary{
			ID:         d.ID,
			Title:      d.Title,
			Filename:   d.Filename,
			UploadedAt: d.UploadedAt,
			Size:       d.Size,
			IsPrivate:  d.IsPrivate,
			PageCount:  d.PageCount,
			IsOwner:    caller != "" && caller == d.OwnerID,
		})
	}
	s.writeJSON(w, http.StatusOK, listDocsResponse{
		Documents: out,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r.Context())
	shareToken := r.URL.Query().Get("shareToken")

	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !access.CanRead(doc, caller, shareToken) {
		s.writeError(w, kerr.AccessDenied("Access denied"))
		return
	}

	pages := make([]pagePayload, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		pages = append(pages, pagePayload{PageNumber: p.Number, Content: p.Content})
	}
	s.writeJSON(w, http.StatusOK, docResponse{
		ID:         doc.ID,
		Title:      doc.Title,
		Filename:   doc.Filename,
		Content:    doc.Content,
		Pages:      pages,
		UploadedAt: doc.UploadedAt,
		Size:       doc.Size,
		IsPrivate:  doc.IsPrivate,
		ShareToken: access.ShareTokenFor(doc, caller),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, kerr.InvalidInput("invalid request body"))
		return
	}

	k := s.cfg.Search.DefaultLimit
	if req.K != nil {
		k = *req.K
	}

	a, cached, err := s.query.Ask(r.Context(), req.Query, k, callerID(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}

	refs := a.References
	if refs == nil {
		refs = []search.Reference{}
	}
	s.writeJSON(w, http.StatusOK, askResponse{
		Query:      a.Query,
		Answer:     a.Text,
		References: refs,
		Cached:     cached,
	})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if callerID(r.Context()) == "" {
		s.writeError(w, kerr.AuthRequired("Authentication required"))
		return
	}

	st, err := s.stats.Rebuild(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rebuildResponse{
		Message: "Index rebuilt successfully",
		Stats:   st,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Current(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// queryInt parses a non-negative integer query parameter.
// Absent means the default; malformed or negative is InvalidInput.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, kerr.Newf(kerr.CodeInvalidInput, "invalid %s parameter", name)
	}
	return n, nil
}

func toUserPayload(u *auth.User) userPayload {
	return userPayload{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response_encode_failed", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := "internal server error"
	if e, ok := err.(*kerr.Error); ok && status < http.StatusInternalServerError {
		message = e.Message
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request_failed", slog.String("error", err.Error()))
	}
	s.writeJSON(w, status, errorResponse{Error: message})
}

// statusFor maps error codes to HTTP status codes. NotFound and
// AccessDenied stay distinguishable on purpose.
func statusFor(err error) int {
	switch kerr.GetCode(err) {
	case kerr.CodeInvalidInput, kerr.CodeQueryEmpty, kerr.CodeDuplicateUser, kerr.CodeFileTooLarge:
		return http.StatusBadRequest
	case kerr.CodeAuthRequired, kerr.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case kerr.CodeAccessDenied:
		return http.StatusForbidden
	case kerr.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
