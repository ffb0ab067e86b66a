// Package server exposes the store over a JSON HTTP API, plus a datastar SSE
// stream and a websocket refresh feed per workspace.
package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"modhub/internal/ddl"
	"modhub/internal/model"
	"modhub/internal/store"
)

type Server struct {
	store *store.Store
	log   zerolog.Logger
	bc    *refreshBroadcaster
	mux   *http.ServeMux
}

func New(st *store.Store, log zerolog.Logger) *Server {
	s := &Server{
		store: st,
		log:   log,
		bc:    newRefreshBroadcaster(),
		mux:   http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/healthz", s.handleHealth)

	s.mux.HandleFunc("GET /api/workspaces", s.handleWorkspaceList)
	s.mux.HandleFunc("POST /api/workspaces", s.handleWorkspaceCreate)
	s.mux.HandleFunc("GET /api/workspaces/{workspaceId}", s.handleWorkspaceGet)
	s.mux.HandleFunc("DELETE /api/workspaces/{workspaceId}", s.handleWorkspaceArchive)

	s.mux.HandleFunc("GET /api/workspaces/{workspaceId}/modules", s.handleModuleList)
	s.mux.HandleFunc("POST /api/workspaces/{workspaceId}/modules", s.handleModuleCreate)
	s.mux.HandleFunc("POST /api/workspaces/{workspaceId}/modules/reorder", s.handleModuleReorder)
	s.mux.HandleFunc("DELETE /api/modules/{moduleId}", s.handleModuleDelete)
	s.mux.HandleFunc("PUT /api/modules/{moduleId}/content", s.handleModuleContent)

	s.mux.HandleFunc("GET /api/modules/{moduleId}/tables", s.handleTableList)
	s.mux.HandleFunc("POST /api/modules/{moduleId}/tables/import", s.handleTableImport)
	s.mux.HandleFunc("GET /api/modules/{moduleId}/interfaces", s.handleInterfaceList)
	s.mux.HandleFunc("POST /api/modules/{moduleId}/interfaces", s.handleInterfaceCreate)

	s.mux.HandleFunc("GET /api/workspaces/{workspaceId}/members", s.handleMemberList)
	s.mux.HandleFunc("POST /api/workspaces/{workspaceId}/members", s.handleMemberInvite)
	s.mux.HandleFunc("DELETE /api/members/{memberId}", s.handleMemberRemove)
	s.mux.HandleFunc("POST /api/invites/{token}/accept", s.handleInviteAccept)

	s.mux.HandleFunc("GET /api/workspaces/{workspaceId}/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/workspaces/{workspaceId}/ws", s.handleWS)
}

// Handler wraps the mux with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// statusRecorder captures the status code for the request log. The streaming
// endpoints (SSE, websocket upgrade) need the underlying writer's Flush and
// Hijack through the wrapper, so those are passed along explicitly.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// helpers

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var nf *store.NotFoundError
	switch {
	case errors.As(err, &nf):
		writeErrorMsg(w, http.StatusNotFound, nf.Error())
	case errors.Is(err, store.ErrCrossParent):
		writeErrorMsg(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrLeafParent), errors.Is(err, store.ErrIncompleteGroup),
		errors.Is(err, ddl.ErrNoTables):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

// workspaces

func (s *Server) handleWorkspaceList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListWorkspaces(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []model.Workspace{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleWorkspaceCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string `json:"name"`
		Slug      string `json:"slug"`
		CreatedBy string `json:"createdBy"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name == "" {
		writeErrorMsg(w, http.StatusBadRequest, "name is required")
		return
	}
	ws, err := s.store.CreateWorkspace(r.Context(), body.Name, body.Slug, body.CreatedBy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) handleWorkspaceGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workspaceId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	ws, err := s.store.GetWorkspace(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *Server) handleWorkspaceArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workspaceId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	if err := s.store.ArchiveWorkspace(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// modules

func (s *Server) handleModuleList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workspaceId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	mods, err := s.store.ModulesForWorkspace(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if mods == nil {
		mods = []model.ModuleNode{}
	}
	writeJSON(w, http.StatusOK, mods)
}

func (s *Server) handleModuleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workspaceId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	var body struct {
		Name          string `json:"name"`
		ParentID      *int64 `json:"parentId"`
		IsLeafContent bool   `json:"isLeafContent"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name == "" {
		writeErrorMsg(w, http.StatusBadRequest, "name is required")
		return
	}
	m, err := s.store.CreateModule(r.Context(), id, body.ParentID, body.Name, body.IsLeafContent)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.bc.bump(id)
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleModuleReorder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workspaceId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	var body struct {
		Updates []model.OrderUpdate `json:"updates"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if len(body.Updates) == 0 {
		writeErrorMsg(w, http.StatusBadRequest, "updates are required")
		return
	}
	if err := s.store.ReorderModules(r.Context(), id, body.Updates); err != nil {
		s.writeError(w, err)
		return
	}
	s.bc.bump(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleModuleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "moduleId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid module id")
		return
	}
	m, err := s.store.GetModule(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.DeleteModule(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.bc.bump(m.WorkspaceID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleModuleContent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "moduleId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid module id")
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	m, err := s.store.GetModule(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.SetModuleContent(r.Context(), id, body.Content); err != nil {
		s.writeError(w, err)
		return
	}
	s.bc.bump(m.WorkspaceID)
	w.WriteHeader(http.StatusNoContent)
}

// tables and interfaces

func (s *Server) handleTableList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "moduleId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid module id")
		return
	}
	tables, err := s.store.ListTables(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if tables == nil {
		tables = []model.TableDef{}
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) handleTableImport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "moduleId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid module id")
		return
	}
	var body struct {
		DDL string `json:"ddl"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	defs, err := ddl.Parse(body.DDL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	m, err := s.store.GetModule(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	stored, err := s.store.ReplaceTables(r.Context(), id, defs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.bc.bump(m.WorkspaceID)
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleInterfaceList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "moduleId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid module id")
		return
	}
	defs, err := s.store.ListInterfaces(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if defs == nil {
		defs = []model.InterfaceDef{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleInterfaceCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "moduleId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid module id")
		return
	}
	var def model.InterfaceDef
	if !decodeBody(w, r, &def) {
		return
	}
	if def.Method == "" || def.Path == "" {
		writeErrorMsg(w, http.StatusBadRequest, "method and path are required")
		return
	}
	created, err := s.store.CreateInterface(r.Context(), id, def)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// members

func (s *Server) handleMemberList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workspaceId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	members, err := s.store.ListMembers(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleMemberInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workspaceId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	var body struct {
		Name  string           `json:"name"`
		Email string           `json:"email"`
		Role  model.MemberRole `json:"role"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	switch body.Role {
	case model.MemberRoleOwner, model.MemberRoleEditor, model.MemberRoleViewer:
	default:
		writeErrorMsg(w, http.StatusBadRequest, "role must be owner, editor or viewer")
		return
	}
	m, err := s.store.InviteMember(r.Context(), id, body.Name, body.Email, body.Role)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleMemberRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "memberId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid member id")
		return
	}
	if err := s.store.RemoveMember(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInviteAccept(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeErrorMsg(w, http.StatusBadRequest, "invite token is required")
		return
	}
	m, err := s.store.AcceptInvite(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
