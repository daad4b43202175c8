package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/infra/logging"
	"github.com/Kamigear/teens-points/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the domain taxonomy onto HTTP. Unknown errors become
// an opaque 500; the detail stays in the request log.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrCodeExpired):
		writeJSONError(w, http.StatusGone, "Code expired")
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyExists):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "Internal error")
	}
}

// ===== Member surface =====

type claimRequest struct {
	Code string `json:"code"`
}

// claimHandler redeems a code for the authenticated member. A repeat of an
// already-honored claim is not an error from the member's point of view: it
// reports 200 with an informational status so dashboard retries stay quiet.
func (s *Server) claimHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := logging.MemberID(ctx)

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.claimUC.Claim(ctx, memberID, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyClaimed) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "already_claimed"})
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		*usecase.ClaimResult
	}{Status: "ok", ClaimResult: res})
}

type memberResponse struct {
	ID           string     `json:"id"`
	DisplayName  string     `json:"display_name"`
	Balance      int        `json:"balance"`
	TotalClaims  int        `json:"total_claims"`
	LastClaimAt  *time.Time `json:"last_claim_at,omitempty"`
	IsAdmin      bool       `json:"is_admin"`
	RegisteredAt time.Time  `json:"registered_at"`
}

func toMemberResponse(m *model.Member) memberResponse {
	return memberResponse{
		ID:           m.ID,
		DisplayName:  m.DisplayName,
		Balance:      m.Balance,
		TotalClaims:  m.TotalClaims,
		LastClaimAt:  m.LastClaimAt,
		IsAdmin:      m.IsAdmin,
		RegisteredAt: m.RegisteredAt,
	}
}

// meHandler returns the caller's member record, registering it on first
// contact when the identity token carries a display name.
func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := logging.MemberID(ctx)

	m, err := s.memberUC.Get(ctx, memberID)
	if errors.Is(err, domain.ErrNotFound) {
		if name := displayName(ctx); name != "" {
			m, err = s.memberUC.Register(ctx, memberID, name)
		}
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

type ledgerEntryResponse struct {
	ID           string    `json:"id"`
	Description  string    `json:"description"`
	Points       int       `json:"points"`
	Status       string    `json:"status"`
	SourceCodeID *string   `json:"source_code_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toLedgerResponses(entries []*model.LedgerEntry) []ledgerEntryResponse {
	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledgerEntryResponse{
			ID:           e.ID,
			Description:  e.Description,
			Points:       e.Points,
			Status:       string(e.Status),
			SourceCodeID: e.SourceCodeID,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}

func (s *Server) myHistoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.ledgerUC.History(ctx, logging.MemberID(ctx), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []ledgerEntryResponse `json:"data"`
	}{Data: toLedgerResponses(entries)})
}

// ===== Admin: event codes =====

type codeCreateRequest struct {
	EventName  string `json:"event_name"`
	Points     int    `json:"points"`
	ClaimType  string `json:"claim_type"`
	CustomCode string `json:"custom_code"`
}

type eventCodeResponse struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	EventName string     `json:"event_name"`
	Points    int        `json:"points"`
	ClaimType string     `json:"claim_type"`
	Status    string     `json:"status"`
	ClaimedBy *string    `json:"claimed_by,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

func toEventCodeResponse(c *model.EventCode) eventCodeResponse {
	return eventCodeResponse{
		ID:        c.ID,
		Code:      c.Code,
		EventName: c.EventName,
		Points:    c.Points,
		ClaimType: string(c.ClaimType),
		Status:    string(c.Status),
		ClaimedBy: c.ClaimedBy,
		ClaimedAt: c.ClaimedAt,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
	}
}

func (s *Server) codeCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req codeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	code, err := s.codeUC.Create(r.Context(), "admin", req.EventName, req.Points, model.ClaimType(req.ClaimType), req.CustomCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventCodeResponse(code))
}

func (s *Server) codeListHandler(w http.ResponseWriter, r *http.Request) {
	codes, err := s.codeUC.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]eventCodeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, toEventCodeResponse(c))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []eventCodeResponse `json:"data"`
	}{Data: out})
}

func (s *Server) codeDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.codeUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Admin: token generator =====

func (s *Server) minterStatusHandler(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Running bool    `json:"running"`
		Code    string  `json:"code,omitempty"`
		Expires *string `json:"expires_at,omitempty"`
	}{Running: s.minter.Running()}

	if tok, err := s.tokenUC.Current(r.Context()); err == nil {
		exp := tok.ExpiresAt.Format(time.RFC3339)
		resp.Code = tok.Code
		resp.Expires = &exp
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) minterStartHandler(w http.ResponseWriter, r *http.Request) {
	s.minter.Start(s.baseCtx)
	writeJSON(w, http.StatusOK, map[string]bool{"running": true})
}

func (s *Server) minterStopHandler(w http.ResponseWriter, r *http.Request) {
	s.minter.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"running": false})
}

// ===== Admin: members and ledger =====

func (s *Server) memberListHandler(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	members, total, err := s.memberUC.List(r.Context(), offset, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	writeJSON(w, http.StatusOK, struct {
		Data   []memberResponse `json:"data"`
		Total  int              `json:"total"`
		Offset int              `json:"offset"`
	}{Data: out, Total: total, Offset: offset})
}

func (s *Server) memberGetHandler(w http.ResponseWriter, r *http.Request) {
	m, err := s.memberUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

type memberPatchRequest struct {
	DisplayName *string `json:"display_name"`
}

func (s *Server) memberPatchHandler(w http.ResponseWriter, r *http.Request) {
	var req memberPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := s.memberUC.Merge(r.Context(), chi.URLParam(r, "id"), req.DisplayName)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

type adjustmentRequest struct {
	Points      int    `json:"points"`
	Description string `json:"description"`
}

func (s *Server) adjustmentHandler(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := s.ledgerUC.Adjust(r.Context(), chi.URLParam(r, "id"), req.Points, req.Description, "admin")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLedgerResponses([]*model.LedgerEntry{entry})[0])
}

func (s *Server) ledgerDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.ledgerUC.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Admin: settings =====

func (s *Server) settingsGetHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsUC.Get(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) settingsPutHandler(w http.ResponseWriter, r *http.Request) {
	var req model.AttendanceSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := s.settingsUC.Update(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
