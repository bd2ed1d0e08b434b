package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/officeteam/office-utilities/internal/transport"
	"github.com/officeteam/office-utilities/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     svc,
	}
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Service.Members()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, ToMemberResponse(m))
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"members": out})
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var dto AddMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Service.AddMember(dto.UserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, ToMemberResponse(u))
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.Service.RemoveMember(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"removed": id})
}

// SearchUsers looks up directory users not yet on the team, for the
// add-member picker.
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if len(term) < 2 {
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": []MemberResponse{}})
		return
	}

	users, err := h.Service.SearchNonMembers(term, 20)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	out := make([]MemberResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToMemberResponse(u))
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": out})
}
