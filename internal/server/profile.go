package server

import (
	"encoding/json"
	"io"
	"net/http"

	"farmconnect/internal/app"
	"farmconnect/pkg/domain"
)

type profileUpdateRequest struct {
	IsFarmer         *bool    `json:"isFarmer"`
	FarmLatitude     *float64 `json:"farmLatitude"`
	FarmLongitude    *float64 `json:"farmLongitude"`
	PreferredContact *string  `json:"preferredContact"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		profile, err := s.app.GetProfile(user)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	case http.MethodPatch:
		var req profileUpdateRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		profile, err := s.app.UpdateProfile(user, app.ProfileUpdate{
			IsFarmer:         req.IsFarmer,
			FarmLatitude:     req.FarmLatitude,
			FarmLongitude:    req.FarmLongitude,
			PreferredContact: req.PreferredContact,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		if req.IsFarmer != nil {
			s.audit(r, "api.profile.role_change", "success", "user_id", user.ID, "is_farmer", *req.IsFarmer)
		}
		writeJSON(w, http.StatusOK, profile)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFarmMap(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	fm, err := s.app.GetFarmMap(user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fm)
}
