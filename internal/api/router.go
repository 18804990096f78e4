package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tigertrust/tigertrust/internal/identity"
	"github.com/tigertrust/tigertrust/internal/middleware"
	"github.com/tigertrust/tigertrust/internal/services"
)

type Router struct {
	store    Store
	profiles *services.ProfileService
	auth     *services.AuthService
}

func NewRouter(store Store, profiles *services.ProfileService, auth *services.AuthService) *Router {
	return &Router{store: store, profiles: profiles, auth: auth}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/login", rt.handleLogin)  // POST
	mux.HandleFunc("/api/profiles", rt.handleProfiles) // POST
	mux.HandleFunc("/api/profiles/", rt.handleProfile) // GET {owner}, POST {owner}/<op>
	mux.HandleFunc("/api/audit", rt.handleAudit)       // GET
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "signer_key": res.SignerKey})
}

// POST /api/profiles — self-service profile creation; the owner key in the
// body is the record the caller pays for. Not admin gated.
func (rt *Router) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Owner string `json:"owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	owner, err := identity.ParseKey(req.Owner)
	if err != nil {
		http.Error(w, "invalid owner key", http.StatusBadRequest)
		return
	}
	p, err := rt.profiles.CreateProfile(owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, p)
}

// GET  /api/profiles/{owner}
// POST /api/profiles/{owner}/human-verification
// POST /api/profiles/{owner}/reputation-factors
// POST /api/profiles/{owner}/score-override
func (rt *Router) handleProfile(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/profiles/")
	parts := strings.Split(rest, "/")
	owner, err := identity.ParseKey(parts[0])
	if err != nil {
		http.Error(w, "invalid owner key", http.StatusBadRequest)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		p, err := rt.profiles.GetProfile(owner)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, p)
		return
	}

	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller := callerKey(r)

	switch parts[1] {
	case "human-verification":
		var req struct {
			IsVerified bool `json:"is_verified"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p, err := rt.profiles.SetHumanVerified(caller, owner, req.IsVerified)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, p)
	case "reputation-factors":
		var req services.ReputationFactors
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p, err := rt.profiles.SetReputationFactors(caller, owner, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, p)
	case "score-override":
		var req struct {
			NewScore uint16 `json:"new_score"`
			NewTier  uint8  `json:"new_tier"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p, err := rt.profiles.SetScoreOverride(caller, owner, req.NewScore, req.NewTier)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, p)
	default:
		http.NotFound(w, r)
	}
}

// GET /api/audit — requires a valid admin token.
func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := middleware.SignerKeyFromContext(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, rt.store.ListAudit())
}

// callerKey extracts the authenticated signer key, or the zero key when the
// request carries no valid token. The service's authorization gate rejects
// the zero key.
func callerKey(r *http.Request) identity.Key {
	hexKey, ok := middleware.SignerKeyFromContext(r.Context())
	if !ok {
		return identity.Key{}
	}
	k, err := identity.ParseKey(hexKey)
	if err != nil {
		return identity.Key{}
	}
	return k
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	msg := "internal error"
	if se, ok := services.AsServiceError(err); ok {
		code, msg = string(se.Code), se.Message
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
