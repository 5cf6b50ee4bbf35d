package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/auth"
	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/catalog"
	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/repo"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type getOrCreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type completeRunRequest struct {
	ProgramID string         `json:"program_id"`
	Answers   map[string]any `json:"answers"`
}

type rewardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        *int   `json:"cost"`
	Active      *bool  `json:"active"`
}

type rewardActiveRequest struct {
	Active bool `json:"active"`
}

type redeemRequest struct {
	RewardID string `json:"reward_id"`
}

type relistRequest struct {
	RewardID     string  `json:"reward_id"`
	RedemptionID *string `json:"redemption_id"`
}

type entityResponse struct {
	ID string `json:"id"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password required")
		return
	}
	userID, err := a.Service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			writeError(w, http.StatusConflict, "CONFLICT", "Email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, entityResponse{ID: userID})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := a.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	user, err := a.Repo.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleGetOrCreateUser(w http.ResponseWriter, r *http.Request) {
	var req getOrCreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := a.Service.GetOrCreateUser(r.Context(), req.Email, req.Name)
	if err != nil {
		if errors.Is(err, repo.ErrValidation) {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email required")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleXpSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	summary, err := a.Repo.XpSummary(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleTotalBalance(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	balance, err := a.Repo.TotalBalance(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load balance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"balance": balance})
}

func (a *API) handleCategoryBalances(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	balances, err := a.Repo.CategoryBalances(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load balances")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": balances})
}

func (a *API) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	transactions, err := a.Repo.ListTransactions(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func (a *API) handleListPrograms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"programs": a.Catalog.List()})
}

func (a *API) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	def, err := a.Catalog.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Program not found")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (a *API) handleListProgramRuns(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := a.Repo.ListProgramRuns(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (a *API) handleCompleteRun(w http.ResponseWriter, r *http.Request) {
	var req completeRunRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProgramID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Program_id required")
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	result, err := a.Service.CompleteRun(r.Context(), req.ProgramID, userID, req.Answers)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownProgram) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Program not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to book run")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := a.Repo.ListRewards(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list rewards")
		return
	}
	redemptions, err := a.Repo.ListRedemptions(r.Context(), 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list redemptions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewards": rewards, "redemptions": redemptions})
}

func (a *API) handleCreateReward(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name required")
		return
	}
	cost := 1000
	if req.Cost != nil {
		cost = *req.Cost
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	reward, err := a.Repo.CreateReward(r.Context(), req.Name, req.Description, cost, active)
	if err != nil {
		if errors.Is(err, repo.ErrValidation) {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Cost must be positive")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create reward")
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

func (a *API) handleUpdateRewardActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req rewardActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reward, err := a.Repo.UpdateRewardActive(r.Context(), id, req.Active)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Reward not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update reward")
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (a *API) handleDeleteReward(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Repo.DeleteReward(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Reward not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete reward")
		return
	}
	writeJSON(w, http.StatusOK, entityResponse{ID: id})
}

func (a *API) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	redemptionID, err := a.Repo.RedeemReward(r.Context(), req.RewardID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrValidation):
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Reward_id required")
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Reward not found")
		case errors.Is(err, repo.ErrConflict):
			writeError(w, http.StatusConflict, "CONFLICT", "Reward already redeemed")
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to redeem reward")
		}
		return
	}
	writeJSON(w, http.StatusCreated, entityResponse{ID: redemptionID})
}

func (a *API) handleRelist(w http.ResponseWriter, r *http.Request) {
	var req relistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reward, err := a.Repo.RelistReward(r.Context(), req.RewardID, req.RedemptionID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrValidation):
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Reward_id required")
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Reward or redemption not found")
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to relist reward")
		}
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid payload")
		return false
	}
	return true
}
