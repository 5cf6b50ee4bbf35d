package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/auth"
	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/catalog"
	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/models"
	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/repo"
)

type Service struct {
	Repo     *repo.Repo
	Catalog  *catalog.Catalog
	Auth     *auth.Manager
	TokenTTL time.Duration
}

func New(repository *repo.Repo, programCatalog *catalog.Catalog, authManager *auth.Manager) *Service {
	return &Service{
		Repo:     repository,
		Catalog:  programCatalog,
		Auth:     authManager,
		TokenTTL: 24 * time.Hour,
	}
}

func (s *Service) Register(ctx context.Context, email, password, name string) (string, error) {
	hash, err := s.Auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	return s.Repo.CreateUser(ctx, email, name, hash)
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.Auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", errors.New("invalid credentials")
	}
	return s.Auth.GenerateToken(user.ID, s.TokenTTL)
}

// GetOrCreateUser is the identity collaborator entry point: idempotent by
// email, so repeated calls with the same address return the same user.
func (s *Service) GetOrCreateUser(ctx context.Context, email, name string) (models.User, error) {
	if email == "" {
		return models.User{}, repo.ErrValidation
	}
	return s.Repo.GetOrCreateUser(ctx, email, name)
}

type RunResult struct {
	RunID    string `json:"run_id"`
	XpEarned int    `json:"xp_earned"`
}

// CompleteRun books one completed program execution. The award is a pure
// function of the program definition; the answers payload is stored for the
// journal but never changes the XP.
func (s *Service) CompleteRun(ctx context.Context, programID, userID string, answers map[string]any) (RunResult, error) {
	def, err := s.Catalog.Lookup(programID)
	if err != nil {
		return RunResult{}, err
	}
	if answers == nil {
		answers = map[string]any{}
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return RunResult{}, err
	}
	xpEarned := def.XPTotal()
	runID, err := s.Repo.CreateProgramRun(ctx, def.ID, userID, def.Mode, def.Category, xpEarned, payload)
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{RunID: runID, XpEarned: xpEarned}, nil
}
