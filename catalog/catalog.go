// Package catalog holds the operations behind each route: account
// registration and authentication, and the game list. It knows nothing about
// HTTP; callers get back a models.Result or one of the models.Err* errors.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gamecatalog/models"
	"gamecatalog/store"
	"gamecatalog/utils"

	"github.com/sirupsen/logrus"
)

const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
)

type Service struct {
	store  store.Store
	logger *logrus.Logger
	cost   int

	dummyOnce sync.Once
	dummyHash string
}

func NewService(s store.Store, logger *logrus.Logger, passwordCost int) *Service {
	return &Service{store: s, logger: logger, cost: passwordCost}
}

// Register creates a regular (non admin) account.
func (s *Service) Register(ctx context.Context, form utils.RegisterForm) (*models.User, models.Result, error) {
	if err := utils.ValidateForm(form); err != nil {
		return nil, models.Result{}, err
	}

	_, err := s.store.FindUserByUsername(ctx, form.Username)
	switch {
	case err == nil:
		return nil, models.Result{}, models.ErrDuplicateUsername
	case !errors.Is(err, store.ErrNotFound):
		return nil, models.Result{}, fmt.Errorf("register: %w", err)
	}

	hash, err := utils.HashPassword(form.Password, s.cost)
	if err != nil {
		return nil, models.Result{}, err
	}
	user := &models.User{Username: form.Username, PasswordHash: hash}
	if err := s.store.InsertUser(ctx, user); err != nil {
		// lost a race against a concurrent registration
		if errors.Is(err, store.ErrDuplicate) {
			return nil, models.Result{}, models.ErrDuplicateUsername
		}
		return nil, models.Result{}, fmt.Errorf("register: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"action":    "register",
		"record_id": user.ID,
	}).Info("user registered")

	return user, models.Result{
		Outcome:  models.OutcomeSuccess,
		Message:  "Account created successfully",
		Redirect: "/",
	}, nil
}

// Authenticate checks a username and password pair. An unknown username and a
// wrong password fail the same way and cost the same bcrypt comparison.
func (s *Service) Authenticate(ctx context.Context, form utils.LoginForm) (*models.User, models.Result, error) {
	if err := utils.ValidateForm(form); err != nil {
		return nil, models.Result{}, err
	}

	user, err := s.store.FindUserByUsername(ctx, form.Username)
	if errors.Is(err, store.ErrNotFound) {
		utils.CheckPasswordHash(form.Password, s.dummy())
		return nil, models.Result{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, models.Result{}, fmt.Errorf("authenticate: %w", err)
	}
	if !utils.CheckPasswordHash(form.Password, user.PasswordHash) {
		return nil, models.Result{}, models.ErrInvalidCredentials
	}

	return user, models.Result{
		Outcome:  models.OutcomeSuccess,
		Message:  "Logged in successfully",
		Redirect: "/",
	}, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := utils.HashPassword("not-a-real-password", s.cost)
		if err != nil {
			s.logger.WithError(err).Error("failed to build dummy password hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// ListGames returns every game ordered by id.
func (s *Service) ListGames(ctx context.Context) ([]models.Game, error) {
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

func (s *Service) AddGame(ctx context.Context, form utils.GameForm) (*models.Game, models.Result, error) {
	if err := utils.ValidateForm(form); err != nil {
		return nil, models.Result{}, err
	}

	game := &models.Game{
		Title:       form.Title,
		Genre:       form.Genre,
		Description: form.Description,
	}
	if err := s.store.InsertGame(ctx, game); err != nil {
		return nil, models.Result{}, fmt.Errorf("add game: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"action":    "add_game",
		"record_id": game.ID,
	}).Info("game added")

	return game, models.Result{
		Outcome:  models.OutcomeSuccess,
		Message:  "Game added successfully",
		Redirect: "/",
	}, nil
}

func (s *Service) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	game, err := s.store.FindGameByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

func (s *Service) DeleteGame(ctx context.Context, id int64) (models.Result, error) {
	err := s.store.DeleteGame(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Result{}, models.ErrNotFound
	}
	if err != nil {
		return models.Result{}, fmt.Errorf("delete game: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"action":    "delete_game",
		"record_id": id,
	}).Info("game deleted")

	return models.Result{
		Outcome:  models.OutcomeSuccess,
		Message:  "Game deleted successfully",
		Redirect: "/admin",
	}, nil
}

// EnsureAdmin creates the default admin account unless a user named admin
// already exists. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context) (bool, error) {
	_, err := s.store.FindUserByUsername(ctx, AdminUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := utils.HashPassword(AdminPassword, s.cost)
	if err != nil {
		return false, err
	}
	admin := &models.User{Username: AdminUsername, PasswordHash: hash, IsAdmin: true}
	if err := s.store.InsertUser(ctx, admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("ensure admin: %w", err)
	}
	return true, nil
}
