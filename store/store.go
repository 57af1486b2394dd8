// Package store persists users and games. Both the Postgres and the SQLite
// implementations satisfy Store, so the catalog and auth layers never see SQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamecatalog/models"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// DefaultTimeout bounds every single query.
const DefaultTimeout = 10 * time.Second

type Store interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	// InsertUser stores user and sets its ID. ErrDuplicate is returned when
	// the username is taken.
	InsertUser(ctx context.Context, user *models.User) error

	ListGames(ctx context.Context) ([]models.Game, error)
	FindGameByID(ctx context.Context, id int64) (*models.Game, error)
	InsertGame(ctx context.Context, game *models.Game) error
	DeleteGame(ctx context.Context, id int64) error

	Close() error
}

// Open picks the backend from the DSN scheme: postgres:// and postgresql://
// go to Postgres, anything else is treated as a SQLite path with an optional
// sqlite:// prefix.
func Open(ctx context.Context, dsn string, logger *logrus.Logger) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("database url is required")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn, logger)
	}

	path := strings.TrimPrefix(dsn, "sqlite://")
	path = strings.TrimPrefix(path, "sqlite:")
	return OpenSQLite(ctx, path, logger)
}

func logFailure(logger *logrus.Logger, err error, action string, recordID any) {
	logger.WithError(err).
		WithFields(logrus.Fields{
			"action":    action,
			"record_id": recordID,
		}).
		Error("store query failed")
}
