package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamecatalog/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const pgUniqueViolation = "23505"

// pgxPool is the subset of *pgxpool.Pool the store uses.
type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresStore struct {
	db      pgxPool
	logger  *logrus.Logger
	timeout time.Duration
}

func OpenPostgres(ctx context.Context, dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	config.MaxConns = 50
	config.MinConns = 2
	config.MaxConnIdleTime = 20 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewPostgresStore(pool, logger)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgresStore(db pgxPool, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger, timeout: DefaultTimeout}
}

// Migrate creates the tables if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stmt := "SELECT id, username, password_hash, is_admin FROM users WHERE username = $1"
	return s.scanUser(s.db.QueryRow(ctx, stmt, username), "find_user_by_username", username)
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stmt := "SELECT id, username, password_hash, is_admin FROM users WHERE id = $1"
	return s.scanUser(s.db.QueryRow(ctx, stmt, id), "find_user_by_id", id)
}

func (s *PostgresStore) scanUser(row pgx.Row, action string, recordID any) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logFailure(s.logger, err, action, recordID)
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return u, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stmt := "INSERT INTO users (username, password_hash, is_admin) VALUES ($1, $2, $3) RETURNING id"
	err := s.db.QueryRow(ctx, stmt, user.Username, user.PasswordHash, user.IsAdmin).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicate
		}
		logFailure(s.logger, err, "insert_user", user.Username)
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListGames(ctx context.Context) ([]models.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.Query(ctx, "SELECT id, title, genre, description FROM games ORDER BY id")
	if err != nil {
		logFailure(s.logger, err, "list_games", nil)
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		g := models.Game{}
		if err := rows.Scan(&g.ID, &g.Title, &g.Genre, &g.Description); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		logFailure(s.logger, err, "list_games", nil)
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

func (s *PostgresStore) FindGameByID(ctx context.Context, id int64) (*models.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g := &models.Game{}
	stmt := "SELECT id, title, genre, description FROM games WHERE id = $1"
	err := s.db.QueryRow(ctx, stmt, id).Scan(&g.ID, &g.Title, &g.Genre, &g.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logFailure(s.logger, err, "find_game", id)
		return nil, fmt.Errorf("find game: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) InsertGame(ctx context.Context, game *models.Game) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stmt := "INSERT INTO games (title, genre, description) VALUES ($1, $2, $3) RETURNING id"
	err := s.db.QueryRow(ctx, stmt, game.Title, game.Genre, game.Description).Scan(&game.ID)
	if err != nil {
		logFailure(s.logger, err, "insert_game", game.Title)
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteGame(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.db.Exec(ctx, "DELETE FROM games WHERE id = $1", id)
	if err != nil {
		logFailure(s.logger, err, "delete_game", id)
		return fmt.Errorf("delete game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
