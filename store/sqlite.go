package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gamecatalog/models"

	"github.com/sirupsen/logrus"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type SQLiteStore struct {
	sqlDB   *sql.DB
	logger  *logrus.Logger
	timeout time.Duration
}

// OpenSQLite opens and migrates the SQLite database at path.
func OpenSQLite(ctx context.Context, path string, logger *logrus.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer at a time
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &SQLiteStore{sqlDB: sqlDB, logger: logger, timeout: DefaultTimeout}
	for _, stmt := range sqliteSchema {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, is_admin FROM users WHERE username = ?", username)
	return s.scanUser(row, "find_user_by_username", username)
}

func (s *SQLiteStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, is_admin FROM users WHERE id = ?", id)
	return s.scanUser(row, "find_user_by_id", id)
}

func (s *SQLiteStore) scanUser(row *sql.Row, action string, recordID any) (*models.User, error) {
	u := &models.User{}
	var isAdmin int64
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &isAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logFailure(s.logger, err, action, recordID)
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	u.IsAdmin = isAdmin != 0
	return u, nil
}

func (s *SQLiteStore) InsertUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var isAdmin int64
	if user.IsAdmin {
		isAdmin = 1
	}
	res, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, is_admin) VALUES (?, ?, ?)",
		user.Username, user.PasswordHash, isAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		logFailure(s.logger, err, "insert_user", user.Username)
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user id: %w", err)
	}
	user.ID = id
	return nil
}

func (s *SQLiteStore) ListGames(ctx context.Context) ([]models.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.sqlDB.QueryContext(ctx, "SELECT id, title, genre, description FROM games ORDER BY id")
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

func (s *SQLiteStore) FindGameByID(ctx context.Context, id int64) (*models.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g := &models.Game{}
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, title, genre, description FROM games WHERE id = ?", id).
		Scan(&g.ID, &g.Title, &g.Genre, &g.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logFailure(s.logger, err, "find_game", id)
		return nil, fmt.Errorf("find game: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) InsertGame(ctx context.Context, game *models.Game) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO games (title, genre, description) VALUES (?, ?, ?)",
		game.Title, game.Genre, game.Description)
	if err != nil {
		logFailure(s.logger, err, "insert_game", game.Title)
		return fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert game id: %w", err)
	}
	game.ID = id
	return nil
}

func (s *SQLiteStore) DeleteGame(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.sqlDB.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id)
	if err != nil {
		logFailure(s.logger, err, "delete_game", id)
		return fmt.Errorf("delete game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ Store = (*SQLiteStore)(nil)
