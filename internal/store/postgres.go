package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/vidvault/internal/models"
)

// ErrNotFound is returned when a scoped lookup matches no row.
var ErrNotFound = errors.New("not found")

// PostgresStore handles user, category and video CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it doesn't exist. One statement per Exec:
// pgx's extended protocol won't batch them.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{`
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username   VARCHAR(50)  UNIQUE NOT NULL,
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			is_admin   BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ  DEFAULT NOW()
		)`, `
		CREATE TABLE IF NOT EXISTS categories (
			id         BIGSERIAL PRIMARY KEY,
			name       VARCHAR(100) NOT NULL,
			user_id    UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (user_id, name)
		)`, `
		CREATE TABLE IF NOT EXISTS videos (
			id             BIGSERIAL PRIMARY KEY,
			title          VARCHAR(200) NOT NULL,
			thumbnail_path VARCHAR(300) NOT NULL DEFAULT '',
			video_path     VARCHAR(300) NOT NULL DEFAULT '',
			youtube_url    VARCHAR(300) NOT NULL DEFAULT '',
			is_youtube     BOOLEAN NOT NULL DEFAULT FALSE,
			category_id    BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			user_id        UUID NOT NULL REFERENCES users(id),
			upload_date    TIMESTAMPTZ DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ── Users ────────────────────────────────────────────────────

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, hashedPassword string, isAdmin bool) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password, is_admin)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, username, email, is_admin, created_at`,
		username, email, hashedPassword, isAdmin,
	).Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `email = $1`, email)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `username = $1`, username)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `id = $1`, id)
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password, is_admin, created_at FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every registered user with category/video counts,
// oldest first. Admin dashboard only.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username, u.email, u.is_admin, u.created_at,
		       (SELECT COUNT(*) FROM categories c WHERE c.user_id = u.id),
		       (SELECT COUNT(*) FROM videos v WHERE v.user_id = u.id)
		FROM users u
		ORDER BY u.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.UserSummary
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.CreatedAt,
			&u.Categories, &u.Videos); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// PromoteAdmin flags an existing account as the superuser. No-op if the
// username is not registered yet; signup handles that case.
func (s *PostgresStore) PromoteAdmin(ctx context.Context, username string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET is_admin = TRUE WHERE username = $1`, username)
	return err
}

// ── Categories ───────────────────────────────────────────────

func (s *PostgresStore) CreateCategory(ctx context.Context, userID, name string) (*models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (name, user_id)
		 VALUES ($1, $2)
		 RETURNING id, name, user_id, created_at`,
		name, userID,
	).Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, user_id, created_at FROM categories
		 WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCategory(ctx context.Context, userID string, id int64) (*models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, user_id, created_at FROM categories
		 WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ── Videos ───────────────────────────────────────────────────

const videoCols = `id, title, thumbnail_path, video_path, youtube_url, is_youtube, category_id, user_id, upload_date`

func (s *PostgresStore) CreateVideo(ctx context.Context, v *models.Video) (*models.Video, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO videos (title, thumbnail_path, video_path, youtube_url, is_youtube, category_id, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, upload_date`,
		v.Title, v.ThumbnailPath, v.VideoPath, v.YouTubeURL, v.IsYouTube, v.CategoryID, v.UserID,
	).Scan(&v.ID, &v.UploadDate)
	if err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) GetVideo(ctx context.Context, userID string, id int64) (*models.Video, error) {
	var v models.Video
	err := s.pool.QueryRow(ctx,
		`SELECT `+videoCols+` FROM videos WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&v.ID, &v.Title, &v.ThumbnailPath, &v.VideoPath, &v.YouTubeURL,
		&v.IsYouTube, &v.CategoryID, &v.UserID, &v.UploadDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVideos returns all of a user's videos, newest first.
func (s *PostgresStore) ListVideos(ctx context.Context, userID string) ([]models.Video, error) {
	return s.listVideos(ctx,
		`SELECT `+videoCols+` FROM videos WHERE user_id = $1 ORDER BY upload_date DESC`, userID)
}

// ListVideosByCategory returns one category's videos, newest first.
func (s *PostgresStore) ListVideosByCategory(ctx context.Context, userID string, categoryID int64) ([]models.Video, error) {
	return s.listVideos(ctx,
		`SELECT `+videoCols+` FROM videos
		 WHERE user_id = $1 AND category_id = $2 ORDER BY upload_date DESC`,
		userID, categoryID)
}

func (s *PostgresStore) listVideos(ctx context.Context, query string, args ...any) ([]models.Video, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Title, &v.ThumbnailPath, &v.VideoPath, &v.YouTubeURL,
			&v.IsYouTube, &v.CategoryID, &v.UserID, &v.UploadDate); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteVideo removes a user's video row. Returns ErrNotFound when the id
// doesn't exist or belongs to someone else.
func (s *PostgresStore) DeleteVideo(ctx context.Context, userID string, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM videos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
