package user

import (
	"context"
	"strings"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
)

type UserSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ UserRepository = &UserSQL{}

func NewUserRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *UserSQL {
	return &UserSQL{Conn, UUIDGenerator}
}

const userColumns = `id, username, email, password, display_name, bio, theme, avatar_url,
login_retry, last_login, created_at, updated_at`

func scanUser(rows driver.ISQLRows) (*UserModel, error) {
	user := new(UserModel)
	err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.DisplayName, &user.Bio,
		&user.Theme, &user.AvatarURL, &user.LoginRetry, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (repo *UserSQL) findOne(ctx context.Context, query string, args ...interface{}) (*UserModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		return scanUser(rows)
	}
	return nil, rows.Err()
}

// FindByCredential query user by username or email, nil when nothing matches
func (repo *UserSQL) FindByCredential(ctx context.Context, identifier string) (*UserModel, error) {
	return repo.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $2`,
		identifier, strings.ToLower(identifier))
}

func (repo *UserSQL) FindByID(ctx context.Context, id string) (*UserModel, error) {
	return repo.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (repo *UserSQL) Exists(ctx context.Context, username, email string) (bool, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT COUNT(*) FROM users WHERE username = $1 OR email = $2`,
		username, strings.ToLower(email))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return false, err
		}
	}
	return n > 0, rows.Err()
}

// SaveUser insert the account and its default preferences
func (repo *UserSQL) SaveUser(ctx context.Context, post *UserModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	post.ID = id
	now := time.Now().UTC()
	post.CreatedAt, post.UpdatedAt = now, now

	err = driver.WithTx(ctx, repo.Conn, nil, func(tx driver.ITransactionalDB) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, username, email, password, display_name, bio,
		theme, avatar_url, login_retry, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			post.ID, post.Username, post.Email, post.Password, post.DisplayName, post.Bio, post.Theme,
			post.AvatarURL, post.LoginRetry, post.LastLogin, post.CreatedAt, post.UpdatedAt); err != nil {
			return err
		}
		return insertPreferences(ctx, tx, DefaultPreferences(post.ID), now)
	})
	if driver.IsUniqueViolation(err) {
		return ErrDuplicatedUser
	}
	return err
}

func (repo *UserSQL) UpdateLogin(ctx context.Context, post *UserModel) error {
	_, err := repo.Conn.ExecContext(ctx, `UPDATE users SET login_retry = $1, last_login = $2 WHERE id = $3`,
		post.LoginRetry, post.LastLogin, post.ID)
	return err
}

func (repo *UserSQL) UpdateProfile(ctx context.Context, post *UserModel) error {
	post.UpdatedAt = time.Now().UTC()
	_, err := repo.Conn.ExecContext(ctx, `UPDATE users
	SET display_name = $1, bio = $2, theme = $3, avatar_url = $4, updated_at = $5
	WHERE id = $6`, post.DisplayName, post.Bio, post.Theme, post.AvatarURL, post.UpdatedAt, post.ID)
	return err
}

// FindPreferences nil when the user never stored preferences
func (repo *UserSQL) FindPreferences(ctx context.Context, userID string) (*PreferencesModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT user_id, theme, focus_music, daily_goal_minutes, notifications_enabled
	FROM user_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		prefs := new(PreferencesModel)
		if err := rows.Scan(&prefs.UserID, &prefs.Theme, &prefs.FocusMusic, &prefs.DailyGoalMinutes,
			&prefs.NotificationsEnabled); err != nil {
			return nil, err
		}
		return prefs, nil
	}
	return nil, rows.Err()
}

// SavePreferences update the stored row or create it
func (repo *UserSQL) SavePreferences(ctx context.Context, prefs *PreferencesModel) error {
	now := time.Now().UTC()
	res, err := repo.Conn.ExecContext(ctx, `UPDATE user_preferences
	SET theme = $1, focus_music = $2, daily_goal_minutes = $3, notifications_enabled = $4, updated_at = $5
	WHERE user_id = $6`, prefs.Theme, prefs.FocusMusic, prefs.DailyGoalMinutes, prefs.NotificationsEnabled, now, prefs.UserID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	// mysql reports zero affected rows when nothing changed
	if err := insertPreferences(ctx, repo.Conn, prefs, now); err != nil && !driver.IsUniqueViolation(err) {
		return err
	}
	return nil
}

func insertPreferences(ctx context.Context, conn driver.ITransactionalDB, prefs *PreferencesModel, now time.Time) error {
	_, err := conn.ExecContext(ctx, `INSERT INTO user_preferences (user_id, theme, focus_music, daily_goal_minutes,
	notifications_enabled, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		prefs.UserID, prefs.Theme, prefs.FocusMusic, prefs.DailyGoalMinutes, prefs.NotificationsEnabled, now, now)
	return err
}
