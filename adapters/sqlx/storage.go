// Package sqlx persists progression state in PostgreSQL or MySQL through
// jmoiron/sqlx. Ledger appends and totals updates share one transaction;
// uniqueness races on grants resolve to no-ops via conflict-ignoring
// inserts.
package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// database/sql drivers selected by Config.Driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"questkit/core"
)

// Driver selects the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds connection settings.
type Config struct {
	Driver       Driver `json:"driver" env:"QUESTKIT_SQL_DRIVER"`
	DSN          string `json:"dsn" env:"QUESTKIT_SQL_DSN"`
	MaxOpenConns int    `json:"max_open_conns" env:"QUESTKIT_SQL_MAX_OPEN_CONNS"`
	MaxIdleConns int    `json:"max_idle_conns" env:"QUESTKIT_SQL_MAX_IDLE_CONNS"`
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:       driver,
		DSN:          "",
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	}
}

// Store implements the persistence surface over a SQL database.
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a connection pool and verifies connectivity.
func New(cfg Config) (*Store, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, core.NewStoreError("sql.connect", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	return NewWithDB(db, cfg.Driver), nil
}

// NewWithDB wraps an existing handle; tests inject sqlmock through here.
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the schema when absent.
func (s *Store) Migrate(ctx context.Context) error {
	serial := "BIGSERIAL PRIMARY KEY"
	if s.driver == DriverMySQL {
		serial = "BIGINT AUTO_INCREMENT PRIMARY KEY"
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS activity_log (
			id %s,
			user_id VARCHAR(128) NOT NULL,
			activity_type VARCHAR(64) NOT NULL,
			points_delta BIGINT NOT NULL,
			related_id BIGINT,
			related_type VARCHAR(64),
			media_count INT,
			occurred_at TIMESTAMP NOT NULL
		)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_activity_user ON activity_log (user_id, occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_window ON activity_log (occurred_at)`,
		`CREATE TABLE IF NOT EXISTS user_points (
			user_id VARCHAR(128) PRIMARY KEY,
			total_points BIGINT NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 1,
			updated_at TIMESTAMP NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS badges (
			id %s,
			name VARCHAR(128) NOT NULL UNIQUE,
			description TEXT NOT NULL,
			icon_ref VARCHAR(255) NOT NULL,
			criteria_key VARCHAR(64) NOT NULL
		)`, serial),
		`CREATE TABLE IF NOT EXISTS user_badges (
			user_id VARCHAR(128) NOT NULL,
			badge_id BIGINT NOT NULL,
			earned_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, badge_id)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS quests (
			id %s,
			title VARCHAR(128) NOT NULL,
			description TEXT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			criteria_key VARCHAR(64) NOT NULL,
			target_count INT NOT NULL,
			reward_points BIGINT NOT NULL DEFAULT 0,
			reward_badge_id BIGINT,
			reward_virtual_good_id BIGINT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			cooldown_hours INT,
			window_start TIMESTAMP,
			window_end TIMESTAMP
		)`, serial),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS quest_progress (
			id %s,
			user_id VARCHAR(128) NOT NULL,
			quest_id BIGINT NOT NULL,
			current_count INT NOT NULL DEFAULT 0,
			status VARCHAR(32) NOT NULL,
			last_progress_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			last_completed_at TIMESTAMP,
			UNIQUE (user_id, quest_id)
		)`, serial),
		`CREATE TABLE IF NOT EXISTS user_virtual_goods (
			user_id VARCHAR(128) NOT NULL,
			good_id BIGINT NOT NULL,
			granted_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, good_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return core.NewStoreError("sql.migrate", err)
		}
	}
	return nil
}

type pointsRow struct {
	UserID      string    `db:"user_id"`
	TotalPoints int64     `db:"total_points"`
	Level       int       `db:"level"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r pointsRow) toCore() core.UserPoints {
	return core.UserPoints{UserID: core.UserID(r.UserID), TotalPoints: r.TotalPoints, Level: r.Level, UpdatedAt: r.UpdatedAt}
}

// AddPoints appends the ledger entry and applies the delta to the user's
// total in one transaction. The totals row is seeded with a
// conflict-ignoring insert and then read under FOR UPDATE, so concurrent
// awards for the same user serialize instead of overwriting each other;
// the total always reconciles against the ledger sum.
func (s *Store) AddPoints(ctx context.Context, user core.UserID, activity core.ActivityType, delta int64, related *core.RelatedEntity) (core.UserPoints, error) {
	now := time.Now().UTC()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.UserPoints{}, core.NewStoreError("points.add", err)
	}
	defer tx.Rollback()

	if err := s.insertLedger(ctx, tx, core.ActivityEntry{
		UserID: user, Activity: activity, PointsDelta: delta, Related: related, OccurredAt: now,
	}); err != nil {
		return core.UserPoints{}, err
	}

	if _, err := s.insertIgnoring(ctx, tx, "points.add",
		`INSERT INTO user_points (user_id, total_points, level, updated_at) VALUES (?, 0, 1, ?)`,
		`(user_id)`, user, now); err != nil {
		return core.UserPoints{}, err
	}

	var row pointsRow
	err = tx.GetContext(ctx, &row,
		tx.Rebind(`SELECT user_id, total_points, level, updated_at FROM user_points WHERE user_id = ? FOR UPDATE`), user)
	if err != nil {
		return core.UserPoints{}, core.NewStoreError("points.add", err)
	}
	total, aerr := core.AddSafe(row.TotalPoints, delta)
	if aerr != nil {
		return core.UserPoints{}, aerr
	}
	row.TotalPoints = total
	row.UpdatedAt = now
	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE user_points SET total_points = ?, updated_at = ? WHERE user_id = ?`),
		row.TotalPoints, row.UpdatedAt, row.UserID); err != nil {
		return core.UserPoints{}, core.NewStoreError("points.add", err)
	}

	if err := tx.Commit(); err != nil {
		return core.UserPoints{}, core.NewStoreError("points.add", err)
	}
	return row.toCore(), nil
}

func (s *Store) insertLedger(ctx context.Context, tx *sqlx.Tx, e core.ActivityEntry) error {
	var relID, relMedia sql.NullInt64
	var relType sql.NullString
	if e.Related != nil {
		relID = sql.NullInt64{Int64: e.Related.ID, Valid: true}
		relType = sql.NullString{String: e.Related.Type, Valid: true}
		relMedia = sql.NullInt64{Int64: int64(e.Related.MediaCount), Valid: true}
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO activity_log (user_id, activity_type, points_delta, related_id, related_type, media_count, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.UserID, e.Activity, e.PointsDelta, relID, relType, relMedia, e.OccurredAt)
	if err != nil {
		return core.NewStoreError("ledger.append", err)
	}
	return nil
}

func (s *Store) AppendAudit(ctx context.Context, entry core.ActivityEntry) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewStoreError("ledger.append", err)
	}
	defer tx.Rollback()
	if err := s.insertLedger(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.NewStoreError("ledger.append", err)
	}
	return nil
}

func (s *Store) SetLevel(ctx context.Context, user core.UserID, level int) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE user_points SET level = ?, updated_at = ? WHERE user_id = ?`),
		level, time.Now().UTC(), user)
	if err != nil {
		return core.NewStoreError("points.level", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %s: %w", user, core.ErrNotFound)
	}
	return nil
}

func (s *Store) GetUserPoints(ctx context.Context, user core.UserID) (core.UserPoints, error) {
	var row pointsRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT user_id, total_points, level, updated_at FROM user_points WHERE user_id = ?`), user)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserPoints{}, fmt.Errorf("user %s: %w", user, core.ErrNotFound)
	}
	if err != nil {
		return core.UserPoints{}, core.NewStoreError("points.get", err)
	}
	return row.toCore(), nil
}

func (s *Store) AllUserPoints(ctx context.Context) ([]core.UserPoints, error) {
	var rows []pointsRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, total_points, level, updated_at FROM user_points`); err != nil {
		return nil, core.NewStoreError("points.list", err)
	}
	out := make([]core.UserPoints, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *Store) SumDeltasSince(ctx context.Context, since time.Time) (map[core.UserID]int64, error) {
	type sumRow struct {
		UserID string `db:"user_id"`
		Score  int64  `db:"score"`
	}
	var rows []sumRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT user_id, SUM(points_delta) AS score FROM activity_log WHERE occurred_at >= ? GROUP BY user_id`), since)
	if err != nil {
		return nil, core.NewStoreError("ledger.window", err)
	}
	out := make(map[core.UserID]int64, len(rows))
	for _, r := range rows {
		out[core.UserID(r.UserID)] = r.Score
	}
	return out, nil
}

func (s *Store) CountDistinctActivityDays(ctx context.Context, user core.UserID, activity core.ActivityType) (int, error) {
	day := `DATE(occurred_at)`
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(
		`SELECT COUNT(DISTINCT `+day+`) FROM activity_log WHERE user_id = ? AND activity_type = ?`),
		user, activity)
	if err != nil {
		return 0, core.NewStoreError("ledger.days", err)
	}
	return n, nil
}

type badgeRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	IconRef     string `db:"icon_ref"`
	CriteriaKey string `db:"criteria_key"`
}

func (r badgeRow) toCore() core.Badge {
	return core.Badge{ID: r.ID, Name: r.Name, Description: r.Description, IconRef: r.IconRef, CriteriaKey: core.CriteriaKey(r.CriteriaKey)}
}

func (s *Store) ListBadges(ctx context.Context) ([]core.Badge, error) {
	var rows []badgeRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, description, icon_ref, criteria_key FROM badges ORDER BY id`); err != nil {
		return nil, core.NewStoreError("badges.list", err)
	}
	out := make([]core.Badge, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *Store) GetBadge(ctx context.Context, id int64) (core.Badge, error) {
	var row badgeRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT id, name, description, icon_ref, criteria_key FROM badges WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Badge{}, fmt.Errorf("badge %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Badge{}, core.NewStoreError("badges.get", err)
	}
	return row.toCore(), nil
}

func (s *Store) CreateBadge(ctx context.Context, b *core.Badge) error {
	if s.driver == DriverPostgres {
		err := s.db.GetContext(ctx, &b.ID, s.db.Rebind(
			`INSERT INTO badges (name, description, icon_ref, criteria_key) VALUES (?, ?, ?, ?) RETURNING id`),
			b.Name, b.Description, b.IconRef, b.CriteriaKey)
		if err != nil {
			return core.NewStoreError("badges.create", err)
		}
		return nil
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO badges (name, description, icon_ref, criteria_key) VALUES (?, ?, ?, ?)`),
		b.Name, b.Description, b.IconRef, b.CriteriaKey)
	if err != nil {
		return core.NewStoreError("badges.create", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.NewStoreError("badges.create", err)
	}
	return nil
}

func (s *Store) EarnedBadgeIDs(ctx context.Context, user core.UserID) (map[int64]struct{}, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		s.db.Rebind(`SELECT badge_id FROM user_badges WHERE user_id = ?`), user)
	if err != nil {
		return nil, core.NewStoreError("badges.earned", err)
	}
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *Store) GrantBadge(ctx context.Context, user core.UserID, badgeID int64) (bool, error) {
	if _, err := s.GetBadge(ctx, badgeID); err != nil {
		return false, err
	}
	return s.insertIgnoring(ctx, s.db, "badges.grant",
		`INSERT INTO user_badges (user_id, badge_id, earned_at) VALUES (?, ?, ?)`,
		`(user_id, badge_id)`, user, badgeID, time.Now().UTC())
}

// insertIgnoring runs a conflict-ignoring insert and reports whether a row
// actually landed. Losing a uniqueness race is (false, nil). ext is either
// the pool or an open transaction.
func (s *Store) insertIgnoring(ctx context.Context, ext sqlx.ExtContext, op, insert, conflictCols string, args ...any) (bool, error) {
	q := insert
	if s.driver == DriverPostgres {
		q = insert + ` ON CONFLICT ` + conflictCols + ` DO NOTHING`
	} else {
		q = "INSERT IGNORE" + insert[len("INSERT"):]
	}
	res, err := ext.ExecContext(ctx, ext.Rebind(q), args...)
	if err != nil {
		return false, core.NewStoreError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, core.NewStoreError(op, err)
	}
	return n > 0, nil
}

type questRow struct {
	ID                  int64      `db:"id"`
	Title               string     `db:"title"`
	Description         string     `db:"description"`
	Kind                string     `db:"kind"`
	CriteriaKey         string     `db:"criteria_key"`
	TargetCount         int        `db:"target_count"`
	RewardPoints        int64      `db:"reward_points"`
	RewardBadgeID       *int64     `db:"reward_badge_id"`
	RewardVirtualGoodID *int64     `db:"reward_virtual_good_id"`
	IsActive            bool       `db:"is_active"`
	CooldownHours       *int       `db:"cooldown_hours"`
	WindowStart         *time.Time `db:"window_start"`
	WindowEnd           *time.Time `db:"window_end"`
}

func (r questRow) toCore() core.Quest {
	return core.Quest{
		ID: r.ID, Title: r.Title, Description: r.Description,
		Kind: core.QuestKind(r.Kind), CriteriaKey: core.CriteriaKey(r.CriteriaKey),
		TargetCount: r.TargetCount, RewardPoints: r.RewardPoints,
		RewardBadgeID: r.RewardBadgeID, RewardVirtualGoodID: r.RewardVirtualGoodID,
		IsActive: r.IsActive, CooldownHours: r.CooldownHours,
		Window: core.ActiveWindow{Start: r.WindowStart, End: r.WindowEnd},
	}
}

const questColumns = `id, title, description, kind, criteria_key, target_count, reward_points,
	reward_badge_id, reward_virtual_good_id, is_active, cooldown_hours, window_start, window_end`

func (s *Store) ListQuests(ctx context.Context) ([]core.Quest, error) {
	var rows []questRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+questColumns+` FROM quests ORDER BY id`); err != nil {
		return nil, core.NewStoreError("quests.list", err)
	}
	out := make([]core.Quest, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *Store) GetQuest(ctx context.Context, id int64) (core.Quest, error) {
	var row questRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT `+questColumns+` FROM quests WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Quest{}, fmt.Errorf("quest %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Quest{}, core.NewStoreError("quests.get", err)
	}
	return row.toCore(), nil
}

func (s *Store) CreateQuest(ctx context.Context, q *core.Quest) error {
	args := []any{q.Title, q.Description, q.Kind, q.CriteriaKey, q.TargetCount, q.RewardPoints,
		q.RewardBadgeID, q.RewardVirtualGoodID, q.IsActive, q.CooldownHours, q.Window.Start, q.Window.End}
	insert := `INSERT INTO quests (title, description, kind, criteria_key, target_count, reward_points,
		reward_badge_id, reward_virtual_good_id, is_active, cooldown_hours, window_start, window_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if s.driver == DriverPostgres {
		if err := s.db.GetContext(ctx, &q.ID, s.db.Rebind(insert+` RETURNING id`), args...); err != nil {
			return core.NewStoreError("quests.create", err)
		}
		return nil
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(insert), args...)
	if err != nil {
		return core.NewStoreError("quests.create", err)
	}
	q.ID, err = res.LastInsertId()
	if err != nil {
		return core.NewStoreError("quests.create", err)
	}
	return nil
}

func (s *Store) ActiveQuestsByCriteria(ctx context.Context, key core.CriteriaKey) ([]core.Quest, error) {
	var rows []questRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT `+questColumns+` FROM quests WHERE is_active AND criteria_key = ? ORDER BY id`), key)
	if err != nil {
		return nil, core.NewStoreError("quests.active", err)
	}
	out := make([]core.Quest, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

type progressRow struct {
	ID              int64      `db:"id"`
	UserID          string     `db:"user_id"`
	QuestID         int64      `db:"quest_id"`
	CurrentCount    int        `db:"current_count"`
	Status          string     `db:"status"`
	LastProgressAt  time.Time  `db:"last_progress_at"`
	CompletedAt     *time.Time `db:"completed_at"`
	LastCompletedAt *time.Time `db:"last_completed_at"`
}

func (r progressRow) toCore() core.QuestProgress {
	return core.QuestProgress{
		ID: r.ID, UserID: core.UserID(r.UserID), QuestID: r.QuestID,
		CurrentCount: r.CurrentCount, Status: core.ProgressStatus(r.Status),
		LastProgressAt: r.LastProgressAt, CompletedAt: r.CompletedAt, LastCompletedAt: r.LastCompletedAt,
	}
}

const progressColumns = `id, user_id, quest_id, current_count, status, last_progress_at, completed_at, last_completed_at`

func (s *Store) GetProgress(ctx context.Context, user core.UserID, questID int64) (core.QuestProgress, error) {
	var row progressRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT `+progressColumns+` FROM quest_progress WHERE user_id = ? AND quest_id = ?`), user, questID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.QuestProgress{}, fmt.Errorf("progress for user %s quest %d: %w", user, questID, core.ErrNotFound)
	}
	if err != nil {
		return core.QuestProgress{}, core.NewStoreError("progress.get", err)
	}
	return row.toCore(), nil
}

func (s *Store) GetProgressByID(ctx context.Context, id int64) (core.QuestProgress, error) {
	var row progressRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT `+progressColumns+` FROM quest_progress WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.QuestProgress{}, fmt.Errorf("progress %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.QuestProgress{}, core.NewStoreError("progress.get", err)
	}
	return row.toCore(), nil
}

func (s *Store) SaveProgress(ctx context.Context, p *core.QuestProgress) error {
	if p.ID != 0 {
		return s.updateProgress(ctx, p)
	}
	// fold a concurrent insert for the same (user, quest) into an update of
	// the surviving row
	existing, err := s.GetProgress(ctx, p.UserID, p.QuestID)
	if err == nil {
		p.ID = existing.ID
		return s.updateProgress(ctx, p)
	}
	if !errors.Is(err, core.ErrNotFound) {
		return err
	}

	insert := `INSERT INTO quest_progress (user_id, quest_id, current_count, status, last_progress_at, completed_at, last_completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	args := []any{p.UserID, p.QuestID, p.CurrentCount, p.Status, p.LastProgressAt, p.CompletedAt, p.LastCompletedAt}
	if s.driver == DriverPostgres {
		err = s.db.GetContext(ctx, &p.ID, s.db.Rebind(insert+` RETURNING id`), args...)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, s.db.Rebind(insert), args...)
		if err == nil {
			p.ID, err = res.LastInsertId()
		}
	}
	if err != nil {
		if existing, gerr := s.GetProgress(ctx, p.UserID, p.QuestID); gerr == nil {
			p.ID = existing.ID
			return s.updateProgress(ctx, p)
		}
		return core.NewStoreError("progress.save", err)
	}
	return nil
}

func (s *Store) updateProgress(ctx context.Context, p *core.QuestProgress) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE quest_progress SET current_count = ?, status = ?, last_progress_at = ?, completed_at = ?, last_completed_at = ? WHERE id = ?`),
		p.CurrentCount, p.Status, p.LastProgressAt, p.CompletedAt, p.LastCompletedAt, p.ID)
	if err != nil {
		return core.NewStoreError("progress.save", err)
	}
	return nil
}

func (s *Store) ClaimProgress(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE quest_progress SET status = ? WHERE id = ? AND status = ?`),
		core.StatusClaimed, id, core.StatusCompleted)
	if err != nil {
		return false, core.NewStoreError("progress.claim", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, core.NewStoreError("progress.claim", err)
	}
	return n > 0, nil
}

func (s *Store) GrantVirtualGood(ctx context.Context, user core.UserID, goodID int64) (bool, error) {
	return s.insertIgnoring(ctx, s.db, "goods.grant",
		`INSERT INTO user_virtual_goods (user_id, good_id, granted_at) VALUES (?, ?, ?)`,
		`(user_id, good_id)`, user, goodID, time.Now().UTC())
}
