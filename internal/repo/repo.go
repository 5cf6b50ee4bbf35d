package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

const uniqueViolation = "23505"

type Repo struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{Pool: pool}
}

// --- users ---

func (r *Repo) CreateUser(ctx context.Context, email, name, passwordHash string) (string, error) {
	var id string
	err := r.Pool.QueryRow(ctx, `INSERT INTO users (email, name, password_hash) VALUES ($1, $2, $3) RETURNING id`, email, name, passwordHash).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return "", ErrConflict
	}
	return id, err
}

// GetOrCreateUser is idempotent by email. The dummy ON CONFLICT update makes
// RETURNING yield the existing row instead of no rows.
func (r *Repo) GetOrCreateUser(ctx context.Context, email, name string) (models.User, error) {
	var u models.User
	err := r.Pool.QueryRow(ctx, `INSERT INTO users (email, name) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, name, created_at`, email, name).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	return u, err
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.Pool.QueryRow(ctx, `SELECT id, email, name, password_hash, created_at FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	var u models.User
	err := r.Pool.QueryRow(ctx, `SELECT id, email, name, created_at FROM users WHERE id=$1`, userID).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

// --- transaction log & balance aggregation ---

// AppendTransaction inserts one immutable ledger row. The log is append-only;
// nothing in this repository updates or deletes xp_transactions.
func (r *Repo) AppendTransaction(ctx context.Context, tx models.NewTransaction) (string, error) {
	if tx.Amount == 0 || tx.Category == "" {
		return "", ErrValidation
	}
	var id string
	err := r.Pool.QueryRow(ctx, `INSERT INTO xp_transactions (user_id, category, amount, kind, source, program_run_id, reward_redemption_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		tx.UserID, tx.Category, tx.Amount, tx.Kind, tx.Source, tx.ProgramRunID, tx.RewardRedemptionID).Scan(&id)
	return id, err
}

func (r *Repo) TotalBalance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := r.Pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM xp_transactions WHERE user_id=$1`, userID).Scan(&balance)
	return balance, err
}

// CategoryBalances returns the net sum per category. Every category with at
// least one transaction appears, even when its net is zero.
func (r *Repo) CategoryBalances(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.Pool.Query(ctx, `SELECT category, COALESCE(SUM(amount), 0) FROM xp_transactions WHERE user_id=$1 GROUP BY category`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	balances := make(map[string]int)
	for rows.Next() {
		var category string
		var sum int
		if err := rows.Scan(&category, &sum); err != nil {
			return nil, err
		}
		balances[category] = sum
	}
	return balances, rows.Err()
}

// XpSummary computes the score-card numbers: net balance over all rows, gross
// earnings (positive amounts only) and earnings grouped by category.
func (r *Repo) XpSummary(ctx context.Context, userID string) (models.XpSummary, error) {
	summary := models.XpSummary{Categories: make(map[string]int)}
	err := r.Pool.QueryRow(ctx, `SELECT
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)
		FROM xp_transactions WHERE user_id=$1`, userID).Scan(&summary.Balance, &summary.TotalEarned)
	if err != nil {
		return models.XpSummary{}, err
	}
	rows, err := r.Pool.Query(ctx, `SELECT category, COALESCE(SUM(amount), 0)
		FROM xp_transactions WHERE user_id=$1 AND amount > 0 GROUP BY category`, userID)
	if err != nil {
		return models.XpSummary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var earned int
		if err := rows.Scan(&category, &earned); err != nil {
			return models.XpSummary{}, err
		}
		summary.Categories[category] = earned
	}
	return summary, rows.Err()
}

func (r *Repo) ListTransactions(ctx context.Context, userID string, limit int) ([]models.XpTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.Pool.Query(ctx, `SELECT id, user_id, category, amount, kind, source, program_run_id, reward_redemption_id, created_at
		FROM xp_transactions WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []models.XpTransaction
	for rows.Next() {
		var t models.XpTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Category, &t.Amount, &t.Kind, &t.Source, &t.ProgramRunID, &t.RewardRedemptionID, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// --- program runs ---

// CreateProgramRun records a completed run and its earn transaction in one
// database transaction. A run must never exist without its ledger entry.
func (r *Repo) CreateProgramRun(ctx context.Context, programID, userID, mode, category string, xpEarned int, answers []byte) (string, error) {
	if xpEarned <= 0 || category == "" {
		return "", ErrValidation
	}
	if len(answers) == 0 {
		answers = []byte("{}")
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var runID string
	if err := tx.QueryRow(ctx, `INSERT INTO program_runs (program_id, user_id, mode, xp_earned, answers)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`, programID, userID, mode, xpEarned, answers).Scan(&runID); err != nil {
		return "", err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO xp_transactions (user_id, category, amount, kind, source, program_run_id)
		VALUES ($1,$2,$3,$4,$5,$6)`, userID, category, xpEarned, models.KindEarn, models.SourceProgram, runID); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return runID, nil
}

func (r *Repo) ListProgramRuns(ctx context.Context, userID string, limit int) ([]models.ProgramRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.Pool.Query(ctx, `SELECT id, program_id, user_id, mode, xp_earned, answers, created_at
		FROM program_runs WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []models.ProgramRun
	for rows.Next() {
		var run models.ProgramRun
		if err := rows.Scan(&run.ID, &run.ProgramID, &run.UserID, &run.Mode, &run.XpEarned, &run.Answers, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- reward catalog ---

func (r *Repo) CreateReward(ctx context.Context, name, description string, cost int, active bool) (models.Reward, error) {
	if name == "" || cost <= 0 {
		return models.Reward{}, ErrValidation
	}
	var reward models.Reward
	err := r.Pool.QueryRow(ctx, `INSERT INTO rewards (name, description, cost, active) VALUES ($1,$2,$3,$4)
		RETURNING id, name, description, cost, active, created_at, updated_at`,
		name, description, cost, active).
		Scan(&reward.ID, &reward.Name, &reward.Description, &reward.Cost, &reward.Active, &reward.CreatedAt, &reward.UpdatedAt)
	return reward, err
}

func (r *Repo) GetReward(ctx context.Context, id string) (models.Reward, error) {
	var reward models.Reward
	err := r.Pool.QueryRow(ctx, `SELECT id, name, description, cost, active, created_at, updated_at
		FROM rewards WHERE id=$1 AND deleted_at IS NULL`, id).
		Scan(&reward.ID, &reward.Name, &reward.Description, &reward.Cost, &reward.Active, &reward.CreatedAt, &reward.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Reward{}, ErrNotFound
	}
	return reward, err
}

func (r *Repo) ListRewards(ctx context.Context) ([]models.Reward, error) {
	rows, err := r.Pool.Query(ctx, `SELECT id, name, description, cost, active, created_at, updated_at
		FROM rewards WHERE deleted_at IS NULL ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rewards []models.Reward
	for rows.Next() {
		var reward models.Reward
		if err := rows.Scan(&reward.ID, &reward.Name, &reward.Description, &reward.Cost, &reward.Active, &reward.CreatedAt, &reward.UpdatedAt); err != nil {
			return nil, err
		}
		rewards = append(rewards, reward)
	}
	return rewards, rows.Err()
}

func (r *Repo) UpdateRewardActive(ctx context.Context, id string, active bool) (models.Reward, error) {
	var reward models.Reward
	err := r.Pool.QueryRow(ctx, `UPDATE rewards SET active=$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL
		RETURNING id, name, description, cost, active, created_at, updated_at`, active, id).
		Scan(&reward.ID, &reward.Name, &reward.Description, &reward.Cost, &reward.Active, &reward.CreatedAt, &reward.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Reward{}, ErrNotFound
	}
	return reward, err
}

// DeleteReward removes a reward from the catalog. Soft delete keeps past
// redemptions and their ledger entries resolvable.
func (r *Repo) DeleteReward(ctx context.Context, id string) error {
	cmd, err := r.Pool.Exec(ctx, `UPDATE rewards SET deleted_at=now(), updated_at=now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- redemption state machine ---

// RedeemReward claims an active reward for userID. The availability check and
// the deactivation are one conditional UPDATE, so two concurrent calls on the
// same reward resolve to exactly one winner; the loser gets ErrConflict.
// The spend is booked even if it drives the balance negative: availability is
// gated by the active flag, not by balance.
func (r *Repo) RedeemReward(ctx context.Context, rewardID, userID string) (string, error) {
	if rewardID == "" {
		return "", ErrValidation
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var cost int
	err = tx.QueryRow(ctx, `UPDATE rewards SET active=false, updated_at=now()
		WHERE id=$1 AND active=true AND deleted_at IS NULL
		RETURNING cost`, rewardID).Scan(&cost)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if checkErr := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM rewards WHERE id=$1 AND deleted_at IS NULL)`, rewardID).Scan(&exists); checkErr != nil {
			return "", checkErr
		}
		if !exists {
			return "", ErrNotFound
		}
		return "", ErrConflict
	}
	if err != nil {
		return "", err
	}

	var redemptionID string
	if err := tx.QueryRow(ctx, `INSERT INTO reward_redemptions (reward_id, user_id, status)
		VALUES ($1, $2, $3) RETURNING id`, rewardID, userID, models.RedemptionPending).Scan(&redemptionID); err != nil {
		return "", err
	}
	// Reward spends are always booked against the "mind" category, matching
	// the historical ledger data.
	if _, err := tx.Exec(ctx, `INSERT INTO xp_transactions (user_id, category, amount, kind, source, reward_redemption_id)
		VALUES ($1, 'mind', $2, $3, $4, $5)`, userID, -cost, models.KindSpend, models.SourceReward, redemptionID); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return redemptionID, nil
}

// RelistReward reopens a reward for the next redeemer. The reactivation is
// unconditional and therefore idempotent. When redemptionID is given, that
// redemption is approved and stamped. The original spend transaction stays on
// the ledger either way.
func (r *Repo) RelistReward(ctx context.Context, rewardID string, redemptionID *string) (models.Reward, error) {
	if rewardID == "" {
		return models.Reward{}, ErrValidation
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return models.Reward{}, err
	}
	defer tx.Rollback(ctx)

	var reward models.Reward
	err = tx.QueryRow(ctx, `UPDATE rewards SET active=true, updated_at=now() WHERE id=$1 AND deleted_at IS NULL
		RETURNING id, name, description, cost, active, created_at, updated_at`, rewardID).
		Scan(&reward.ID, &reward.Name, &reward.Description, &reward.Cost, &reward.Active, &reward.CreatedAt, &reward.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Reward{}, ErrNotFound
	}
	if err != nil {
		return models.Reward{}, err
	}

	if redemptionID != nil {
		cmd, err := tx.Exec(ctx, `UPDATE reward_redemptions SET status=$1, resolved_at=now() WHERE id=$2`,
			models.RedemptionApproved, *redemptionID)
		if err != nil {
			return models.Reward{}, err
		}
		if cmd.RowsAffected() == 0 {
			return models.Reward{}, ErrNotFound
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Reward{}, err
	}
	return reward, nil
}

func (r *Repo) GetRedemption(ctx context.Context, id string) (models.RewardRedemption, error) {
	var red models.RewardRedemption
	err := r.Pool.QueryRow(ctx, `SELECT id, reward_id, user_id, status, requested_at, resolved_at
		FROM reward_redemptions WHERE id=$1`, id).
		Scan(&red.ID, &red.RewardID, &red.UserID, &red.Status, &red.RequestedAt, &red.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RewardRedemption{}, ErrNotFound
	}
	return red, err
}

func (r *Repo) ListRedemptions(ctx context.Context, limit int) ([]models.RewardRedemption, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.Pool.Query(ctx, `SELECT rr.id, rr.reward_id, rw.name, rr.user_id, rr.status, rr.requested_at, rr.resolved_at
		FROM reward_redemptions rr
		JOIN rewards rw ON rw.id = rr.reward_id
		ORDER BY rr.requested_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var redemptions []models.RewardRedemption
	for rows.Next() {
		var red models.RewardRedemption
		if err := rows.Scan(&red.ID, &red.RewardID, &red.RewardName, &red.UserID, &red.Status, &red.RequestedAt, &red.ResolvedAt); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, red)
	}
	return redemptions, rows.Err()
}
