package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/models"
)

func setupTestRepo(t *testing.T) (*Repo, func()) {
	_ = godotenv.Load("../../.env")
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	_, err = pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema))
	if err != nil {
		pool.Close()
		t.Fatalf("create schema: %v", err)
	}
	if err := createTestTables(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("create tables: %v", err)
	}
	repo := New(pool)
	return repo, func() {
		_, _ = pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA %s CASCADE", schema))
		pool.Close()
	}
}

func createTestTables(ctx context.Context, pool *pgxpool.Pool) error {
	queries := []string{
		`CREATE TABLE users (id uuid PRIMARY KEY DEFAULT gen_random_uuid(), email text UNIQUE NOT NULL, name text DEFAULT '', password_hash text DEFAULT '', created_at timestamptz DEFAULT now(), updated_at timestamptz DEFAULT now())`,
		`CREATE TABLE xp_transactions (id uuid PRIMARY KEY DEFAULT gen_random_uuid(), user_id uuid NOT NULL, category text NOT NULL, amount integer NOT NULL, kind text NOT NULL, source text NOT NULL, program_run_id uuid NULL, reward_redemption_id uuid NULL, created_at timestamptz DEFAULT now())`,
		`CREATE UNIQUE INDEX xp_tx_run_uniq ON xp_transactions (program_run_id) WHERE program_run_id IS NOT NULL`,
		`CREATE UNIQUE INDEX xp_tx_redemption_uniq ON xp_transactions (reward_redemption_id) WHERE reward_redemption_id IS NOT NULL`,
		`CREATE TABLE program_runs (id uuid PRIMARY KEY DEFAULT gen_random_uuid(), program_id text NOT NULL, user_id uuid NOT NULL, mode text NOT NULL, xp_earned integer NOT NULL, answers jsonb DEFAULT '{}'::jsonb, created_at timestamptz DEFAULT now())`,
		`CREATE TABLE rewards (id uuid PRIMARY KEY DEFAULT gen_random_uuid(), name text NOT NULL, description text DEFAULT '', cost integer NOT NULL, active boolean DEFAULT true, created_at timestamptz DEFAULT now(), updated_at timestamptz DEFAULT now(), deleted_at timestamptz NULL)`,
		`CREATE TABLE reward_redemptions (id uuid PRIMARY KEY DEFAULT gen_random_uuid(), reward_id uuid NOT NULL, user_id uuid NOT NULL, status text DEFAULT 'pending', requested_at timestamptz DEFAULT now(), resolved_at timestamptz NULL)`,
	}
	for _, query := range queries {
		if _, err := pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

func createTestUser(t *testing.T, repo *Repo, email string) string {
	t.Helper()
	user, err := repo.GetOrCreateUser(context.Background(), email, "Test")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func createTestReward(t *testing.T, repo *Repo, name string, cost int, active bool) string {
	t.Helper()
	reward, err := repo.CreateReward(context.Background(), name, "", cost, active)
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	return reward.ID
}

func earn(t *testing.T, repo *Repo, userID, category string, amount int) {
	t.Helper()
	_, err := repo.AppendTransaction(context.Background(), models.NewTransaction{
		UserID: userID, Category: category, Amount: amount, Kind: models.KindEarn, Source: models.SourceProgram,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestAppendTransactionValidation(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID := createTestUser(t, repo, "append@test.dev")

	_, err := repo.AppendTransaction(ctx, models.NewTransaction{UserID: userID, Category: "mind", Amount: 0, Kind: models.KindEarn, Source: models.SourceProgram})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("zero amount: expected ErrValidation, got %v", err)
	}
	_, err = repo.AppendTransaction(ctx, models.NewTransaction{UserID: userID, Category: "", Amount: 10, Kind: models.KindEarn, Source: models.SourceProgram})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("empty category: expected ErrValidation, got %v", err)
	}
}

func TestBalancesDerivedFromLedger(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID := createTestUser(t, repo, "balance@test.dev")

	earn(t, repo, userID, "mind", 100)
	earn(t, repo, userID, "body", 50)
	earn(t, repo, userID, "mind", -30)
	// A category that nets to zero must still show up.
	earn(t, repo, userID, "focus", 10)
	earn(t, repo, userID, "focus", -10)

	balance, err := repo.TotalBalance(ctx, userID)
	if err != nil {
		t.Fatalf("total balance: %v", err)
	}
	if balance != 120 {
		t.Fatalf("expected balance 120, got %d", balance)
	}

	categories, err := repo.CategoryBalances(ctx, userID)
	if err != nil {
		t.Fatalf("category balances: %v", err)
	}
	if categories["mind"] != 70 || categories["body"] != 50 {
		t.Fatalf("unexpected category sums: %v", categories)
	}
	if netZero, ok := categories["focus"]; !ok || netZero != 0 {
		t.Fatalf("net-zero category missing or wrong: %v", categories)
	}
}

func TestXpSummary(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID := createTestUser(t, repo, "summary@test.dev")

	earn(t, repo, userID, "mind", 100)
	earn(t, repo, userID, "body", 50)
	earn(t, repo, userID, "mind", -30)

	summary, err := repo.XpSummary(ctx, userID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Balance != 120 {
		t.Fatalf("expected balance 120, got %d", summary.Balance)
	}
	if summary.TotalEarned != 150 {
		t.Fatalf("expected total earned 150, got %d", summary.TotalEarned)
	}
	if summary.Categories["mind"] != 100 || summary.Categories["body"] != 50 {
		t.Fatalf("unexpected earned categories: %v", summary.Categories)
	}
}

func TestProgramRunCreatesLedgerEntry(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID := createTestUser(t, repo, "run@test.dev")

	runID, err := repo.CreateProgramRun(ctx, "mind-smart-goals", userID, "flow", "mind", 500, []byte(`{"note":"done"}`))
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	var txCount, amount int
	if err := repo.Pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(MAX(amount), 0) FROM xp_transactions WHERE program_run_id=$1`, runID).Scan(&txCount, &amount); err != nil {
		t.Fatalf("count run transactions: %v", err)
	}
	if txCount != 1 || amount != 500 {
		t.Fatalf("expected exactly one earn of 500, got count=%d amount=%d", txCount, amount)
	}

	balance, err := repo.TotalBalance(ctx, userID)
	if err != nil || balance != 500 {
		t.Fatalf("expected balance 500, got %d (err=%v)", balance, err)
	}

	runs, err := repo.ListProgramRuns(ctx, userID, 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one run, got %d (err=%v)", len(runs), err)
	}
	if runs[0].XpEarned != 500 || runs[0].Mode != "flow" {
		t.Fatalf("unexpected run: %+v", runs[0])
	}
}

func TestRedeemLifecycle(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID := createTestUser(t, repo, "redeem@test.dev")
	earn(t, repo, userID, "mind", 1200)
	rewardID := createTestReward(t, repo, "Kinoabend", 1000, true)

	redemptionID, err := repo.RedeemReward(ctx, rewardID, userID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}

	reward, err := repo.GetReward(ctx, rewardID)
	if err != nil || reward.Active {
		t.Fatalf("reward should be inactive after redeem: %+v err=%v", reward, err)
	}

	var txCount, amount int
	var category string
	if err := repo.Pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(MIN(amount), 0), COALESCE(MIN(category), '') FROM xp_transactions WHERE reward_redemption_id=$1`, redemptionID).Scan(&txCount, &amount, &category); err != nil {
		t.Fatalf("count redemption transactions: %v", err)
	}
	if txCount != 1 || amount != -1000 {
		t.Fatalf("expected exactly one spend of -1000, got count=%d amount=%d", txCount, amount)
	}
	if category != "mind" {
		t.Fatalf("reward spends are tagged mind, got %q", category)
	}

	balance, err := repo.TotalBalance(ctx, userID)
	if err != nil || balance != 200 {
		t.Fatalf("expected balance 200, got %d (err=%v)", balance, err)
	}

	if _, err := repo.RedeemReward(ctx, rewardID, userID); !errors.Is(err, ErrConflict) {
		t.Fatalf("second redeem: expected ErrConflict, got %v", err)
	}

	relisted, err := repo.RelistReward(ctx, rewardID, &redemptionID)
	if err != nil {
		t.Fatalf("relist: %v", err)
	}
	if !relisted.Active {
		t.Fatal("reward should be active after relist")
	}
	redemption, err := repo.GetRedemption(ctx, redemptionID)
	if err != nil {
		t.Fatalf("get redemption: %v", err)
	}
	if redemption.Status != models.RedemptionApproved || redemption.ResolvedAt == nil {
		t.Fatalf("redemption should be approved and stamped: %+v", redemption)
	}

	// Relist never reverses the spend.
	balance, err = repo.TotalBalance(ctx, userID)
	if err != nil || balance != 200 {
		t.Fatalf("balance must stay 200 after relist, got %d (err=%v)", balance, err)
	}
}

func TestRedeemUnknownReward(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID := createTestUser(t, repo, "unknown@test.dev")

	_, err := repo.RedeemReward(ctx, "00000000-0000-0000-0000-000000000000", userID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentRedeemSingleWinner(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userA := createTestUser(t, repo, "race-a@test.dev")
	userB := createTestUser(t, repo, "race-b@test.dev")
	rewardID := createTestReward(t, repo, "Freier Tag", 2500, true)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, userID := range []string{userA, userB} {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := repo.RedeemReward(ctx, rewardID, uid)
			results <- err
		}(userID)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected redeem error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("expected one winner and one conflict, got wins=%d conflicts=%d", wins, conflicts)
	}

	reward, err := repo.GetReward(ctx, rewardID)
	if err != nil || reward.Active {
		t.Fatalf("reward must end inactive: %+v err=%v", reward, err)
	}
	var pending int
	if err := repo.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM reward_redemptions WHERE reward_id=$1 AND status='pending'`, rewardID).Scan(&pending); err != nil {
		t.Fatalf("count redemptions: %v", err)
	}
	if pending != 1 {
		t.Fatalf("expected exactly one pending redemption, got %d", pending)
	}
}

func TestRelistIdempotentOnFlag(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	rewardID := createTestReward(t, repo, "Neue Uhr", 8000, false)

	for i := 0; i < 2; i++ {
		reward, err := repo.RelistReward(ctx, rewardID, nil)
		if err != nil {
			t.Fatalf("relist %d: %v", i+1, err)
		}
		if !reward.Active {
			t.Fatalf("relist %d: reward should be active", i+1)
		}
	}

	var txCount int
	if err := repo.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM xp_transactions`).Scan(&txCount); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if txCount != 0 {
		t.Fatalf("relist must not touch the ledger, found %d transactions", txCount)
	}
}

func TestRelistUnknownRedemptionRollsBack(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	rewardID := createTestReward(t, repo, "Spa Tag", 1200, false)

	bogus := "00000000-0000-0000-0000-000000000000"
	if _, err := repo.RelistReward(ctx, rewardID, &bogus); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// The failed relist must leave the reward untouched.
	reward, err := repo.GetReward(ctx, rewardID)
	if err != nil {
		t.Fatalf("get reward: %v", err)
	}
	if reward.Active {
		t.Fatal("failed relist must not activate the reward")
	}
}

func TestGetOrCreateUserIdempotent(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.GetOrCreateUser(ctx, "same@test.dev", "First")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := repo.GetOrCreateUser(ctx, "same@test.dev", "Second")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same user, got %s and %s", first.ID, second.ID)
	}
}

func TestDeletedRewardNotRedeemable(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID := createTestUser(t, repo, "deleted@test.dev")
	rewardID := createTestReward(t, repo, "Altes Ding", 100, true)

	if err := repo.DeleteReward(ctx, rewardID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.RedeemReward(ctx, rewardID, userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteReward(ctx, rewardID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}
