package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Asabi89/ken/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/ledger_test.db"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db handle: %v", err)
	}
	// sqlite has a single writer; serialize connections so concurrent
	// transactions queue instead of failing with a busy error
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.InfluencerProfile{},
		&models.Task{},
		&models.TaskCompletion{},
		&models.Transaction{},
		&models.EmailVerification{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testConfig() Config {
	return Config{
		MinWithdrawalCFA: decimal.NewFromInt(50),
		OTPTTL:           10 * time.Minute,
	}
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewEngine(db, testConfig()), db
}

func seedUser(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Password: "x", Role: "user"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := db.Create(&models.UserProfile{UserID: user.ID}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return user.ID
}

func seedTask(t *testing.T, db *gorm.DB, taskType string, points, maxCompletions int) uint {
	t.Helper()
	task := models.Task{
		Title:          "test " + taskType,
		TaskType:       taskType,
		Category:       "video",
		VideoURL:       "https://video.example/watch/1",
		Points:         points,
		CFAValue:       PointsToCFA(points),
		Status:         models.TaskStatusActive,
		MaxCompletions: maxCompletions,
		CreatedBy:      1,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task.ID
}

func loadProfile(t *testing.T, db *gorm.DB, userID uint) models.UserProfile {
	t.Helper()
	var profile models.UserProfile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	return profile
}

func TestRecordDirectEarningCredits(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "watcher")
	taskID := seedTask(t, db, models.TaskTypeWatch, 100, 10)

	completion, err := engine.RecordDirectEarning(ctx, userID, taskID)
	if err != nil {
		t.Fatalf("RecordDirectEarning: %v", err)
	}
	if !completion.IsVerified {
		t.Fatalf("direct completion must be verified immediately")
	}
	if completion.PointsEarned != 100 {
		t.Fatalf("expected 100 points snapshot, got %d", completion.PointsEarned)
	}

	profile := loadProfile(t, db, userID)
	if profile.TotalPoints != 100 {
		t.Fatalf("expected 100 total points, got %d", profile.TotalPoints)
	}
	want := decimal.RequireFromString("0.50")
	if !profile.AvailableBalanceCFA.Equal(want) {
		t.Fatalf("expected balance %s, got %s", want, profile.AvailableBalanceCFA)
	}
	if !profile.TotalEarnedCFA.Equal(want) {
		t.Fatalf("expected total earned %s, got %s", want, profile.TotalEarnedCFA)
	}

	var task models.Task
	db.First(&task, taskID)
	if task.CurrentCompletions != 1 {
		t.Fatalf("expected counter 1, got %d", task.CurrentCompletions)
	}

	var trxCount int64
	db.Model(&models.Transaction{}).
		Where("user_id = ? AND transaction_type = ?", userID, models.TransactionTypeEarning).
		Count(&trxCount)
	if trxCount != 1 {
		t.Fatalf("expected 1 earning transaction, got %d", trxCount)
	}
}

func TestRecordDirectEarningRejectsProofTask(t *testing.T) {
	engine, db := newTestEngine(t)
	userID := seedUser(t, db, "liker")
	taskID := seedTask(t, db, models.TaskTypeLike, 150, 10)

	_, err := engine.RecordDirectEarning(context.Background(), userID, taskID)
	if !errors.Is(err, ErrProofRequired) {
		t.Fatalf("expected ErrProofRequired, got %v", err)
	}
	if loadProfile(t, db, userID).TotalPoints != 0 {
		t.Fatalf("failed attempt must not credit")
	}
}

func TestRecordDirectEarningDuplicate(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "repeat")
	taskID := seedTask(t, db, models.TaskTypeWatch, 100, 10)

	if _, err := engine.RecordDirectEarning(ctx, userID, taskID); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	_, err := engine.RecordDirectEarning(ctx, userID, taskID)
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}

	// the rolled-back duplicate must not leak a counter increment or credit
	var task models.Task
	db.First(&task, taskID)
	if task.CurrentCompletions != 1 {
		t.Fatalf("expected counter 1 after rollback, got %d", task.CurrentCompletions)
	}
	if loadProfile(t, db, userID).TotalPoints != 100 {
		t.Fatalf("duplicate must not double-credit")
	}
}

func TestRecordDirectEarningUnknownTask(t *testing.T) {
	engine, db := newTestEngine(t)
	userID := seedUser(t, db, "lost")
	_, err := engine.RecordDirectEarning(context.Background(), userID, 9999)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestCapacityExhaustion(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	first := seedUser(t, db, "first")
	second := seedUser(t, db, "second")
	taskID := seedTask(t, db, models.TaskTypeWatch, 100, 1)

	if _, err := engine.RecordDirectEarning(ctx, first, taskID); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	_, err := engine.RecordDirectEarning(ctx, second, taskID)
	if !errors.Is(err, ErrTaskUnavailable) {
		t.Fatalf("expected ErrTaskUnavailable at capacity, got %v", err)
	}

	// status stays active; availability is the counter, not the status
	var task models.Task
	db.First(&task, taskID)
	if task.Status != models.TaskStatusActive {
		t.Fatalf("task at capacity must stay active, got %s", task.Status)
	}
}

func TestExpiredTaskUnavailable(t *testing.T) {
	engine, db := newTestEngine(t)
	userID := seedUser(t, db, "late")
	past := time.Now().Add(-time.Hour)
	task := models.Task{
		Title: "expired", TaskType: models.TaskTypeWatch, Category: "video",
		VideoURL: "https://video.example/watch/2", Points: 100,
		CFAValue: PointsToCFA(100), Status: models.TaskStatusActive,
		MaxCompletions: 10, CreatedBy: 1, ExpiresAt: &past,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed expired task: %v", err)
	}

	_, err := engine.RecordDirectEarning(context.Background(), userID, task.ID)
	if !errors.Is(err, ErrTaskUnavailable) {
		t.Fatalf("expected ErrTaskUnavailable for expired task, got %v", err)
	}
}

func TestPendingSubmissionDoesNotCredit(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "prover")
	taskID := seedTask(t, db, models.TaskTypeSubscribe, 150, 10)

	completion, err := engine.RecordPendingSubmission(ctx, userID, taskID, "proofs/task-1/a.jpg")
	if err != nil {
		t.Fatalf("RecordPendingSubmission: %v", err)
	}
	if completion.IsVerified {
		t.Fatalf("pending submission must not be verified")
	}

	profile := loadProfile(t, db, userID)
	if profile.TotalPoints != 0 || !profile.AvailableBalanceCFA.IsZero() {
		t.Fatalf("pending submission must not move money")
	}

	// capacity is consumed at submission, before any verification
	var task models.Task
	db.First(&task, taskID)
	if task.CurrentCompletions != 1 {
		t.Fatalf("expected counter 1 at submission, got %d", task.CurrentCompletions)
	}
}

func TestPendingSubmissionRequiresProofKey(t *testing.T) {
	engine, db := newTestEngine(t)
	userID := seedUser(t, db, "noproof")
	taskID := seedTask(t, db, models.TaskTypeLike, 150, 10)

	_, err := engine.RecordPendingSubmission(context.Background(), userID, taskID, "")
	if !errors.Is(err, ErrProofRequired) {
		t.Fatalf("expected ErrProofRequired for empty proof key, got %v", err)
	}
}

func TestPendingSubmissionRejectsDirectTask(t *testing.T) {
	engine, db := newTestEngine(t)
	userID := seedUser(t, db, "wrongtype")
	taskID := seedTask(t, db, models.TaskTypeWatch, 100, 10)

	_, err := engine.RecordPendingSubmission(context.Background(), userID, taskID, "proofs/task-1/b.jpg")
	if !errors.Is(err, ErrProofNotAccepted) {
		t.Fatalf("expected ErrProofNotAccepted, got %v", err)
	}
}

func TestApproveSubmissionCreditsSnapshotOnce(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "approved")
	reviewerID := seedUser(t, db, "reviewer")
	taskID := seedTask(t, db, models.TaskTypeQuestion, 150, 10)

	completion, err := engine.RecordPendingSubmission(ctx, userID, taskID, "proofs/task-1/c.jpg")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// the task's value changes after submission; the snapshot must win
	db.Model(&models.Task{}).Where("id = ?", taskID).Updates(map[string]interface{}{
		"points": 999, "cfa_value": decimal.RequireFromString("99.99"),
	})

	if err := engine.ApproveSubmission(ctx, completion.ID, reviewerID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	profile := loadProfile(t, db, userID)
	if profile.TotalPoints != 150 {
		t.Fatalf("expected snapshotted 150 points, got %d", profile.TotalPoints)
	}
	want := decimal.RequireFromString("0.70")
	if !profile.AvailableBalanceCFA.Equal(want) {
		t.Fatalf("expected snapshotted %s, got %s", want, profile.AvailableBalanceCFA)
	}

	// second approval is a no-op
	if err := engine.ApproveSubmission(ctx, completion.ID, reviewerID); err != nil {
		t.Fatalf("repeat approve: %v", err)
	}
	profile = loadProfile(t, db, userID)
	if profile.TotalPoints != 150 {
		t.Fatalf("repeat approval double-credited: %d points", profile.TotalPoints)
	}
	var trxCount int64
	db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&trxCount)
	if trxCount != 1 {
		t.Fatalf("expected 1 transaction, got %d", trxCount)
	}
}

func TestApproveSubmissionNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)
	err := engine.ApproveSubmission(context.Background(), 4242, 1)
	if !errors.Is(err, ErrCompletionNotFound) {
		t.Fatalf("expected ErrCompletionNotFound, got %v", err)
	}
}

func TestRejectSubmission(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "rejected")
	taskID := seedTask(t, db, models.TaskTypeLike, 150, 10)

	completion, err := engine.RecordPendingSubmission(ctx, userID, taskID, "proofs/task-1/d.jpg")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := engine.RejectSubmission(ctx, completion.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if loadProfile(t, db, userID).TotalPoints != 0 {
		t.Fatalf("rejection must not credit")
	}
	var count int64
	db.Model(&models.TaskCompletion{}).Where("id = ?", completion.ID).Count(&count)
	if count != 0 {
		t.Fatalf("rejected completion must be deleted")
	}

	// the consumed capacity slot is not restored
	var task models.Task
	db.First(&task, taskID)
	if task.CurrentCompletions != 1 {
		t.Fatalf("rejection must not restore the counter, got %d", task.CurrentCompletions)
	}
}

func TestRejectVerifiedSubmissionFails(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "settled")
	reviewerID := seedUser(t, db, "reviewer2")
	taskID := seedTask(t, db, models.TaskTypeLike, 150, 10)

	completion, err := engine.RecordPendingSubmission(ctx, userID, taskID, "proofs/task-1/e.jpg")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := engine.ApproveSubmission(ctx, completion.ID, reviewerID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	err = engine.RejectSubmission(ctx, completion.ID)
	if !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func setupVerifiedProfile(t *testing.T, db *gorm.DB, userID uint, balance string) {
	t.Helper()
	phone := "+22912345678"
	provider := "mtn"
	pin := "1234"
	err := db.Model(&models.UserProfile{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"phone_number":           phone,
		"mobile_money_provider":  provider,
		"withdrawal_pin":         pin,
		"is_email_verified":      true,
		"is_withdrawal_verified": true,
		"available_balance_cfa":  decimal.RequireFromString(balance),
	}).Error
	if err != nil {
		t.Fatalf("setup profile: %v", err)
	}
}

func TestRequestWithdrawalChecks(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "cashout")

	// no setup yet
	_, err := engine.RequestWithdrawal(ctx, userID, decimal.NewFromInt(60), "1234")
	if !errors.Is(err, ErrSetupIncomplete) {
		t.Fatalf("expected ErrSetupIncomplete, got %v", err)
	}

	setupVerifiedProfile(t, db, userID, "100.00")

	// wrong pin
	_, err = engine.RequestWithdrawal(ctx, userID, decimal.NewFromInt(60), "9999")
	if !errors.Is(err, ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin, got %v", err)
	}

	// below minimum
	_, err = engine.RequestWithdrawal(ctx, userID, decimal.NewFromInt(40), "1234")
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}

	// over balance
	_, err = engine.RequestWithdrawal(ctx, userID, decimal.NewFromInt(150), "1234")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// every failed attempt leaves the balance untouched
	profile := loadProfile(t, db, userID)
	if !profile.AvailableBalanceCFA.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("failed attempts must not move money, balance=%s", profile.AvailableBalanceCFA)
	}

	trx, err := engine.RequestWithdrawal(ctx, userID, decimal.NewFromInt(60), "1234")
	if err != nil {
		t.Fatalf("RequestWithdrawal: %v", err)
	}
	if trx.Status != models.TransactionStatusPending {
		t.Fatalf("expected pending withdrawal, got %s", trx.Status)
	}
	if trx.PhoneNumber == nil || *trx.PhoneNumber != "+22912345678" {
		t.Fatalf("withdrawal must carry the payout destination")
	}

	profile = loadProfile(t, db, userID)
	if !profile.AvailableBalanceCFA.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("expected balance 40.00 after debit, got %s", profile.AvailableBalanceCFA)
	}
	// total earned is lifetime stats, not touched by withdrawal
	if !profile.TotalEarnedCFA.IsZero() {
		t.Fatalf("withdrawal must not change total earned")
	}
}

func TestSettleWithdrawalApprove(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "payee")
	setupVerifiedProfile(t, db, userID, "100.00")

	trx, err := engine.RequestWithdrawal(ctx, userID, decimal.NewFromInt(60), "1234")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	settled, err := engine.SettleWithdrawal(ctx, trx.ID, 7, true)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.Status != models.TransactionStatusApproved {
		t.Fatalf("expected approved, got %s", settled.Status)
	}
	if settled.ProcessedBy == nil || *settled.ProcessedBy != 7 {
		t.Fatalf("expected processed_by=7")
	}

	// approval never refunds
	profile := loadProfile(t, db, userID)
	if !profile.AvailableBalanceCFA.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("approval must not change the balance, got %s", profile.AvailableBalanceCFA)
	}

	// settling twice fails
	_, err = engine.SettleWithdrawal(ctx, trx.ID, 7, false)
	if !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
}

func TestSettleWithdrawalRejectRefunds(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "refunded")
	setupVerifiedProfile(t, db, userID, "100.00")

	trx, err := engine.RequestWithdrawal(ctx, userID, decimal.NewFromInt(60), "1234")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	settled, err := engine.SettleWithdrawal(ctx, trx.ID, 7, false)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.Status != models.TransactionStatusRejected {
		t.Fatalf("expected rejected, got %s", settled.Status)
	}

	profile := loadProfile(t, db, userID)
	if !profile.AvailableBalanceCFA.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("rejection must refund the full amount, got %s", profile.AvailableBalanceCFA)
	}
}

func TestSettleWithdrawalIgnoresEarnings(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "earner")
	taskID := seedTask(t, db, models.TaskTypeWatch, 100, 10)
	if _, err := engine.RecordDirectEarning(ctx, userID, taskID); err != nil {
		t.Fatalf("earn: %v", err)
	}

	var earning models.Transaction
	if err := db.Where("user_id = ?", userID).First(&earning).Error; err != nil {
		t.Fatalf("load earning: %v", err)
	}
	_, err := engine.SettleWithdrawal(ctx, earning.ID, 7, true)
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("settling an earning must fail with ErrTransactionNotFound, got %v", err)
	}
}

func seedInfluencer(t *testing.T, db *gorm.DB, username, budget string) uint {
	t.Helper()
	userID := seedUser(t, db, username)
	profile := models.InfluencerProfile{
		UserID:           userID,
		CompanyName:      username + " media",
		Status:           models.InfluencerStatusApproved,
		IsVerified:       true,
		BudgetLimitCFA:   decimal.RequireFromString(budget),
		TotalBudgetSpent: decimal.Zero,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed influencer: %v", err)
	}
	return userID
}

func TestCreateTaskReservesBudget(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	// budget fits exactly one 10-slot task at 0.50 each
	userID := seedInfluencer(t, db, "brand", "5.00")

	task := models.Task{
		Title: "campaign", TaskType: models.TaskTypeWatch, Category: "video",
		VideoURL: "https://video.example/watch/3", Points: 100, MaxCompletions: 10,
	}
	if err := engine.CreateTask(ctx, userID, &task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Status != models.TaskStatusActive {
		t.Fatalf("created task must be active")
	}
	// zero cfa_value derives from the points table: 100 -> 0.50
	if !task.CFAValue.Equal(decimal.RequireFromString("0.50")) {
		t.Fatalf("expected derived value 0.50, got %s", task.CFAValue)
	}

	var profile models.InfluencerProfile
	db.Where("user_id = ?", userID).First(&profile)
	if !profile.TotalBudgetSpent.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("expected full reservation 5.00, got %s", profile.TotalBudgetSpent)
	}
	if profile.TotalTasksCreated != 1 {
		t.Fatalf("expected 1 task created, got %d", profile.TotalTasksCreated)
	}

	// second task cannot fit
	second := models.Task{
		Title: "campaign 2", TaskType: models.TaskTypeWatch, Category: "video",
		VideoURL: "https://video.example/watch/4", Points: 100, MaxCompletions: 1,
	}
	err := engine.CreateTask(ctx, userID, &second)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestCreateTaskUnlimitedBudget(t *testing.T) {
	engine, db := newTestEngine(t)
	userID := seedInfluencer(t, db, "bigbrand", "0")

	task := models.Task{
		Title: "huge campaign", TaskType: models.TaskTypeGame, Category: "game",
		VideoURL: "https://game.example/play/1", Points: 500, MaxCompletions: 100000,
	}
	if err := engine.CreateTask(context.Background(), userID, &task); err != nil {
		t.Fatalf("unlimited budget must always admit tasks: %v", err)
	}
}

func TestCreateTaskUnknownInfluencer(t *testing.T) {
	engine, db := newTestEngine(t)
	userID := seedUser(t, db, "plainuser")
	task := models.Task{
		Title: "nope", TaskType: models.TaskTypeWatch, Category: "video",
		VideoURL: "https://video.example/watch/5", Points: 100, MaxCompletions: 1,
	}
	err := engine.CreateTask(context.Background(), userID, &task)
	if !errors.Is(err, ErrInfluencerNotFound) {
		t.Fatalf("expected ErrInfluencerNotFound, got %v", err)
	}
}

func TestConcurrentCompletionCreditsOnce(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "racer")
	taskID := seedTask(t, db, models.TaskTypeWatch, 100, 100)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.RecordDirectEarning(ctx, userID, taskID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyCompleted):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly 1 winning completion, got %d", successes)
	}
	if duplicates != workers-1 {
		t.Fatalf("expected %d duplicates, got %d", workers-1, duplicates)
	}

	profile := loadProfile(t, db, userID)
	if profile.TotalPoints != 100 {
		t.Fatalf("race must credit exactly once, got %d points", profile.TotalPoints)
	}
	var task models.Task
	db.First(&task, taskID)
	if task.CurrentCompletions != 1 {
		t.Fatalf("race must consume exactly one slot, got %d", task.CurrentCompletions)
	}
}

func TestPointsToCFA(t *testing.T) {
	cases := []struct {
		points int
		want   string
	}{
		{100, "0.5"},
		{150, "0.7"},
		{200, "1"},
		{50, "0.25"},
		{0, "0"},
	}
	for _, c := range cases {
		got := PointsToCFA(c.points)
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Fatalf("PointsToCFA(%d) = %s, want %s", c.points, got, c.want)
		}
	}
}
