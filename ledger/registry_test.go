package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Asabi89/ken/models"
)

func TestListAvailableFilters(t *testing.T) {
	engine, db := newTestEngine(t)
	registry := NewRegistry(db)
	ctx := context.Background()
	userID := seedUser(t, db, "browser")

	visible := seedTask(t, db, models.TaskTypeWatch, 100, 10)
	completed := seedTask(t, db, models.TaskTypeWatch, 100, 10)
	full := seedTask(t, db, models.TaskTypeWatch, 100, 1)
	paused := seedTask(t, db, models.TaskTypeWatch, 100, 10)

	if _, err := engine.RecordDirectEarning(ctx, userID, completed); err != nil {
		t.Fatalf("complete: %v", err)
	}
	other := seedUser(t, db, "other")
	if _, err := engine.RecordDirectEarning(ctx, other, full); err != nil {
		t.Fatalf("fill: %v", err)
	}
	db.Model(&models.Task{}).Where("id = ?", paused).Update("status", models.TaskStatusPaused)

	past := time.Now().Add(-time.Hour)
	expired := models.Task{
		Title: "stale", TaskType: models.TaskTypeWatch, Category: "video",
		VideoURL: "https://video.example/watch/9", Points: 100,
		CFAValue: PointsToCFA(100), Status: models.TaskStatusActive,
		MaxCompletions: 10, CreatedBy: 1, ExpiresAt: &past,
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	tasks, total, err := registry.ListAvailable(ctx, userID, "", 1, 12)
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if total != 1 || len(tasks) != 1 {
		t.Fatalf("expected exactly 1 available task, got total=%d len=%d", total, len(tasks))
	}
	if tasks[0].ID != visible {
		t.Fatalf("expected task %d, got %d", visible, tasks[0].ID)
	}
}

func TestListAvailableHidesPendingSubmissions(t *testing.T) {
	engine, db := newTestEngine(t)
	registry := NewRegistry(db)
	ctx := context.Background()
	userID := seedUser(t, db, "submitter")
	taskID := seedTask(t, db, models.TaskTypeLike, 150, 10)

	if _, err := engine.RecordPendingSubmission(ctx, userID, taskID, "proofs/task-1/p.jpg"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// the slot is taken the moment the proof lands, verified or not
	_, total, err := registry.ListAvailable(ctx, userID, "", 1, 12)
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if total != 0 {
		t.Fatalf("pending submission must hide the task, got total=%d", total)
	}
}

func TestListAvailableCategoryAndPaging(t *testing.T) {
	_, db := newTestEngine(t)
	registry := NewRegistry(db)
	ctx := context.Background()
	userID := seedUser(t, db, "pager")

	for i := 0; i < 3; i++ {
		seedTask(t, db, models.TaskTypeWatch, 100, 10)
	}
	game := models.Task{
		Title: "arcade", TaskType: models.TaskTypeGame, Category: "game",
		VideoURL: "https://game.example/play/2", Points: 200,
		CFAValue: PointsToCFA(200), Status: models.TaskStatusActive,
		MaxCompletions: 10, CreatedBy: 1,
	}
	if err := db.Create(&game).Error; err != nil {
		t.Fatalf("seed game: %v", err)
	}

	tasks, total, err := registry.ListAvailable(ctx, userID, "game", 1, 12)
	if err != nil {
		t.Fatalf("category filter: %v", err)
	}
	if total != 1 || tasks[0].ID != game.ID {
		t.Fatalf("expected only the game task, got total=%d", total)
	}

	// "all" disables the filter
	_, total, err = registry.ListAvailable(ctx, userID, "all", 1, 12)
	if err != nil {
		t.Fatalf("all categories: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 tasks, got %d", total)
	}

	// newest first, two per page
	page1, _, err := registry.ListAvailable(ctx, userID, "", 1, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	page2, _, err := registry.ListAvailable(ctx, userID, "", 2, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page1) != 2 || len(page2) != 2 {
		t.Fatalf("expected 2+2 tasks, got %d+%d", len(page1), len(page2))
	}
	if page1[0].ID <= page1[1].ID || page1[1].ID <= page2[0].ID {
		t.Fatalf("expected strictly descending ids across pages")
	}
}

func TestRegistryGet(t *testing.T) {
	_, db := newTestEngine(t)
	registry := NewRegistry(db)
	ctx := context.Background()
	taskID := seedTask(t, db, models.TaskTypeWatch, 100, 10)

	task, err := registry.Get(ctx, taskID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if task.ID != taskID {
		t.Fatalf("expected task %d, got %d", taskID, task.ID)
	}

	_, err = registry.Get(ctx, 9999)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestHasCompleted(t *testing.T) {
	engine, db := newTestEngine(t)
	registry := NewRegistry(db)
	ctx := context.Background()
	userID := seedUser(t, db, "checker")
	taskID := seedTask(t, db, models.TaskTypeWatch, 100, 10)

	done, err := registry.HasCompleted(ctx, userID, taskID)
	if err != nil || done {
		t.Fatalf("expected not completed, got done=%v err=%v", done, err)
	}
	if _, err := engine.RecordDirectEarning(ctx, userID, taskID); err != nil {
		t.Fatalf("earn: %v", err)
	}
	done, err = registry.HasCompleted(ctx, userID, taskID)
	if err != nil || !done {
		t.Fatalf("expected completed, got done=%v err=%v", done, err)
	}
}
