package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"appreview/internal/domain/catalog"
	"appreview/internal/domain/directory"
	"appreview/internal/domain/review"
	"appreview/internal/domain/sentiment"
	"appreview/internal/infrastructure/persistence/sqlite/model"
	"appreview/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "appreview.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func float(v float64) *float64 { return &v }

func TestCatalogSearchOrdersByRatingWithUnratedLast(t *testing.T) {
	repo := NewCatalogRepository(setupDB(t))
	ctx := context.Background()

	for _, entry := range []catalog.Entry{
		{Name: "Photo Lab", Category: "PHOTOGRAPHY", Rating: float(3.9)},
		{Name: "Snap Photo", Category: "PHOTOGRAPHY"},
		{Name: "Photo Editor Pro", Category: "PHOTOGRAPHY", Rating: float(4.6)},
		{Name: "Chess", Category: "GAME", Rating: float(4.9)},
	} {
		if _, _, err := repo.GetOrCreateEntry(ctx, entry); err != nil {
			t.Fatalf("GetOrCreateEntry(%q) error = %v", entry.Name, err)
		}
	}

	items, err := repo.SearchEntries(ctx, ports.CatalogSearchFilter{Query: "PHOTO"})
	if err != nil {
		t.Fatalf("SearchEntries() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("SearchEntries() len = %d, want 3", len(items))
	}
	want := []string{"Photo Editor Pro", "Photo Lab", "Snap Photo"}
	for i, name := range want {
		if items[i].Name != name {
			t.Fatalf("SearchEntries()[%d] = %q, want %q", i, items[i].Name, name)
		}
	}
}

func TestCatalogSearchEscapesWildcards(t *testing.T) {
	repo := NewCatalogRepository(setupDB(t))
	ctx := context.Background()

	if _, _, err := repo.GetOrCreateEntry(ctx, catalog.Entry{Name: "100% Free"}); err != nil {
		t.Fatalf("GetOrCreateEntry() error = %v", err)
	}
	if _, _, err := repo.GetOrCreateEntry(ctx, catalog.Entry{Name: "1000 Free"}); err != nil {
		t.Fatalf("GetOrCreateEntry() error = %v", err)
	}

	names, err := repo.SuggestNames(ctx, "100%", 10)
	if err != nil {
		t.Fatalf("SuggestNames() error = %v", err)
	}
	if len(names) != 1 || names[0] != "100% Free" {
		t.Fatalf("SuggestNames() = %v", names)
	}
}

func TestCatalogGetOrCreateIsIdempotent(t *testing.T) {
	repo := NewCatalogRepository(setupDB(t))
	ctx := context.Background()

	first, created, err := repo.GetOrCreateEntry(ctx, catalog.Entry{Name: "Notes", Category: "PRODUCTIVITY"})
	if err != nil || !created {
		t.Fatalf("GetOrCreateEntry() created = %v, err = %v", created, err)
	}
	second, created, err := repo.GetOrCreateEntry(ctx, catalog.Entry{Name: "Notes", Category: "OTHER"})
	if err != nil || created {
		t.Fatalf("GetOrCreateEntry() second created = %v, err = %v", created, err)
	}
	if second.ID != first.ID || second.Category != "PRODUCTIVITY" {
		t.Fatalf("GetOrCreateEntry() returned %+v, want existing %+v", second, first)
	}

	imported := catalog.ImportedReview{EntryID: first.ID, Text: "Handy", Sentiment: "Positive"}
	if ok, err := repo.GetOrCreateImportedReview(ctx, imported); err != nil || !ok {
		t.Fatalf("GetOrCreateImportedReview() = %v, %v", ok, err)
	}
	if ok, err := repo.GetOrCreateImportedReview(ctx, imported); err != nil || ok {
		t.Fatalf("GetOrCreateImportedReview() duplicate = %v, %v", ok, err)
	}

	if _, err := repo.GetEntry(ctx, 999); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetEntry() error = %v, want ErrNotFound", err)
	}
}

func TestReviewDecideIsConditionalOnPending(t *testing.T) {
	repo := NewReviewRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	result := sentiment.Score("good app", 4)
	created, err := repo.CreateReview(ctx, review.Record{
		EntryID:   1,
		AuthorID:  2,
		Body:      "good app",
		Rating:    4,
		Status:    review.StatusPending,
		CreatedAt: now,
		Sentiment: &result,
	})
	if err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}
	if created.Sentiment == nil || created.Sentiment.Label != result.Label {
		t.Fatalf("CreateReview() sentiment = %+v", created.Sentiment)
	}

	approved, err := review.Decide(created, review.ActionApprove, 3, now)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if err := repo.Decide(ctx, approved); err != nil {
		t.Fatalf("repo.Decide() error = %v", err)
	}

	rejected, _ := review.Decide(created, review.ActionReject, 3, now)
	if err := repo.Decide(ctx, rejected); !errors.Is(err, review.ErrAlreadyDecided) {
		t.Fatalf("repo.Decide() second error = %v, want ErrAlreadyDecided", err)
	}

	stored, err := repo.GetReview(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetReview() error = %v", err)
	}
	if stored.Status != review.StatusApproved || stored.ApprovedBy == nil || *stored.ApprovedBy != 3 || stored.ApprovedAt == nil {
		t.Fatalf("stored review = %+v", stored)
	}

	missing, _ := review.Decide(review.Record{ID: 404, Status: review.StatusPending}, review.ActionApprove, 3, now)
	if err := repo.Decide(ctx, missing); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("repo.Decide() missing error = %v, want ErrNotFound", err)
	}
}

func TestReviewListingsFilterStatusNewestFirst(t *testing.T) {
	repo := NewReviewRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	create := func(entryID, authorID uint64, status review.Status, offset time.Duration) review.Record {
		t.Helper()
		rec, err := repo.CreateReview(ctx, review.Record{
			EntryID:   entryID,
			AuthorID:  authorID,
			Body:      "text",
			Rating:    3,
			Status:    status,
			CreatedAt: base.Add(offset),
		})
		if err != nil {
			t.Fatalf("CreateReview() error = %v", err)
		}
		return rec
	}

	older := create(1, 10, review.StatusApproved, time.Minute)
	newer := create(1, 11, review.StatusApproved, time.Hour)
	create(1, 10, review.StatusRejected, 2*time.Hour)
	pendingOld := create(1, 10, review.StatusPending, 3*time.Hour)
	pendingNew := create(2, 11, review.StatusPending, 4*time.Hour)
	create(2, 12, review.StatusPending, 5*time.Hour)

	approved, err := repo.ListApprovedForEntry(ctx, 1)
	if err != nil {
		t.Fatalf("ListApprovedForEntry() error = %v", err)
	}
	if len(approved) != 2 || approved[0].ID != newer.ID || approved[1].ID != older.ID {
		t.Fatalf("ListApprovedForEntry() = %+v", approved)
	}

	pending, err := repo.ListPendingForAuthors(ctx, []uint64{10, 11})
	if err != nil {
		t.Fatalf("ListPendingForAuthors() error = %v", err)
	}
	if len(pending) != 2 || pending[0].ID != pendingNew.ID || pending[1].ID != pendingOld.ID {
		t.Fatalf("ListPendingForAuthors() = %+v", pending)
	}

	none, err := repo.ListPendingForAuthors(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Fatalf("ListPendingForAuthors(nil) = %v, %v", none, err)
	}
}

func TestReviewRescoreListingAndUpdate(t *testing.T) {
	repo := NewReviewRepository(setupDB(t))
	ctx := context.Background()

	rec, err := repo.CreateReview(ctx, review.Record{EntryID: 1, AuthorID: 1, Body: "meh", Rating: 2, Status: review.StatusPending, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}

	unscored, err := repo.ListForRescore(ctx, true, 0)
	if err != nil || len(unscored) != 1 {
		t.Fatalf("ListForRescore() = %v, %v", unscored, err)
	}

	if err := repo.UpdateSentiment(ctx, rec.ID, sentiment.Score(rec.Body, rec.Rating)); err != nil {
		t.Fatalf("UpdateSentiment() error = %v", err)
	}
	unscored, err = repo.ListForRescore(ctx, true, 0)
	if err != nil || len(unscored) != 0 {
		t.Fatalf("ListForRescore() after update = %v, %v", unscored, err)
	}

	if err := repo.UpdateSentiment(ctx, 999, sentiment.Score("", 3)); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("UpdateSentiment() error = %v, want ErrNotFound", err)
	}
}

func TestReviewEventsCursor(t *testing.T) {
	repo := NewReviewRepository(setupDB(t))
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	latest, err := repo.LatestEventID(ctx)
	if err != nil || latest != 0 {
		t.Fatalf("LatestEventID(empty) = %d, %v", latest, err)
	}

	for _, event := range []review.Event{
		{ReviewID: 1, ActorID: 10, Kind: review.EventSubmitted, CreatedAt: at},
		{ReviewID: 2, ActorID: 11, Kind: review.EventSubmitted, CreatedAt: at.Add(time.Minute)},
		{ReviewID: 1, ActorID: 20, Kind: review.EventApproved, CreatedAt: at.Add(2 * time.Minute)},
	} {
		if err := repo.AppendEvent(ctx, event); err != nil {
			t.Fatalf("AppendEvent() error = %v", err)
		}
	}

	trail, err := repo.ListReviewEvents(ctx, 1)
	if err != nil {
		t.Fatalf("ListReviewEvents() error = %v", err)
	}
	if len(trail) != 2 || trail[0].Kind != review.EventSubmitted || trail[1].Kind != review.EventApproved {
		t.Fatalf("ListReviewEvents() = %+v", trail)
	}
	if !trail[1].CreatedAt.Equal(at.Add(2 * time.Minute)) {
		t.Fatalf("CreatedAt = %v", trail[1].CreatedAt)
	}

	page, err := repo.ListEventsAfter(ctx, trail[0].ID, 1)
	if err != nil {
		t.Fatalf("ListEventsAfter() error = %v", err)
	}
	if len(page) != 1 || page[0].ReviewID != 2 {
		t.Fatalf("ListEventsAfter() = %+v", page)
	}

	rest, err := repo.ListEventsAfter(ctx, page[0].ID, 0)
	if err != nil || len(rest) != 1 || rest[0].ID != trail[1].ID {
		t.Fatalf("ListEventsAfter(rest) = %+v, %v", rest, err)
	}

	latest, err = repo.LatestEventID(ctx)
	if err != nil || latest != trail[1].ID {
		t.Fatalf("LatestEventID() = %d, %v, want %d", latest, err, trail[1].ID)
	}
}

func TestDirectoryUpsertAndSupervisedSet(t *testing.T) {
	db := setupDB(t)
	users := NewUserRepository(db)
	dir := NewDirectoryRepository(db)
	ctx := context.Background()

	boss, err := users.CreateUser(ctx, directory.User{Username: "boss", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	worker, err := users.CreateUser(ctx, directory.User{Username: "worker", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := users.CreateUser(ctx, directory.User{Username: "worker", PasswordHash: "y"}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("CreateUser() duplicate error = %v, want ErrConflict", err)
	}

	if _, found, err := dir.GetEntry(ctx, worker.ID); err != nil || found {
		t.Fatalf("GetEntry() found = %v, err = %v", found, err)
	}

	if err := dir.UpsertEntry(ctx, directory.Entry{UserID: boss.ID, IsSupervisor: true}); err != nil {
		t.Fatalf("UpsertEntry() error = %v", err)
	}
	if err := dir.UpsertEntry(ctx, directory.Entry{UserID: worker.ID, SupervisorID: &boss.ID}); err != nil {
		t.Fatalf("UpsertEntry() error = %v", err)
	}

	entry, found, err := dir.GetEntry(ctx, worker.ID)
	if err != nil || !found || !entry.ReportsTo(boss.ID) {
		t.Fatalf("GetEntry() = %+v, %v, %v", entry, found, err)
	}

	supervised, err := dir.ListSupervised(ctx, boss.ID)
	if err != nil {
		t.Fatalf("ListSupervised() error = %v", err)
	}
	if len(supervised) != 1 || supervised[0].Username != "worker" {
		t.Fatalf("ListSupervised() = %+v", supervised)
	}

	if err := dir.UpsertEntry(ctx, directory.Entry{UserID: worker.ID}); err != nil {
		t.Fatalf("UpsertEntry() clear error = %v", err)
	}
	entry, _, _ = dir.GetEntry(ctx, worker.ID)
	if entry.HasSupervisor() {
		t.Fatalf("supervisor should be cleared, got %+v", entry)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	repo := NewTokenRepository(setupDB(t))
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	if err := repo.CreateToken(ctx, ports.APIToken{TokenHash: "abc", UserID: 4, CreatedAt: time.Now(), ExpiresAt: &expires}); err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}
	token, err := repo.GetToken(ctx, "abc")
	if err != nil || token.UserID != 4 || token.ExpiresAt == nil {
		t.Fatalf("GetToken() = %+v, %v", token, err)
	}
	if err := repo.DeleteToken(ctx, "abc"); err != nil {
		t.Fatalf("DeleteToken() error = %v", err)
	}
	if _, err := repo.GetToken(ctx, "abc"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetToken() after delete error = %v", err)
	}
}
