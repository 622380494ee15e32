package moderation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"appreview/internal/domain/catalog"
	"appreview/internal/domain/directory"
	"appreview/internal/domain/review"
	"appreview/internal/domain/sentiment"
	"appreview/internal/infrastructure/passwords"
	"appreview/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "appreview/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "appreview/internal/infrastructure/persistence/sqlite/uow"
	"appreview/internal/ports"
	directoryusecase "appreview/internal/usecase/directory"
)

type testMetrics struct {
	mu        sync.Mutex
	submitted int
	decided   map[string]int
	rejected  map[string]int
}

func newTestMetrics() *testMetrics {
	return &testMetrics{decided: map[string]int{}, rejected: map[string]int{}}
}

func (m *testMetrics) ReviewSubmitted(string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted++
}

func (m *testMetrics) ReviewDecided(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decided[status]++
}

func (m *testMetrics) OperationRejected(operation string, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[operation+":"+reason]++
}

func (m *testMetrics) SearchServed(string, int) {}

type fixture struct {
	svc     *Service
	dirSvc  *directoryusecase.Service
	users   *sqliterepo.UserRepository
	catalog *sqliterepo.CatalogRepository
	reviews *sqliterepo.ReviewRepository
	metrics *testMetrics

	supervisor directory.User
	outsider   directory.User
	employee   directory.User
	orphan     directory.User
	entry      catalog.Entry
}

func setupService(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "moderation.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	f := &fixture{
		users:   sqliterepo.NewUserRepository(db),
		catalog: sqliterepo.NewCatalogRepository(db),
		reviews: sqliterepo.NewReviewRepository(db),
		metrics: newTestMetrics(),
	}
	uow := sqliteuow.NewUnitOfWork(db)
	f.dirSvc = directoryusecase.NewService(sqliterepo.NewDirectoryRepository(db), f.users, uow, passwords.NewBcryptHasher(bcrypt.MinCost))
	f.svc = NewService(f.catalog, f.reviews, f.users, f.dirSvc, uow, sentiment.NewScorer(nil), f.metrics)

	ctx := context.Background()
	f.supervisor = f.createUser(t, "supervisor1", "John Manager")
	f.outsider = f.createUser(t, "supervisor2", "")
	f.employee = f.createUser(t, "employee1", "Alice Johnson")
	f.orphan = f.createUser(t, "orphan", "")

	for _, id := range []uint64{f.supervisor.ID, f.outsider.ID} {
		if err := f.dirSvc.SetSupervisorFlag(ctx, id, true); err != nil {
			t.Fatalf("SetSupervisorFlag() error = %v", err)
		}
	}
	if err := f.dirSvc.AssignSupervisor(ctx, f.employee.ID, f.supervisor.ID); err != nil {
		t.Fatalf("AssignSupervisor() error = %v", err)
	}

	entry, _, err := f.catalog.GetOrCreateEntry(ctx, catalog.Entry{Name: "Photo Editor", Category: "PHOTOGRAPHY"})
	if err != nil {
		t.Fatalf("GetOrCreateEntry() error = %v", err)
	}
	f.entry = entry
	return f
}

func (f *fixture) createUser(t *testing.T, username string, fullName string) directory.User {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), directory.User{Username: username, FullName: fullName, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser(%q) error = %v", username, err)
	}
	return user
}

func (f *fixture) submit(t *testing.T, body string, rating int) review.Record {
	t.Helper()
	submitted, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
		AuthorID: f.employee.ID,
		EntryID:  f.entry.ID,
		Body:     body,
		Rating:   rating,
	})
	if err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}
	return submitted.Review
}

func (f *fixture) countReviews(t *testing.T) int {
	t.Helper()
	all, err := f.reviews.ListForRescore(context.Background(), false, 0)
	if err != nil {
		t.Fatalf("ListForRescore() error = %v", err)
	}
	return len(all)
}

func TestSubmitReviewStoresPendingWithSentiment(t *testing.T) {
	f := setupService(t)

	submitted, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
		AuthorID: f.employee.ID,
		EntryID:  f.entry.ID,
		Body:     "Amazing app, works perfectly!",
		Rating:   1,
	})
	if err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}

	if submitted.SupervisorName != "John Manager" {
		t.Fatalf("SupervisorName = %q", submitted.SupervisorName)
	}
	rec := submitted.Review
	if rec.ID == 0 || rec.Status != review.StatusPending {
		t.Fatalf("review = %+v", rec)
	}
	if rec.ApprovedBy != nil || rec.ApprovedAt != nil {
		t.Fatalf("pending review must not carry decision fields: %+v", rec)
	}
	if rec.Sentiment == nil || !rec.Sentiment.Contradiction {
		t.Fatalf("sentiment = %+v, want contradiction", rec.Sentiment)
	}
	if f.metrics.submitted != 1 {
		t.Fatalf("metrics submitted = %d", f.metrics.submitted)
	}
}

func TestSubmitReviewPreconditionOrder(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input SubmitReviewInput
		want  error
	}{
		{"anonymous", SubmitReviewInput{EntryID: f.entry.ID, Rating: 9}, review.ErrNotAuthenticated},
		{"no supervisor beats bad rating", SubmitReviewInput{AuthorID: f.orphan.ID, EntryID: 999, Rating: 9}, review.ErrNoSupervisorAssigned},
		{"bad rating beats missing entry", SubmitReviewInput{AuthorID: f.employee.ID, EntryID: 999, Rating: 0}, review.ErrInvalidRating},
		{"missing entry", SubmitReviewInput{AuthorID: f.employee.ID, EntryID: 999, Rating: 3}, ports.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SubmitReview(ctx, tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("SubmitReview() error = %v, want %v", err, tc.want)
			}
		})
	}

	if n := f.countReviews(t); n != 0 {
		t.Fatalf("refused submissions stored %d reviews", n)
	}
	if f.metrics.rejected["submit:no_supervisor"] != 1 {
		t.Fatalf("rejected metrics = %v", f.metrics.rejected)
	}
}

func TestActOnReviewOnlyDesignatedSupervisor(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	rec := f.submit(t, "This app is terrible and crashes constantly!", 1)

	for _, actor := range []uint64{f.outsider.ID, f.employee.ID, f.orphan.ID} {
		_, err := f.svc.ActOnReview(ctx, ActInput{ActorID: actor, ReviewID: rec.ID, Action: "approve"})
		if !errors.Is(err, review.ErrUnauthorizedApprover) {
			t.Fatalf("ActOnReview(actor=%d) error = %v, want ErrUnauthorizedApprover", actor, err)
		}
	}

	stored, err := f.reviews.GetReview(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetReview() error = %v", err)
	}
	if stored.Status != review.StatusPending || stored.ApprovedBy != nil {
		t.Fatalf("unauthorized attempts changed review: %+v", stored)
	}

	decided, err := f.svc.ActOnReview(ctx, ActInput{ActorID: f.supervisor.ID, ReviewID: rec.ID, Action: "reject"})
	if err != nil {
		t.Fatalf("ActOnReview() error = %v", err)
	}
	if decided.Status != review.StatusRejected || decided.ApprovedBy == nil || *decided.ApprovedBy != f.supervisor.ID || decided.ApprovedAt == nil {
		t.Fatalf("decided = %+v", decided)
	}

	_, err = f.svc.ActOnReview(ctx, ActInput{ActorID: f.supervisor.ID, ReviewID: rec.ID, Action: "approve"})
	if !errors.Is(err, review.ErrAlreadyDecided) {
		t.Fatalf("ActOnReview() again error = %v, want ErrAlreadyDecided", err)
	}

	// outsiders are refused before the terminal state is revealed
	_, err = f.svc.ActOnReview(ctx, ActInput{ActorID: f.outsider.ID, ReviewID: rec.ID, Action: "approve"})
	if !errors.Is(err, review.ErrUnauthorizedApprover) {
		t.Fatalf("ActOnReview(outsider, decided) error = %v", err)
	}

	if f.metrics.decided["rejected"] != 1 {
		t.Fatalf("decided metrics = %v", f.metrics.decided)
	}
}

func TestActOnReviewValidatesActionAndReview(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	rec := f.submit(t, "fine", 3)

	if _, err := f.svc.ActOnReview(ctx, ActInput{ActorID: f.supervisor.ID, ReviewID: rec.ID, Action: "escalate"}); !errors.Is(err, review.ErrInvalidAction) {
		t.Fatalf("ActOnReview(escalate) error = %v", err)
	}
	if _, err := f.svc.ActOnReview(ctx, ActInput{ActorID: f.supervisor.ID, ReviewID: 999, Action: "approve"}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("ActOnReview(missing) error = %v", err)
	}
	if _, err := f.svc.ActOnReview(ctx, ActInput{ReviewID: rec.ID, Action: "approve"}); !errors.Is(err, review.ErrNotAuthenticated) {
		t.Fatalf("ActOnReview(anonymous) error = %v", err)
	}
}

func TestActOnReviewChecksCurrentSupervisorFlag(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	rec := f.submit(t, "good", 4)

	if err := f.dirSvc.SetSupervisorFlag(ctx, f.supervisor.ID, false); err != nil {
		t.Fatalf("SetSupervisorFlag() error = %v", err)
	}
	if _, err := f.svc.ActOnReview(ctx, ActInput{ActorID: f.supervisor.ID, ReviewID: rec.ID, Action: "approve"}); !errors.Is(err, review.ErrUnauthorizedApprover) {
		t.Fatalf("ActOnReview(demoted) error = %v", err)
	}
}

func TestDashboardAndVisibility(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	f.svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first := f.submit(t, "good", 4)
	second := f.submit(t, "bad", 2)
	third := f.submit(t, "nice", 5)

	dash, err := f.svc.Dashboard(ctx, f.supervisor.ID)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if dash.SupervisedCount != 1 || len(dash.Pending) != 3 {
		t.Fatalf("Dashboard() = %+v", dash)
	}
	if dash.Pending[0].Review.ID != third.ID || dash.Pending[0].EntryName != "Photo Editor" || dash.Pending[0].Author.Username != "employee1" {
		t.Fatalf("Dashboard() first pending = %+v", dash.Pending[0])
	}

	other, err := f.svc.Dashboard(ctx, f.outsider.ID)
	if err != nil || len(other.Pending) != 0 || other.SupervisedCount != 0 {
		t.Fatalf("Dashboard(outsider) = %+v, %v", other, err)
	}
	if _, err := f.svc.Dashboard(ctx, f.employee.ID); !errors.Is(err, review.ErrUnauthorizedApprover) {
		t.Fatalf("Dashboard(employee) error = %v", err)
	}

	for _, item := range []struct {
		id     uint64
		action string
	}{{first.ID, "approve"}, {second.ID, "reject"}, {third.ID, "approve"}} {
		if _, err := f.svc.ActOnReview(ctx, ActInput{ActorID: f.supervisor.ID, ReviewID: item.id, Action: item.action}); err != nil {
			t.Fatalf("ActOnReview() error = %v", err)
		}
	}

	detail, err := f.svc.EntryDetail(ctx, f.entry.ID, f.employee.ID)
	if err != nil {
		t.Fatalf("EntryDetail() error = %v", err)
	}
	if len(detail.ApprovedReviews) != 2 {
		t.Fatalf("EntryDetail() approved = %d, want 2", len(detail.ApprovedReviews))
	}
	if detail.ApprovedReviews[0].Review.ID != third.ID || detail.ApprovedReviews[1].Review.ID != first.ID {
		t.Fatalf("approved order = %d, %d", detail.ApprovedReviews[0].Review.ID, detail.ApprovedReviews[1].Review.ID)
	}
	if detail.ApprovedReviews[0].AuthorName != "Alice Johnson" {
		t.Fatalf("author name = %q", detail.ApprovedReviews[0].AuthorName)
	}
	if !detail.ViewerHasSupervisor || detail.SupervisorName != "John Manager" {
		t.Fatalf("viewer fields = %v, %q", detail.ViewerHasSupervisor, detail.SupervisorName)
	}

	anon, err := f.svc.EntryDetail(ctx, f.entry.ID, 0)
	if err != nil || anon.ViewerHasSupervisor || anon.SupervisorName != "" {
		t.Fatalf("EntryDetail(anonymous) = %+v, %v", anon, err)
	}

	dash, err = f.svc.Dashboard(ctx, f.supervisor.ID)
	if err != nil || len(dash.Pending) != 0 {
		t.Fatalf("Dashboard() after decisions = %+v, %v", dash, err)
	}
}

type constantScorer struct{ label sentiment.Label }

func (c constantScorer) Score(string, int) sentiment.Result {
	return sentiment.Result{Label: c.label}
}

func TestRescoreReviewsKeepsStatus(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	rec := f.submit(t, "good", 4)
	if _, err := f.svc.ActOnReview(ctx, ActInput{ActorID: f.supervisor.ID, ReviewID: rec.ID, Action: "approve"}); err != nil {
		t.Fatalf("ActOnReview() error = %v", err)
	}

	f.svc.scorer = constantScorer{label: sentiment.LabelNeutral}
	n, err := f.svc.RescoreReviews(ctx, RescoreInput{})
	if err != nil || n != 1 {
		t.Fatalf("RescoreReviews() = %d, %v", n, err)
	}

	stored, err := f.reviews.GetReview(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetReview() error = %v", err)
	}
	if stored.Status != review.StatusApproved || stored.Sentiment == nil || stored.Sentiment.Label != sentiment.LabelNeutral {
		t.Fatalf("stored = %+v", stored)
	}

	n, err = f.svc.RescoreReviews(ctx, RescoreInput{OnlyUnscored: true})
	if err != nil || n != 0 {
		t.Fatalf("RescoreReviews(only unscored) = %d, %v", n, err)
	}
}

func TestReviewHistoryRecordsTrail(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	rec := f.submit(t, "Solid editor", 4)

	if _, err := f.svc.ActOnReview(ctx, ActInput{ActorID: f.outsider.ID, ReviewID: rec.ID, Action: "approve"}); !errors.Is(err, review.ErrUnauthorizedApprover) {
		t.Fatalf("ActOnReview(outsider) error = %v", err)
	}
	if _, err := f.svc.ActOnReview(ctx, ActInput{ActorID: f.supervisor.ID, ReviewID: rec.ID, Action: "approve"}); err != nil {
		t.Fatalf("ActOnReview() error = %v", err)
	}

	history, err := f.svc.ReviewHistory(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ReviewHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("ReviewHistory() = %+v, want 2 events", history)
	}
	if history[0].Kind != review.EventSubmitted || history[0].ActorID != f.employee.ID || history[0].Note != "sent to supervisor1" {
		t.Fatalf("first event = %+v", history[0])
	}
	if history[1].Kind != review.EventApproved || history[1].ActorID != f.supervisor.ID {
		t.Fatalf("second event = %+v", history[1])
	}

	if _, err := f.svc.ReviewHistory(ctx, 9999); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("ReviewHistory(unknown) error = %v, want ErrNotFound", err)
	}

	second := f.submit(t, "Crashes a lot", 2)
	page, err := f.svc.EventsAfter(ctx, history[1].ID, 10)
	if err != nil {
		t.Fatalf("EventsAfter() error = %v", err)
	}
	if len(page) != 1 || page[0].ReviewID != second.ID || page[0].Kind != review.EventSubmitted {
		t.Fatalf("EventsAfter() = %+v", page)
	}

	limited, err := f.svc.EventsAfter(ctx, 0, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("EventsAfter(limit 2) = %+v, %v", limited, err)
	}

	cursor, err := f.svc.EventCursor(ctx)
	if err != nil || cursor != page[0].ID {
		t.Fatalf("EventCursor() = %d, %v, want %d", cursor, err, page[0].ID)
	}
}
