package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"appreview/internal/domain/catalog"
	"appreview/internal/domain/review"
	"appreview/internal/domain/sentiment"
	"appreview/internal/usecase/directory"
	"appreview/internal/usecase/moderation"
)

func TestReviewDecisionFlags(t *testing.T) {
	t.Parallel()

	cmd := newReviewDecisionCmd("approve", review.ActionApprove)
	if err := cmd.ParseFlags([]string{"--supervisor", "supervisor1", "--review", "42"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	supervisor, _ := cmd.Flags().GetString("supervisor")
	if supervisor != "supervisor1" {
		t.Fatalf("supervisor = %q, want supervisor1", supervisor)
	}
	reviewID, _ := cmd.Flags().GetUint64("review")
	if reviewID != 42 {
		t.Fatalf("review = %d, want 42", reviewID)
	}
	if !strings.HasPrefix(cmd.Short, "Approve") {
		t.Fatalf("Short = %q", cmd.Short)
	}
}

func TestRootRegistersCommands(t *testing.T) {
	t.Parallel()

	for _, path := range [][]string{
		{"serve"},
		{"init-db"},
		{"seed"},
		{"review", "submit"},
		{"review", "approve"},
		{"review", "reject"},
		{"review", "pending"},
		{"review", "rescore"},
		{"review", "history"},
		{"review", "events"},
		{"directory", "assign"},
		{"directory", "promote"},
		{"directory", "show"},
		{"catalog", "import"},
		{"catalog", "search"},
		{"catalog", "suggest"},
		{"catalog", "show"},
		{"account", "register"},
		{"account", "login"},
		{"console", "supervisor"},
	} {
		found, _, err := rootCmd.Find(path)
		if err != nil || found == rootCmd {
			t.Fatalf("command %v not registered: %v", path, err)
		}
	}
}

func TestResolveBody(t *testing.T) {
	t.Parallel()

	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().String("body", "", "")
		cmd.Flags().String("body-file", "", "")
		return cmd
	}

	bodyFile := filepath.Join(t.TempDir(), "review.txt")
	if err := os.WriteFile(bodyFile, []byte("great app"), 0o644); err != nil {
		t.Fatalf("write body file: %v", err)
	}

	cmd := newCmd()
	_ = cmd.ParseFlags([]string{"--body-file", bodyFile})
	body, err := resolveBody(cmd, true)
	if err != nil || body != "great app" {
		t.Fatalf("resolveBody(file) = %q, %v", body, err)
	}

	cmd = newCmd()
	_ = cmd.ParseFlags([]string{"--body", "x", "--body-file", bodyFile})
	if _, err := resolveBody(cmd, false); err == nil {
		t.Fatalf("resolveBody(both) error = nil, want error")
	}

	cmd = newCmd()
	if _, err := resolveBody(cmd, true); err == nil {
		t.Fatalf("resolveBody(required, empty) error = nil, want error")
	}
	if body, err := resolveBody(cmd, false); err != nil || body != "" {
		t.Fatalf("resolveBody(optional, empty) = %q, %v", body, err)
	}
}

func TestDescribeSentiment(t *testing.T) {
	t.Parallel()

	if got := describeSentiment(nil); got != "sentiment=unscored" {
		t.Fatalf("describeSentiment(nil) = %q", got)
	}

	result := sentiment.Score("Amazing app, works perfectly!", 1)
	got := describeSentiment(&result)
	if !strings.Contains(got, "contradiction") {
		t.Fatalf("describeSentiment() = %q, want contradiction marker", got)
	}
	if !strings.Contains(got, "sentiment="+string(result.Label)) {
		t.Fatalf("describeSentiment() = %q, want label %s", got, result.Label)
	}
}

func TestStarsAndOneLine(t *testing.T) {
	t.Parallel()

	if got := stars(3); got != "***.." {
		t.Fatalf("stars(3) = %q", got)
	}
	if got := stars(9); got != "*****" {
		t.Fatalf("stars(9) = %q", got)
	}
	if got := oneLine("  good\n\tapp  "); got != "good app" {
		t.Fatalf("oneLine() = %q", got)
	}
	if got := oneLine(""); got != "(no text)" {
		t.Fatalf("oneLine(empty) = %q", got)
	}
	if got := oneLine(strings.Repeat("a", 150)); len([]rune(got)) != 100 || !strings.HasSuffix(got, "...") {
		t.Fatalf("oneLine(long) = %q", got)
	}
}

func TestWriteEntryDetail(t *testing.T) {
	t.Parallel()

	rating := 4.5
	polarity := 0.25
	detail := moderation.EntryDetail{
		Entry: catalog.Entry{ID: 7, Name: "Photo Editor", Category: "PHOTOGRAPHY", Rating: &rating, ReviewCount: 120},
		ImportedReviews: []catalog.ImportedReview{
			{Text: "Nice filters", Sentiment: "Positive", Polarity: &polarity},
		},
		ApprovedReviews: []moderation.ApprovedReview{
			{Review: review.Record{Rating: 5, Body: "Love it", CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}, AuthorName: "Alice Johnson"},
		},
		ViewerHasSupervisor: true,
		SupervisorName:      "John Manager",
	}

	var out bytes.Buffer
	if err := writeEntryDetail(&out, detail, true); err != nil {
		t.Fatalf("writeEntryDetail() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Photo Editor",
		"rating: 4.50",
		"go to John Manager for approval",
		"approved reviews (1)",
		"***** Alice Johnson on 2026-03-01",
		"imported reviews (1)",
		"[Positive polarity=0.25] Nice filters",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}

	out.Reset()
	detail.ViewerHasSupervisor = false
	if err := writeEntryDetail(&out, detail, true); err != nil {
		t.Fatalf("writeEntryDetail() error = %v", err)
	}
	if !strings.Contains(out.String(), "no supervisor assigned") {
		t.Fatalf("output missing no-supervisor warning:\n%s", out.String())
	}

	out.Reset()
	if err := writeEntryDetail(&out, detail, false); err != nil {
		t.Fatalf("writeEntryDetail() error = %v", err)
	}
	if !strings.Contains(out.String(), "sign in to write a review") {
		t.Fatalf("output missing sign-in hint:\n%s", out.String())
	}
}

func TestSampleSeedFileParses(t *testing.T) {
	t.Parallel()

	raw, err := os.ReadFile(filepath.Join("..", "configs", "org_seed.toml"))
	if err != nil {
		t.Fatalf("read seed file: %v", err)
	}
	file, err := directory.ParseSeedFile(raw)
	if err != nil {
		t.Fatalf("ParseSeedFile() error = %v", err)
	}
	if len(file.Supervisors) != 3 || len(file.Employees) != 6 {
		t.Fatalf("seed file has %d supervisors, %d employees", len(file.Supervisors), len(file.Employees))
	}
}
