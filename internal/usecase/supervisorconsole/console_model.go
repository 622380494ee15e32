// Package supervisorconsole is a terminal queue for supervisors to approve or
// reject their reports' pending reviews.
package supervisorconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/domain/review"
	"appreview/internal/domain/sentiment"
	"appreview/internal/usecase/moderation"
)

const maxAuditLines = 8

// ReviewDesk is the moderation surface the console drives.
type ReviewDesk interface {
	Dashboard(ctx context.Context, supervisorID uint64) (moderation.Dashboard, error)
	ActOnReview(ctx context.Context, input moderation.ActInput) (review.Record, error)
}

type Options struct {
	SupervisorID    uint64
	SupervisorName  string
	RefreshInterval time.Duration
}

type consoleModel struct {
	ctx             context.Context
	desk            ReviewDesk
	supervisorID    uint64
	supervisorName  string
	refreshInterval time.Duration

	pending         []moderation.PendingReview
	supervisedCount int
	selectedIndex   int
	busy            bool
	status          string
	auditLogs       []string
}

type dashboardLoadedMsg struct {
	dashboard moderation.Dashboard
	err       error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action   review.Action
	reviewID uint64
	status   review.Status
	err      error
}

func NewModel(ctx context.Context, desk ReviewDesk, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	name := strings.TrimSpace(options.SupervisorName)
	if name == "" {
		name = fmt.Sprintf("user %d", options.SupervisorID)
	}

	return &consoleModel{
		ctx:             ctx,
		desk:            desk,
		supervisorID:    options.SupervisorID,
		supervisorName:  name,
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return tea.Batch(m.loadDashboardCmd(), m.tickCmd())
}

func (m *consoleModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadDashboardCmd(), m.tickCmd())
	case dashboardLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.applyDashboard(msg.dashboard)
		return m, nil
	case actionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = fmt.Sprintf("%s #%d failed: %v", msg.action, msg.reviewID, msg.err)
		} else {
			m.status = fmt.Sprintf("review #%d %s", msg.reviewID, msg.status)
		}
		m.appendAuditLog(msg)
		return m, m.loadDashboardCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadDashboardCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.pending)-1 {
				m.selectedIndex++
			}
			return m, nil
		case "a":
			return m, m.actCmd(review.ActionApprove)
		case "r":
			return m, m.actCmd(review.ActionReject)
		}
	}
	return m, nil
}

func (m *consoleModel) applyDashboard(dashboard moderation.Dashboard) {
	var selectedID uint64
	if selected, ok := m.selectedReview(); ok {
		selectedID = selected.Review.ID
	}

	m.pending = dashboard.Pending
	m.supervisedCount = dashboard.SupervisedCount
	if len(m.pending) == 0 {
		m.selectedIndex = 0
		m.status = "queue is empty"
		return
	}

	// keep the cursor on the same review when it is still pending
	m.selectedIndex = min(m.selectedIndex, len(m.pending)-1)
	for i, item := range m.pending {
		if item.Review.ID == selectedID {
			m.selectedIndex = i
			break
		}
	}
	m.status = fmt.Sprintf("%d pending", len(m.pending))
}

func (m *consoleModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Review Console"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"supervisor=%s supervised=%d refresh=%s",
		m.supervisorName,
		m.supervisedCount,
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Pending"))
	builder.WriteString("\n")
	if len(m.pending) == 0 {
		builder.WriteString(dimStyle.Render("- nothing to review"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.pending {
			line := fmt.Sprintf("#%d %s %s by %s", item.Review.ID, stars(item.Review.Rating), item.EntryName, authorLabel(item))
			if item.Review.Sentiment != nil && item.Review.Sentiment.Contradiction {
				line += " " + warnStyle.Render("[contradiction]")
			}
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if selected, ok := m.selectedReview(); !ok {
		builder.WriteString(dimStyle.Render("- no review selected"))
		builder.WriteString("\n\n")
	} else {
		builder.WriteString(renderDetail(selected))
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + m.status)
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  a approve  r reject  g refresh  q quit"))
	return builder.String()
}

func renderDetail(item moderation.PendingReview) string {
	var builder strings.Builder
	rec := item.Review
	builder.WriteString(fmt.Sprintf("Review: #%d\n", rec.ID))
	builder.WriteString(fmt.Sprintf("App: %s\n", item.EntryName))
	builder.WriteString(fmt.Sprintf("Author: %s\n", authorLabel(item)))
	builder.WriteString(fmt.Sprintf("Rating: %s\n", stars(rec.Rating)))
	builder.WriteString(fmt.Sprintf("Submitted: %s\n", rec.CreatedAt.UTC().Format(time.RFC3339)))
	if result := rec.Sentiment; result != nil {
		confidence := result.Confidence
		builder.WriteString(fmt.Sprintf("Sentiment: %s polarity=%.2f confidence=%.2f (%s)\n",
			result.Label, result.Polarity, result.Confidence, sentiment.LevelOf(&confidence)))
		if result.Contradiction {
			builder.WriteString(fmt.Sprintf("Contradiction: text %.2f vs rating %.2f\n", result.TextPolarity, result.RatingPolarity))
		}
	}
	builder.WriteString("\n")
	body := strings.TrimSpace(rec.Body)
	if body == "" {
		body = "(no text)"
	}
	builder.WriteString(body)
	builder.WriteString("\n")
	return builder.String()
}

func (m *consoleModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *consoleModel) loadDashboardCmd() tea.Cmd {
	return func() tea.Msg {
		dashboard, err := m.desk.Dashboard(m.ctx, m.supervisorID)
		return dashboardLoadedMsg{dashboard: dashboard, err: err}
	}
}

func (m *consoleModel) actCmd(action review.Action) tea.Cmd {
	if m.busy {
		m.status = "previous action still running"
		return nil
	}
	selected, ok := m.selectedReview()
	if !ok {
		m.status = "no review selected"
		return nil
	}

	m.busy = true
	reviewID := selected.Review.ID
	m.status = fmt.Sprintf("%s #%d ...", action, reviewID)
	return func() tea.Msg {
		decided, err := m.desk.ActOnReview(m.ctx, moderation.ActInput{
			ActorID:  m.supervisorID,
			ReviewID: reviewID,
			Action:   string(action),
		})
		return actionDoneMsg{action: action, reviewID: reviewID, status: decided.Status, err: err}
	}
}

func (m *consoleModel) selectedReview() (moderation.PendingReview, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.pending) {
		return moderation.PendingReview{}, false
	}
	return m.pending[m.selectedIndex], true
}

func (m *consoleModel) appendAuditLog(msg actionDoneMsg) {
	outcome := string(msg.status)
	if msg.err != nil {
		outcome = "error: " + msg.err.Error()
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s review=%d action=%s result=%s", timestamp, msg.reviewID, msg.action, outcome)
	m.auditLogs = append([]string{line}, m.auditLogs...)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[:maxAuditLines]
	}

	logging.Info(m.ctx, "review console action",
		slog.Uint64("supervisor_id", m.supervisorID),
		slog.Uint64("review_id", msg.reviewID),
		slog.String("action", string(msg.action)),
		slog.String("result", outcome),
	)
}

func authorLabel(item moderation.PendingReview) string {
	if name := item.Author.DisplayName(); name != "" {
		return name
	}
	return fmt.Sprintf("user %d", item.Review.AuthorID)
}

func stars(rating int) string {
	rating = max(review.MinRating, min(rating, review.MaxRating))
	return strings.Repeat("★", rating) + strings.Repeat("☆", review.MaxRating-rating)
}
