package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"bulletin/internal/pipeline"
)

const (
	tickInterval = 150 * time.Millisecond
	marqueeGap   = "   "

	stageWidth  = 22
	statusWidth = 8
	detailWidth = 48
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// tickMsg drives animation (spinner, marquee).
type tickMsg time.Time

type stageRow struct {
	stage   pipeline.Stage
	status  pipeline.Status
	detail  string
	started time.Time
	elapsed time.Duration
}

// StageModel is a bubbletea model that renders one row per pipeline stage.
type StageModel struct {
	title     string
	rows      []stageRow
	rowIndex  map[pipeline.Stage]int
	done      bool
	err       error
	interrupt func()
	now       func() time.Time

	// Animation state.
	tick int
}

// NewStageModel creates a model with a pending row for each stage.
func NewStageModel(title string, stages []pipeline.Stage) StageModel {
	m := StageModel{
		title:    title,
		rowIndex: make(map[pipeline.Stage]int, len(stages)),
		now:      time.Now,
	}
	for _, s := range stages {
		m.rowIndex[s] = len(m.rows)
		m.rows = append(m.rows, stageRow{stage: s, status: pipeline.StatusPending})
	}
	return m
}

// OnInterrupt registers fn to run when the user presses ctrl+c. The terminal
// is in raw mode while the program runs, so no SIGINT reaches the process.
func (m StageModel) OnInterrupt(fn func()) StageModel {
	m.interrupt = fn
	return m
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init satisfies the tea.Model interface.
func (m StageModel) Init() tea.Cmd {
	return scheduleTick()
}

// Update satisfies the tea.Model interface.
func (m StageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, scheduleTick()

	case EventMsg:
		m.apply(pipeline.Event(msg))
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.interrupt != nil {
				m.interrupt()
			}
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *StageModel) apply(e pipeline.Event) {
	idx, ok := m.rowIndex[e.Stage]
	if !ok {
		return
	}
	row := &m.rows[idx]
	if e.Status == pipeline.StatusRunning && row.status != pipeline.StatusRunning {
		row.started = m.now()
	}
	if e.Status.Terminal() && !row.started.IsZero() {
		row.elapsed = m.now().Sub(row.started)
	}
	row.status = e.Status
	if e.Detail != "" || e.Status.Terminal() {
		row.detail = e.Detail
	}
}

// View satisfies the tea.Model interface.
func (m StageModel) View() string {
	var b strings.Builder

	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	header := []string{
		HeaderStyle.Render(pad("STAGE", stageWidth)),
		HeaderStyle.Render(pad("STATUS", statusWidth)),
		HeaderStyle.Render(pad("DETAIL", detailWidth)),
		HeaderStyle.Render("TIME"),
	}
	b.WriteString(strings.Join(header, "  "))
	b.WriteByte('\n')

	for _, row := range m.rows {
		detail := row.detail
		if !m.done && row.status == pipeline.StatusRunning && len(strings.TrimSpace(detail)) > detailWidth {
			detail = marqueeText(detail, detailWidth, m.tick)
		} else {
			detail = TruncateWithEllipsis(detail, detailWidth)
		}
		status := string(row.status)
		parts := []string{
			pad(row.stage.Label(), stageWidth),
			StatusStyle(row.status).Render(pad(status, statusWidth)),
			pad(NonEmptyOrDash(detail), detailWidth),
			m.elapsedText(row),
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteByte('\n')
	}

	if !m.done {
		finished, total := m.progressCounts()
		spinner := spinnerFrames[m.tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "\n%s Working %d/%d stages...\n", spinner, finished, total)
	}

	return b.String()
}

func (m StageModel) elapsedText(row stageRow) string {
	switch {
	case row.status.Terminal() && row.elapsed > 0:
		return formatElapsed(row.elapsed)
	case row.status == pipeline.StatusRunning && !row.started.IsZero():
		return formatElapsed(m.now().Sub(row.started))
	}
	return ""
}

// progressCounts returns (finished, total) based on how many stages reached a
// terminal status.
func (m StageModel) progressCounts() (int, int) {
	finished := 0
	for _, row := range m.rows {
		if row.status.Terminal() {
			finished++
		}
	}
	return finished, len(m.rows)
}

// Status returns the current status of stage.
func (m StageModel) Status(stage pipeline.Stage) pipeline.Status {
	if idx, ok := m.rowIndex[stage]; ok {
		return m.rows[idx].status
	}
	return ""
}

// Done returns whether the model has finished (work done or error).
func (m StageModel) Done() bool {
	return m.done
}

// Err returns any fatal error that occurred.
func (m StageModel) Err() error {
	return m.err
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// marqueeText renders a scrolling window over text that exceeds the given width.
// The text slides left on each tick, with a gap between cycles.
func marqueeText(text string, width, tick int) string {
	text = strings.TrimSpace(text)
	if width <= 0 {
		return ""
	}
	if len(text) <= width {
		return text
	}
	cycle := text + marqueeGap
	cycleLen := len(cycle)
	offset := tick % cycleLen
	var result strings.Builder
	result.Grow(width)
	for i := 0; i < width; i++ {
		result.WriteByte(cycle[(offset+i)%cycleLen])
	}
	return result.String()
}

// formatElapsed formats a duration for display in the time column.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < 10*time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis truncates a string and adds "..." if it exceeds max length.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
