package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/runner"
)

// previewMode selects what the right-hand pane shows.
type previewMode int

const (
	previewScript previewMode = iota
	previewResult
)

// topicItem adapts a catalog script to the list widget.
type topicItem struct {
	script *catalog.Script
}

func (i topicItem) Title() string { return i.script.Topic.Name }

func (i topicItem) Description() string {
	variant := "shared"
	if !i.script.Shared {
		variant = i.script.Dialect
	}
	return fmt.Sprintf("%s · %d stmts · %s", i.script.Topic.Stage, len(i.script.Statements), variant)
}

func (i topicItem) FilterValue() string {
	return i.script.Topic.Name + " " + i.script.Topic.Summary
}

// runDoneMsg carries a finished run back into the update loop.
type runDoneMsg struct {
	topic  string
	result *runner.RunResult
	err    error
}

// keyMap is the browser's extra key bindings; list navigation and
// filtering keep the widget's defaults, page keys scroll the preview.
type keyMap struct {
	Run  key.Binding
	Back key.Binding
	Quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Run:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run topic")),
		Back: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to script")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type model struct {
	ctx context.Context
	cfg Config

	topics  list.Model
	preview viewport.Model
	spin    spinner.Model
	keys    keyMap
	styles  styles

	mode         previewMode
	previewTopic string
	running      bool
	status       string
	statusErr    bool

	width  int
	height int
	ready  bool
}

func newModel(ctx context.Context, cfg Config) (*model, error) {
	scripts, err := cfg.Catalog.Scripts(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	items := make([]list.Item, 0, len(scripts))
	for _, sc := range scripts {
		items = append(items, topicItem{script: sc})
	}

	st := newStyles()

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = st.selectedTitle
	delegate.Styles.SelectedDesc = st.selectedDesc

	topics := list.New(items, delegate, 0, 0)
	topics.Title = fmt.Sprintf("sqlbook · %s (%s)", cfg.Target, cfg.Dialect)
	topics.Styles.Title = st.listTitle
	topics.SetShowStatusBar(false)
	topics.DisableQuitKeybindings()

	keys := newKeyMap()
	topics.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Run, keys.Quit}
	}

	spin := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(st.spinner))

	return &model{
		ctx:    ctx,
		cfg:    cfg,
		topics: topics,
		spin:   spin,
		keys:   keys,
		styles: st,
		mode:   previewScript,
		status: "",
	}, nil
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshPreview()
		return m, nil

	case tea.KeyMsg:
		// While the list filter is open it owns the keyboard.
		if m.topics.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Run):
			if m.running {
				return m, nil
			}
			if item, ok := m.topics.SelectedItem().(topicItem); ok {
				return m, m.startRun(item.script.Topic.Name)
			}
			return m, nil

		case key.Matches(msg, m.keys.Back):
			if m.mode == previewResult {
				m.mode = previewScript
				m.previewTopic = ""
				m.refreshPreview()
				return m, nil
			}
		}

		// Page keys always scroll the preview pane.
		switch msg.String() {
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}

	case runDoneMsg:
		m.running = false
		m.mode = previewResult
		m.previewTopic = msg.topic
		m.setResultPreview(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.topics, cmd = m.topics.Update(msg)
	m.refreshPreview()
	return m, cmd
}

// startRun executes a topic in the background and reports back.
func (m *model) startRun(topic string) tea.Cmd {
	m.running = true
	m.status = fmt.Sprintf("running %s...", topic)
	m.statusErr = false

	run := func() tea.Msg {
		result, err := m.cfg.Runner.Run(m.ctx, runner.RunOptions{Topics: []string{topic}})
		return runDoneMsg{topic: topic, result: result, err: err}
	}
	return tea.Batch(m.spin.Tick, run)
}

// resize splits the window between the list and the preview pane.
func (m *model) resize(width, height int) {
	m.width = width
	m.height = height

	statusHeight := 1
	listWidth := width / 3
	if listWidth < 28 {
		listWidth = 28
	}
	previewWidth := width - listWidth - m.styles.previewFrame()

	m.topics.SetSize(listWidth, height-statusHeight)

	if !m.ready {
		m.preview = viewport.New(previewWidth, height-statusHeight-m.styles.previewFrameVertical())
		m.ready = true
	} else {
		m.preview.Width = previewWidth
		m.preview.Height = height - statusHeight - m.styles.previewFrameVertical()
	}
}

// refreshPreview keeps the script preview in sync with the selection.
func (m *model) refreshPreview() {
	if !m.ready || m.mode != previewScript {
		return
	}
	item, ok := m.topics.SelectedItem().(topicItem)
	if !ok {
		m.preview.SetContent("")
		return
	}
	if item.script.Topic.Name == m.previewTopic {
		return
	}
	m.previewTopic = item.script.Topic.Name

	var b strings.Builder
	b.WriteString(m.styles.previewTitle.Render(item.script.Topic.Title))
	b.WriteString("\n")
	b.WriteString(m.styles.muted.Render(item.script.Topic.Summary))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimRight(item.script.Source, "\n"))
	m.preview.SetContent(b.String())
	m.preview.GotoTop()
}

// setResultPreview renders a finished run into the preview pane.
func (m *model) setResultPreview(msg runDoneMsg) {
	if msg.result == nil {
		m.status = fmt.Sprintf("%s failed: %v", msg.topic, msg.err)
		m.statusErr = true
		m.mode = previewScript
		m.previewTopic = ""
		m.refreshPreview()
		return
	}

	var b strings.Builder
	b.WriteString(m.styles.previewTitle.Render(fmt.Sprintf("Run %s", msg.result.RunID)))
	b.WriteString("\n\n")

	for _, res := range msg.result.Scripts {
		icon := m.styles.ok.Render("✓")
		if res.Err != nil {
			icon = m.styles.fail.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %s  %s\n", icon, res.Topic,
			m.styles.muted.Render(fmt.Sprintf("%d stmts · %d rows · %s",
				res.OK, res.RowsReturned(), res.Duration.Round(time.Millisecond)))))

		for i := range res.Statements {
			st := &res.Statements[i]
			mark := " "
			if st.Err != nil {
				mark = m.styles.fail.Render("!")
				if st.Tolerated {
					mark = m.styles.muted.Render("~")
				}
			}
			line := fmt.Sprintf("  %s %-28s", mark, st.Label)
			if len(st.Rows) > 0 {
				line += m.styles.muted.Render(fmt.Sprintf(" %d rows", len(st.Rows)))
			}
			b.WriteString(line + "\n")
			if st.Err != nil && !st.Tolerated {
				b.WriteString(m.styles.fail.Render("      "+st.Err.Error()) + "\n")
			}
		}

		if res.Err != nil {
			b.WriteString(m.styles.fail.Render(res.Err.Error()) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.muted.Render("esc returns to the script"))

	m.preview.SetContent(b.String())
	m.preview.GotoTop()

	if msg.err != nil {
		m.status = fmt.Sprintf("%s failed: %v", msg.topic, msg.err)
		m.statusErr = true
	} else {
		m.status = fmt.Sprintf("%s completed in %s", msg.topic, msg.result.Duration.Round(time.Millisecond))
		m.statusErr = false
	}
}

func (m *model) View() string {
	if !m.ready {
		return "loading..."
	}

	listView := m.topics.View()
	previewView := m.styles.previewBorder.Render(m.preview.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, listView, previewView)

	return body + "\n" + m.statusBar()
}

func (m *model) statusBar() string {
	if m.running {
		return m.spin.View() + m.styles.muted.Render(m.status)
	}
	if m.status == "" {
		return m.styles.muted.Render("enter runs the selected topic · / filters · q quits")
	}
	if m.statusErr {
		return m.styles.fail.Render(m.status)
	}
	return m.styles.ok.Render(m.status)
}
