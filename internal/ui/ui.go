package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nissyi-gh/todo/internal/codec"
	"github.com/nissyi-gh/todo/internal/model"
	"github.com/nissyi-gh/todo/internal/prompt"
	"github.com/nissyi-gh/todo/internal/query"
	"github.com/nissyi-gh/todo/internal/reminder"
	"github.com/nissyi-gh/todo/internal/store"
)

type appState int

const (
	stateList appState = iota
	stateAdd
	stateConfirm
	stateDueDate
	stateEditNote
	stateRename
	stateEditTags
	stateSearch
	stateImport
)

type addStep int

const (
	addStepTitle addStep = iota
	addStepTags
	addStepDue
)

const toastDuration = 5 * time.Second

var (
	appStyle     = lipgloss.NewStyle().Padding(1, 2)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	toastStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	detailStyle  = lipgloss.NewStyle().
			Padding(1, 2).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241"))
	noteBoxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241"))

	tagColorPalette = []string{"39", "205", "148", "214", "141", "81", "203", "227"}
)

type extraKeyMap struct {
	Add       key.Binding
	Toggle    key.Binding
	Delete    key.Binding
	DueDate   key.Binding
	EditNote  key.Binding
	Rename    key.Binding
	Tags      key.Binding
	Filter    key.Binding
	Completed key.Binding
	Search    key.Binding
	Export    key.Binding
	Import    key.Binding
	Prompt    key.Binding
}

func newExtraKeyMap() extraKeyMap {
	return extraKeyMap{
		Add: key.NewBinding(
			key.WithKeys("a", "n"),
			key.WithHelp("a/n", "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", "x"),
			key.WithHelp("enter/x", "toggle"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		DueDate: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "due date"),
		),
		EditNote: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit note"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		Tags: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "tags"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "all/today/week"),
		),
		Completed: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "show/hide done"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Export: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "export"),
		),
		Import: key.NewBinding(
			key.WithKeys("I"),
			key.WithHelp("I", "import"),
		),
		Prompt: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "copy prompt"),
		),
	}
}

func (k extraKeyMap) short() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.DueDate, k.Filter, k.Search}
}

func (k extraKeyMap) full() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.DueDate, k.EditNote, k.Rename, k.Tags,
		k.Filter, k.Completed, k.Search, k.Export, k.Import, k.Prompt}
}

// Clipboard is the text clipboard used for export, import and prompts.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// ReminderMsg delivers a fired reminder to a running program via tea.Program.Send.
type ReminderMsg reminder.Alert

type toastExpiredMsg struct{ seq int }
type tickMsg time.Time

type Option func(*Model)

func WithClipboard(c Clipboard) Option {
	return func(m *Model) {
		m.clipboard = c
	}
}

// WithQuery sets the initial filter, completed visibility and search text.
func WithQuery(q query.Options) Option {
	return func(m *Model) {
		m.query = q
	}
}

// Model is the top-level BubbleTea model for the todo TUI.
type Model struct {
	ctx        context.Context
	state      appState
	list       list.Model
	input      textinput.Model
	tagInput   textinput.Model
	search     textinput.Model
	dateInput  dateInput
	noteInput  textarea.Model
	store      *store.TaskStore
	engine     query.Engine
	query      query.Options
	clipboard  Clipboard
	keys       extraKeyMap
	addStep    addStep
	draftTitle string
	draftTags  []string
	editTaskID string
	pending    []model.Task
	toast      string
	toastSeq   int
	err        error
	width      int
	height     int
}

// NewModel creates a new TUI model. ctx bounds every store call made from the UI.
func NewModel(ctx context.Context, s *store.TaskStore, engine query.Engine, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = 256

	tagIn := textinput.New()
	tagIn.Placeholder = "work, 買い物 (comma separated)"
	tagIn.CharLimit = 256

	search := textinput.New()
	search.Placeholder = "Search title, note, tags..."
	search.Prompt = "/ "
	search.CharLimit = 128

	keys := newExtraKeyMap()

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	l := list.New(nil, delegate, 0, 0)
	l.Title = "todo"
	l.Styles.Title = titleStyle
	l.SetShowHelp(true)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("task", "tasks")
	// f and d are ours; keep paging on the arrow and page keys only
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l/pgdn", "next page"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h/pgup", "prev page"))
	l.AdditionalShortHelpKeys = keys.short
	l.AdditionalFullHelpKeys = keys.full

	ta := textarea.New()
	ta.Placeholder = "Note..."
	ta.CharLimit = 4096

	if engine.Clock == nil || engine.Location == nil {
		engine = query.NewEngine(engine.Clock)
	}

	m := Model{
		ctx:       ctx,
		state:     stateList,
		list:      l,
		input:     ti,
		tagInput:  tagIn,
		search:    search,
		dateInput: newDateInput(),
		noteInput: ta,
		store:     s,
		engine:    engine,
		query:     query.Options{Filter: model.FilterAll, ShowCompleted: true},
		clipboard: systemClipboard{},
		keys:      keys,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.search.SetValue(m.query.Search)
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// tick re-derives the list every minute so today/overdue markers follow the clock.
func tick() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) now() time.Time {
	return m.engine.Clock.Now().In(m.engine.Location)
}

func (m *Model) refresh() {
	all := m.store.All()
	now := m.now()
	tasks := m.engine.Derive(all, m.query)
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = TaskItem{Task: t, Now: now}
	}
	m.list.SetItems(items)
	m.list.Title = m.renderTabs(all)
}

func (m Model) renderTabs(all []model.Task) string {
	counts := m.engine.Counts(all)
	tabs := []string{"todo "}
	for _, f := range model.FilterKinds() {
		label := fmt.Sprintf("%s %d", f.Label(), counts[f])
		if f == m.query.Filter {
			label = "[" + label + "]"
		}
		tabs = append(tabs, label)
	}
	return strings.Join(tabs, " ")
}

func (m Model) selected() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	return item.Task, ok
}

func (m *Model) showToast(text string) tea.Cmd {
	m.toastSeq++
	seq := m.toastSeq
	m.toast = text
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := appStyle.GetFrameSize()
		contentWidth := msg.Width - h
		leftWidth := contentWidth * 60 / 100
		rightWidth := contentWidth - leftWidth
		m.list.SetSize(leftWidth, msg.Height-v-2)
		m.noteInput.SetWidth(rightWidth - 6)
		m.noteInput.SetHeight(msg.Height - v - 10)
		return m, nil

	case ReminderMsg:
		// the store has already cleared the handle; re-derive to drop the bell
		m.refresh()
		return m, m.showToast(fmt.Sprintf("⏰ %s: %s", msg.Payload.Title, msg.Payload.Body))

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()
	}

	switch m.state {
	case stateList:
		return m.updateList(msg)
	case stateAdd:
		return m.updateAdd(msg)
	case stateConfirm:
		return m.updateConfirm(msg)
	case stateDueDate:
		return m.updateDueDate(msg)
	case stateEditNote:
		return m.updateEditNote(msg)
	case stateRename:
		return m.updateRename(msg)
	case stateEditTags:
		return m.updateEditTags(msg)
	case stateSearch:
		return m.updateSearch(msg)
	case stateImport:
		return m.updateImport(msg)
	}

	return m, nil
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Add):
			m.state = stateAdd
			m.addStep = addStepTitle
			m.draftTitle = ""
			m.draftTags = nil
			m.err = nil
			m.input.Reset()
			m.tagInput.Reset()
			m.dateInput = newDateInput()
			cmd := m.input.Focus()
			return m, cmd
		case key.Matches(keyMsg, m.keys.Toggle):
			if t, ok := m.selected(); ok {
				if _, err := m.store.ToggleDone(m.ctx, t.ID); err != nil {
					m.err = err
				}
				m.refresh()
				return m, nil
			}
		case key.Matches(keyMsg, m.keys.Delete):
			if _, ok := m.selected(); ok {
				m.state = stateConfirm
				return m, nil
			}
		case key.Matches(keyMsg, m.keys.DueDate):
			if t, ok := m.selected(); ok {
				m.state = stateDueDate
				m.editTaskID = t.ID
				m.dateInput = newDateInput()
				if t.DueAt != nil {
					m.dateInput.SetValue(t.DueAt.In(m.engine.Location))
				}
				cmd := m.dateInput.Focus()
				return m, cmd
			}
		case key.Matches(keyMsg, m.keys.EditNote):
			if t, ok := m.selected(); ok {
				m.state = stateEditNote
				m.editTaskID = t.ID
				m.noteInput.Reset()
				m.noteInput.SetValue(t.Note)
				cmd := m.noteInput.Focus()
				return m, cmd
			}
		case key.Matches(keyMsg, m.keys.Rename):
			if t, ok := m.selected(); ok {
				m.state = stateRename
				m.editTaskID = t.ID
				m.input.Reset()
				m.input.SetValue(t.Title)
				cmd := m.input.Focus()
				return m, cmd
			}
		case key.Matches(keyMsg, m.keys.Tags):
			if t, ok := m.selected(); ok {
				m.state = stateEditTags
				m.editTaskID = t.ID
				m.tagInput.Reset()
				m.tagInput.SetValue(strings.Join(t.Tags, ", "))
				cmd := m.tagInput.Focus()
				return m, cmd
			}
		case key.Matches(keyMsg, m.keys.Filter):
			m.query.Filter = m.query.Filter.Next()
			m.list.ResetSelected()
			m.refresh()
			return m, nil
		case key.Matches(keyMsg, m.keys.Completed):
			m.query.ShowCompleted = !m.query.ShowCompleted
			m.refresh()
			return m, nil
		case key.Matches(keyMsg, m.keys.Search):
			m.state = stateSearch
			m.search.SetValue(m.query.Search)
			cmd := m.search.Focus()
			return m, cmd
		case key.Matches(keyMsg, m.keys.Export):
			return m.exportToClipboard()
		case key.Matches(keyMsg, m.keys.Import):
			return m.importFromClipboard()
		case key.Matches(keyMsg, m.keys.Prompt):
			return m.copyPrompt()
		case keyMsg.String() == "esc" && m.query.Search != "":
			m.query.Search = ""
			m.search.Reset()
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = stateList
			m.err = nil
			return m, nil
		case "enter":
			switch m.addStep {
			case addStepTitle:
				title := strings.TrimSpace(m.input.Value())
				if title == "" {
					m.err = &store.ValidationError{Field: "title", Reason: "must not be empty"}
					return m, nil
				}
				m.err = nil
				m.draftTitle = title
				m.addStep = addStepTags
				m.input.Blur()
				cmd := m.tagInput.Focus()
				return m, cmd
			case addStepTags:
				m.draftTags = model.SplitTags(m.tagInput.Value())
				m.addStep = addStepDue
				m.tagInput.Blur()
				cmd := m.dateInput.Focus()
				return m, cmd
			case addStepDue:
				var due *time.Time
				if !m.dateInput.IsEmpty() {
					t, err := m.dateInput.Value(m.now(), m.engine.Location)
					if err != nil {
						m.err = err
						return m, nil
					}
					due = &t
				}
				if _, err := m.store.Create(m.ctx, m.draftTitle, due, m.draftTags); err != nil {
					m.err = err
				}
				m.state = stateList
				m.refresh()
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.addStep {
	case addStepTitle:
		m.input, cmd = m.input.Update(msg)
	case addStepTags:
		m.tagInput, cmd = m.tagInput.Update(msg)
	case addStepDue:
		m.dateInput, cmd = m.dateInput.Update(msg)
	}
	return m, cmd
}

func (m Model) updateEditNote(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			if _, err := m.store.Update(m.ctx, m.editTaskID, model.WithNote(m.noteInput.Value())); err != nil {
				m.err = err
			}
			m.noteInput.Blur()
			m.state = stateList
			m.refresh()
			return m, nil
		case "ctrl+c":
			m.noteInput.Blur()
			m.state = stateList
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

func (m Model) updateRename(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			if _, err := m.store.Update(m.ctx, m.editTaskID, model.WithTitle(m.input.Value())); err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.state = stateList
			m.refresh()
			return m, nil
		case "esc":
			m.state = stateList
			m.err = nil
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateEditTags(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			tags := model.SplitTags(m.tagInput.Value())
			if _, err := m.store.Update(m.ctx, m.editTaskID, model.WithTags(tags)); err != nil {
				m.err = err
			}
			m.state = stateList
			m.refresh()
			return m, nil
		case "esc":
			m.state = stateList
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.tagInput, cmd = m.tagInput.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			m.search.Blur()
			m.state = stateList
			return m, nil
		case "esc":
			m.search.Reset()
			m.search.Blur()
			m.query.Search = ""
			m.state = stateList
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.query.Search {
		m.query.Search = m.search.Value()
		m.list.ResetSelected()
		m.refresh()
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y":
			if t, ok := m.selected(); ok {
				if err := m.store.Delete(m.ctx, t.ID); err != nil {
					m.err = err
				}
			}
			m.state = stateList
			m.refresh()
			return m, nil
		case "n", "esc":
			m.state = stateList
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateDueDate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			opt := model.WithoutDueAt()
			if !m.dateInput.IsEmpty() {
				due, err := m.dateInput.Value(m.now(), m.engine.Location)
				if err != nil {
					m.err = err
					return m, nil
				}
				opt = model.WithDueAt(due)
			}
			if _, err := m.store.Update(m.ctx, m.editTaskID, opt); err != nil {
				m.err = err
			} else {
				m.err = nil
			}
			m.dateInput.Blur()
			m.state = stateList
			m.refresh()
			return m, nil
		case "esc":
			m.dateInput.Blur()
			m.state = stateList
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.dateInput, cmd = m.dateInput.Update(msg)
	return m, cmd
}

func (m Model) updateImport(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y":
			n := len(m.pending)
			err := m.store.ReplaceAll(m.ctx, m.pending)
			m.pending = nil
			m.state = stateList
			m.list.ResetSelected()
			m.refresh()
			if err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			return m, m.showToast(fmt.Sprintf("Imported %d tasks", n))
		case "n", "esc":
			m.pending = nil
			m.state = stateList
			return m, nil
		}
	}
	return m, nil
}

func (m Model) exportToClipboard() (tea.Model, tea.Cmd) {
	tasks := m.store.All()
	b, err := codec.Export(tasks, codec.JSON)
	if err != nil {
		m.err = err
		return m, nil
	}
	if err := m.clipboard.WriteAll(string(b)); err != nil {
		m.err = fmt.Errorf("write clipboard: %w", err)
		return m, nil
	}
	m.err = nil
	return m, m.showToast(fmt.Sprintf("Copied %d tasks as JSON", len(tasks)))
}

// importFromClipboard parses the clipboard and asks for confirmation before
// anything is replaced.
func (m Model) importFromClipboard() (tea.Model, tea.Cmd) {
	text, err := m.clipboard.ReadAll()
	if err != nil {
		m.err = fmt.Errorf("read clipboard: %w", err)
		return m, nil
	}
	data := []byte(unfence(text))
	tasks, err := codec.Import(data, codec.Sniff(data))
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.pending = tasks
	m.state = stateImport
	return m, nil
}

func (m Model) copyPrompt() (tea.Model, tea.Cmd) {
	p, err := prompt.GenerateFromTasks(m.store.All())
	if err != nil {
		m.err = err
		return m, nil
	}
	if err := m.clipboard.WriteAll(p); err != nil {
		m.err = fmt.Errorf("write clipboard: %w", err)
		return m, nil
	}
	m.err = nil
	return m, m.showToast("Copied prompt; paste the reply and press I")
}

// unfence strips a surrounding markdown code block, as assistants tend to add one.
func unfence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return s
}

func tagColor(name string) string {
	sum := 0
	for _, r := range name {
		sum += int(r)
	}
	return tagColorPalette[sum%len(tagColorPalette)]
}

func (m Model) renderDetail() string {
	t, ok := m.selected()
	if !ok {
		return statusStyle.Render("(no tasks)")
	}
	now := m.now()

	noteContent := statusStyle.Render("(no note)")
	if t.Note != "" {
		noteContent = t.Note
	}
	note := noteBoxStyle.Render(noteContent)

	tagsLine := ""
	if len(t.Tags) > 0 {
		var badges []string
		for _, tag := range t.Tags {
			badge := lipgloss.NewStyle().
				Foreground(lipgloss.Color(tagColor(tag))).
				Bold(true).
				Render("[" + tag + "]")
			badges = append(badges, badge)
		}
		tagsLine = "\ntags: " + strings.Join(badges, " ") + "\n"
	}

	status := "open"
	if t.Done {
		status = "done"
	}

	dueLine := ""
	if t.DueAt != nil {
		label := "due:     " + t.DueAt.In(m.engine.Location).Format("2006-01-02 15:04")
		if t.IsOverdue(now) {
			label = errorStyle.Render("⚠️ " + label)
		} else if !t.Done && t.IsDueToday(now) {
			label = "📅 " + label
		}
		dueLine = "\n" + label
	}

	reminderLine := "\nreminder: none"
	if t.HasReminder() {
		reminderLine = "\nreminder: 🔔 scheduled"
	}

	return fmt.Sprintf("%s\n\n%s%s\n\nstatus:  %s\ncreated: %s%s%s\n\n%s",
		t.Title,
		note,
		tagsLine,
		status,
		t.CreatedAt.In(m.engine.Location).Format("2006-01-02 15:04"),
		dueLine,
		reminderLine,
		statusStyle.Render("e: note  r: rename  T: tags  D: due"),
	)
}

func (m Model) renderStatus() string {
	completed := "shown"
	if !m.query.ShowCompleted {
		completed = "hidden"
	}
	parts := []string{"filter: " + m.query.Filter.Label(), "done: " + completed}
	if m.query.Search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.query.Search))
	}
	return statusStyle.Render(strings.Join(parts, " • "))
}

func (m Model) View() string {
	var errView string
	if m.err != nil {
		errView = "\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	var toastView string
	if m.toast != "" {
		toastView = "\n" + toastStyle.Render(m.toast)
	}

	switch m.state {
	case stateAdd:
		var body, help string
		switch m.addStep {
		case addStepTitle:
			body = m.input.View()
			help = "enter: next • esc: cancel"
		case addStepTags:
			body = statusStyle.Render(m.draftTitle) + "\n\n" + m.tagInput.View()
			help = "enter: next (empty for none) • esc: cancel"
		case addStepDue:
			body = statusStyle.Render(m.draftTitle) + "\n\n" + m.dateInput.View()
			help = "tab/→: next field • enter: save (empty for no due date) • esc: cancel"
		}
		return appStyle.Render(
			titleStyle.Render("New Task") + "\n\n" +
				body + "\n\n" +
				statusStyle.Render(help) +
				errView,
		)
	case stateEditNote:
		return appStyle.Render(
			titleStyle.Render("Edit Note") + "\n\n" +
				m.noteInput.View() + "\n\n" +
				statusStyle.Render("esc: save • ctrl+c: cancel") +
				errView,
		)
	case stateRename:
		return appStyle.Render(
			titleStyle.Render("Rename Task") + "\n\n" +
				m.input.View() + "\n\n" +
				statusStyle.Render("enter: save • esc: cancel") +
				errView,
		)
	case stateEditTags:
		return appStyle.Render(
			titleStyle.Render("Edit Tags") + "\n\n" +
				m.tagInput.View() + "\n\n" +
				statusStyle.Render("comma separated • enter: save • esc: cancel") +
				errView,
		)
	case stateDueDate:
		return appStyle.Render(
			titleStyle.Render("Set Due Date") + "\n\n" +
				m.dateInput.View() + "\n\n" +
				statusStyle.Render("tab/→: next field • enter: save (empty clears) • esc: cancel") +
				errView,
		)
	case stateConfirm:
		t, _ := m.selected()
		msg := t.Title
		if t.HasReminder() {
			msg += "\n  (its reminder is cancelled too)"
		}
		return appStyle.Render(
			confirmStyle.Render("Delete Task?") + "\n\n" +
				"  " + msg + "\n\n" +
				statusStyle.Render("y: delete • n/esc: cancel") +
				errView,
		)
	case stateImport:
		return appStyle.Render(
			confirmStyle.Render("Replace all tasks?") + "\n\n" +
				fmt.Sprintf("  %d current tasks will be replaced by %d imported tasks.", len(m.store.All()), len(m.pending)) + "\n\n" +
				statusStyle.Render("y: import • n/esc: cancel") +
				errView,
		)
	default:
		h, v := appStyle.GetFrameSize()
		contentWidth := m.width - h
		contentHeight := m.height - v - 2
		rightWidth := contentWidth - contentWidth*60/100

		leftPane := m.list.View()
		rightPane := detailStyle.
			Width(rightWidth).
			Height(contentHeight).
			Render(m.renderDetail())
		content := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

		footer := m.renderStatus()
		if m.state == stateSearch {
			footer = m.search.View()
		}
		return appStyle.Render(content + "\n" + footer + toastView + errView)
	}
}
