package ui

import (
	"context"
	"log/slog"
	"strings"

	"gemchat/pkg/chat"
	"gemchat/pkg/commands"
	"gemchat/pkg/ui/components/conversation"
	"gemchat/pkg/ui/components/historylist"
	"gemchat/pkg/ui/components/palette"
	"gemchat/pkg/ui/components/statusbar"
	"gemchat/pkg/ui/components/utils"
	"gemchat/pkg/ui/styles"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

const (
	inputLines      = 3
	statusBarHeight = 1
	minSidebarWidth = 24
	maxSidebarWidth = 40
)

// Options configures the chat screen.
type Options struct {
	// ModelLabel is shown in the status bar, e.g. "google/gemini-2.5-flash".
	ModelLabel string
	// WorkingDir resolves relative paths given to /image.
	WorkingDir string
}

// turnDoneMsg is sent when a gateway call started by submit has finished.
type turnDoneMsg struct{}

type historyLoadedMsg struct {
	items []chat.ChatHistoryItem
	err   error
}

type chatSelectedMsg struct {
	id  string
	err error
}

// Model represents the Bubble Tea application state
type Model struct {
	ctx        context.Context
	ctrl       *chat.Controller
	dispatcher *commands.Dispatcher
	workingDir string
	keys       keyMap

	// UI Components
	conversation *conversation.Pane
	history      *historylist.Panel
	palette      *palette.CommandPalette
	statusBar    *statusbar.StatusBarView
	input        textarea.Model

	// Mirrors the controller; refreshed by sync.
	state chat.State

	attachment *chat.Attachment
	notice     string

	width  int
	height int
	ready  bool
}

// NewModel creates the chat screen on top of ctrl. ctx bounds gateway calls
// and history loads started from the UI.
func NewModel(ctx context.Context, ctrl *chat.Controller, opts Options) Model {
	keys := defaultKeyMap()

	input := textarea.New()
	input.Placeholder = "Message Gemini  (/image <path> attaches a picture)"
	input.Prompt = ""
	input.ShowLineNumbers = false
	input.SetHeight(inputLines)
	input.KeyMap.InsertNewline = keys.Newline
	input.Focus()

	sb := statusbar.NewStatusBarView()
	sb.SetModel(opts.ModelLabel)

	dispatcher := commands.NewDispatcher()
	var hints []palette.Command
	for _, h := range dispatcher.Handlers() {
		hints = append(hints, palette.Command{Name: h.Name(), Description: h.Description()})
	}

	m := Model{
		ctx:          ctx,
		ctrl:         ctrl,
		dispatcher:   dispatcher,
		workingDir:   opts.WorkingDir,
		keys:         keys,
		conversation: conversation.New(),
		history:      historylist.New(),
		palette:      palette.NewCommandPalette(hints),
		statusBar:    sb,
		input:        input,
	}
	m.sync()
	return m
}

// Init initializes the model (Bubble Tea lifecycle method)
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates model state (Bubble Tea lifecycle method)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.PasteMsg:
		if m.state.SidebarOpen {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case turnDoneMsg:
		m.sync()
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			slog.Warn("history_load_error", "error", msg.err)
			m.history.SetError(msg.err)
		} else {
			m.history.SetItems(msg.items)
		}
		return m, nil

	case historylist.SelectMsg:
		return m, m.selectChat(msg.ID)

	case historylist.CloseMsg:
		if m.state.SidebarOpen {
			m.ctrl.ToggleSidebar()
		}
		m.sync()
		return m, nil

	case chatSelectedMsg:
		if msg.err == nil {
			m.attachment = nil
			m.notice = ""
			m.history.Reset()
		}
		m.sync()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleHistory):
		return m, m.toggleHistory()
	case key.Matches(msg, m.keys.NewChat):
		m.newChat()
		return m, nil
	case key.Matches(msg, m.keys.CopyReply):
		return m, m.copyLastReply()
	}

	// The open sidebar owns the keyboard.
	if m.state.SidebarOpen {
		return m, m.history.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Complete):
		if completed, ok := m.palette.Complete(m.input.Value()); ok {
			m.input.SetValue(completed)
			return m, nil
		}
	case key.Matches(msg, m.keys.Scroll):
		return m, m.conversation.Update(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs a slash command or starts a turn. The controller appends the
// user message here; the gateway call runs in the returned command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()

	if name, args, ok := commands.Parse(text); ok {
		m.input.Reset()
		return m, m.runCommand(name, args)
	}

	turn, ok := m.ctrl.Begin(commands.Unescape(text), m.attachment)
	if !ok {
		if m.ctrl.Loading() {
			m.notice = "Still waiting for the previous reply"
			m.sync()
		}
		return m, nil
	}

	m.input.Reset()
	m.attachment = nil
	m.notice = ""
	m.sync()

	ctx, ctrl := m.ctx, m.ctrl
	return m, func() tea.Msg {
		ctrl.Complete(ctx, turn)
		return turnDoneMsg{}
	}
}

func (m *Model) runCommand(name, args string) tea.Cmd {
	result := m.dispatcher.Dispatch(name, commands.NewContext(args, m.workingDir))
	slog.Debug("ui_command", "command", name, "action", string(result.Action))

	m.notice = result.Content
	if result.Error != nil {
		m.notice = result.Error.Error()
	}

	var cmd tea.Cmd
	switch result.Action {
	case commands.ResultActionNewChat:
		m.newChat()
	case commands.ResultActionToggleHistory:
		cmd = m.toggleHistory()
	case commands.ResultActionAttach:
		m.attachment = result.Attachment
	case commands.ResultActionClearAttachment:
		m.attachment = nil
		m.notice = "Attachment removed"
	}
	m.sync()
	return cmd
}

func (m *Model) toggleHistory() tea.Cmd {
	m.ctrl.ToggleSidebar()
	m.sync()
	if !m.state.SidebarOpen {
		return nil
	}

	m.history.SetCurrent(m.state.CurrentChatID)
	m.history.SetLoading()
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		items, err := ctrl.History(ctx)
		return historyLoadedMsg{items: items, err: err}
	}
}

func (m *Model) selectChat(id string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return chatSelectedMsg{id: id, err: ctrl.SelectChat(ctx, id)}
	}
}

func (m *Model) newChat() {
	m.ctrl.NewChat()
	m.history.Reset()
	m.attachment = nil
	m.notice = ""
	m.sync()
}

func (m *Model) copyLastReply() tea.Cmd {
	text := lastReply(m.state.Messages)
	if text == "" {
		m.notice = "Nothing to copy yet"
		m.sync()
		return nil
	}
	m.notice = "Copied reply to clipboard"
	m.sync()
	return tea.Raw(osc52.New(text).String())
}

// lastReply returns the text of the newest model message.
func lastReply(msgs []chat.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender == chat.SenderModel {
			return msgs[i].Text()
		}
	}
	return ""
}

// sync refreshes the local copy of the controller state and pushes it into
// the components.
func (m *Model) sync() {
	prevSidebar, prevError := m.state.SidebarOpen, m.state.Error
	m.state = m.ctrl.Snapshot()

	m.conversation.SetState(m.state.Messages, m.state.Loading)
	m.history.SetCurrent(m.state.CurrentChatID)

	topic := ""
	if len(m.state.Messages) > 0 {
		topic = chat.Title(m.state.Messages)
	}
	attachment := ""
	if m.attachment != nil {
		attachment = m.attachment.Name
	}
	m.statusBar.SetTopic(topic)
	m.statusBar.SetAttachment(attachment)
	m.statusBar.SetBusy(m.state.Loading)
	m.statusBar.SetMessage(m.notice)

	if prevSidebar != m.state.SidebarOpen || (prevError == "") != (m.state.Error == "") {
		m.layout()
	}
}

func (m *Model) sidebarWidth() int {
	if !m.state.SidebarOpen {
		return 0
	}
	return utils.Clamp(m.width/3, minSidebarWidth, maxSidebarWidth)
}

// layout sizes every component from the window size.
func (m *Model) layout() {
	if !m.ready {
		return
	}

	sidebar := m.sidebarWidth()
	mainWidth := m.width - sidebar
	if mainWidth < 10 {
		mainWidth = 10
	}

	frameW, frameH := styles.InputBoxStyle.GetFrameSize()
	inputHeight := inputLines + frameH

	bannerHeight := 0
	if m.state.Error != "" {
		bannerHeight = 1
	}

	convHeight := m.height - inputHeight - statusBarHeight - bannerHeight
	if convHeight < 1 {
		convHeight = 1
	}

	m.conversation.SetSize(mainWidth, convHeight)
	m.input.SetWidth(mainWidth - frameW)
	m.statusBar.SetWidth(mainWidth)
	m.palette.SetWidth(mainWidth)
	if sidebar > 0 {
		m.history.SetSize(sidebar, m.height)
	}
}

// conversationView returns the conversation pane with command hints laid
// over its last lines while a slash command is being typed.
func (m Model) conversationView() string {
	view := m.conversation.View()
	input := m.input.Value()
	n := m.palette.Height(input)
	if n == 0 {
		return view
	}
	lines := strings.Split(view, "\n")
	if n > len(lines) {
		return view
	}
	lines = append(lines[:len(lines)-n], strings.Split(m.palette.View(input), "\n")...)
	return strings.Join(lines, "\n")
}

// View renders the program's UI (Bubble Tea lifecycle method)
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("Starting gemchat...")
		v.AltScreen = true
		return v
	}

	mainWidth := m.width - m.sidebarWidth()
	if mainWidth < 10 {
		mainWidth = 10
	}

	rows := []string{m.conversationView()}
	if m.state.Error != "" {
		banner := utils.TruncateToWidth(m.state.Error, mainWidth-2)
		rows = append(rows, styles.ErrorBannerStyle.Width(mainWidth).Render(banner))
	}
	rows = append(rows,
		styles.InputBoxStyle.Width(mainWidth).Render(m.input.View()),
		m.statusBar.Render(),
	)
	main := lipgloss.JoinVertical(lipgloss.Left, rows...)

	content := main
	if m.state.SidebarOpen {
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.history.View(), main)
	}

	v := tea.NewView(strings.TrimRight(content, "\n"))
	v.AltScreen = true
	v.WindowTitle = "gemchat"
	return v
}
