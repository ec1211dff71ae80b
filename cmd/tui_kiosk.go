package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tibbisekreter/cli/cmd/config"
	"github.com/tibbisekreter/cli/cmd/utils"
	"github.com/tibbisekreter/cli/internal/chat"
	uitk "github.com/tibbisekreter/cli/internal/tui"
)

const (
	sendLabel        = "Gönder"
	sendingLabel     = "Gönderiliyor..."
	inputPlaceholder = "Mesajınızı yazın..."
	userLabel        = "Siz"
	assistantLabel   = "Asistan"

	copiedNotice      = "Yanıt panoya kopyalandı"
	nothingToCopy     = "Kopyalanacak yanıt yok"
	copyFailedNotice  = "Panoya kopyalanamadı"
	reloadedNotice    = "Yapılandırma yenilendi"
	reloadFailed      = "Yapılandırma yüklenemedi"
	plainRemoteNotice = "⚠️  Sunucu bağlantısı şifrelenmemiş: %s"

	popupMinWidth  = 30
	popupMaxWidth  = 72
	popupMaxHeight = 14
)

// serverStatusMsg reports whether the chat backend answered at startup.
type serverStatusMsg struct{ err error }

type kioskModel struct {
	session *chat.Session
	client  *ChatClient
	cfg     *config.Config
	// pinnedServer is set when --server-url fixed the backend; reloads keep it.
	pinnedServer bool

	textarea textarea.Model
	viewport viewport.Model
	spin     spinner.Model
	toast    uitk.ToastModel

	pulseFrame int
	pulsing    bool
	width      int
	height     int
	status     string
}

func newKioskModel(cfg *config.Config, client *ChatClient, session *chat.Session, pinnedServer bool) kioskModel {
	ta := textarea.New()
	ta.Placeholder = inputPlaceholder
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetHeight(1)
	ta.SetWidth(popupMinWidth)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline.SetEnabled(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	m := kioskModel{
		session:      session,
		client:       client,
		cfg:          cfg,
		pinnedServer: pinnedServer,
		textarea:     ta,
		viewport:     viewport.New(popupMinWidth, popupMaxHeight-4),
		spin:         s,
		toast:        uitk.NewToastModel(),
	}
	m.refreshTranscript()
	return m
}

func (m kioskModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, pingServerCmd(m.client.BaseURL())}
	if utils.IsPlainRemote(m.client.BaseURL()) {
		cmds = append(cmds, uitk.ShowToastCmd(fmt.Sprintf(plainRemoteNotice, m.client.BaseURL())))
	}
	return tea.Batch(cmds...)
}

func pingServerCmd(base string) tea.Cmd {
	return func() tea.Msg {
		return serverStatusMsg{err: utils.PingURL(context.Background(), base)}
	}
}

func (m kioskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		var cmd tea.Cmd
		m.toast, cmd = m.toast.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case uitk.ShowToastMsg, uitk.HideToastMsg:
		var cmd tea.Cmd
		m.toast, cmd = m.toast.Update(msg)
		return m, cmd

	case uitk.PulseMsg:
		if !m.session.State().HasUnreadReply {
			m.pulsing = false
			m.pulseFrame = 0
			return m, nil
		}
		m.pulseFrame++
		return m, uitk.PulseCmd()

	case spinner.TickMsg:
		if !m.session.State().IsSending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case serverStatusMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Sunucuya ulaşılamıyor: %v", msg.err)
			utils.LogDebug(fmt.Sprintf("kiosk: backend %s unreachable: %v", m.client.BaseURL(), msg.err))
		} else {
			m.status = ""
		}
		return m, nil

	case utils.TUIMessageMsg:
		if msg.Message.Type == utils.DebugMessage {
			return m, nil
		}
		return m, uitk.ShowToastCmd(utils.FormatMessage(msg.Message))

	case ConfigReloadedMsg:
		return m, m.applyConfig(msg.Config)

	case ConfigReloadFailedMsg:
		utils.LogDebug(fmt.Sprintf("kiosk: reload of %s failed: %v", msg.Path, msg.Err))
		return m, uitk.ShowToastCmd(reloadFailed)
	}

	cmds = append(cmds, m.session.Update(msg))
	m.afterSessionChange(&cmds)

	// Cursor blink and other widget traffic.
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m kioskModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	state := m.session.State()

	switch msg.String() {
	case "ctrl+c", "esc":
		m.session.Close()
		return m, tea.Quit

	case "ctrl+o", "f2":
		m.session.Toggle()
		m.afterSessionChange(&cmds)
		return m, tea.Batch(cmds...)

	case "ctrl+y":
		return m, uitk.CopyCmd(lastAssistantText(m.session.Snapshot()), copiedNotice, nothingToCopy, copyFailedNotice)

	case "enter":
		if !state.IsPopupOpen || state.IsSending {
			return m, nil
		}
		cmd := m.session.Submit(m.textarea.Value())
		if cmd == nil {
			return m, nil
		}
		m.textarea.Reset()
		cmds = append(cmds, cmd, m.spin.Tick)
		m.afterSessionChange(&cmds)
		return m, tea.Batch(cmds...)
	}

	if !state.IsPopupOpen || state.IsSending {
		return m, nil
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.session.SetDraft(m.textarea.Value())
	return m, cmd
}

// afterSessionChange syncs the widgets with the session flags.
func (m *kioskModel) afterSessionChange(cmds *[]tea.Cmd) {
	state := m.session.State()
	if state.IsPopupOpen && !state.IsSending {
		if !m.textarea.Focused() {
			*cmds = append(*cmds, m.textarea.Focus())
		}
	} else {
		m.textarea.Blur()
	}
	if state.HasUnreadReply && !m.pulsing {
		m.pulsing = true
		*cmds = append(*cmds, uitk.PulseCmd())
	}
	m.refreshTranscript()
}

// applyConfig takes a reloaded config. The backend URL is left alone when
// it was pinned on the command line.
func (m *kioskModel) applyConfig(cfg *config.Config) tea.Cmd {
	if !m.pinnedServer {
		m.client.SetBaseURL(cfg.Server.URL)
	} else {
		cfg.Server.URL = m.client.BaseURL()
	}
	m.session.SetRevealInterval(cfg.RevealInterval())
	m.cfg = cfg
	utils.LogDebug(fmt.Sprintf("kiosk: config applied, server=%s interval=%s", m.client.BaseURL(), cfg.RevealInterval()))
	return tea.Batch(uitk.ShowToastCmd(reloadedNotice), pingServerCmd(m.client.BaseURL()))
}

func (m *kioskModel) resize() {
	w := m.popupWidth()
	m.textarea.SetWidth(w - 4)
	m.viewport.Width = w - 2
	h := m.height/2 - 4
	if h > popupMaxHeight-4 {
		h = popupMaxHeight - 4
	}
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
	m.refreshTranscript()
}

func (m kioskModel) popupWidth() int {
	w := m.width - 4
	if w > popupMaxWidth {
		w = popupMaxWidth
	}
	if w < popupMinWidth {
		w = popupMinWidth
	}
	return w
}

func (m *kioskModel) refreshTranscript() {
	m.viewport.SetContent(renderTranscript(m.session.Snapshot(), m.viewport.Width))
	m.viewport.GotoBottom()
}

var (
	userLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb")).Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#059669")).Bold(true)
	titleStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#1e3a8a")).Bold(true)
	subtitleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	popupStyle          = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3b82f6"))
	popupHeaderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#1e3a8a")).Bold(true).Padding(0, 1)
	sendButtonStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#2563eb")).Padding(0, 1)
	sendingButtonStyle  = sendButtonStyle.Background(lipgloss.Color("240"))
)

// renderTranscript lays the conversation out one labelled block per message.
func renderTranscript(messages []chat.Message, width int) string {
	if width <= 0 {
		width = popupMinWidth
	}
	wrap := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		label := userLabelStyle.Render(userLabel + ":")
		if msg.Sender == chat.SenderAssistant {
			label = assistantLabelStyle.Render(assistantLabel + ":")
		}
		b.WriteString(wrap.Render(label + " " + msg.Text))
		b.WriteString("\n")
	}
	return b.String()
}

func lastAssistantText(messages []chat.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender == chat.SenderAssistant {
			return messages[i].Text
		}
	}
	return ""
}

func (m kioskModel) View() string {
	state := m.session.State()
	var sections []string

	if v := m.toast.View(); v != "" {
		sections = append(sections, v)
	}
	sections = append(sections, m.renderBackground())

	if state.IsPopupOpen {
		sections = append(sections, m.placeRight(m.renderPopup(state)))
	}
	launcher := uitk.Launcher{Open: state.IsPopupOpen, Unread: state.HasUnreadReply, Frame: m.pulseFrame}
	sections = append(sections, m.placeRight(launcher.View()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m kioskModel) renderBackground() string {
	lines := []string{
		titleStyle.Render(m.cfg.Kiosk.Title),
		subtitleStyle.Render(m.cfg.Kiosk.Subtitle),
	}
	if m.status != "" {
		lines = append(lines, "", statusStyle.Render(m.status))
	}
	panel := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if m.width <= 0 {
		return panel
	}
	height := m.height - popupMaxHeight - 4
	if height < lipgloss.Height(panel) {
		height = lipgloss.Height(panel)
	}
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, panel)
}

func (m kioskModel) renderPopup(state chat.State) string {
	header := popupHeaderStyle.Width(m.popupWidth() - 2).Render(assistantLabel)

	button := sendButtonStyle.Render(sendLabel)
	if state.IsSending {
		button = sendingButtonStyle.Render(m.spin.View() + " " + sendingLabel)
	}
	input := lipgloss.JoinVertical(lipgloss.Right, m.textarea.View(), button)

	body := lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), input)
	return popupStyle.Render(body)
}

func (m kioskModel) placeRight(s string) string {
	if m.width <= 0 {
		return s
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, s)
}
