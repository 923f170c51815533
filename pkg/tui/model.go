// Package tui is the interactive terminal front-end: a device table, a
// status line, and key-driven bind/attach/detach/install actions.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/aiyflowers/wslusb/pkg/logger"
	"github.com/aiyflowers/wslusb/pkg/usbipd"
)

const (
	busIDWidth  = 8
	vidpidWidth = 10
	stateWidth  = 14
	nameWidth   = 34

	minTableHeight = 4
	chromeHeight   = 8
)

// action identifies the confirmation-gated operation the user asked for.
type action int

const (
	actionNone action = iota
	actionBindAttach
	actionDetach
	actionInstall
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarn
	statusError
)

// Messages delivered back to Update when an external invocation finishes.
type (
	devicesMsg struct {
		devices []usbipd.Device
		err     error
	}

	bindAttachMsg struct {
		busID  string
		result usbipd.BindAttachResult
	}

	detachMsg struct {
		busID  string
		result usbipd.OpResult
	}

	installMsg struct {
		result usbipd.InstallResult
	}
)

type model struct {
	client  *usbipd.Client
	table   table.Model
	devices []usbipd.Device
	styles  styles

	status     string
	statusKind statusKind
	notice     string
	noticeKind statusKind

	// busy serializes device-affecting operations: while an invocation is
	// in flight every action key is ignored, so no two external calls can
	// ever overlap.
	busy    bool
	pending action
	target  usbipd.Device

	canCopy bool
	width   int
	log     zerolog.Logger
}

func newModel(client *usbipd.Client) *model {
	columns := []table.Column{
		{Title: "BUSID", Width: busIDWidth},
		{Title: "VID:PID", Width: vidpidWidth},
		{Title: "DEVICE", Width: nameWidth},
		{Title: "STATE", Width: stateWidth},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(minTableHeight),
	)

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		Foreground(lipgloss.Color(colorTextSecondary)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(colorBorder)).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color(colorTextPrimary)).
		Background(lipgloss.Color(colorBorder)).
		Bold(false)
	t.SetStyles(ts)

	canCopy := clipboard.WriteAll("") == nil

	return &model{
		client:     client,
		table:      t,
		styles:     newStyles(),
		status:     "Scanning USB devices...",
		statusKind: statusInfo,
		busy:       true,
		canCopy:    canCopy,
		log:        logger.WithComponent("tui"),
	}
}

func (m *model) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case devicesMsg:
		return m.handleDevices(msg)
	case bindAttachMsg:
		return m.handleBindAttach(msg)
	case detachMsg:
		return m.handleDetach(msg)
	case installMsg:
		return m.handleInstall(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) resize(width, height int) {
	m.width = width

	nw := width - busIDWidth - vidpidWidth - stateWidth - 6
	if nw < nameWidth {
		nw = nameWidth
	}

	m.table.SetColumns([]table.Column{
		{Title: "BUSID", Width: busIDWidth},
		{Title: "VID:PID", Width: vidpidWidth},
		{Title: "DEVICE", Width: nw},
		{Title: "STATE", Width: stateWidth},
	})
	m.table.SetRows(m.rows())

	th := height - chromeHeight
	if th < minTableHeight {
		th = minTableHeight
	}

	m.table.SetHeight(th)
}

func (m *model) handleDevices(msg devicesMsg) (tea.Model, tea.Cmd) {
	m.busy = false

	if msg.err != nil {
		m.log.Error().Err(msg.err).Msg("device scan failed")
		m.setStatus(statusError, msg.err.Error())

		return m, nil
	}

	m.devices = msg.devices
	m.table.SetRows(m.rows())
	m.setStatus(statusSuccess, fmt.Sprintf("Scan complete: %d USB device(s) found", len(m.devices)))

	return m, nil
}

func (m *model) handleBindAttach(msg bindAttachMsg) (tea.Model, tea.Cmd) {
	switch msg.result.Outcome {
	case usbipd.OutcomeSucceeded:
		m.setNotice(statusSuccess, fmt.Sprintf("Device %s bound and attached to WSL", msg.busID))
	case usbipd.OutcomePartial:
		m.setNotice(statusWarn, fmt.Sprintf(
			"Device %s is bound, but attaching to WSL failed: %s (make sure WSL is running)",
			msg.busID, msg.result.AttachMessage))
	default:
		m.setNotice(statusError, fmt.Sprintf("Failed to bind %s: %s", msg.busID, msg.result.BindMessage))
	}

	// Device state may have changed on any outcome.
	return m.startRefresh()
}

func (m *model) handleDetach(msg detachMsg) (tea.Model, tea.Cmd) {
	if msg.result.Succeeded {
		m.setNotice(statusSuccess, fmt.Sprintf("Device %s detached from WSL", msg.busID))
	} else {
		m.setNotice(statusError, fmt.Sprintf("Failed to detach %s: %s", msg.busID, msg.result.Message))
	}

	return m.startRefresh()
}

func (m *model) handleInstall(msg installMsg) (tea.Model, tea.Cmd) {
	switch msg.result.Status {
	case usbipd.InstallAlreadyPresent:
		m.busy = false
		m.setNotice(statusSuccess, "usbipd-win is already installed")

		return m, nil
	case usbipd.InstallSucceeded:
		m.setNotice(statusSuccess, "usbipd-win installed and verified")
		return m.startRefresh()
	default:
		m.busy = false
		m.setNotice(statusError, fmt.Sprintf(
			"Automatic install failed; opening %s for manual installation", msg.result.ManualURL))

		url := msg.result.ManualURL

		return m, func() tea.Msg {
			if err := openBrowser(url); err != nil {
				logger.Warn().Err(err).Str("url", url).Msg("failed to open browser")
			}

			return nil
		}
	}
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pending != actionNone {
		return m.handleConfirmKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "r":
		if m.busy {
			return m, nil
		}

		return m.startRefresh()
	case "b":
		return m.requestBindAttach()
	case "d":
		return m.requestDetach()
	case "i":
		return m.requestInstall()
	case "c":
		return m.copyBusID()
	}

	if !m.busy {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m *model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		return m.launchPending()
	case "n", "N", "esc", "q":
		m.pending = actionNone
		m.setStatus(statusInfo, "Cancelled")

		return m, nil
	}

	return m, nil
}

func (m *model) launchPending() (tea.Model, tea.Cmd) {
	pending := m.pending
	m.pending = actionNone
	m.busy = true
	m.notice = ""

	client := m.client
	busID := m.target.BusID

	switch pending {
	case actionBindAttach:
		m.setStatus(statusInfo, fmt.Sprintf("Binding %s (administrator approval may be required)...", busID))

		return m, func() tea.Msg {
			return bindAttachMsg{busID: busID, result: client.BindAndAttach(context.Background(), busID)}
		}
	case actionDetach:
		m.setStatus(statusInfo, fmt.Sprintf("Detaching %s from WSL...", busID))

		return m, func() tea.Msg {
			return detachMsg{busID: busID, result: client.Detach(context.Background(), busID)}
		}
	case actionInstall:
		m.setStatus(statusInfo, "Installing usbipd-win via winget...")

		return m, func() tea.Msg {
			return installMsg{result: client.Install(context.Background())}
		}
	}

	m.busy = false

	return m, nil
}

func (m *model) requestBindAttach() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	dev, ok := deviceAt(m.devices, m.table.Cursor())
	if !ok {
		m.setStatus(statusWarn, "No device selected")
		return m, nil
	}

	m.pending = actionBindAttach
	m.target = dev

	return m, nil
}

func (m *model) requestDetach() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	dev, ok := deviceAt(m.devices, m.table.Cursor())
	if !ok {
		m.setStatus(statusWarn, "No device selected")
		return m, nil
	}

	m.pending = actionDetach
	m.target = dev

	return m, nil
}

func (m *model) requestInstall() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	m.pending = actionInstall
	m.target = usbipd.Device{}

	return m, nil
}

func (m *model) copyBusID() (tea.Model, tea.Cmd) {
	dev, ok := deviceAt(m.devices, m.table.Cursor())
	if !ok {
		m.setStatus(statusWarn, "No device selected")
		return m, nil
	}

	if !m.canCopy {
		m.setStatus(statusWarn, "Clipboard is not available")
		return m, nil
	}

	if err := clipboard.WriteAll(dev.BusID); err != nil {
		m.setStatus(statusError, "Failed to copy to clipboard")
	} else {
		m.setStatus(statusSuccess, fmt.Sprintf("Copied %s to clipboard", dev.BusID))
	}

	return m, nil
}

func (m *model) startRefresh() (tea.Model, tea.Cmd) {
	m.busy = true
	m.setStatus(statusInfo, "Scanning USB devices...")

	return m, m.refreshCmd()
}

func (m *model) refreshCmd() tea.Cmd {
	client := m.client

	return func() tea.Msg {
		devices, err := client.List(context.Background())
		return devicesMsg{devices: devices, err: err}
	}
}

func (m *model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

func (m *model) setNotice(kind statusKind, text string) {
	m.noticeKind = kind
	m.notice = text
}

func (m *model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.devices))
	for _, d := range m.devices {
		rows = append(rows, table.Row{
			d.BusID,
			d.VIDPID,
			d.Name,
			m.styles.stateStyle(d.State).Render(d.StateText),
		})
	}

	return rows
}

func (m *model) statusStyle(kind statusKind) lipgloss.Style {
	switch kind {
	case statusSuccess:
		return m.styles.statusSuccess
	case statusWarn:
		return m.styles.statusWarn
	case statusError:
		return m.styles.statusError
	default:
		return m.styles.statusInfo
	}
}

func (m *model) View() string {
	var b strings.Builder

	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.styles.title.Render("wslusb"),
		m.styles.badge.Render("  usbipd for WSL"),
	)
	b.WriteString(title + "\n")
	b.WriteString(m.styles.subtitle.Render("Manage USB device sharing with WSL") + "\n\n")

	b.WriteString(m.styles.tableFrame.Render(m.table.View()) + "\n")

	if m.notice != "" {
		b.WriteString(m.statusStyle(m.noticeKind).Render(m.notice) + "\n")
	}

	b.WriteString(m.statusStyle(m.statusKind).Render(m.status) + "\n")

	if m.pending != actionNone {
		b.WriteString(m.styles.prompt.Render(m.confirmText()) + " " + m.styles.promptKey.Render("[y/n]"))
	} else {
		b.WriteString(m.styles.help.Render("r refresh | b bind+attach | d detach | i install | c copy busid | q quit"))
	}

	return b.String()
}

func (m *model) confirmText() string {
	switch m.pending {
	case actionBindAttach:
		return fmt.Sprintf("Bind %s (%s) and attach it to WSL? Administrator approval may be requested.",
			m.target.Name, m.target.BusID)
	case actionDetach:
		return fmt.Sprintf("Detach %s (%s) from WSL?", m.target.Name, m.target.BusID)
	case actionInstall:
		return "Install usbipd-win via winget?"
	default:
		return ""
	}
}

// deviceAt is the single source of truth for selection: a pure function of
// the last-fetched device slice and the cursor index. Table cells are render
// output and are never read back.
func deviceAt(devices []usbipd.Device, index int) (usbipd.Device, bool) {
	if index < 0 || index >= len(devices) {
		return usbipd.Device{}, false
	}

	return devices[index], true
}

// Run starts the interactive program and blocks until the user quits.
func Run(client *usbipd.Client) error {
	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err := p.Run()

	return err
}
