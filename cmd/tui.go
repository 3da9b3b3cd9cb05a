// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ramses-gw/ramses-gw/pkg/gateway"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live dashboard of devices, zones, and the command queue",
	Long: `tui opens the configured transport and runs the gateway in the
background while rendering a live terminal dashboard: elected
controller and its zones, the number of known devices, and the QoS
dispatcher's queue depth/state.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var (
	tuiHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	tuiDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tuiWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

type tuiTickMsg time.Time

type tuiModel struct {
	gw     *gateway.Gateway
	source string
	quit   bool
	width  int
	height int
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func tuiTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tuiTickMsg(t) })
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.gw.Stop()
			m.quit = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tuiTickMsg:
		return m, tuiTick()
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.quit {
		return ""
	}
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n\n", tuiHeaderStyle.Render("ramses-gw"), tuiDimStyle.Render(m.source))

	store := m.gw.Store()
	ctrl := store.Controller()
	if ctrl == nil {
		b.WriteString(tuiWarnStyle.Render("no controller elected yet") + "\n")
	} else {
		fmt.Fprintf(&b, "%s %s   mode=%s\n", tuiHeaderStyle.Render("Controller"), ctrl.Addr, ctrl.SystemMode)

		zoneIdxs := make([]int, 0, len(ctrl.Zones))
		for idx := range ctrl.Zones {
			zoneIdxs = append(zoneIdxs, idx)
		}
		sort.Ints(zoneIdxs)
		for _, idx := range zoneIdxs {
			z := ctrl.Zones[idx]
			temp := "--"
			if z.TempAvailable {
				temp = fmt.Sprintf("%.1f°C", z.TempC)
			}
			fmt.Fprintf(&b, "  zone %2d  temp=%-7s setpoint=%.1f°C  demand=%.0f%%\n", idx, temp, z.SetpointC, z.DemandPC)
		}
	}

	b.WriteString("\n")
	devices := store.Devices()
	fmt.Fprintf(&b, "%s %d known\n", tuiHeaderStyle.Render("Devices"), len(devices))

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s depth=%d pending=%d state=%s\n",
		tuiHeaderStyle.Render("Queue"), m.gw.Queue().Len(), pendingCount(m.gw), dispatcherState(m.gw))

	b.WriteString("\n" + tuiDimStyle.Render("q to quit") + "\n")
	return b.String()
}

func dispatcherState(gw *gateway.Gateway) string {
	d := gw.Dispatcher()
	if d == nil {
		return "idle"
	}
	return d.State().String()
}

func pendingCount(gw *gateway.Gateway) int {
	d := gw.Dispatcher()
	if d == nil {
		return 0
	}
	return d.PendingCount()
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}
	source, sender, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer source.Close()
	gw.Attach(sender)

	runErr := make(chan error, 1)
	go func() { runErr <- gw.Run(source, sender) }()

	p := tea.NewProgram(tuiModel{gw: gw, source: describeSource(cfg)}, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		gw.Stop()
		return fmt.Errorf("tui: %w", err)
	}

	gw.Stop()
	return <-runErr
}
