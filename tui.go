package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abennett/letsroll/pkg/client"
	"github.com/abennett/letsroll/pkg/messages"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	Align(lipgloss.Center)

var columns = []table.Column{
	{Title: "User", Width: 10},
	{Title: "Result", Width: 48},
	{Title: "Done", Width: 6},
}

type remoteRoll struct {
	client *client.Client
	table  table.Model
}

func newRemoteRoll(c *client.Client) *remoteRoll {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(0),
		table.WithFocused(false),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Foreground(lipgloss.Color("#01c5d1"))
	s.Selected = s.Selected.Foreground(lipgloss.NoColor{}).Bold(false)
	t.SetStyles(s)
	return &remoteRoll{
		client: c,
		table:  t,
	}
}

func (rr *remoteRoll) Init() tea.Cmd {
	err := rr.client.Init()
	if err != nil {
		return func() tea.Msg { return err }
	}
	return func() tea.Msg {
		return rr.client.ReadUpdate()
	}
}

func resultsToRows(rrs []messages.RollResult) []table.Row {
	rows := make([]table.Row, len(rrs))
	for idx, rr := range rrs {
		// Reports can span lines; flatten for the table cell.
		result := strings.ReplaceAll(rr.Result, "\n", "; ")
		done := ""
		if rr.IsDone {
			done = "✅"
		}
		rows[idx] = table.Row{rr.User, result, done}
	}
	return rows
}

func (rr *remoteRoll) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case []messages.RollResult:
		slog.Debug("roll result")
		rr.table.SetHeight(len(msg) + 1)
		rr.table.SetRows(resultsToRows(msg))
		return rr, func() tea.Msg {
			return rr.client.ReadUpdate()
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			err := rr.client.Close()
			if err != nil {
				slog.Error("failed to close client", "error", err)
			}
			return rr, tea.Quit

		// Toggle this user's done flag
		case " ":
			if err := rr.client.ToggleDone(); err != nil {
				return rr, func() tea.Msg { return err }
			}

		// Ask for fresh rolls
		case "r":
			if err := rr.client.Reroll(); err != nil {
				return rr, func() tea.Msg { return err }
			}
		}
	case error:
		slog.Error("exiting for error", "error", msg)
		return rr, tea.Quit
	default:
		slog.Debug("unsupported message", "msg", msg)
	}
	return rr, nil
}

func (rr *remoteRoll) View() string {
	return baseStyle.Render(rr.table.View()) + "\n"
}

func rollRemote(_ context.Context, args []string) error {
	if len(args) < 3 {
		return errors.New("roll_remote needs a host, a room, and a username")
	}
	logWriter := io.Writer(io.Discard)
	if *remoteLogFile != "" {
		f, err := os.OpenFile(*remoteLogFile, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		logWriter = f
	}
	var notation string
	if len(args) > 3 {
		notation = strings.Join(args[3:], " ")
	}
	c, err := client.New(args[0], args[1], args[2], notation, logWriter)
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(newRemoteRoll(c)).Run()
	return err
}
