package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/imamik/hdcluster/internal/cluster"
	"github.com/imamik/hdcluster/internal/storage"
)

// ErrAborted is returned when the user declines a destructive command.
var ErrAborted = errors.New("aborted by user")

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen)

	badStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// Prompt hooks - replaced in tests.
var (
	interactive = isInteractiveTTY

	confirm = func(ctx context.Context, title string) (bool, error) {
		var ok bool
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(title).
					Affirmative("Yes").
					Negative("No").
					Value(&ok),
			),
		).RunWithContext(ctx)
		return ok, err
	}
)

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// confirmDestructive asks before a destructive command. It never prompts when
// forced or when stdout is not a terminal.
func confirmDestructive(ctx context.Context, g *Globals, title string) error {
	if g.Force || !interactive() {
		return nil
	}
	ok, err := confirm(ctx, title)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// styleState colors a lifecycle state on a terminal.
func styleState(state string, styled bool) string {
	if !styled {
		return state
	}
	switch state {
	case "running", "available", "in-use":
		return okStyle.Render(state)
	case "terminated", "shutting-down", "error", "deleted":
		return badStyle.Render(state)
	default:
		return dimStyle.Render(state)
	}
}

// writeRows writes tab separated rows, with a styled header on a terminal.
func writeRows(w io.Writer, header []string, rows [][]string, styled bool) {
	if styled {
		fmt.Fprintln(w, headerStyle.Render(strings.Join(header, "\t")))
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

func printInstances(w io.Writer, statuses []cluster.InstanceStatus, styled bool) {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		inst := s.Instance
		rows = append(rows, []string{
			s.Role,
			inst.ID,
			orDash(inst.ImageID),
			fmt.Sprintf("%-40s", orDash(inst.PublicDNSName)),
			fmt.Sprintf("%-24s", orDash(inst.PrivateDNSName)),
			styleState(string(inst.State), styled),
			orDash(inst.KeyName),
			orDash(inst.InstanceType),
			formatTime(inst.LaunchTime),
			orDash(inst.Placement),
		})
	}
	writeRows(w, []string{"ROLE", "ID", "IMAGE", "PUBLIC DNS", "PRIVATE DNS", "STATE", "KEY", "TYPE", "LAUNCHED", "ZONE"}, rows, styled)
}

func printVolumes(w io.Writer, statuses []storage.VolumeStatus, styled bool) {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		v := s.Volume
		attached := "-"
		if v.Attachment != nil {
			attached = formatTime(v.Attachment.AttachTime)
		}
		rows = append(rows, []string{
			s.Role,
			v.ID,
			strconv.Itoa(v.Size),
			orDash(v.SnapshotID),
			orDash(v.AvailabilityZone),
			styleState(string(v.Status), styled),
			formatTime(v.CreateTime),
			attached,
		})
	}
	writeRows(w, []string{"ROLE", "VOLUME", "SIZE", "SNAPSHOT", "ZONE", "STATUS", "CREATED", "ATTACHED"}, rows, styled)
}

func printTitle(w io.Writer, title string, styled bool) {
	if styled {
		fmt.Fprintln(w, titleStyle.Render(title))
		return
	}
	fmt.Fprintln(w, title)
}
