package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// Terminal prints notifications as styled lines. Dismissals are not shown.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	styles map[notify.Level]lipgloss.Style
	muted  lipgloss.Style
	quiet  map[notify.Level]bool
}

// NewTerminal creates a terminal sink writing to out. Levels listed in quiet
// are not printed.
func NewTerminal(out io.Writer, quiet ...notify.Level) *Terminal {
	r := lipgloss.NewRenderer(out)
	t := &Terminal{
		out: out,
		styles: map[notify.Level]lipgloss.Style{
			notify.LevelInfo:    r.NewStyle().Foreground(lipgloss.Color("12")),
			notify.LevelSuccess: r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
			notify.LevelError:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			notify.LevelLoading: r.NewStyle().Foreground(lipgloss.Color("11")),
		},
		muted: r.NewStyle().Faint(true),
		quiet: make(map[notify.Level]bool, len(quiet)),
	}
	for _, l := range quiet {
		t.quiet[l] = true
	}
	return t
}

// Dispatch prints one line per notification.
func (t *Terminal) Dispatch(notes ...notify.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, n := range notes {
		if t.quiet[n.Level] {
			continue
		}
		line := t.styles[n.Level].Render(fmt.Sprintf("%-7s %s", symbol(n.Level), n.Title))
		if n.Description != "" {
			line += " " + t.muted.Render(n.Description)
		}
		fmt.Fprintln(t.out, line)
	}
}

// Dismiss is a no-op; printed lines stay.
func (t *Terminal) Dismiss(string) {}

func symbol(l notify.Level) string {
	switch l {
	case notify.LevelSuccess:
		return "[ok]"
	case notify.LevelError:
		return "[error]"
	case notify.LevelLoading:
		return "[..]"
	default:
		return "[info]"
	}
}
