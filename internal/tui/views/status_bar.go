package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays the actor identity, daemon state and typing indicator.
type StatusBar struct {
	*tview.TextView
	actor  string
	state  string
	typing []string
	flash  string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetActor updates the displayed actor name.
func (sb *StatusBar) SetActor(name string) {
	sb.actor = name
	sb.render()
}

// SetState updates the daemon runtime state display.
func (sb *StatusBar) SetState(state string) {
	sb.state = state
	sb.render()
}

// SetTyping updates the typing indicator with live display names.
func (sb *StatusBar) SetTyping(names []string) {
	sb.typing = names
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	clock := time.Now().Format("15:04")
	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s", tview.Escape(sb.actor), sb.state, clock)
	if len(sb.typing) > 0 {
		line += fmt.Sprintf(" | [green]%s typing...[-]", tview.Escape(strings.Join(sb.typing, ", ")))
	}
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", tview.Escape(sb.flash))
	}

	_, _ = fmt.Fprint(sb, line)
}
