package views

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"chatd/internal/api"

	"github.com/rivo/tview"
)

// Thread displays the conversation as a selectable list, oldest first.
type Thread struct {
	*tview.List
	ids []string
}

// NewThread creates the conversation view.
func NewThread() *Thread {
	list := tview.NewList().
		ShowSecondaryText(true).
		SetWrapAround(false)
	list.SetBorder(true).SetTitle(" Messages ")

	return &Thread{List: list}
}

// Update re-renders the thread, keeping the selection on the same message
// where possible.
func (t *Thread) Update(msgs []api.Message, selfID string) {
	selected := t.SelectedID()

	t.Clear()
	t.ids = t.ids[:0]

	reselect := -1
	for i, m := range msgs {
		t.AddItem(headerLine(&m, selfID), bodyLine(&m), 0, nil)
		t.ids = append(t.ids, m.ID)
		if m.ID == selected {
			reselect = i
		}
	}

	if reselect >= 0 {
		t.SetCurrentItem(reselect)
	} else if len(msgs) > 0 {
		t.SetCurrentItem(len(msgs) - 1)
	}
}

// SelectedID returns the id of the highlighted message, if any.
func (t *Thread) SelectedID() string {
	i := t.GetCurrentItem()
	if i < 0 || i >= len(t.ids) {
		return ""
	}
	return t.ids[i]
}

func headerLine(m *api.Message, selfID string) string {
	sender := m.SenderName
	if m.SenderID == selfID {
		sender = "You"
	}
	ts := time.UnixMilli(m.CreatedAtMS).Format("15:04")

	line := fmt.Sprintf("[::b]%s[-:-:-] [::d]%s[-:-:-]", tview.Escape(sender), ts)
	if m.ForwardedFrom != "" {
		line += fmt.Sprintf(" [::d]forwarded from %s[-:-:-]", tview.Escape(m.ForwardedFrom))
	}
	if m.IsEdited && !m.IsDeleted {
		line += " [::d](edited)[-:-:-]"
	}
	if m.SenderID == selfID && !m.IsDeleted {
		line += " " + statusTicks(m.Status)
	}
	return line
}

func bodyLine(m *api.Message) string {
	if m.IsDeleted {
		return "  [::d]" + tview.Escape(m.Content) + "[-:-:-]"
	}

	var b strings.Builder
	if m.ReplyTo != nil {
		fmt.Fprintf(&b, "  [::d]> %s: %s[-:-:-]\n", tview.Escape(m.ReplyTo.Sender), tview.Escape(m.ReplyTo.Excerpt))
	}
	b.WriteString("  " + tview.Escape(m.Content))
	if m.AttachmentURL != "" {
		fmt.Fprintf(&b, " [::d][%s][-:-:-]", tview.Escape(m.AttachmentURL))
	}
	if len(m.Reactions) > 0 {
		b.WriteString("  " + reactionSummary(m.Reactions))
	}
	return b.String()
}

func statusTicks(status string) string {
	switch status {
	case "read":
		return "[blue]✓✓[-]"
	case "delivered":
		return "✓✓"
	default:
		return "✓"
	}
}

// reactionSummary collapses the per-actor reaction map into "👍 2 😀 1".
func reactionSummary(reactions map[string]string) string {
	counts := make(map[string]int)
	for _, symbol := range reactions {
		counts[symbol]++
	}
	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	parts := make([]string, 0, len(symbols))
	for _, s := range symbols {
		parts = append(parts, fmt.Sprintf("%s %d", s, counts[s]))
	}
	return strings.Join(parts, " ")
}
