// Package tui is the interactive terminal client. It renders the daemon's
// snapshots and never mutates local state directly: every action goes
// through the HTTP API and becomes visible on the next poll.
package tui

import (
	"context"
	"time"

	"chatd/internal/api"
	"chatd/internal/client"
	"chatd/internal/poll"
	"chatd/internal/tui/views"
	"chatd/internal/view"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// noopLogger suppresses poller warnings; transient fetch failures would
// only fight the status bar for attention.
func noopLogger() *zap.Logger { return zap.NewNop() }

// App is the TUI application shell.
type App struct {
	app      *tview.Application
	pages    *tview.Pages
	client   *client.Client
	reducer  *view.Reducer
	poller   *poll.Poller
	thread   *views.Thread
	composer *views.Composer
	bar      *views.StatusBar
	prompt   *tview.InputField

	selfID   string
	selfName string
	replyTo  string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(c *client.Client, selfID, selfName string, pollInterval time.Duration, snapshotLimit int) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:      tview.NewApplication(),
		pages:    tview.NewPages(),
		client:   c,
		reducer:  view.NewReducer(),
		thread:   views.NewThread(),
		composer: views.NewComposer(),
		bar:      views.NewStatusBar(),
		prompt:   tview.NewInputField().SetFieldWidth(0),
		selfID:   selfID,
		selfName: selfName,
		ctx:      ctx,
		cancel:   cancel,
	}

	a.poller = poll.New(c, selfID, pollInterval, snapshotLimit, a.onSnapshot, noopLogger())
	a.bar.SetActor(selfName)
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupCallbacks() {
	a.composer.SetOnSend(func(text string) {
		replyTo := a.replyTo
		a.replyTo = ""
		go func() {
			_, err := a.client.Send(a.ctx, api.SendRequest{Content: text, ContentType: "text", ReplyTo: replyTo})
			if err != nil {
				a.flash("Send failed: " + err.Error())
			}
		}()
	})

	a.composer.SetOnTyping(func(typing bool) {
		go func() { _ = a.client.SetTyping(a.ctx, typing) }()
	})
}

func (a *App) setupLayout() {
	main := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, true).
		AddItem(a.composer, 1, 0, false).
		AddItem(a.bar, 1, 0, false)

	a.pages.AddPage("main", main, true, true)
	a.app.SetRoot(a.pages, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			if event.Key() == tcell.KeyEscape {
				a.closePrompt()
				a.app.SetFocus(a.thread)
				return nil
			}
			return event
		}

		if event.Key() != tcell.KeyRune {
			return event
		}
		switch event.Rune() {
		case 'q':
			a.Stop()
		case 'i':
			a.app.SetFocus(a.composer.InputField)
		case 'r':
			a.promptFor("React: ", a.reactSelected)
		case 'e':
			a.promptFor("Edit: ", a.editSelected)
		case 'd':
			a.deleteSelected()
		case 'f':
			a.promptFor("Forward as (empty = original sender): ", a.forwardSelected)
		case 'R':
			a.replyTo = a.thread.SelectedID()
			a.flash("Replying; Enter sends, Esc cancels")
			a.app.SetFocus(a.composer.InputField)
		default:
			return event
		}
		return nil
	})
}

// onSnapshot runs on the poller goroutine. The thread is always on screen,
// so receiving a snapshot is also reading it: unread messages from other
// actors get a read ack here.
func (a *App) onSnapshot(snap api.SnapshotResponse) {
	changed := a.reducer.Apply(snap.Messages)

	for _, m := range snap.Messages {
		if m.SenderID == a.selfID || m.IsDeleted || m.Status == "read" {
			continue
		}
		_ = a.client.UpdateStatus(a.ctx, m.ID, "read")
	}

	msgs := a.reducer.Messages()
	a.app.QueueUpdateDraw(func() {
		if len(changed) > 0 {
			a.thread.Update(msgs, a.selfID)
		}
		a.bar.SetTyping(snap.Typing)
	})
}

func (a *App) promptFor(label string, apply func(value string)) {
	id := a.thread.SelectedID()
	if id == "" {
		return
	}
	a.prompt.SetLabel(" " + label).SetText("")
	a.prompt.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			value := a.prompt.GetText()
			a.closePrompt()
			a.app.SetFocus(a.thread)
			apply(value)
		}
	})
	a.pages.AddPage("prompt", promptRow(a.prompt), true, true)
	a.app.SetFocus(a.prompt)
}

// promptRow pins the input to the bottom of the screen.
func promptRow(input *tview.InputField) tview.Primitive {
	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(input, 1, 0, true)
}

func (a *App) closePrompt() {
	a.pages.RemovePage("prompt")
}

func (a *App) reactSelected(symbol string) {
	id := a.thread.SelectedID()
	go func() {
		if err := a.client.React(a.ctx, id, symbol); err != nil {
			a.flash("React failed: " + err.Error())
		}
	}()
}

func (a *App) editSelected(content string) {
	id := a.thread.SelectedID()
	go func() {
		if err := a.client.Edit(a.ctx, id, content); err != nil {
			a.flash("Edit failed: " + err.Error())
		}
	}()
}

func (a *App) deleteSelected() {
	id := a.thread.SelectedID()
	if id == "" {
		return
	}
	go func() {
		if err := a.client.Delete(a.ctx, id); err != nil {
			a.flash("Delete failed: " + err.Error())
		}
	}()
}

func (a *App) forwardSelected(label string) {
	id := a.thread.SelectedID()
	go func() {
		if _, err := a.client.Forward(a.ctx, id, label); err != nil {
			a.flash("Forward failed: " + err.Error())
		}
	}()
}

func (a *App) flash(msg string) {
	a.app.QueueUpdateDraw(func() {
		a.bar.SetFlash(msg)
	})
	go func() {
		time.Sleep(5 * time.Second)
		a.app.QueueUpdateDraw(func() {
			a.bar.SetFlash("")
		})
	}()
}

// Run starts the TUI and blocks until quit.
func (a *App) Run() error {
	go func() {
		if st, err := a.client.Status(a.ctx); err == nil {
			a.app.QueueUpdateDraw(func() {
				a.bar.SetState(st.State)
			})
		}
	}()
	a.poller.Start(a.ctx)
	return a.app.Run()
}

// Stop shuts the TUI down.
func (a *App) Stop() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.client.SetTyping(ctx, false)
	}()
	a.poller.Stop()
	a.cancel()
	a.app.Stop()
}
