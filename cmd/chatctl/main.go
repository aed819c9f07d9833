package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"chatd/internal/api"
	"chatd/internal/client"
	"chatd/internal/config"
	"chatd/internal/home"

	qrcode "github.com/skip2/go-qrcode"
)

func main() {
	dataDirFlag := flag.String("data-dir", "", "data directory (default ~/.chatd)")
	addrFlag := flag.String("addr", "", "daemon address (overrides config)")
	actorFlag := flag.String("actor", "", "actor id or name from config (default: first configured)")
	tokenFlag := flag.String("token", "", "bearer token (overrides config lookup)")
	limitFlag := flag.Int("limit", 0, "message limit for list/search")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	dataDir := *dataDirFlag
	if dataDir == "" {
		dataDir = home.DefaultDir()
	}
	cfg, err := config.LoadOrDefault(home.ConfigPath(dataDir))
	if err != nil {
		fatal("load config: %v", err)
	}

	addr := *addrFlag
	if addr == "" {
		addr = "http://" + cfg.ListenAddr
	}
	token := *tokenFlag
	if token == "" && args[0] != "status" {
		token = resolveToken(cfg, *actorFlag)
	}

	c := client.New(addr, token)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, c, *jsonFlag)
	case "send":
		requireArgs(args, 2, "send <text>")
		cmdSend(ctx, c, api.SendRequest{Content: strings.Join(args[1:], " "), ContentType: "text"}, *jsonFlag)
	case "reply":
		requireArgs(args, 3, "reply <id> <text>")
		cmdSend(ctx, c, api.SendRequest{Content: strings.Join(args[2:], " "), ContentType: "text", ReplyTo: args[1]}, *jsonFlag)
	case "list":
		cmdList(ctx, c, *limitFlag, *jsonFlag)
	case "search":
		requireArgs(args, 2, "search <query>")
		cmdSearch(ctx, c, strings.Join(args[1:], " "), *limitFlag, *jsonFlag)
	case "ack":
		requireArgs(args, 3, "ack <id> <delivered|read>")
		run(c.UpdateStatus(ctx, args[1], args[2]))
	case "react":
		requireArgs(args, 3, "react <id> <symbol>")
		run(c.React(ctx, args[1], args[2]))
	case "edit":
		requireArgs(args, 3, "edit <id> <text>")
		run(c.Edit(ctx, args[1], strings.Join(args[2:], " ")))
	case "delete":
		requireArgs(args, 2, "delete <id>")
		run(c.Delete(ctx, args[1]))
	case "forward":
		requireArgs(args, 2, "forward <id> [label]")
		cmdForward(ctx, c, args[1], strings.Join(args[2:], " "), *jsonFlag)
	case "conversation":
		cmdConversation(ctx, c, *jsonFlag)
	case "invite":
		cmdInvite(cfg, addr, *actorFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chatctl [--data-dir <dir>] [--addr <url>] [--actor <id>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                  Show daemon status")
	fmt.Fprintln(os.Stderr, "  send <text>             Send a text message")
	fmt.Fprintln(os.Stderr, "  reply <id> <text>       Reply to a message")
	fmt.Fprintln(os.Stderr, "  list                    List recent messages")
	fmt.Fprintln(os.Stderr, "  search <query>          Full-text search")
	fmt.Fprintln(os.Stderr, "  ack <id> <status>       Acknowledge delivered/read")
	fmt.Fprintln(os.Stderr, "  react <id> <symbol>     Set your reaction")
	fmt.Fprintln(os.Stderr, "  edit <id> <text>        Edit your message")
	fmt.Fprintln(os.Stderr, "  delete <id>             Delete your message")
	fmt.Fprintln(os.Stderr, "  forward <id> [label]    Forward a message")
	fmt.Fprintln(os.Stderr, "  conversation            Show conversation digest")
	fmt.Fprintln(os.Stderr, "  invite                  Print a join QR code for an actor")
}

func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "usage: chatctl %s\n", usage)
		os.Exit(1)
	}
}

func fatal(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", a...)
	os.Exit(1)
}

func run(err error) {
	if err != nil {
		fatal("%v", err)
	}
	fmt.Println("ok")
}

// resolveToken finds the token for the requested actor in the config file.
// With no --actor flag the first configured actor is used.
func resolveToken(cfg *config.Config, actor string) string {
	if len(cfg.Actors) == 0 {
		fatal("no actors configured; add one to config.toml or pass --token")
	}
	if actor == "" {
		return cfg.Actors[0].Token
	}
	for _, a := range cfg.Actors {
		if a.ID == actor || a.Name == actor {
			return a.Token
		}
	}
	fatal("actor %q not found in config", actor)
	return ""
}

func cmdStatus(ctx context.Context, c *client.Client, jsonOut bool) {
	resp, err := c.Status(ctx)
	if err != nil {
		fatal("%v", err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("State:    %s\n", resp.State)
	fmt.Printf("Uptime:   %dms\n", resp.UptimeMS)
	fmt.Printf("Messages: %d\n", resp.Messages)
	fmt.Printf("Actors:   %d\n", resp.Actors)
}

func cmdSend(ctx context.Context, c *client.Client, req api.SendRequest, jsonOut bool) {
	m, err := c.Send(ctx, req)
	if err != nil {
		fatal("%v", err)
	}
	if jsonOut {
		outputJSON(m)
		return
	}
	fmt.Printf("sent %s\n", m.ID)
}

func cmdList(ctx context.Context, c *client.Client, limit int, jsonOut bool) {
	snap, err := c.Snapshot(ctx, limit)
	if err != nil {
		fatal("%v", err)
	}
	if jsonOut {
		outputJSON(snap)
		return
	}
	// Snapshot is newest first; print oldest first for reading order.
	for i := len(snap.Messages) - 1; i >= 0; i-- {
		printMessage(&snap.Messages[i])
	}
	if len(snap.Typing) > 0 {
		fmt.Printf("typing: %s\n", strings.Join(snap.Typing, ", "))
	}
}

func cmdSearch(ctx context.Context, c *client.Client, query string, limit int, jsonOut bool) {
	resp, err := c.Search(ctx, query, limit)
	if err != nil {
		fatal("%v", err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	if len(resp.Results) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, r := range resp.Results {
		fmt.Printf("%s  %s: %s\n", r.Message.ID, r.Message.SenderName, r.Snippet)
	}
}

func cmdForward(ctx context.Context, c *client.Client, id, label string, jsonOut bool) {
	m, err := c.Forward(ctx, id, label)
	if err != nil {
		fatal("%v", err)
	}
	if jsonOut {
		outputJSON(m)
		return
	}
	fmt.Printf("forwarded as %s\n", m.ID)
}

func cmdConversation(ctx context.Context, c *client.Client, jsonOut bool) {
	resp, err := c.Conversation(ctx)
	if err != nil {
		fatal("%v", err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Messages: %d\n", resp.MessageCount)
	if resp.LastMessageAt > 0 {
		fmt.Printf("Last:     %s  %q\n",
			time.UnixMilli(resp.LastMessageAt).Format(time.RFC3339), resp.LastPreview)
	}
}

// cmdInvite prints a QR code encoding the daemon address and the actor's
// token, for pointing a phone or second machine at this daemon.
func cmdInvite(cfg *config.Config, addr, actor string) {
	token := resolveToken(cfg, actor)
	url := addr + "#" + token

	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		fatal("generate qr: %v", err)
	}
	fmt.Print(qr.ToSmallString(false))
	fmt.Println(url)
}

func printMessage(m *api.Message) {
	ts := time.UnixMilli(m.CreatedAtMS).Format("15:04")
	marks := ""
	if m.IsEdited && !m.IsDeleted {
		marks += " (edited)"
	}
	if m.ForwardedFrom != "" {
		marks += fmt.Sprintf(" (forwarded from %s)", m.ForwardedFrom)
	}
	if m.Status != "" {
		marks += " [" + m.Status + "]"
	}
	fmt.Printf("%s  %s %s%s\n", ts, m.SenderName, m.ID, marks)
	if m.ReplyTo != nil {
		fmt.Printf("      > %s: %s\n", m.ReplyTo.Sender, m.ReplyTo.Excerpt)
	}
	fmt.Printf("      %s\n", m.Content)
	if len(m.Reactions) > 0 {
		var parts []string
		for actor, symbol := range m.Reactions {
			parts = append(parts, actor+":"+symbol)
		}
		fmt.Printf("      reactions: %s\n", strings.Join(parts, " "))
	}
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
