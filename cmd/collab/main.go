// Command collab runs a multi-agent voice-net conversation from a scenario
// file. External input typed at the prompt becomes channel traffic; replies
// are printed as they arrive. Slash commands inspect and snapshot the
// conversation.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"

	"github.com/semanticarchitectures/multi-agent-collab/config"
	"github.com/semanticarchitectures/multi-agent-collab/logging"
	"github.com/semanticarchitectures/multi-agent-collab/session"
)

func main() {
	scenarioPath := flag.String("scenario", "scenario.yaml", "path to the scenario file")
	flag.Parse()

	if err := run(*scenarioPath); err != nil {
		color.Error.Println("collab:", err)
		os.Exit(1)
	}
}

func run(scenarioPath string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(&logging.Config{
		Level:  logging.ParseLevel(settings.LogLevel),
		Format: settings.LogFormat,
		Output: os.Stderr,
	})

	scenario, err := config.Load(scenarioPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := config.Build(ctx, scenario, settings, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	store, err := session.NewFileStore(settings.SnapshotDir)
	if err != nil {
		return err
	}

	color.Bold.Printf("net %q up, %d participants, %d tool providers\n",
		scenario.Name, len(rt.Orchestrator.Participants()), len(rt.Providers.ProviderNames()))
	for _, p := range rt.Orchestrator.Participants() {
		tag := ""
		if p.IsCoordinator() {
			tag = " (coordinator)"
		}
		fmt.Printf("  - %s%s\n", p.Label(), tag)
	}
	color.Gray.Println("type a message, /help for commands")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.Cyan.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := command(rt, store, line); quit {
				break
			}
			continue
		}

		result, err := rt.Orchestrator.RunTurn(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			color.Error.Println(err)
			continue
		}
		if result.Fallback != "" {
			color.Gray.Printf("(fallback: %s)\n", result.Fallback)
		}
		if len(result.Responses) == 0 {
			color.Gray.Println("(silence on the net)")
		}
		for _, resp := range result.Responses {
			color.Green.Printf("%s: ", resp.SenderLabel)
			fmt.Println(resp.Body)
		}
	}

	return scanner.Err()
}

// command handles a slash command and reports whether the REPL should exit.
func command(rt *config.Runtime, store session.Store, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(`commands:
  /history [n]     show the last n messages (default 20)
  /tools           list available tools
  /breakers        show circuit breaker state per provider
  /save [label]    snapshot the conversation
  /snapshots       list saved snapshots
  /restore <id>    restore a snapshot
  /quit            leave the net`)

	case "/history":
		n := 20
		if len(fields) > 1 {
			fmt.Sscanf(fields[1], "%d", &n)
		}
		fmt.Println(rt.Channel.FormatHistory(n))

	case "/tools":
		tools := rt.Providers.Tools()
		if len(tools) == 0 {
			color.Gray.Println("no tools connected")
		}
		for _, tool := range tools {
			fmt.Printf("  %s (%s): %s\n", tool.Name, tool.Provider, tool.Description)
		}

	case "/breakers":
		stats := rt.Providers.BreakerStats()
		if len(stats) == 0 {
			color.Gray.Println("no providers connected")
		}
		for name, s := range stats {
			fmt.Printf("  %s: %s, failures=%d", name, s.State, s.FailureCount)
			if s.RetryAfter > 0 {
				fmt.Printf(", retry in %s", s.RetryAfter.Round(time.Second))
			}
			fmt.Println()
		}

	case "/save":
		label := strings.Join(fields[1:], " ")
		snap := session.Capture(rt.Orchestrator, label)
		if err := store.Save(snap); err != nil {
			color.Error.Println(err)
			break
		}
		fmt.Println("saved", snap.ID)

	case "/snapshots":
		snaps, err := store.List()
		if err != nil {
			color.Error.Println(err)
			break
		}
		if len(snaps) == 0 {
			color.Gray.Println("no snapshots")
		}
		for _, snap := range snaps {
			fmt.Printf("  %s  %s  %d messages  %s\n",
				snap.ID, snap.CreatedAt.Format("2006-01-02 15:04"), len(snap.Messages), snap.Label)
		}

	case "/restore":
		if len(fields) < 2 {
			color.Error.Println("usage: /restore <id>")
			break
		}
		snap, err := store.Load(fields[1])
		if err != nil {
			color.Error.Println(err)
			break
		}
		session.Restore(rt.Orchestrator, snap)
		fmt.Printf("restored %d messages\n", len(snap.Messages))

	default:
		color.Error.Println("unknown command, try /help")
	}
	return false
}
