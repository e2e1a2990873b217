// Command assistant is a terminal chat front-end for the SalarySe assistant.
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

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/salaryse/assistant/assistant"
	"github.com/salaryse/assistant/bootstrap"
	"github.com/salaryse/assistant/config"
)

var (
	threadID = flag.String("thread", "", "Conversation id (random when empty)")
	question = flag.String("question", "", "Ask one question and exit")
	drawOnly = flag.Bool("graph", false, "Print the agent graph as Mermaid and exit")
	verbose  = flag.Bool("verbose", false, "Show the visited nodes and sources under each answer")
	noIndex  = flag.Bool("skip-index", false, "Do not build the index when it is empty")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	answerStyle = lipgloss.NewStyle().PaddingLeft(2)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	dimStyle    = lipgloss.NewStyle().Faint(true).PaddingLeft(2)
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if *drawOnly {
		fmt.Println(app.Agent.Mermaid())
		return nil
	}

	if !*noIndex {
		if err := app.EnsureIndexed(ctx); err != nil {
			return err
		}
	}

	thread := *threadID
	if thread == "" {
		thread = uuid.NewString()
	}

	if *question != "" {
		ask(ctx, app.Service, thread, *question)
		return nil
	}

	fmt.Println(titleStyle.Render("SalarySe AI Assistant"))
	fmt.Println(dimStyle.Render("thread " + thread + " · /reset clears history · /quit exits"))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := app.Service.Reset(ctx, thread); err != nil {
				fmt.Println(errorStyle.Render(assistant.UserMessage(err)))
			} else {
				fmt.Println(dimStyle.Render("history cleared"))
			}
			continue
		}

		ask(ctx, app.Service, thread, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func ask(ctx context.Context, svc *assistant.Service, thread, q string) {
	resp, err := svc.Ask(ctx, assistant.Request{ThreadID: thread, Question: q})
	if err != nil {
		fmt.Println(errorStyle.Render(assistant.UserMessage(err)))
		return
	}

	fmt.Println(answerStyle.Render(resp.Answer))
	if resp.LowConfidence {
		fmt.Println(warnStyle.Render("  (low confidence: the answer could not be fully verified)"))
	}
	if *verbose {
		fmt.Println(dimStyle.Render("path: " + strings.Join(resp.Path, " -> ")))
		for _, doc := range resp.Documents {
			fmt.Println(dimStyle.Render("source: " + doc.Source()))
		}
	}
}
