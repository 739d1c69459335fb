package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tidwall/gjson"

	"github.com/petasbytes/go-threadexec/api"
	"github.com/petasbytes/go-threadexec/execution"
	"github.com/petasbytes/go-threadexec/internal/config"
	"github.com/petasbytes/go-threadexec/tools"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	prompt := flag.String("prompt", "", "user message to execute; read from stdin when empty")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	level, _ := cfg.Level()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		<-sigch
		fmt.Println("\nExiting...")
		cancel()
	}()

	if err := run(ctx, cfg, log, *prompt, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, prompt string, stdin io.Reader, stdout io.Writer) error {
	workspace, err := tools.WorkspaceTools(cfg.ReadRoot, cfg.WriteRoot)
	if err != nil {
		return err
	}
	reg, err := tools.NewRegistry(workspace...)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.BaseURL, cfg.APIKey)
	r := execution.New(client, reg,
		execution.WithPollInterval(cfg.PollInterval),
		execution.WithLogger(log),
	)

	// stdin reader goroutine -> lines into channel
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()
	readLine := func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return "", io.EOF
			}
			return line, nil
		}
	}

	if strings.TrimSpace(prompt) == "" {
		fmt.Fprint(stdout, "\u001b[94mYou\u001b[0m: ")
		if prompt, err = readLine(ctx); err != nil {
			return fmt.Errorf("reading prompt: %w", err)
		}
	}

	con := newConsole(stdout)
	go con.run()

	opts := []execution.Option{execution.WithSystemPrompt(cfg.SystemPrompt)}
	if cfg.HumanInTheLoop {
		opts = append(opts, execution.WithHumanInTheLoop(tools.Typed(
			func(ctx context.Context, in tools.HumanInput) (string, error) {
				q := fmt.Sprintf("\u001b[95mQuestion\u001b[0m: %s\n\u001b[94mYou\u001b[0m: ", in.Question)
				if err := con.prompt(ctx, q); err != nil {
					return "", err
				}
				return readLine(ctx)
			},
		)))
	}

	e, err := r.ExecuteWithTools(ctx, cfg.ParamID, []execution.Message{execution.NewUserMessage(prompt)}, cfg.Tools, opts...)
	if err != nil {
		con.close()
		return err
	}
	log.Info("thread execution submitted", "execution_id", e.ID, "chain_id", e.ChainID())

	res, err := r.RunUntilComplete(ctx, e, con.events)
	con.close()
	if err != nil {
		return err
	}

	gjson.ParseBytes(res.Content).ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").String() == "text" {
			fmt.Fprintf(stdout, "\u001b[93mAssistant\u001b[0m: %s\n", block.Get("text").String())
		}
		return true
	})
	return nil
}

// console is the only writer to stdout while an execution runs. Prompts are
// printed after every event published before them.
type console struct {
	w       io.Writer
	events  chan execution.Event
	prompts chan promptRequest
	done    chan struct{}
}

type promptRequest struct {
	text    string
	printed chan struct{}
}

func newConsole(w io.Writer) *console {
	return &console{
		w:       w,
		events:  make(chan execution.Event, 16),
		prompts: make(chan promptRequest),
		done:    make(chan struct{}),
	}
}

func (c *console) run() {
	defer close(c.done)
	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			printEvent(c.w, ev)
		case p := <-c.prompts:
			// Events sent before the prompt are already buffered.
			c.drain()
			fmt.Fprint(c.w, p.text)
			close(p.printed)
		}
	}
}

func (c *console) drain() {
	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			printEvent(c.w, ev)
		default:
			return
		}
	}
}

func (c *console) prompt(ctx context.Context, text string) error {
	p := promptRequest{text: text, printed: make(chan struct{})}
	select {
	case c.prompts <- p:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-p.printed
	return nil
}

// close stops the printer once every buffered event is written.
func (c *console) close() {
	close(c.events)
	<-c.done
}

func printEvent(w io.Writer, ev execution.Event) {
	switch c := ev.Content.(type) {
	case execution.ToolUseContent:
		fmt.Fprintf(w, "\u001b[92mtool\u001b[0m: %s(%s)\n", c.ToolName, c.ToolInput)
	case execution.ToolResultContent:
		fmt.Fprintf(w, "\u001b[92mresult\u001b[0m: %s\n", truncate(string(c.Result), 200))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
