package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petasbytes/minutes-agent/internal/session"
	"github.com/petasbytes/minutes-agent/internal/summary"
	"github.com/petasbytes/minutes-agent/internal/telemetry"
)

const (
	cmdQuit     = "quit"
	cmdGenerate = "generate mom"
	cmdReset    = "reset"

	banner = `Welcome to the Meeting Analysis Chatbot!
Type "hi" to begin. Commands: "generate mom" writes the minutes, "reset" starts over, "quit" exits.`
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the interview in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		plain, _ := cmd.Flags().GetBool("plain")
		out, _ := cmd.Flags().GetString("out")
		verbose, _ := cmd.Flags().GetBool("verbose")

		// Logs share the terminal with the conversation.
		level := telemetry.ParseLevel(cfg.LogLevel)
		if !verbose && level < slog.LevelWarn {
			level = slog.LevelWarn
		}
		logger := telemetry.NewLogger(cmd.ErrOrStderr(), level)
		telemetry.SetLogger(logger)

		a, err := newAgent(cfg, logger, nil)
		if err != nil {
			return err
		}

		// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigch)
		go func() {
			select {
			case <-sigch:
				fmt.Fprintln(cmd.OutOrStdout(), "\nExiting...")
				cancel()
			case <-ctx.Done():
			}
		}()

		c := &chat{
			sess:    a.sessions.GetOrCreate(session.DefaultID),
			minutes: a.minutes,
			out:     cmd.OutOrStdout(),
			errOut:  cmd.ErrOrStderr(),
			render:  markdownRenderer(plain || !isTerminal(cmd.OutOrStdout())),
			outFile: out,
		}
		return c.run(ctx, cmd.InOrStdin())
	},
}

func init() {
	chatCmd.Flags().Bool("plain", false, "Print replies as raw markdown")
	chatCmd.Flags().String("out", "", "Also write generated minutes to this file")
	chatCmd.Flags().BoolP("verbose", "v", false, "Log at the configured level instead of warnings only")
	rootCmd.AddCommand(chatCmd)
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// markdownRenderer returns glamour rendering for terminals and identity
// otherwise.
func markdownRenderer(plain bool) func(string) string {
	if plain {
		return func(md string) string { return md }
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return func(md string) string { return md }
	}
	return func(md string) string {
		s, err := r.Render(md)
		if err != nil {
			return md
		}
		return s
	}
}

// chat is the terminal shell over one conversation.
type chat struct {
	sess    *session.Session
	minutes *summary.Summarizer
	out     io.Writer
	errOut  io.Writer
	render  func(string) string
	outFile string
}

func (c *chat) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(c.out, banner)

	// stdin reader goroutine -> lines into channel. readErr is written
	// before inputCh closes and read only after.
	var readErr error
	inputCh := make(chan string)
	go func() {
		defer close(inputCh)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr = scanner.Err()
	}()

outer:
	for {
		fmt.Fprint(c.out, "\u001b[94mYou\u001b[0m: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			break outer
		case line, ok = <-inputCh:
			if !ok {
				if readErr != nil {
					fmt.Fprintf(c.errOut, "warning: stdin read error: %v\n", readErr)
				}
				break outer
			}
		}

		text := strings.TrimSpace(line)
		switch strings.ToLower(text) {
		case "":
			continue
		case cmdQuit:
			fmt.Fprintln(c.out, "Bye!")
			break outer
		case cmdReset:
			c.sess.Reset()
			fmt.Fprintln(c.out, "Conversation cleared.")
		case cmdGenerate:
			c.generate(ctx)
		default:
			reply, err := c.sess.Send(ctx, text)
			if err != nil {
				fmt.Fprintf(c.errOut, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(c.out, "\u001b[93mBot\u001b[0m:\n%s\n", c.render(reply))
		}
	}
	return nil
}

func (c *chat) generate(ctx context.Context) {
	turns := c.sess.Snapshot()
	if len(turns) == 0 {
		fmt.Fprintln(c.out, "Please complete your interview first before generating minutes.")
		return
	}
	fmt.Fprintln(c.out, "Generating Meeting Minutes...")
	doc, err := c.minutes.Generate(ctx, turns)
	if err != nil {
		fmt.Fprintf(c.errOut, "error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "\n=== Generated Meeting Minutes ===\n%s\n", c.render(doc))
	if c.outFile != "" {
		if err := writeMinutes(c.outFile, doc); err != nil {
			fmt.Fprintf(c.errOut, "warning: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "Minutes written to %s\n", c.outFile)
	}
}

func writeMinutes(path, doc string) error {
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write minutes: %w", err)
	}
	return nil
}
