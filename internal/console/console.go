// Package console runs the assistant as a line-oriented terminal REPL.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/oygul/asil/conversation"
	"github.com/oygul/asil/core"
	"github.com/oygul/asil/logging"
)

// IntroPrompt is the first turn of every console session.
const IntroPrompt = "Introduce yourself and contunue in language: %s"

// ExitWord ends the REPL when it appears anywhere in the input.
const ExitWord = "exit"

// Loginer stores a successful login in the session at key.
type Loginer interface {
	Login(ctx context.Context, key core.SessionKey, login, password string) error
}

// Options configures a console session. Either Login and Password or a
// pre-issued BearerToken may be given; with neither the session starts
// unauthenticated.
type Options struct {
	Key         core.SessionKey
	Language    string
	Login       string
	Password    string
	BearerToken string
	MerchantID  string
	BranchID    string
	UserID      string
	TurnTimeout time.Duration
}

// Console is a REPL over one session.
type Console struct {
	store     core.SessionStore
	responder conversation.Responder
	loginer   Loginer
	in        io.Reader
	out       io.Writer
	logger    logging.Logger
	styles    styles
}

type styles struct {
	agent  lipgloss.Style
	prompt lipgloss.Style
	err    lipgloss.Style
	help   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		agent:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
		prompt: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#58a6ff")),
		err:    r.NewStyle().Foreground(lipgloss.Color("#ff5f56")),
		help:   r.NewStyle().Foreground(lipgloss.Color("#6e7681")),
	}
}

// New creates a console reading from in and writing to out.
func New(store core.SessionStore, responder conversation.Responder, loginer Loginer, in io.Reader, out io.Writer, logger logging.Logger) *Console {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Console{
		store:     store,
		responder: responder,
		loginer:   loginer,
		in:        in,
		out:       out,
		logger:    logging.Component(logger, "console"),
		styles:    newStyles(lipgloss.NewRenderer(out)),
	}
}

// Run seeds the session, sends the intro prompt and then answers one line at
// a time until the input contains ExitWord, ends, or ctx is canceled.
func (c *Console) Run(ctx context.Context, opts Options) error {
	if opts.Language == "" {
		opts.Language = conversation.DefaultLanguage
	}
	if !conversation.SupportedLanguage(opts.Language) {
		return fmt.Errorf("unsupported language %q", opts.Language)
	}

	if _, err := c.store.Create(opts.Key, seedState(opts)); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if opts.Login != "" {
		if err := c.loginer.Login(ctx, opts.Key, opts.Login, opts.Password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		c.logger.Info("console.login.succeeded", "login", opts.Login)
	}

	fmt.Fprintln(c.out, c.styles.help.Render("Type \""+ExitWord+"\" to quit."))

	scanner := bufio.NewScanner(c.in)
	prompt := fmt.Sprintf(IntroPrompt, opts.Language)

	for {
		c.turn(ctx, opts, prompt)

		fmt.Fprint(c.out, c.styles.prompt.Render(">>>")+" ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return nil
		}

		prompt = scanner.Text()
		if strings.Contains(prompt, ExitWord) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Console) turn(ctx context.Context, opts Options, prompt string) {
	if strings.TrimSpace(prompt) == "" {
		return
	}

	turnCtx := ctx
	if opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, opts.TurnTimeout)
		defer cancel()
	}

	answer, err := c.responder.Respond(turnCtx, opts.Key, prompt)
	if err != nil {
		c.logger.Error("console.turn.failed", "error", err)
		fmt.Fprintln(c.out, c.styles.err.Render("error: "+err.Error()))
		return
	}

	fmt.Fprintln(c.out, c.styles.agent.Render("Asil:")+" "+answer)
}

func seedState(opts Options) map[string]any {
	state := map[string]any{
		core.StateUserLanguage:        opts.Language,
		core.StateAwaitingCredentials: false,
	}
	if opts.BearerToken != "" {
		state[core.StateBearerToken] = opts.BearerToken
	}
	if opts.MerchantID != "" {
		state[core.StateMerchantID] = opts.MerchantID
	}
	if opts.BranchID != "" {
		state[core.StateBranchID] = opts.BranchID
	}
	if opts.UserID != "" {
		state[core.StateUserID] = opts.UserID
	}
	return state
}
