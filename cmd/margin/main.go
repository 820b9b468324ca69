// Command margin asks a reading question of a configured LLM provider and
// streams the answer to the terminal.
//
// Usage:
//
//	ANTHROPIC_API_KEY=sk-... margin "who is the narrator of this chapter?"
//	OPENAI_API_KEY=sk-...    margin -reasoning high "why did the letter matter?"
//	margin -provider local -model qwen3 "summarize the plot so far"
//
// Flags:
//
//	-provider string     Provider: anthropic, openai, gemini, local (auto-detected from env vars if omitted)
//	-model string        Model ID (default: provider default)
//	-api-key string      API key (overrides the provider's env var)
//	-base-url string     Override the provider endpoint (local servers, testing)
//	-system string       System prompt (default: a reading-companion prompt)
//	-temperature float   Sampling temperature (provider default if omitted)
//	-max-tokens int      Response token limit (provider default if omitted)
//	-reasoning string    Reasoning: a token budget, or low/medium/high
//	-plain               Print raw text without the TUI
//	-verbose             Log parameter adjustments and retries
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ebnarten/margin"
	"github.com/ebnarten/margin/assist"
)

const defaultSystemPrompt = "You are a reading companion. Answer questions about the book the reader " +
	"is holding: plot, characters, vocabulary, context. Be concise and do not " +
	"reveal events past the reader's current position unless asked."

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "margin: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env next to the binary is a convenience for local use; absence is
	// not an error.
	_ = godotenv.Load()

	var (
		providerFlag = flag.String("provider", "", "Provider: anthropic, openai, gemini, local (auto-detected from env vars if omitted)")
		model        = flag.String("model", "", "Model ID (provider-specific)")
		apiKey       = flag.String("api-key", "", "API key (overrides the provider's env var)")
		baseURL      = flag.String("base-url", "", "Override the provider endpoint")
		system       = flag.String("system", defaultSystemPrompt, "System prompt")
		temperature  = flag.Float64("temperature", -1, "Sampling temperature (provider default if omitted)")
		maxTokens    = flag.Int("max-tokens", 0, "Response token limit (provider default if omitted)")
		reasoning    = flag.String("reasoning", "", "Reasoning: a token budget, or low/medium/high")
		plain        = flag.Bool("plain", false, "Print raw text without the TUI")
		verbose      = flag.Bool("verbose", false, "Log parameter adjustments and retries")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger(*verbose)

	providerID, provider, err := resolveProvider(ctx, *providerFlag, *apiKey, *baseURL, envKeys{
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Gemini:    os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return err
	}

	prompt, err := readPrompt(flag.Args(), os.Stdin)
	if err != nil {
		return err
	}

	req := margin.Request{
		Model:        *model,
		SystemPrompt: *system,
		Prompt:       prompt,
	}
	if *temperature >= 0 {
		req.Params.Temperature = temperature
	}
	req.Params.MaxTokens = *maxTokens
	req.Params.Reasoning, err = parseReasoning(providerID, *reasoning)
	if err != nil {
		return err
	}

	providers := map[margin.ProviderID]margin.Provider{providerID: provider}

	if *plain {
		return runPlain(ctx, logger, providers, providerID, req, os.Stdout)
	}
	return runTUI(ctx, logger, providers, providerID, req)
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// readPrompt joins the positional arguments, falling back to stdin so the
// question can be piped in.
func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given: pass it as an argument or on stdin")
	}
	return prompt, nil
}

// runPlain streams raw answer text to w as it arrives. Reasoning fragments
// are dropped; use the TUI to watch the model think.
func runPlain(ctx context.Context, logger zerolog.Logger, providers map[margin.ProviderID]margin.Provider, providerID margin.ProviderID, req margin.Request, w io.Writer) error {
	runner := assist.NewRunner(providers,
		assist.WithLogger(logger),
		assist.WithFragmentHandler(func(frag margin.Fragment) {
			if frag.Text != nil {
				fmt.Fprint(w, *frag.Text)
			}
		}),
	)

	_, err := runner.Run(ctx, providerID, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// runTUI streams the answer through the bubbletea interface.
func runTUI(ctx context.Context, logger zerolog.Logger, providers map[margin.ProviderID]margin.Provider, providerID margin.ProviderID, req margin.Request) error {
	m := newModel(margin.DefaultTheme())
	p := tea.NewProgram(m, tea.WithContext(ctx))

	runner := assist.NewRunner(providers,
		assist.WithLogger(logger),
		assist.WithFragmentHandler(func(frag margin.Fragment) {
			p.Send(fragmentMsg(frag))
		}),
	)

	go func() {
		result, err := runner.Run(ctx, providerID, req)
		if err != nil {
			p.Send(errMsg{err})
			return
		}
		p.Send(doneMsg{result})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(tuiModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
