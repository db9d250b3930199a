package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"revise/cli/internal/ask"
	"revise/cli/internal/compose"
	"revise/cli/internal/config"
	"revise/cli/internal/erruser"
	"revise/cli/internal/git"
	"revise/cli/internal/hook"
	"revise/cli/internal/logger"
	"revise/cli/internal/run"
	"revise/cli/internal/trace"
	"revise/cli/internal/version"
)

// Exit codes follow sysexits(3).
const (
	exitOK     = 0
	exitData   = 65
	exitConfig = 78
)

// errExit is an error that carries an exit code for the CLI. Use errors.As to detect it.
type errExit int

func (e errExit) Error() string {
	return "exit " + strconv.Itoa(int(e))
}

// errOut receives error reports and warnings. Tests may replace it to capture output.
var errOut io.Writer = os.Stderr

func main() {
	os.Exit(Run())
}

// Run is the entry point for the CLI. It is exported for testing.
func Run() int {
	return runCLI(os.Args[1:])
}

func runCLI(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}
	var exitErr errExit
	if errors.As(err, &exitErr) {
		return int(exitErr)
	}
	report(errOut, err)
	return exitData
}

// configExit reports err and returns the exit error for configuration failures.
func configExit(err error) error {
	report(errOut, err)
	return errExit(exitConfig)
}

// report prints the user message, the underlying cause and a recovery hint.
func report(w io.Writer, err error) {
	fmt.Fprintln(w, err)
	if u := errors.Unwrap(err); u != nil {
		fmt.Fprintf(w, "Details: %v\n", u)
	}
	if h := erruser.HintOf(err); h != "" {
		fmt.Fprintf(w, "Hint: %s\n", h)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revise [flags] [TEXT]",
		Short: "Compose Conventional Commits messages, optionally with AI candidates",
		Long: `revise walks through the fields of a Conventional Commits message and commits the result.
With --generate it asks the configured AI provider for candidates based on the staged diff;
with --translate it asks for candidates based on TEXT instead.`,
		Version:       version.String(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}
	f := cmd.Flags()
	f.BoolP("generate", "g", false, "Generate message candidates from the staged diff")
	f.StringP("translate", "t", "", "Generate message candidates from TEXT (prompted when empty)")
	f.Lookup("translate").NoOptDefVal = " "
	f.StringSliceP("add", "a", nil, "Stage PATHS before composing (default .)")
	f.Lookup("add").NoOptDefVal = "."
	f.StringSliceP("exclude", "x", nil, "Leave FILE out of the diff sent to the AI (by basename)")
	f.StringSliceP("include", "i", nil, "Keep FILE in the diff even if configured as excluded")
	f.StringP("message", "m", "", "Commit TEXT directly without prompting")
	f.String("provider", "", "AI provider: gemini, ollama or openai (overrides config and env)")
	f.String("model", "", "AI model (overrides config and env)")
	f.String("base-url", "", "AI endpoint base URL (overrides config and env)")
	f.Duration("timeout", 0, "AI request timeout, e.g. 45s (overrides config and env)")
	f.Bool("trace", false, "Print internal steps to stderr (diff, AI input and output, edits)")
	f.Bool("debug", false, "Write debug records to the log file")

	cmd.MarkFlagsMutuallyExclusive("generate", "translate")
	for _, other := range []string{"generate", "translate", "add", "exclude", "include"} {
		cmd.MarkFlagsMutuallyExclusive("message", other)
	}
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the revise version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// modeFromFlags resolves the composition mode. Positional arguments are the
// translate text when --translate is given without a value.
func modeFromFlags(cmd *cobra.Command, args []string) (compose.Mode, error) {
	f := cmd.Flags()
	if f.Changed("translate") {
		text, _ := f.GetString("translate")
		if strings.TrimSpace(text) == "" && len(args) > 0 {
			text = strings.Join(args, " ")
		}
		return compose.Translate(text), nil
	}
	if len(args) > 0 {
		return compose.Mode{}, erruser.WithHint("Unexpected arguments: "+strings.Join(args, " "),
			"Pass text with --translate=TEXT or a message with --message=TEXT.", nil)
	}
	if g, _ := f.GetBool("generate"); g {
		return compose.Generate(), nil
	}
	return compose.Manual(), nil
}

func overridesFromFlags(cmd *cobra.Command) *config.Overrides {
	f := cmd.Flags()
	o := &config.Overrides{}
	if f.Changed("provider") {
		v, _ := f.GetString("provider")
		o.Provider = &v
	}
	if f.Changed("model") {
		v, _ := f.GetString("model")
		o.Model = &v
	}
	if f.Changed("base-url") {
		v, _ := f.GetString("base-url")
		o.BaseURL = &v
	}
	if f.Changed("timeout") {
		v, _ := f.GetDuration("timeout")
		o.Timeout = &v
	}
	return o
}

func optionsFromFlags(cmd *cobra.Command, args []string) (run.Options, error) {
	f := cmd.Flags()
	mode, err := modeFromFlags(cmd, args)
	if err != nil {
		return run.Options{}, err
	}
	opts := run.Options{Mode: mode}
	opts.Add, _ = f.GetStringSlice("add")
	opts.Exclude, _ = f.GetStringSlice("exclude")
	opts.Include, _ = f.GetStringSlice("include")
	if f.Changed("message") {
		opts.Message, _ = f.GetString("message")
		opts.HasMessage = true
		if strings.TrimSpace(opts.Message) == "" {
			return run.Options{}, erruser.New("The commit message cannot be empty.", nil)
		}
	}
	return opts, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runRoot(cmd *cobra.Command, args []string) error {
	opts, err := optionsFromFlags(cmd, args)
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return erruser.New("Could not determine current directory.", err)
	}
	repo, err := git.Open(cwd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{RepoRoot: repo.Root, Overrides: overridesFromFlags(cmd)})
	if err != nil {
		return configExit(err)
	}
	repo.Minify = cfg.AI.Minify

	debug, _ := cmd.Flags().GetBool("debug")
	log, closer, err := logger.New(logger.Options{Debug: debug})
	if err != nil {
		fmt.Fprintf(errOut, "Warning: logging disabled: %v\n", err)
		log = logger.Discard()
	} else {
		defer closer.Close()
	}
	log = log.With("repo", repo.Root)

	var tracer *trace.Tracer
	if t, _ := cmd.Flags().GetBool("trace"); t {
		tracer = trace.New(os.Stderr)
	}
	repo.Tracer = tracer
	interactive := isTerminal(os.Stdin) && isTerminal(os.Stdout)
	color := isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == ""

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s := &run.Session{
		Config:   *cfg,
		RepoRoot: repo.Root,
		VCS:      repo,
		Prompter: ask.NewTerminal(!interactive),
		Hooks: &hook.Runner{
			Dir:    repo.Root,
			Hooks:  hook.FromConfig(cfg.Hooks),
			Stdout: os.Stdout,
			Stderr: os.Stderr,
			Logger: log,
			Tracer: tracer,
		},
		Logger: log,
		Tracer: tracer,
		Out:    os.Stdout,
		Warn:   errOut,
		Color:  color,
	}
	log.Info("start", "mode", opts.Mode.Kind.String(), "version", version.String())
	out, err := s.Run(ctx, opts)
	if err != nil {
		log.Error("run failed", "error", err)
		if errors.Is(err, config.ErrMissingAPIKey) {
			return configExit(err)
		}
		return err
	}
	reportOutcome(cmd.OutOrStdout(), log, out)
	return nil
}

func reportOutcome(w io.Writer, log *slog.Logger, out run.Outcome) {
	log.Info("finish", "status", out.Status.String())
	switch out.Status {
	case run.Aborted:
		fmt.Fprintln(w, "Commit aborted.")
	case run.Cancelled:
		fmt.Fprintln(w, "Cancelled. Nothing was committed.")
	default:
		fmt.Fprintln(w, "Committed.")
	}
}
