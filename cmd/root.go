package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal"
	"github.com/kittycad/kittycad-go/internal/config"
	"github.com/kittycad/kittycad-go/internal/format"
	"github.com/kittycad/kittycad-go/internal/history"
	"github.com/kittycad/kittycad-go/internal/logging"
	"github.com/kittycad/kittycad-go/internal/paths"
	"github.com/kittycad/kittycad-go/option"
)

// rootOptions are the dependencies of a command tree. Tests replace them.
type rootOptions struct {
	loadConfig    func(workingDir string, debug bool) (*config.Config, error)
	stdin         io.Reader
	stdout        io.Writer
	stderr        io.Writer
	clientOptions []option.RequestOption
}

// app is the state shared by every command of one invocation.
type app struct {
	cfg    *config.Config
	client *kittycad.Client
	out    *format.Printer
	log    *slog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	mu   sync.Mutex
	jobs history.Service
}

func newRootCmd(opts rootOptions) (*cobra.Command, *app) {
	if opts.loadConfig == nil {
		opts.loadConfig = config.Load
	}
	if opts.stdout == nil {
		opts.stdout = os.Stdout
	}
	if opts.stderr == nil {
		opts.stderr = os.Stderr
	}
	a := &app{stdin: opts.stdin, stdout: opts.stdout, stderr: opts.stderr}

	root := &cobra.Command{
		Use:   "zoo",
		Short: "Work with the Zoo design API from the command line",
		Long: `zoo converts and inspects CAD files, generates models from text prompts,
runs code in the API's executor and talks to the modeling engine.

The API token is read from ZOO_API_TOKEN, the config file or --token.`,
		Version:       internal.PackageVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, opts)
		},
	}
	root.SetOut(opts.stdout)
	root.SetErr(opts.stderr)
	if opts.stdin != nil {
		root.SetIn(opts.stdin)
	}

	pf := root.PersistentFlags()
	pf.String("host", "", "API base URL (default https://api.zoo.dev)")
	pf.String("token", "", "API token, overriding the environment and config file")
	pf.StringP("output", "o", "", "Output format (text, json)")
	pf.BoolP("debug", "d", false, "Debug logging")
	pf.Bool("trace-http", false, "Log every API request and response")

	root.AddCommand(
		newPingCmd(a),
		newWhoamiCmd(a),
		newUserCmd(a),
		newAPITokenCmd(a),
		newAPICallCmd(a),
		newAsyncCmd(a),
		newFileCmd(a),
		newExecCmd(a),
		newMLCmd(a),
		newModelingCmd(a),
		newUnitCmd(a),
		newOrgCmd(a),
		newPaymentCmd(a),
		newAuthCmd(a),
		newAPICmd(a),
		newHistoryCmd(a),
	)
	return root, a
}

func (a *app) setup(cmd *cobra.Command, opts rootOptions) error {
	// Root flags are read from the root so a subcommand flag of the same name cannot shadow them.
	flags := cmd.Root().PersistentFlags()
	debug, _ := flags.GetBool("debug")
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := opts.loadConfig(cwd, debug)
	if err != nil {
		return err
	}

	if host, _ := flags.GetString("host"); host != "" {
		cfg.Host = host
	}
	if token, _ := flags.GetString("token"); token != "" {
		cfg.APIToken = token
	}
	if output, _ := flags.GetString("output"); output != "" {
		cfg.Output = output
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := logging.ParseLevel(cfg.LogLevel)
	a.log = logging.New(a.stderr, level)
	slog.SetDefault(a.log)
	logging.SetPanicDir(paths.Log(cfg.DataDir))

	clientOpts := cfg.ClientOptions()
	if level <= slog.LevelDebug {
		clientOpts = append(clientOpts, option.WithMiddleware(logging.HTTPMiddleware(a.log)))
	}
	if trace, _ := flags.GetBool("trace-http"); trace {
		clientOpts = append(clientOpts, option.WithDebugLog(logging.NewSlogWriter(a.log)))
	}
	clientOpts = append(clientOpts, opts.clientOptions...)
	a.client = kittycad.NewClient(clientOpts...)
	a.out = format.NewPrinter(a.stdout, format.OutputFormat(cfg.Output), isTerminal(a.stdout))
	return nil
}

// history opens the job log on first use.
func (a *app) history(ctx context.Context) (history.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.jobs != nil {
		return a.jobs, nil
	}
	jobs, err := history.Open(ctx, paths.History(a.cfg.DataDir))
	if err != nil {
		return nil, err
	}
	a.jobs = jobs
	return jobs, nil
}

// record logs an async operation to the job log. Failures only warn, the
// operation itself already went through.
func (a *app) record(ctx context.Context, info kittycad.AsyncOperationInfo, input, output string) {
	jobs, err := a.history(ctx)
	if err != nil {
		a.log.Warn("job history unavailable", "error", err)
		return
	}
	_, err = jobs.Record(ctx, history.Job{
		ID:        info.ID.String(),
		Kind:      string(info.Type),
		Status:    info.Status,
		Input:     input,
		Output:    output,
		Error:     info.Error,
		CreatedAt: info.CreatedAt,
	})
	if err != nil {
		a.log.Warn("failed to record job", "id", info.ID, "error", err)
	}
}

func (a *app) close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.jobs == nil {
		return nil
	}
	err := a.jobs.Close()
	a.jobs = nil
	return err
}

// input returns the reader commands take piped data from.
func (a *app) input() io.Reader {
	if a.stdin != nil {
		return a.stdin
	}
	return os.Stdin
}

// readPrompt joins args, or falls back to text piped on stdin.
func (a *app) readPrompt(args []string) (string, error) {
	if len(args) > 0 {
		return joinArgs(args), nil
	}
	if a.stdin != nil {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if data, ok := checkStdinPipe(); ok {
		return data, nil
	}
	return "", fmt.Errorf("a prompt is required, as arguments or on stdin")
}

// checkStdinPipe reads stdin when it is a pipe.
func checkStdinPipe() (string, bool) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return "", false
	}
	if stat.Mode()&os.ModeNamedPipe == 0 {
		return "", false
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

// execute runs one invocation. The job log is closed even when the command
// fails.
func execute(ctx context.Context, opts rootOptions, args []string) (err error) {
	root, a := newRootCmd(opts)
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Execute runs the CLI and exits 1 on error.
func Execute() {
	if err := execute(context.Background(), rootOptions{}, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
