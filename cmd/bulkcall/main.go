package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/acme/bulk-caller/internal/app"
	"github.com/acme/bulk-caller/internal/dispatch"
	"github.com/acme/bulk-caller/internal/domain"
	batchsvc "github.com/acme/bulk-caller/internal/service/batch"
	apperrors "github.com/acme/bulk-caller/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes one batch and returns the process exit code. The container is
// closed on every path.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("bulkcall", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", getEnv("CONFIG_FILE", "configs/config.yaml"), "path to configuration file")
	numbersPath := flags.String("numbers", "-", "file with one phone number per line, - for stdin")
	message := flags.String("message", "", "first message spoken by the assistant (default from config)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	numbers, err := readNumbers(*numbersPath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read numbers: %v\n", err)
		return 1
	}

	container, err := app.Build(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to bootstrap application: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Close(); err != nil {
			fmt.Fprintf(stderr, "shutdown: %v\n", err)
		}
	}()

	if err := container.Preflight(ctx); err != nil {
		fmt.Fprintf(stderr, "preflight failed: %v\n", err)
		return 1
	}

	_, err = container.Batches().Execute(ctx, batchsvc.SubmitInput{
		Numbers:      numbers,
		FirstMessage: *message,
	}, newConsole(stdout))
	switch {
	case err == nil:
		return 0
	case errors.Is(err, apperrors.ErrEmptyBatch):
		fmt.Fprintln(stdout, err.Error())
		return 2
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stdout, "Interrupted, remaining numbers were not called")
		return 130
	default:
		fmt.Fprintf(stderr, "batch failed: %v\n", err)
		return 1
	}
}

func readNumbers(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		return string(raw), err
	}
	raw, err := os.ReadFile(path)
	return string(raw), err
}

// console prints dispatch feedback the same way the web page shows it.
type console struct {
	out io.Writer
}

var _ dispatch.Observer = (*console)(nil)

func newConsole(out io.Writer) *console {
	return &console{out: out}
}

func (c *console) CallStarted(_ context.Context, _ int, number string) {
	fmt.Fprintf(c.out, "Initiating call to %s...\n", number)
}

func (c *console) LineProcessed(_ context.Context, res domain.CallResult, progress domain.Progress) {
	fmt.Fprintf(c.out, "[%d/%d] %s\n", progress.Processed, progress.Total, res.Message())
	if res.Success && len(res.Response) > 0 {
		fmt.Fprintf(c.out, "    %s\n", res.Response)
	}
}

func (c *console) BatchCompleted(context.Context, domain.Summary) {
	fmt.Fprintln(c.out, "All calls completed!")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
