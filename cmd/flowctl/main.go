package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/selectdimensions/react-flow-testbed/internal/client"
	"github.com/selectdimensions/react-flow-testbed/pkg/api"
	"github.com/selectdimensions/react-flow-testbed/pkg/flow"
)

type cli struct {
	client *client.Client
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

const (
	envAPIURL = "FLOW_API_URL"

	usage = `usage: flowctl [-api URL] [-timeout D] <command> [args]

commands:
  validate <file|->   check a flow document locally
  save <file|->       store a flow document, printing its id
  load [id]           print a stored flow (default: latest)
  list                list stored flows, newest first
  delete <id>         delete a stored flow
`
)

var (
	ErrUsage          = errors.New("invalid usage")
	ErrUnknownCommand = errors.New("unknown command")
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("flowctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = io.WriteString(stderr, usage) }

	defaultURL := os.Getenv(envAPIURL)
	if defaultURL == "" {
		defaultURL = client.DefaultBaseURL
	}
	apiURL := fs.String("api", defaultURL, "Flow API base URL")
	timeout := fs.Duration("timeout", client.DefaultTimeout, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	c := &cli{
		client: client.NewClient(*apiURL, *timeout),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	err := c.dispatch(context.Background(), fs.Args())
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage), errors.Is(err, ErrUnknownCommand):
		_, _ = fmt.Fprintf(stderr, "%v\n\n%s", err, usage)
		return 2
	default:
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "validate":
		return c.validate(rest)
	case "save":
		return c.save(ctx, rest)
	case "load":
		return c.load(ctx, rest)
	case "list":
		return c.list(ctx, rest)
	case "delete":
		return c.delete(ctx, rest)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func (c *cli) validate(args []string) error {
	data, err := c.readInput(args)
	if err != nil {
		return err
	}

	doc, err := flow.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", flow.ErrorKind(err), err)
	}
	_, err = fmt.Fprintf(c.stdout, "valid: %d nodes, %d edges\n",
		len(doc.Nodes()), len(doc.Edges()))
	return err
}

func (c *cli) save(ctx context.Context, args []string) error {
	data, err := c.readInput(args)
	if err != nil {
		return err
	}

	id, err := c.client.SaveFlow(ctx, data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, id)
	return err
}

func (c *cli) load(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: load takes at most one id", ErrUsage)
	}

	id := api.LatestFlowID
	if len(args) == 1 {
		id = api.FlowID(args[0])
	}

	data, err := c.client.LoadFlow(ctx, id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, string(data))
	return err
}

func (c *cli) list(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: list takes no arguments", ErrUsage)
	}

	res, err := c.client.ListFlows(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCREATED\tNODES\tEDGES")
	for _, f := range res.Flows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n",
			f.ID, f.CreatedAt.Format(time.RFC3339), f.NodeCount, f.EdgeCount)
	}
	return tw.Flush()
}

func (c *cli) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete takes one id", ErrUsage)
	}

	id := api.FlowID(args[0])
	if err := c.client.DeleteFlow(ctx, id); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.stdout, "deleted %s\n", id)
	return err
}

// readInput reads the single file argument, or stdin when it is "-"
func (c *cli) readInput(args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: expected one file argument", ErrUsage)
	}
	if args[0] == "-" {
		return io.ReadAll(c.stdin)
	}
	return os.ReadFile(args[0])
}
