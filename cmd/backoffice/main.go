// Command backoffice drives the catalog admin workflows from a terminal:
// frame forms, lists with search and delete, lenses and reference data.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/opticshop/backend/internal/client"
)

const usage = `usage: backoffice [global flags] <command> [flags] [args]

commands:
  login                                  print a token for BACKOFFICE_TOKEN
  refdata                                load the four reference lists
  frames list [-q text] [-page n] [-size n]
  frames show [-variation n] <id>
  frames create -f draft.yaml
  frames edit -f draft.yaml <id>
  frames delete [-yes] <key>
  lenses list [-q text] [-page n] [-size n]
  lenses add -name n -type t [-index i] [-treatment t] -price p
  lenses delete [-yes] <key>
  references list [-q text] <kind>
  references add -name n [-hex #RRGGBB] <kind>
  references delete [-yes] <kind> <key>
`

type app struct {
	opts   Options
	client *client.Client
	in     io.Reader
	out    io.Writer
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, client.UserMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, rest, err := ParseOptions(args, stderr)
	if err != nil {
		fmt.Fprint(stderr, usage)
		return err
	}

	a := &app{
		opts: opts,
		client: client.New(opts.APIURL,
			client.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
			client.WithToken(opts.Token),
		),
		in:  stdin,
		out: stdout,
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "login":
		return a.login(ctx)
	case "refdata":
		return a.refdata(ctx)
	case "frames":
		return a.frames(ctx, cmdArgs)
	case "lenses":
		return a.lenses(ctx, cmdArgs)
	case "references":
		return a.references(ctx, cmdArgs)
	case "help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(stderr, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

// authenticate logs in with the configured credentials unless a token is set.
func (a *app) authenticate(ctx context.Context) error {
	if a.client.Token() != "" {
		return nil
	}
	if a.opts.Email == "" || a.opts.Password == "" {
		return fmt.Errorf("set BACKOFFICE_TOKEN or ADMIN_EMAIL and ADMIN_PASSWORD")
	}
	_, err := a.client.Login(ctx, a.opts.Email, a.opts.Password)
	return err
}

func (a *app) login(ctx context.Context) error {
	if a.opts.Email == "" || a.opts.Password == "" {
		return fmt.Errorf("login needs -email and -password or ADMIN_EMAIL and ADMIN_PASSWORD")
	}
	token, err := a.client.Login(ctx, a.opts.Email, a.opts.Password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}

func subcommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("missing subcommand")
	}
	return args[0], args[1:], nil
}
