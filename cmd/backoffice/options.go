package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"strconv"
	"time"
)

type Options struct {
	APIURL   string
	Token    string
	Email    string
	Password string
	Timeout  time.Duration

	MaxImageSize int
}

// ParseOptions reads the global flags that precede the command. Flags win
// over the environment.
func ParseOptions(args []string, stderr io.Writer) (Options, []string, error) {
	var opts Options

	fs := flag.NewFlagSet("backoffice", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.APIURL, "api", "", "Catalog API base URL")
	fs.StringVar(&opts.Token, "token", "", "Admin bearer token (prefer env)")
	fs.StringVar(&opts.Email, "email", "", "Admin email used when no token is set")
	fs.StringVar(&opts.Password, "password", "", "Admin password (prefer env)")
	fs.DurationVar(&opts.Timeout, "timeout", 0, "Request timeout")
	fs.IntVar(&opts.MaxImageSize, "max-image", -1, "Largest image side in pixels before resizing, 0 disables")

	if err := fs.Parse(args); err != nil {
		return Options{}, nil, err
	}

	if opts.APIURL == "" {
		opts.APIURL = os.Getenv("BACKOFFICE_API_URL")
	}
	if opts.APIURL == "" {
		opts.APIURL = "http://localhost:8080"
	}
	if opts.Token == "" {
		opts.Token = os.Getenv("BACKOFFICE_TOKEN")
	}
	if opts.Email == "" {
		opts.Email = os.Getenv("ADMIN_EMAIL")
	}
	if opts.Password == "" {
		opts.Password = os.Getenv("ADMIN_PASSWORD")
	}
	if opts.Timeout == 0 {
		if raw := os.Getenv("BACKOFFICE_TIMEOUT"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return Options{}, nil, errors.New("invalid BACKOFFICE_TIMEOUT env variable")
			}
			opts.Timeout = d
		} else {
			opts.Timeout = 30 * time.Second
		}
	}

	if opts.MaxImageSize < 0 {
		if raw := os.Getenv("BACKOFFICE_MAX_IMAGE"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return Options{}, nil, errors.New("invalid BACKOFFICE_MAX_IMAGE env variable")
			}
			opts.MaxImageSize = n
		} else {
			opts.MaxImageSize = 1600
		}
	}

	if fs.NArg() == 0 {
		return Options{}, nil, errors.New("command required: login, refdata, frames, lenses, references")
	}
	return opts, fs.Args(), nil
}
