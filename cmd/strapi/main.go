// Command strapi is a command-line client for a Strapi content API. It keeps the
// session token between runs so that login only has to happen once.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/kenng/qv-strapi/pkg/store"
	"github.com/kenng/qv-strapi/pkg/strapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr))
}

// app is one CLI invocation
type app struct {
	cfg    *Config
	client *strapi.Client
	logger zerolog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// readPassword prompts for a secret
	readPassword func(prompt string) (string, error)

	closers []io.Closer
}

// run executes the command line and returns the exit code
func run(ctx context.Context, args []string, getenv func(string) string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, rest, err := loadConfig(args, getenv, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if len(rest) == 0 {
		printUsage(stderr, nil)
		return 2
	}

	name, cmdArgs := rest[0], rest[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", name)
		printUsage(stderr, nil)
		return 2
	}

	a := &app{
		cfg:    cfg,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	a.logger = newLogger(cfg, stderr)
	a.readPassword = a.promptPassword
	defer a.close()

	if err := a.init(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := cmd.run(ctx, a, cmdArgs); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		a.logger.Debug().Err(err).Str("command", name).Msg("Command failed")
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func newLogger(cfg *Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.WarnLevel
	}
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

// init creates the client and its token store
func (a *app) init() error {
	local, err := a.openTokenStore()
	if err != nil {
		return err
	}

	timeout, err := a.cfg.timeout()
	if err != nil {
		return err
	}

	opts := &strapi.ClientOptions{
		BaseURL:   a.cfg.BaseURL,
		Timeout:   timeout,
		Token:     a.cfg.Token,
		Logger:    strapi.NewZerologLogger(a.logger),
		SentryDSN: a.cfg.SentryDSN,
	}
	if local != nil {
		opts.StoreConfig = strapi.DefaultStoreConfig(nil, local)
	}

	client, err := strapi.NewClient(opts)
	if err != nil {
		return err
	}
	a.client = client

	return nil
}

func (a *app) openTokenStore() (store.LocalStorage, error) {
	if a.cfg.TokenStore == storeNone {
		return nil, nil
	}

	path, err := a.cfg.tokenPath()
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("store", a.cfg.TokenStore).Str("path", path).Msg("Using token store")

	if a.cfg.TokenStore == storeFile {
		return store.NewFileStorage(path), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create token store directory")
	}
	db, err := store.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db)
	return db, nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close token store")
		}
	}
}

// promptPassword reads a secret without echo when stdin is a terminal, and a
// plain line otherwise
func (a *app) promptPassword(prompt string) (string, error) {
	fmt.Fprint(a.stderr, prompt)

	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", errors.Wrap(err, "failed to read password")
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "failed to read password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// printJSON writes v as indented JSON
func (a *app) printJSON(v interface{}) error {
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return nil
		}
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			return errors.Wrap(err, "failed to format response")
		}
		_, err := fmt.Fprintln(a.stdout, out.String())
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to format output")
	}
	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: strapi [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-18s %s\n", name, commands[name].usage)
	}

	if fs != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		fs.PrintDefaults()
	}
}
