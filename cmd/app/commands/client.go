package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	validation "github.com/jellydator/validation"
	"golang.org/x/term"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/app"
	"github.com/allisson/credentials/internal/config"
	cryptoService "github.com/allisson/credentials/internal/crypto/service"
	"github.com/allisson/credentials/internal/dispatcher"
	customValidation "github.com/allisson/credentials/internal/validation"
)

// ConsoleMenu lists the interactive commands.
const ConsoleMenu = "Available commands:\n" +
	"Login (Login existing user)\n" +
	"New (Create a new user)\n" +
	"Key to get encryption key (need for other operations)\n" +
	"Quit or Exit to close the program\n"

const abortWord = "exit"

// errAborted means the user typed "exit" at a prompt.
var errAborted = errors.New("aborted")

// RequestDispatcher is the part of the dispatcher the console drives.
type RequestDispatcher interface {
	SetRequest(kind accountDomain.RequestKind) error
	Attach(payload dispatcher.Payload)
	ServerKey() string
}

// PasswordReader reads a secret without echoing it.
type PasswordReader func() (string, error)

// RunClient starts the dispatcher and runs the interactive console until the
// user quits or stdin closes. serverURL overrides CLIENT_SERVER_URL when set.
func RunClient(ctx context.Context, serverURL string) error {
	cfg := clientConfig(config.Load(), serverURL)
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	out := &lockedWriter{w: os.Stdout}
	notifier := dispatcher.NotifierFunc(func(message string) {
		_, _ = fmt.Fprintln(out, message)
	})

	d, err := container.Dispatcher(notifier)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	keyExchange, err := container.KeyExchange()
	if err != nil {
		return fmt.Errorf("failed to initialize key exchange: %w", err)
	}

	logger.Debug("starting client", slog.String("server_url", cfg.ClientServerURL))

	d.Start(ctx)
	defer d.Stop()

	stdin := DefaultIO()
	stdin.Writer = out
	return RunConsole(ctx, d, keyExchange, stdin, TerminalPasswordReader(os.Stdin, out))
}

// clientConfig applies the --server-url override and moves logs to stderr,
// leaving stdout to the console.
func clientConfig(cfg *config.Config, serverURL string) *config.Config {
	if serverURL != "" {
		cfg.ClientServerURL = serverURL
	}
	cfg.LogOutput = config.LogOutputStderr
	return cfg
}

// TerminalPasswordReader hides input when in is a terminal. It returns nil
// otherwise, and RunConsole then reads passwords as plain lines.
func TerminalPasswordReader(in *os.File, out io.Writer) PasswordReader {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() (string, error) {
		password, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}
}

// RunConsole reads commands from stdio.Reader and drives d. readPassword may be
// nil.
func RunConsole(
	ctx context.Context,
	d RequestDispatcher,
	keyExchange cryptoService.KeyExchange,
	stdio IOTuple,
	readPassword PasswordReader,
) error {
	c := &console{
		dispatcher:   d,
		keyExchange:  keyExchange,
		in:           bufio.NewReader(stdio.Reader),
		out:          stdio.Writer,
		readPassword: readPassword,
	}
	return c.run(ctx)
}

type console struct {
	dispatcher   RequestDispatcher
	keyExchange  cryptoService.KeyExchange
	in           *bufio.Reader
	out          io.Writer
	readPassword PasswordReader
}

func (c *console) run(ctx context.Context) error {
	for ctx.Err() == nil {
		c.println(ConsoleMenu)

		line, err := c.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
		case "login":
			err = c.login()
		case "new":
			err = c.register()
		case "key":
			c.println("Trying to retrieve public encryption key from server")
			err = c.dispatcher.SetRequest(accountDomain.GetKey)
		case "quit", "exit":
			return nil
		}

		switch {
		case errors.Is(err, errAborted):
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
	}
	return nil
}

func (c *console) login() error {
	email, err := c.prompt(
		"Attempting login, please write your email:",
		"Invalid email, please try again or type \"Exit\" to abort",
		c.emailRules()...,
	)
	if err != nil {
		return err
	}

	password, err := c.promptPassword(
		"Type in password or type \"Exit\" to abort - password must be 8 characters or longer",
	)
	if err != nil {
		return err
	}

	c.dispatcher.Attach(&dispatcher.LoginAttempt{Email: email, Password: password})
	c.println("Sending login request...")
	return nil
}

func (c *console) register() error {
	email, err := c.prompt(
		"Creating user, please write your email:",
		"Invalid email, please try again or type \"Exit\" to abort, remember to check for \"@\" and \".\" in your email",
		c.emailRules()...,
	)
	if err != nil {
		return err
	}

	password, err := c.promptPassword(
		"Type in desired password or type \"Exit\" to abort - password must be 8 characters or longer",
	)
	if err != nil {
		return err
	}

	name, err := c.prompt(
		"Type in your desired Username or type \"Exit\" to abort:",
		"You must type in a username!",
		c.withSizeLimit(validation.Required, customValidation.NotBlank)...,
	)
	if err != nil {
		return err
	}

	c.dispatcher.Attach(&dispatcher.Registration{Name: name, Email: email, Password: password})
	c.println("Attempting to create user...")
	return nil
}

func (c *console) emailRules() []validation.Rule {
	return c.withSizeLimit(validation.Required, customValidation.Email)
}

// withSizeLimit adds the plaintext bound of the cached server key, when known.
func (c *console) withSizeLimit(rules ...validation.Rule) []validation.Rule {
	serverKey := c.dispatcher.ServerKey()
	if serverKey == "" || c.keyExchange == nil {
		return rules
	}
	limit, err := c.keyExchange.MaxPlaintextSize(serverKey)
	if err != nil {
		return rules
	}
	return append(rules, customValidation.MaxBytes(limit))
}

// prompt asks until value passes rules. Typing "exit" returns errAborted.
func (c *console) prompt(question, invalid string, rules ...validation.Rule) (string, error) {
	for {
		c.println(question)

		value, err := c.readLine()
		if err != nil {
			return "", err
		}
		if strings.EqualFold(value, abortWord) {
			return "", errAborted
		}

		if err := validation.Validate(value, rules...); err != nil {
			c.println(invalid)
			continue
		}
		return value, nil
	}
}

func (c *console) promptPassword(question string) (string, error) {
	rules := c.withSizeLimit(validation.Required, customValidation.NotBlank, customValidation.Password)

	for {
		c.println(question)

		var (
			value string
			err   error
		)
		if c.readPassword != nil {
			value, err = c.readPassword()
		} else {
			value, err = c.readLine()
		}
		if err != nil {
			return "", err
		}
		if strings.EqualFold(value, abortWord) {
			return "", errAborted
		}

		if err := validation.Validate(value, rules...); err != nil {
			c.println("Invalid password: " + err.Error())
			continue
		}
		return value, nil
	}
}

// readLine returns the next line without its line terminator.
func (c *console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *console) println(message string) {
	_, _ = fmt.Fprintln(c.out, message)
}

// lockedWriter serializes console output with dispatcher notifications.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
