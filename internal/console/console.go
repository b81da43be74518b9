// Package console reads operator commands from a line-oriented input and
// dispatches them to the session controller.
//
//	start [cash] [charges]   start a run; missing arguments reuse the last entry
//	stop                     stop the current run
//	strategy <name>          switch strategy
//	help                     list commands
//	quit                     leave the dashboard
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"simdash/internal/backend"

	"github.com/rs/zerolog/log"
)

var (
	ErrQuit           = errors.New("console: quit")
	ErrUnknownCommand = errors.New("console: unknown command")
	ErrUsage          = errors.New("console: bad arguments")
)

const usage = "commands: start [cash] [charges on|off], stop, strategy <name>, help, quit"

type Controller interface {
	Start(ctx context.Context, initialCash float64, brokerCharges bool) (backend.Ack, error)
	Stop(ctx context.Context) (backend.Ack, error)
	SetStrategy(ctx context.Context, name string) (backend.Ack, error)
	Form() (initialCash float64, brokerCharges bool)
}

type Kind int

const (
	KindNone Kind = iota
	KindStart
	KindStop
	KindStrategy
	KindHelp
	KindQuit
)

// Command is one parsed input line. Cash and Charges are nil when not given.
type Command struct {
	Kind     Kind
	Cash     *float64
	Charges  *bool
	Strategy string
}

// Parse turns a line into a Command. Blank lines parse to KindNone.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, nil
	}

	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "start":
		return parseStart(args)
	case "stop":
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%w: stop takes no arguments", ErrUsage)
		}
		return Command{Kind: KindStop}, nil
	case "strategy":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: strategy <name>", ErrUsage)
		}
		return Command{Kind: KindStrategy, Strategy: args[0]}, nil
	case "help", "?":
		return Command{Kind: KindHelp}, nil
	case "quit", "exit", "q":
		return Command{Kind: KindQuit}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}

func parseStart(args []string) (Command, error) {
	cmd := Command{Kind: KindStart}
	if len(args) > 2 {
		return Command{}, fmt.Errorf("%w: start [cash] [charges]", ErrUsage)
	}
	if len(args) >= 1 {
		cash, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", ""), 64)
		if err != nil {
			return Command{}, fmt.Errorf("%w: cash %q: %v", ErrUsage, args[0], err)
		}
		cmd.Cash = &cash
	}
	if len(args) == 2 {
		charges, err := parseToggle(args[1])
		if err != nil {
			return Command{}, err
		}
		cmd.Charges = &charges
	}
	return cmd, nil
}

func parseToggle(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: charges %q", ErrUsage, s)
	}
	return b, nil
}

// Console dispatches parsed commands. Each command is sent without waiting
// for the previous one; outcomes are logged by the controller.
type Console struct {
	ctrl Controller
	out  io.Writer

	inflight sync.WaitGroup
}

func New(ctrl Controller, out io.Writer) *Console {
	return &Console{ctrl: ctrl, out: out}
}

// Run reads lines from in until ctx is done, input ends or quit is entered.
// It returns ErrQuit on quit, ctx.Err() on cancellation and nil on EOF.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	defer c.inflight.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			if err := c.Exec(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return err
				}
				log.Warn().Err(err).Str("input", line).Msg("Console command rejected")
				fmt.Fprintln(c.out, usage)
			}
		}
	}
}

// Exec parses and dispatches one line.
func (c *Console) Exec(ctx context.Context, line string) error {
	cmd, err := Parse(line)
	if err != nil {
		return err
	}

	switch cmd.Kind {
	case KindNone:
	case KindHelp:
		fmt.Fprintln(c.out, usage)
	case KindQuit:
		return ErrQuit
	case KindStart:
		cash, charges := c.ctrl.Form()
		if cmd.Cash != nil {
			cash = *cmd.Cash
		}
		if cmd.Charges != nil {
			charges = *cmd.Charges
		}
		c.send(func() error {
			_, err := c.ctrl.Start(ctx, cash, charges)
			return err
		})
	case KindStop:
		c.send(func() error {
			_, err := c.ctrl.Stop(ctx)
			return err
		})
	case KindStrategy:
		c.send(func() error {
			_, err := c.ctrl.SetStrategy(ctx, cmd.Strategy)
			return err
		})
	}
	return nil
}

// Wait blocks until every dispatched command has completed.
func (c *Console) Wait() { c.inflight.Wait() }

func (c *Console) send(fn func() error) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if err := fn(); err != nil {
			log.Debug().Err(err).Msg("Console command finished with error")
		}
	}()
}
