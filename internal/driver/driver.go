package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	goATM "github.com/MrEthical07/goATM"
	"github.com/MrEthical07/goATM/internal/i18n"
	"github.com/MrEthical07/goATM/money"
	"github.com/charmbracelet/log"
)

const exitCommand = "exit"

// errEndOfInput ends a run the same way at every prompt.
var errEndOfInput = errors.New("end of input")

// Option configures a Driver.
type Option func(*Driver)

// WithCatalog sets the message catalog. The default is English.
func WithCatalog(c *i18n.Catalog) Option {
	return func(d *Driver) { d.catalog = c }
}

// WithPINReader replaces line input for PIN prompts, for example with a
// no-echo terminal reader.
func WithPINReader(fn func() (string, error)) Option {
	return func(d *Driver) { d.readPIN = fn }
}

// WithLogger sets the logger for input errors.
func WithLogger(l *log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// Driver is the console front end of a Machine: card prompt, PIN prompt and
// the four-item menu.
type Driver struct {
	machine *goATM.Machine
	in      *bufio.Scanner
	out     io.Writer
	catalog *i18n.Catalog
	readPIN func() (string, error)
	logger  *log.Logger
}

// New returns a driver reading commands from in and writing to out.
func New(m *goATM.Machine, in io.Reader, out io.Writer, opts ...Option) *Driver {
	d := &Driver{
		machine: m,
		in:      bufio.NewScanner(in),
		out:     out,
		logger:  log.New(io.Discard),
	}
	d.readPIN = d.readLine
	for _, opt := range opts {
		opt(d)
	}
	if d.catalog == nil {
		d.catalog = i18n.MustNew("en")
	}
	return d
}

// Run serves card cycles until the user types exit at the card prompt or
// input ends. Every cycle is logged out before the next card prompt.
func (d *Driver) Run(ctx context.Context) error {
	d.println("welcome", nil)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		d.prompt("card_prompt")
		line, err := d.readLine()
		if err != nil {
			return d.finish(err)
		}
		cardID := strings.TrimSpace(line)
		if strings.EqualFold(cardID, exitCommand) {
			d.println("goodbye", nil)
			return nil
		}
		if cardID == "" {
			continue
		}

		err = d.cycle(ctx, cardID)
		d.machine.Logout()
		if err != nil {
			return d.finish(err)
		}
	}
}

func (d *Driver) cycle(ctx context.Context, cardID string) error {
	if err := d.machine.InsertCard(ctx, cardID); err != nil {
		switch {
		case errors.Is(err, goATM.ErrUnknownCard):
			d.println("unknown_card", nil)
		case errors.Is(err, goATM.ErrDirectoryUnavailable):
			d.logger.Error("card lookup failed", "err", err)
			d.println("directory_unavailable", nil)
		default:
			return err
		}
		return nil
	}

	ok, err := d.authenticate()
	if err != nil || !ok {
		return err
	}
	return d.menu()
}

// authenticate prompts for PINs until one is accepted or the card locks.
func (d *Driver) authenticate() (bool, error) {
	for {
		d.prompt("pin_prompt")
		candidate, err := d.readPIN()
		if err != nil {
			return false, err
		}

		err = d.machine.EnterPIN(strings.TrimSpace(candidate))
		switch {
		case err == nil:
			d.println("pin_accepted", nil)
			return true, nil
		case errors.Is(err, goATM.ErrInvalidPIN):
			d.println("invalid_pin", map[string]interface{}{"Remaining": d.machine.RemainingPINAttempts()})
		case errors.Is(err, goATM.ErrCardLocked):
			d.println("card_locked", nil)
			return false, nil
		default:
			return false, err
		}
	}
}

func (d *Driver) menu() error {
	for {
		d.println("menu", nil)
		d.prompt("option_prompt")
		line, err := d.readLine()
		if err != nil {
			return err
		}

		switch strings.TrimSpace(line) {
		case "1":
			if err := d.transaction("withdraw_prompt", "withdraw_success", d.machine.Withdraw); err != nil {
				return err
			}
		case "2":
			if err := d.transaction("deposit_prompt", "deposit_success", d.machine.Deposit); err != nil {
				return err
			}
		case "3":
			bal, err := d.machine.CheckBalance()
			if err != nil {
				d.report(err)
			} else {
				d.println("balance", map[string]interface{}{"Balance": bal.String()})
			}
		case "4":
			d.println("exiting", nil)
			return nil
		default:
			d.println("invalid_option", nil)
			continue
		}

		if d.machine.State() != goATM.StateAuthenticated {
			d.println("card_returned", nil)
			return nil
		}
	}
}

func (d *Driver) transaction(promptID, successID string, apply func(money.Amount) (money.Amount, error)) error {
	d.prompt(promptID)
	line, err := d.readLine()
	if err != nil {
		return err
	}

	amount, err := money.Parse(line)
	if err != nil {
		d.println("invalid_amount", nil)
		return nil
	}

	bal, err := apply(amount)
	if err != nil {
		d.report(err)
		return nil
	}
	d.println(successID, map[string]interface{}{"Balance": bal.String()})
	return nil
}

func (d *Driver) report(err error) {
	switch {
	case errors.Is(err, goATM.ErrInvalidAmount):
		d.println("invalid_amount", nil)
	case errors.Is(err, goATM.ErrInsufficientFunds):
		d.println("insufficient_funds", nil)
	case errors.Is(err, goATM.ErrCardLocked):
		d.println("card_locked", nil)
	case errors.Is(err, goATM.ErrNotAuthenticated):
		d.println("not_authenticated", nil)
	default:
		fmt.Fprintln(d.out, err)
	}
}

func (d *Driver) readLine() (string, error) {
	if !d.in.Scan() {
		if err := d.in.Err(); err != nil {
			d.logger.Error("read input", "err", err)
			return "", err
		}
		return "", errEndOfInput
	}
	return d.in.Text(), nil
}

func (d *Driver) finish(err error) error {
	if errors.Is(err, errEndOfInput) || errors.Is(err, io.EOF) {
		fmt.Fprintln(d.out)
		d.println("goodbye", nil)
		return nil
	}
	return err
}

func (d *Driver) prompt(id string) {
	fmt.Fprint(d.out, d.catalog.T(id, nil))
}

func (d *Driver) println(id string, data map[string]interface{}) {
	fmt.Fprintln(d.out, d.catalog.T(id, data))
}
