package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	goATM "github.com/MrEthical07/goATM"
	"github.com/MrEthical07/goATM/internal/config"
	"github.com/MrEthical07/goATM/internal/driver"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func newProvisionCmd(a *app) *cobra.Command {
	var (
		cardID  string
		pinText string
		balance string
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Add a card to the redis or sql directory",
		Long: `Hashes the PIN and stores a new card record. Existing cards are never
overwritten. Without --pin the PIN is read from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.file.Directory.Backend == "" || a.file.Directory.Backend == "memory" {
				return errors.New("the memory back-end does not persist cards; use --backend redis or sql")
			}
			if pinText == "" {
				p, err := readPIN(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				pinText = p
			}

			cfg, err := a.file.Machine()
			if err != nil {
				return err
			}
			rec, err := newRecord(cfg.PIN, cardID, pinText, balance)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, cleanup, err := openStore(ctx, a.file.Directory, a.logger)
			defer cleanup()
			if err != nil {
				return err
			}
			if err := store.Provision(ctx, rec); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "provisioned card %s\n", cardID)
			return nil
		},
	}
	cmd.Flags().StringVar(&cardID, "card", "", "card id")
	cmd.Flags().StringVar(&pinText, "pin", "", "PIN digits")
	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance, e.g. 1000.00")
	_ = cmd.MarkFlagRequired("card")
	return cmd
}

func newHashPINCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-pin [pin]",
		Short: "Print the argon2id encoding of a PIN",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pinText string
			if len(args) == 1 {
				pinText = args[0]
			} else {
				p, err := readPIN(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				pinText = p
			}

			cfg, err := a.file.Machine()
			if err != nil {
				return err
			}
			hash, err := cfg.PIN.Hash(pinText)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", hash)
			return nil
		},
	}
}

func newInitConfigCmd(_ *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a default " + config.FileName,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.Write(path, config.Default(), force); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newSecurityReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "security-report",
		Short: "Print the effective lockout and PIN hashing policy as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.file.Machine()
			if err != nil {
				return err
			}
			dir, _ := goATM.NewMemoryDirectory()
			m, err := goATM.New().WithConfig(cfg).WithDirectory(dir).Build()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(m.SecurityReport())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// readPIN reads one PIN without echo from a terminal, or one line otherwise.
func readPIN(in io.Reader, prompt io.Writer) (string, error) {
	printf(prompt, "PIN: ")
	if f, ok := in.(*os.File); ok && driver.IsTerminal(int(f.Fd())) {
		return driver.TerminalPINReader(int(f.Fd()), prompt)()
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read pin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
