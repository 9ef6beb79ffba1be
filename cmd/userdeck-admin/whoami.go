package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/target/userdeck/internal/apiclient"
	"github.com/target/userdeck/internal/session"
)

// Test seams for reading the token from an interactive terminal.
var (
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readPassword    = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
)

type whoamiOptions struct {
	Token   string
	RawJSON bool
}

func parseWhoamiFlags(cmdCtx *commandContext, args []string) (whoamiOptions, error) {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Stderr)

	var opts whoamiOptions
	fs.StringVar(&opts.Token, "token", "", "API bearer token (prompted for when omitted on a terminal)")
	fs.BoolVar(&opts.RawJSON, "json", false, "Print the user as JSON")

	if err := fs.Parse(args); err != nil {
		return whoamiOptions{}, err
	}
	opts.Token = strings.TrimSpace(opts.Token)
	if opts.Token == "" {
		token, err := promptToken(cmdCtx)
		if err != nil {
			return whoamiOptions{}, err
		}
		opts.Token = token
	}
	return opts, nil
}

// promptToken reads the token without echo so it stays out of shell history.
func promptToken(cmdCtx *commandContext) (string, error) {
	if !stdinIsTerminal() {
		return "", errors.New("--token is required")
	}
	if err := write(cmdCtx.Stderr, "API token: "); err != nil {
		return "", fmt.Errorf("print token prompt: %w", err)
	}
	raw, readErr := readPassword()
	if err := writeln(cmdCtx.Stderr); err != nil {
		return "", fmt.Errorf("print token prompt: %w", err)
	}
	if readErr != nil {
		return "", fmt.Errorf("read token: %w", readErr)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errors.New("--token is required")
	}
	return token, nil
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	opts, err := parseWhoamiFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	api, err := apiclient.NewClient(apiclient.Config{
		BaseURL:          cmdCtx.Config.API.BaseURL,
		Timeout:          cmdCtx.Config.API.Timeout,
		ErrorMessageExpr: cmdCtx.Config.API.ErrorMessageExpr,
		Logger:           cmdCtx.Logger,
		// There is no browser session to clear.
		OnUnauthorized: func(context.Context, int) {},
	})
	if err != nil {
		return fmt.Errorf("build api client: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 30*time.Second)
	defer cancel()
	ctx = session.NewContext(ctx, session.Static(opts.Token))

	user, err := api.Me(ctx)
	if err != nil {
		return fmt.Errorf("fetch current user: %w", err)
	}

	if opts.RawJSON {
		enc := json.NewEncoder(cmdCtx.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(user)
	}

	tw := tabwriter.NewWriter(cmdCtx.Stdout, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", user.ID},
		{"Name", user.Name},
		{"Email", user.Email},
		{"Provider", user.Provider},
	}
	if user.CreatedAt != nil {
		rows = append(rows, [2]string{"Created", user.CreatedAt.Format(time.RFC3339)})
	}
	for _, row := range rows {
		if err := writef(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
