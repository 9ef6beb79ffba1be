package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	redisadapter "github.com/target/userdeck/internal/adapters/redis"
	"github.com/target/userdeck/internal/util"
)

const sessionCommandTimeout = 2 * time.Minute

type sessionsListOptions struct {
	Email   string
	RawJSON bool
}

type sessionsRevokeOptions struct {
	SID    string
	All    bool
	DryRun bool
	Yes    bool
}

func parseSessionsListFlags(cmdCtx *commandContext, args []string) (sessionsListOptions, error) {
	fs := flag.NewFlagSet("sessions-list", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Stderr)

	var opts sessionsListOptions
	fs.StringVar(&opts.Email, "email", "", "Only show sessions whose user email contains this value (case-insensitive)")
	fs.BoolVar(&opts.RawJSON, "json", false, "Print sessions as JSON")

	if err := fs.Parse(args); err != nil {
		return sessionsListOptions{}, err
	}
	opts.Email = strings.ToLower(strings.TrimSpace(opts.Email))
	return opts, nil
}

func parseSessionsRevokeFlags(cmdCtx *commandContext, args []string) (sessionsRevokeOptions, error) {
	fs := flag.NewFlagSet("sessions-revoke", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Stderr)

	var opts sessionsRevokeOptions
	fs.StringVar(&opts.SID, "sid", "", "Session id to revoke (required unless --all)")
	fs.BoolVar(&opts.All, "all", false, "Revoke every stored session")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Print actions without executing")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return sessionsRevokeOptions{}, err
	}

	opts.SID = strings.TrimSpace(opts.SID)
	switch {
	case opts.SID == "" && !opts.All:
		return sessionsRevokeOptions{}, errors.New("either --sid or --all is required")
	case opts.SID != "" && opts.All:
		return sessionsRevokeOptions{}, errors.New("--sid and --all are mutually exclusive")
	}
	return opts, nil
}

func runSessionsList(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionsListFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, sessionCommandTimeout)
	defer cancel()

	store, closeFn, err := openSessionStore(cmdCtx)
	if err != nil {
		return err
	}
	defer closeStore(cmdCtx, closeFn)

	sessions, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	sessions = filterSessions(sessions, opts.Email)
	sortSessions(sessions)

	if opts.RawJSON {
		return printSessionsJSON(cmdCtx, sessions)
	}
	return printSessionsTable(cmdCtx, sessions)
}

func filterSessions(in []redisadapter.StoredSession, email string) []redisadapter.StoredSession {
	if email == "" {
		return in
	}
	out := in[:0]
	for _, s := range in {
		if strings.Contains(strings.ToLower(s.User.Email), email) {
			out = append(out, s)
		}
	}
	return out
}

// sortSessions orders by email, then by session id.
func sortSessions(sessions []redisadapter.StoredSession) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].User.Email != sessions[j].User.Email {
			return sessions[i].User.Email < sessions[j].User.Email
		}
		return sessions[i].ID < sessions[j].ID
	})
}

type sessionJSON struct {
	SID        string `json:"sid"`
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

func printSessionsJSON(cmdCtx *commandContext, sessions []redisadapter.StoredSession) error {
	rows := make([]sessionJSON, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, sessionJSON{
			SID:        s.ID,
			UserID:     s.User.ID,
			Email:      s.User.Email,
			Name:       s.User.Name,
			TTLSeconds: int64(s.TTL / time.Second),
		})
	}
	enc := json.NewEncoder(cmdCtx.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	return nil
}

func printSessionsTable(cmdCtx *commandContext, sessions []redisadapter.StoredSession) error {
	if len(sessions) == 0 {
		return writeln(cmdCtx.Stdout, "No sessions found in Redis")
	}
	tw := tabwriter.NewWriter(cmdCtx.Stdout, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "SID\tEMAIL\tNAME\tTTL"); err != nil {
		return err
	}
	for _, s := range sessions {
		if err := writef(tw, "%s\t%s\t%s\t%s\n", s.ID, s.User.Email, s.User.Name, util.FormatTTL(s.TTL)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(cmdCtx.Stdout, "\n%d session(s)\n", len(sessions))
}

func runSessionsRevoke(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionsRevokeFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, sessionCommandTimeout)
	defer cancel()

	store, closeFn, err := openSessionStore(cmdCtx)
	if err != nil {
		return err
	}
	defer closeStore(cmdCtx, closeFn)

	if opts.All {
		return revokeAll(ctx, cmdCtx, store, opts)
	}
	return revokeOne(ctx, cmdCtx, store, opts)
}

func revokeOne(ctx context.Context, cmdCtx *commandContext, store sessionAdmin, opts sessionsRevokeOptions) error {
	sess, err := store.Get(ctx, opts.SID)
	if err != nil {
		if redisadapter.IsNotFound(err) {
			return fmt.Errorf("session %q not found", opts.SID)
		}
		return fmt.Errorf("load session: %w", err)
	}

	if opts.DryRun {
		return writef(cmdCtx.Stdout, "Dry-run: would revoke session %s (%s)\n", opts.SID, sess.User.Email)
	}
	prompt := fmt.Sprintf("About to revoke session %s for %s.", opts.SID, sess.User.Email)
	if err := confirmAction(cmdCtx, prompt, opts.DryRun, opts.Yes); err != nil {
		return err
	}
	if err := store.Delete(ctx, opts.SID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	cmdCtx.Logger.Info("session revoked", "sid", opts.SID)
	return writef(cmdCtx.Stdout, "Revoked session %s\n", opts.SID)
}

func revokeAll(ctx context.Context, cmdCtx *commandContext, store sessionAdmin, opts sessionsRevokeOptions) error {
	if opts.DryRun {
		sessions, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		return writef(cmdCtx.Stdout, "Dry-run: would revoke %d session(s)\n", len(sessions))
	}

	prompt := "WARNING: this will sign out every user with a server-side session."
	if err := confirmAction(cmdCtx, prompt, opts.DryRun, opts.Yes); err != nil {
		return err
	}
	n, err := store.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	cmdCtx.Logger.Info("sessions revoked", "count", n)
	return writef(cmdCtx.Stdout, "Revoked %d session(s)\n", n)
}

func closeStore(cmdCtx *commandContext, closeFn func() error) {
	if closeFn == nil {
		return
	}
	if err := closeFn(); err != nil {
		cmdCtx.Logger.Warn("redis close failed", "error", err)
	}
}
