// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danielhkuo/pollpocket/auth"
	"github.com/danielhkuo/pollpocket/authapi"
	"github.com/danielhkuo/pollpocket/cliparse"
	"github.com/danielhkuo/pollpocket/dataapi"
	"github.com/danielhkuo/pollpocket/draft"
	"github.com/danielhkuo/pollpocket/pollflow"
	"github.com/danielhkuo/pollpocket/session"
)

const commandTimeout = 30 * time.Second

// Run executes one client command and returns the process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	// Global flags (-url, -key, -state-dir) precede the command name.
	cfg, rest, err := cliparse.ParseClient(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	if len(rest) == 0 {
		usage()
		return 2
	}

	command, rest := rest[0], rest[1:]
	if !knownCommand(command) {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		usage()
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	app, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	switch command {
	case "login":
		return app.login(ctx, rest)
	case "signup":
		return app.signup(ctx, rest)
	case "logout":
		return app.logout(ctx)
	case "upgrade":
		return app.upgrade(ctx, rest)
	case "whoami":
		return app.whoami()
	case "polls":
		return app.listPolls(ctx)
	case "poll":
		return app.showPoll(ctx, rest)
	case "create":
		return app.createPoll(ctx, rest)
	default: // vote
		return app.vote(ctx, rest)
	}
}

func knownCommand(name string) bool {
	switch name {
	case "login", "signup", "logout", "upgrade", "whoami", "polls", "poll", "create", "vote":
		return true
	}
	return false
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: pollpocket [-url URL] [-key KEY] [-state-dir DIR] <command> [flags]

Commands:
  login    -email -password   Sign in with email and password
  signup   -email -password   Create an account
  logout                      Sign out (a fresh anonymous identity replaces the session)
  upgrade  -email -password   Attach credentials to the current anonymous account
  whoami                      Show the current identity
  polls                       List polls, newest first
  poll <id>                   Show one poll, its results and your vote
  create   -question -option  Create a poll (-option may repeat)
  vote <poll-id> <option>     Cast or change your vote
  serve                       Run the backend (see pollpocket serve -h)

Configuration comes from POLLPOCKET_URL and POLLPOCKET_ANON_KEY (or a .env file).
`)
}

// app bundles the per-invocation client state. The session manager is
// initialized before any command logic runs, so identity-dependent reads
// never race the anonymous bootstrap.
type app struct {
	sessions *session.Manager
	data     *dataapi.Client
}

func newApp(ctx context.Context, cfg cliparse.Config) (*app, error) {
	sessions := session.NewManager(
		authapi.New(cfg.ServiceURL, cfg.APIKey),
		session.NewFileStore(cfg.StateDir),
	)
	if err := sessions.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to establish a session: %w", err)
	}
	return &app{
		sessions: sessions,
		data:     dataapi.New(cfg.ServiceURL, cfg.APIKey, sessions),
	}, nil
}

func (a *app) login(ctx context.Context, args []string) int {
	email, password, ok := credentialFlags("login", args)
	if !ok {
		return 2
	}

	if err := a.sessions.SignIn(ctx, email, password); err != nil {
		return fail(err)
	}
	user := a.sessions.User()
	fmt.Printf("Signed in as %s (%s)\n", user.Email, user.ID)
	return 0
}

func (a *app) signup(ctx context.Context, args []string) int {
	email, password, ok := credentialFlags("signup", args)
	if !ok {
		return 2
	}

	pending, err := a.sessions.SignUp(ctx, email, password)
	if err != nil {
		return fail(err)
	}
	if pending {
		fmt.Println("Check your email! We sent you a verification link to activate your account.")
		return 0
	}
	user := a.sessions.User()
	fmt.Printf("Account created. Signed in as %s (%s)\n", user.Email, user.ID)
	return 0
}

func (a *app) logout(ctx context.Context) int {
	if err := a.sessions.SignOut(ctx); err != nil {
		return fail(err)
	}
	fmt.Printf("Signed out. Continuing anonymously as %s\n", a.sessions.User().ID)
	return 0
}

func (a *app) upgrade(ctx context.Context, args []string) int {
	email, password, ok := credentialFlags("upgrade", args)
	if !ok {
		return 2
	}

	err := a.sessions.UpgradeAnonymous(ctx, email, password)
	if errors.Is(err, session.ErrNotAnonymous) {
		fmt.Fprintln(os.Stderr, "Error: this account already has credentials; nothing to upgrade.")
		return 1
	}
	if err != nil {
		return fail(err)
	}
	user := a.sessions.User()
	fmt.Printf("Account upgraded. You are now %s (%s)\n", user.Email, user.ID)
	return 0
}

func (a *app) whoami() int {
	user := a.sessions.User()
	if user == nil {
		fmt.Fprintln(os.Stderr, "Error: no identity established.")
		return 1
	}
	fmt.Printf("User id:   %s\n", user.ID)
	if user.Email != "" {
		fmt.Printf("Email:     %s\n", user.Email)
	}
	fmt.Printf("Anonymous: %v\n", user.IsAnonymous)

	// The expiry lives inside the token; no secret needed to read it
	if claims, err := auth.PeekClaims(a.sessions.AccessToken()); err == nil && claims.ExpiresAt != nil {
		fmt.Printf("Expires:   %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return 0
}

func (a *app) listPolls(ctx context.Context) int {
	polls, err := a.data.ListPolls(ctx)
	if err != nil {
		return fail(err)
	}
	if len(polls) == 0 {
		fmt.Println("No polls yet. Create one with: pollpocket create")
		return 0
	}
	for _, poll := range polls {
		fmt.Printf("%s  %s\n", poll.ID, poll.Question)
	}
	return 0
}

func (a *app) showPoll(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: pollpocket poll <id>")
		return 2
	}

	flow := pollflow.New(a.data, a.sessions, args[0])
	if err := flow.Load(ctx); err != nil {
		return fail(err)
	}
	if flow.State() == pollflow.StateNotFound {
		fmt.Println("Poll not found")
		return 1
	}

	poll := flow.Poll()
	results, err := a.data.GetResults(ctx, poll.ID)
	if err != nil {
		return fail(err)
	}

	fmt.Println(poll.Question)
	vote := flow.Vote()
	for _, option := range poll.Options {
		marker := " "
		if vote != nil && vote.Option == option {
			marker = "*"
		}
		fmt.Printf("  %s %-30s %d\n", marker, option, results.Counts[option])
	}
	fmt.Printf("%d votes total\n", results.Total)
	return 0
}

func (a *app) createPoll(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	question := fs.String("question", "", "Poll question")
	var options optionList
	fs.Var(&options, "option", "Poll option (repeat for each option)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	d := draft.New()
	d.SetQuestion(*question)
	for i, opt := range options {
		if i >= len(d.Options()) {
			d.AddOption()
		}
		if err := d.SetOption(i, opt); err != nil {
			return fail(err)
		}
	}

	poll, err := d.Create(ctx, a.data)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Created poll %s\n", poll.ID)
	return 0
}

func (a *app) vote(ctx context.Context, args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: pollpocket vote <poll-id> <option>")
		return 2
	}

	flow := pollflow.New(a.data, a.sessions, args[0])
	if err := flow.Load(ctx); err != nil {
		return fail(err)
	}
	if flow.State() == pollflow.StateNotFound {
		fmt.Println("Poll not found")
		return 1
	}

	if err := flow.Select(args[1]); err != nil {
		return fail(err)
	}

	err := flow.Submit(ctx)
	if errors.Is(err, pollflow.ErrSignInRequired) {
		fmt.Fprintln(os.Stderr, "Error: sign in to vote (pollpocket login or pollpocket upgrade).")
		return 1
	}
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Vote recorded: %s\n", flow.Vote().Option)
	return 0
}

// credentialFlags parses the shared -email/-password flags.
func credentialFlags(name string, args []string) (email, password string, ok bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	e := fs.String("email", "", "Account email")
	p := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return "", "", false
	}
	if *e == "" || *p == "" {
		fmt.Fprintf(os.Stderr, "Usage: pollpocket %s -email <email> -password <password>\n", name)
		return "", "", false
	}
	return *e, *p, true
}

// fail prints the friendliest message available for err.
func fail(err error) int {
	var authErr *authapi.Error
	if errors.As(err, &authErr) {
		fmt.Fprintln(os.Stderr, "Error:", authErr.UserMessage())
		return 1
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

// optionList collects repeated -option flags.
type optionList []string

func (o *optionList) String() string { return fmt.Sprint([]string(*o)) }

func (o *optionList) Set(value string) error {
	*o = append(*o, value)
	return nil
}
