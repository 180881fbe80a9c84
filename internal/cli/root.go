// Package cli implements the saverpwd command line on top of cobra.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	osuser "os/user"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/saverpwd/internal/app"
	"github.com/dmitrijs2005/saverpwd/internal/common"
	"github.com/dmitrijs2005/saverpwd/internal/config"
	"github.com/dmitrijs2005/saverpwd/internal/logging"
)

// copyToClipboard is a seam for clipboard.WriteAll.
var copyToClipboard = clipboard.WriteAll

// currentUser is a seam for os/user.Current.
var currentUser = osuser.Current

// IO bundles the streams commands read from and write to.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// runtime is the per-invocation state shared by the commands.
type runtime struct {
	io       IO
	in       *bufio.Reader
	app      *app.App
	log      logging.Logger
	closeLog func() error

	user     string
	password string
	yes      bool
}

// newRoot builds the saverpwd command tree and the state its commands share.
func newRoot(streams IO) (*cobra.Command, *runtime) {
	rt := &runtime{io: streams, in: bufio.NewReader(streams.In)}

	root := &cobra.Command{
		Use:   "saverpwd",
		Short: "Local multi-user password vault",
		Long: `saverpwd keeps logins ("units") for several users in one local SQLite file.
Every secret is encrypted with a key derived from its owner's username and password.

Examples:
  saverpwd uadd -u alice
  saverpwd add -u alice -l a@example.com -n mail -c personal
  saverpwd get -u alice -l a@example.com -n mail
  saverpwd show -u alice --with-category`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.close()
		},
	}
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &ExitError{Code: ExitCodeUsage, Err: err}
	})
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	pf := root.PersistentFlags()
	config.RegisterFlags(pf)
	pf.StringVarP(&rt.user, "user", "u", "", "vault username (defaults to the OS login name)")
	pf.StringVarP(&rt.password, "password", "p", "", "vault password (prompted when omitted)")
	pf.BoolVarP(&rt.yes, "yes", "y", false, "do not ask for confirmation")

	root.AddCommand(
		newUserAddCommand(rt),
		newUserUpdateCommand(rt),
		newUserDeleteCommand(rt),
		newUserShowCommand(rt),
		newUnitAddCommand(rt),
		newUnitGetCommand(rt),
		newUnitShowCommand(rt),
		newUnitUpdateCommand(rt),
		newUnitDeleteCommand(rt),
		newCategoryAddCommand(rt),
		newCategoryShowCommand(rt),
		newCategoryDeleteCommand(rt),
	)
	return root, rt
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, streams IO) int {
	root, rt := newRoot(streams)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	// post-run hooks are skipped when a command fails
	if cerr := rt.close(); err == nil {
		err = cerr
	}
	err = mapError(err)
	if err == nil {
		return ExitCodeSuccess
	}
	fmt.Fprintln(streams.Err, "Error:", err)

	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return withExit.ExitCode()
	}
	return ExitCodeGeneric
}

// needsVault is false for cobra's own help and completion commands.
func needsVault(cmd *cobra.Command) bool {
	for c := cmd; c.HasParent(); c = c.Parent() {
		if c.Name() == "help" || c.Name() == "completion" {
			return false
		}
	}
	return true
}

func (rt *runtime) open(cmd *cobra.Command) error {
	if !needsVault(cmd) {
		return nil
	}
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return usageErrorf("%w", err)
	}

	opts := cfg.LogOptions()
	opts.Console = rt.io.Err
	logger, closeLog, err := logging.Setup(opts)
	if err != nil {
		return err
	}
	rt.log, rt.closeLog = logger, closeLog

	a, err := app.NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	rt.app = a
	return nil
}

func (rt *runtime) close() error {
	var errs []error
	if rt.app != nil {
		errs = append(errs, rt.app.Close())
		rt.app = nil
	}
	if rt.closeLog != nil {
		errs = append(errs, rt.closeLog())
		rt.closeLog = nil
	}
	return errors.Join(errs...)
}

func (rt *runtime) out() io.Writer { return rt.io.Out }

// osLogin returns the login name of the calling OS user, without any domain part.
func osLogin() string {
	u, err := currentUser()
	if err != nil {
		return ""
	}
	name := u.Username
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

// username returns --user, else the OS login name, else prompts for it.
func (rt *runtime) username() (string, error) {
	if rt.user != "" {
		return rt.user, nil
	}
	if name := osLogin(); name != "" {
		rt.user = name
		return name, nil
	}
	name, err := GetSimpleText(rt.in, "Username", rt.io.Err)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", usageErrorf("username is required")
	}
	rt.user = name
	return name, nil
}

// credentials returns the username and password given by flag or prompt.
func (rt *runtime) credentials() (string, string, error) {
	user, err := rt.username()
	if err != nil {
		return "", "", err
	}
	if rt.password == "" {
		pw, err := GetPassword("Password", rt.io.Err)
		if err != nil {
			return "", "", err
		}
		rt.password = string(pw)
	}
	return user, rt.password, nil
}

// login checks the credentials before any user-scoped command runs.
func (rt *runtime) login(ctx context.Context) (string, string, error) {
	user, pw, err := rt.credentials()
	if err != nil {
		return "", "", err
	}
	ok, err := rt.app.Users.VerifyUser(ctx, user, pw)
	if err != nil {
		return "", "", err
	}
	if !ok {
		rt.log.Warn(ctx, "login rejected", "user", user)
		return "", "", fmt.Errorf("user %q: %w", user, common.ErrIncorrectPassword)
	}
	return user, pw, nil
}

// confirm asks before destructive commands unless --yes was given.
func (rt *runtime) confirm(question string) error {
	if rt.yes {
		return nil
	}
	ok, err := Confirm(rt.in, question, rt.io.Err)
	if err != nil {
		return err
	}
	if !ok {
		return &ExitError{Code: ExitCodeGeneric, Err: errors.New("aborted")}
	}
	return nil
}
