package commands

import (
	"TrackingCar/internal/cli/api"
	"TrackingCar/internal/cli/session"
	"TrackingCar/internal/config"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store session tokens" }
func (loginCmd) Usage() string       { return "login <username> <password>" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	sess, err := newClient(cfg).Login(ctx, args[0], args[1])
	if err != nil {
		switch api.StatusOf(err) {
		case http.StatusUnauthorized:
			return errors.New("invalid username or password")
		case http.StatusForbidden:
			return errors.New("account disabled")
		}
		return err
	}
	fmt.Fprintf(Out, "Logged in as %s (%s)\n", sess.Username, sess.Role)
	return nil
}

type registerCmd struct{}

func (registerCmd) Name() string        { return "register" }
func (registerCmd) Description() string { return "Create an account" }
func (registerCmd) Usage() string {
	return "register [-image file] <username> <password> <full name>"
}

func (registerCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	image := fs.String("image", "", "profile image")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	rest := fs.Args()
	if len(rest) < 3 {
		return ErrUsage
	}
	fields := map[string]string{
		"username":  rest[0],
		"password":  rest[1],
		"full_name": strings.Join(rest[2:], " "),
	}
	var files []api.FormFile
	if *image != "" {
		files = append(files, api.FormFile{Field: "image", Path: *image})
	}
	var user struct {
		Username string `json:"username"`
	}
	if err := newClient(cfg).PostMultipart(ctx, "/api/user/register", fields, files, &user); err != nil {
		if api.StatusOf(err) == http.StatusConflict {
			return errors.New("username already in use")
		}
		return err
	}
	fmt.Fprintf(Out, "Registered %s, run login to start a session\n", user.Username)
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "End the session on the server and locally" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(ctx context.Context, cfg *config.Config, _ []string) error {
	if _, err := Sessions.Load(); errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(Out, "Not logged in")
		return nil
	}
	if err := newClient(cfg).Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show the current user" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, _ []string) error {
	sess, err := Sessions.Load()
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(Out, "Status: not logged in")
		return nil
	}
	if err != nil {
		return err
	}
	var user struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}
	if err := newClient(cfg).Get(ctx, "/api/users/"+sess.UserID, &user); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Status: logged in as %s (%s), role %s\n", user.Username, user.FullName, user.Role)
	return nil
}

func init() {
	RegisterCmd(loginCmd{})
	RegisterCmd(registerCmd{})
	RegisterCmd(logoutCmd{})
	RegisterCmd(statusCmd{})
}
