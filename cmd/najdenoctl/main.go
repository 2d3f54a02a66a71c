package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/erazemk/najdeno/internal/client"
	"github.com/erazemk/najdeno/internal/model"
)

const usage = `Usage: najdenoctl [-server <url>] [-session <path>] <command> [flags]

Commands:
  signup -name <name> -email <email> -password <password>
  login -email <email> -password <password>
  logout
  whoami
  search [-q <text>] [-type lost|found] [-category <name>] [-limit <n>]
  report -type lost|found -description <text> -category <name> -location <name> [-contact <info>]
  mine
  admin list
  admin status <item-id> <pending|matched|claimed>
  history <item-id>
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "error: %s\n", apiErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("najdenoctl", flag.ContinueOnError)
	server := fs.String("server", envOr("NAJDENO_SERVER", "http://localhost:8080"), "")
	sessionPath := fs.String("session", envOr("NAJDENO_SESSION", client.DefaultSessionPath()), "")
	fs.Usage = func() { fmt.Fprint(out, usage) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	app := client.NewApp(client.New(*server), logger)
	app.OnExpired = func() {
		fmt.Fprintln(out, "Session expired, please log in again.")
		client.RemoveSession(*sessionPath)
	}

	sess, err := client.LoadSession(*sessionPath)
	if err != nil {
		return err
	}
	app.Restore(sess)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := &cli{app: app, out: out, sessionPath: *sessionPath}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "signup":
		return c.signup(ctx, rest)
	case "login":
		return c.login(ctx, rest)
	case "logout":
		return c.logout()
	case "whoami":
		return c.whoami(ctx)
	case "search":
		return c.search(ctx, rest)
	case "report":
		return c.report(ctx, rest)
	case "mine":
		return c.mine(ctx)
	case "admin":
		return c.admin(ctx, rest)
	case "history":
		return c.history(ctx, rest)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

type cli struct {
	app         *client.App
	out         io.Writer
	sessionPath string
}

func (c *cli) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	name := fs.String("name", "", "")
	email := fs.String("email", "", "")
	password := fs.String("password", "", "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := c.app.Signup(ctx, *name, *email, *password); err != nil {
		return err
	}
	return c.saveSession()
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "")
	password := fs.String("password", "", "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := c.app.Login(ctx, *email, *password); err != nil {
		return err
	}
	return c.saveSession()
}

func (c *cli) saveSession() error {
	sess := c.app.State().Session
	if err := client.SaveSession(c.sessionPath, sess); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s (%s)\n", sess.User.Email, sess.User.Role)
	return nil
}

func (c *cli) logout() error {
	c.app.Logout()
	if err := client.RemoveSession(c.sessionPath); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out.")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	user, err := c.app.WhoAmI(ctx)
	if errors.Is(err, client.ErrNoSession) {
		fmt.Fprintln(c.out, "Not logged in.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

func (c *cli) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	var q client.Query
	fs.StringVar(&q.Text, "q", "", "")
	fs.StringVar(&q.Type, "type", "", "")
	fs.StringVar(&q.Category, "category", "", "")
	fs.IntVar(&q.Limit, "limit", 0, "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := c.app.Search(ctx, q); err != nil {
		return err
	}
	c.printItems(c.app.State().Items)
	return nil
}

func (c *cli) report(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	var r client.Report
	fs.StringVar(&r.Type, "type", "", "")
	fs.StringVar(&r.Description, "description", "", "")
	fs.StringVar(&r.Category, "category", "", "")
	fs.StringVar(&r.Location, "location", "", "")
	fs.StringVar(&r.ContactInfo, "contact", "", "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	item, err := c.app.Report(ctx, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Reported %s item %s\n", item.Type, item.ID)
	return nil
}

func (c *cli) mine(ctx context.Context) error {
	if c.app.State().Session == nil {
		return client.ErrNoSession
	}
	if err := c.app.ListUser(ctx); err != nil {
		return err
	}
	c.printItems(c.app.State().Items)
	return nil
}

func (c *cli) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: admin list | admin status <item-id> <status>")
	}

	switch args[0] {
	case "list":
		if err := c.app.ListAdmin(ctx); err != nil {
			return err
		}
		c.printItems(c.app.State().Items)
		return nil
	case "status":
		if len(args) != 3 {
			return errors.New("usage: admin status <item-id> <pending|matched|claimed>")
		}
		if err := c.app.UpdateStatus(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Item %s is now %s\n", args[1], args[2])
		return nil
	default:
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func (c *cli) history(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: history <item-id>")
	}

	changes, err := c.app.History(ctx, args[0])
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Fprintln(c.out, "No status changes.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tFROM\tTO\tBY")
	for _, ch := range changes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ch.ChangedAt.Local().Format(time.DateTime), ch.FromStatus, ch.ToStatus, ch.ChangedBy)
	}
	return tw.Flush()
}

func (c *cli) printItems(items []model.Item) {
	if len(items) == 0 {
		fmt.Fprintln(c.out, "No items.")
		return
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tCATEGORY\tLOCATION\tDESCRIPTION")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", it.ID, it.Type, it.Status, it.Category, it.Location, oneLine(it.Description, 50))
	}
	tw.Flush()
}

// oneLine flattens s and cuts it to at most n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
