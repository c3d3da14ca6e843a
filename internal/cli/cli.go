// Package cli implements the interactive todoctl shell on top of the auth
// and item service clients.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
)

//nolint:gochecknoglobals
var (
	ErrNotLoggedIn   = errors.New("not logged in, use 'login <username>' first")
	ErrUnknownItem   = errors.New("unknown item, use an id or a number from the last 'list'")
	ErrExitRequested = errors.New("exit requested")
)

// AuthAPI is the part of the auth service the shell uses.
type AuthAPI interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

// TodoAPI is the part of the item service the shell uses.
type TodoAPI interface {
	List(ctx context.Context, token string, params domain.PaginationParams) (domain.PagedList[domain.TodoItemDTO], error)
	Get(ctx context.Context, token string, id uuid.UUID) (domain.TodoItemDTO, error)
	Create(ctx context.Context, token string, req domain.TodoItemCreate) (uuid.UUID, error)
	Update(ctx context.Context, token string, id uuid.UUID, req domain.TodoItemUpdate) error
	SetCompleted(ctx context.Context, token string, id uuid.UUID, completed bool) error
	Remove(ctx context.Context, token string, id uuid.UUID) error
}

// UsageError reports a command invoked with the wrong arguments.
type UsageError struct {
	Command string
}

func (e UsageError) Error() string {
	return "usage: " + commandHelp[e.Command]
}

// CLI holds the session state of one shell: the logged in user, their token
// and the items shown by the last listing.
type CLI struct {
	Auth AuthAPI
	Todo TodoAPI
	RL   *readline.Instance
	Out  io.Writer

	username string
	token    string
	listed   []uuid.UUID
	log      logging.Logger
}

// NewCLI creates a shell writing to out. rl may be nil, in which case
// passwords must be given on the command line.
func NewCLI(auth AuthAPI, todo TodoAPI, rl *readline.Instance, out io.Writer) *CLI {
	return &CLI{
		Auth: auth,
		Todo: todo,
		RL:   rl,
		Out:  out,
		log:  logging.GetLogger("cli"),
	}
}

// Prompt shows the logged in user, if any.
func (c *CLI) Prompt() string {
	if c.username == "" {
		return "todo> "
	}

	return c.username + "@todo> "
}

// Run reads and executes a single line.
func (c *CLI) Run(ctx context.Context) error {
	c.RL.SetPrompt(c.Prompt())

	line, err := c.RL.Readline()
	if err != nil {
		return err //nolint:wrapcheck
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	return c.ExecuteCommand(ctx, ParseArgs(line))
}

// ParseArgs splits input on spaces. Double quotes group words into one
// argument.
func ParseArgs(input string) []string {
	var (
		args     []string
		current  strings.Builder
		inQuotes bool
		quoted   bool
	)

	for _, char := range input {
		switch {
		case char == '"':
			inQuotes = !inQuotes
			quoted = true
		case char == ' ' && !inQuotes:
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
			}

			quoted = false
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args
}

// ExecuteCommand runs one parsed command line.
func (c *CLI) ExecuteCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}

	cmd, rest := args[0], args[1:]

	c.log.DebugContext(ctx, "execute command", "command", cmd, "args", len(rest))

	switch cmd {
	case "register":
		return c.handleRegister(ctx, rest)
	case "login":
		return c.handleLogin(ctx, rest)
	case "logout":
		return c.handleLogout(ctx)
	case "list", "ls":
		return c.handleList(ctx, rest)
	case "get", "show":
		return c.handleGet(ctx, rest)
	case "add":
		return c.handleAdd(ctx, rest)
	case "edit":
		return c.handleEdit(ctx, rest)
	case "done":
		return c.handleSetCompleted(ctx, "done", rest, true)
	case "undone":
		return c.handleSetCompleted(ctx, "undone", rest, false)
	case "rm", "del":
		return c.handleRemove(ctx, rest)
	case "help":
		c.printHelp(rest)

		return nil
	case "exit", "quit":
		return ErrExitRequested
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *CLI) requireToken() (string, error) {
	if c.token == "" {
		return "", ErrNotLoggedIn
	}

	return c.token, nil
}

// credentials returns username and password, prompting for the password when
// it was not given.
func (c *CLI) credentials(cmd string, args []string) (string, string, error) {
	switch {
	case len(args) == 2:
		return args[0], args[1], nil
	case len(args) == 1 && c.RL != nil:
		password, err := c.RL.ReadPassword("password: ")
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}

		return args[0], string(password), nil
	default:
		return "", "", UsageError{Command: cmd}
	}
}

// resolve turns an item reference into an id. A reference is either an item
// id or the 1-based position in the last listing.
func (c *CLI) resolve(ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(c.listed) {
		return uuid.Nil, ErrUnknownItem
	}

	return c.listed[n-1], nil
}

func (c *CLI) handleRegister(ctx context.Context, args []string) error {
	username, password, err := c.credentials("register", args)
	if err != nil {
		return err
	}

	if err := c.Auth.Register(ctx, username, password); err != nil {
		return err //nolint:wrapcheck
	}

	c.printf("registered %s\n", username)

	return nil
}

func (c *CLI) handleLogin(ctx context.Context, args []string) error {
	username, password, err := c.credentials("login", args)
	if err != nil {
		return err
	}

	token, err := c.Auth.Login(ctx, username, password)
	if err != nil {
		return err //nolint:wrapcheck
	}

	c.username, c.token, c.listed = username, token, nil
	c.printf("logged in as %s\n", username)

	return nil
}

func (c *CLI) handleLogout(ctx context.Context) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}

	if err := c.Auth.Logout(ctx, token); err != nil {
		return err //nolint:wrapcheck
	}

	c.printf("logged out %s\n", c.username)
	c.username, c.token, c.listed = "", "", nil

	return nil
}

func (c *CLI) handleList(ctx context.Context, args []string) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}

	params := domain.DefaultPagination()

	if len(args) > 2 {
		return UsageError{Command: "list"}
	}

	if len(args) > 0 {
		if params.Page, err = strconv.Atoi(args[0]); err != nil {
			return UsageError{Command: "list"}
		}
	}

	if len(args) > 1 {
		if params.PageSize, err = strconv.Atoi(args[1]); err != nil {
			return UsageError{Command: "list"}
		}
	}

	page, err := c.Todo.List(ctx, token, params)
	if err != nil {
		return err //nolint:wrapcheck
	}

	c.listed = c.listed[:0]

	tw := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDONE\tTITLE\tCREATED")

	for i, item := range page.Items {
		c.listed = append(c.listed, item.ID)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, checkbox(item.IsCompleted), item.Title, item.CreatedAt.Local().Format("2006-01-02 15:04"))
	}

	tw.Flush()

	c.printf("page %d of %d (%d items)\n", page.CurrentPage, page.TotalPages(), page.TotalCount)

	return nil
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}

	return "[ ]"
}

func (c *CLI) handleGet(ctx context.Context, args []string) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}

	if len(args) != 1 {
		return UsageError{Command: "get"}
	}

	id, err := c.resolve(args[0])
	if err != nil {
		return err
	}

	item, err := c.Todo.Get(ctx, token, id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	c.printf("%s %s\n  %s\n  id: %s\n  created: %s\n",
		checkbox(item.IsCompleted), item.Title, item.Description, item.ID,
		item.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	return nil
}

func (c *CLI) handleAdd(ctx context.Context, args []string) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}

	if len(args) != 2 {
		return UsageError{Command: "add"}
	}

	id, err := c.Todo.Create(ctx, token, domain.TodoItemCreate{Title: args[0], Description: args[1]})
	if err != nil {
		return err //nolint:wrapcheck
	}

	c.printf("created %s\n", id)

	return nil
}

func (c *CLI) handleEdit(ctx context.Context, args []string) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}

	if len(args) != 3 {
		return UsageError{Command: "edit"}
	}

	id, err := c.resolve(args[0])
	if err != nil {
		return err
	}

	if err := c.Todo.Update(ctx, token, id, domain.TodoItemUpdate{Title: args[1], Description: args[2]}); err != nil {
		return err //nolint:wrapcheck
	}

	c.printf("updated %s\n", id)

	return nil
}

func (c *CLI) handleSetCompleted(ctx context.Context, cmd string, args []string, completed bool) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}

	if len(args) != 1 {
		return UsageError{Command: cmd}
	}

	id, err := c.resolve(args[0])
	if err != nil {
		return err
	}

	if err := c.Todo.SetCompleted(ctx, token, id, completed); err != nil {
		return err //nolint:wrapcheck
	}

	c.printf("marked %s %s\n", id, cmd)

	return nil
}

func (c *CLI) handleRemove(ctx context.Context, args []string) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}

	if len(args) != 1 {
		return UsageError{Command: "rm"}
	}

	id, err := c.resolve(args[0])
	if err != nil {
		return err
	}

	if err := c.Todo.Remove(ctx, token, id); err != nil {
		return err //nolint:wrapcheck
	}

	c.printf("removed %s\n", id)

	return nil
}

func (c *CLI) printHelp(args []string) {
	if len(args) > 0 {
		if help, ok := commandHelp[args[0]]; ok {
			c.printf("%s\n", help)

			return
		}
	}

	for _, name := range commandOrder {
		c.printf("  %s\n", commandHelp[name])
	}
}

// FormatError renders err for the user. Service errors show their
// descriptions; anything else is shown as is.
func FormatError(err error) string {
	classified := domain.Classify(err)
	if len(classified) == 0 {
		return err.Error()
	}

	lines := make([]string, 0, len(classified))
	for _, e := range classified {
		lines = append(lines, e.Description)
	}

	return strings.Join(lines, "\n")
}

//nolint:gochecknoglobals
var commandOrder = []string{"register", "login", "logout", "list", "get", "add", "edit", "done", "undone", "rm", "exit"}

//nolint:gochecknoglobals
var commandHelp = map[string]string{
	"register": "register <username> [password]",
	"login":    "login <username> [password]",
	"logout":   "logout",
	"list":     "list [page] [pageSize]",
	"get":      "get <item>",
	"add":      `add "<title>" "<description>"`,
	"edit":     `edit <item> "<title>" "<description>"`,
	"done":     "done <item>",
	"undone":   "undone <item>",
	"rm":       "rm <item>",
	"exit":     "exit",
}
