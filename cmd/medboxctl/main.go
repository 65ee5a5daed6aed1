// Command medboxctl is a small administration client for a running medbox
// server. It covers the operations an operator needs from a terminal: logging
// in, provisioning accounts, resetting PINs, and inspecting boxes and the
// audit trail.
//
// The server address is taken from the -server flag or the MEDBOX_SERVER
// environment variable. Authenticated commands read the bearer token from
// the -token flag or MEDBOX_TOKEN; the token is printed by "medboxctl login".
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/medboxio/medbox/internal/adapter"
	"github.com/medboxio/medbox/internal/service"
	"github.com/medboxio/medbox/models"
)

const usage = `Usage: medboxctl [flags] <command> [arguments]

Commands:
  login       -username <name> -pin <pin>
  create-user -username <name> -pin <pin> [-display-name <name>] [-role admin|user]
  list-users
  update-role -id <user> -role admin|user
  reset-pin   -id <user> -pin <pin>
  deactivate  -id <user>
  list-boxes
  assign-box  -id <box> -users <id,id,...>
  audit       [-user <id>] [-action <action>] [-limit <n>]

Flags:
  -server <url>   server base URL (default $MEDBOX_SERVER or http://localhost:3001)
  -token <token>  bearer token (default $MEDBOX_TOKEN)
`

func main() {
	server := flag.String("server", os.Getenv("MEDBOX_SERVER"), "server base URL")
	token := flag.String("token", os.Getenv("MEDBOX_TOKEN"), "bearer token")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := adapter.NewClient(adapter.HTTPClientConfig{BaseURL: *server})
	client.SetToken(*token)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, client, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "medboxctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *adapter.Client, command string, args []string) error {
	switch command {
	case "login":
		return runLogin(ctx, client, args)
	case "create-user":
		return runCreateUser(ctx, client, args)
	case "list-users":
		return runListUsers(ctx, client)
	case "update-role":
		return runUpdateRole(ctx, client, args)
	case "reset-pin":
		return runResetPIN(ctx, client, args)
	case "deactivate":
		return runDeactivate(ctx, client, args)
	case "list-boxes":
		return runListBoxes(ctx, client)
	case "assign-box":
		return runAssignBox(ctx, client, args)
	case "audit":
		return runAudit(ctx, client, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runLogin(ctx context.Context, client *adapter.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	pin := fs.String("pin", "", "account PIN")
	fs.Parse(args)

	user, err := client.Login(ctx, *username, *pin)
	if err != nil {
		return err
	}

	fmt.Printf("logged in as %s (%s)\n", user.Username, user.Role)
	fmt.Printf("export MEDBOX_TOKEN=%s\n", client.Token())
	return nil
}

func runCreateUser(ctx context.Context, client *adapter.Client, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	pin := fs.String("pin", "", "account PIN")
	displayName := fs.String("display-name", "", "human-readable name")
	role := fs.String("role", "", "account role (admin|user)")
	fs.Parse(args)

	created, err := client.CreateUser(ctx, service.CreateUserRequest{
		Username:    *username,
		DisplayName: *displayName,
		PIN:         *pin,
		Role:        models.Role(*role),
	})
	if err != nil {
		return err
	}

	fmt.Printf("created user %s (%s)\n", created.ID, created.Role)
	return nil
}

func runListUsers(ctx context.Context, client *adapter.Client) error {
	users, err := client.ListUsers(ctx)
	if err != nil {
		return err
	}

	return printJSON(users)
}

func runUpdateRole(ctx context.Context, client *adapter.Client, args []string) error {
	fs := flag.NewFlagSet("update-role", flag.ExitOnError)
	id := fs.String("id", "", "user ID")
	role := fs.String("role", "", "new role (admin|user)")
	fs.Parse(args)

	updated, err := client.UpdateRole(ctx, *id, models.Role(*role))
	if err != nil {
		return err
	}

	fmt.Printf("user %s is now %s\n", updated.ID, updated.Role)
	return nil
}

func runResetPIN(ctx context.Context, client *adapter.Client, args []string) error {
	fs := flag.NewFlagSet("reset-pin", flag.ExitOnError)
	id := fs.String("id", "", "user ID")
	pin := fs.String("pin", "", "new PIN")
	fs.Parse(args)

	if err := client.ResetPIN(ctx, *id, *pin); err != nil {
		return err
	}

	fmt.Printf("PIN reset for %s\n", *id)
	return nil
}

func runDeactivate(ctx context.Context, client *adapter.Client, args []string) error {
	fs := flag.NewFlagSet("deactivate", flag.ExitOnError)
	id := fs.String("id", "", "user ID")
	fs.Parse(args)

	if err := client.Deactivate(ctx, *id); err != nil {
		return err
	}

	fmt.Printf("deactivated %s\n", *id)
	return nil
}

func runListBoxes(ctx context.Context, client *adapter.Client) error {
	boxes, err := client.ListBoxes(ctx)
	if err != nil {
		return err
	}

	return printJSON(boxes)
}

func runAssignBox(ctx context.Context, client *adapter.Client, args []string) error {
	fs := flag.NewFlagSet("assign-box", flag.ExitOnError)
	id := fs.String("id", "", "box ID")
	users := fs.String("users", "", "comma-separated user IDs")
	fs.Parse(args)

	box, err := client.AssignBox(ctx, *id, splitList(*users))
	if err != nil {
		return err
	}

	fmt.Printf("box %s assigned to %v\n", box.ID, box.AssignedTo)
	return nil
}

func runAudit(ctx context.Context, client *adapter.Client, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	user := fs.String("user", "", "filter by user ID")
	action := fs.String("action", "", "filter by action")
	limit := fs.Int("limit", 0, "maximum number of entries")
	fs.Parse(args)

	entries, err := client.ListAudit(ctx, models.AuditFilter{
		UserID: *user,
		Action: models.Action(*action),
		Limit:  *limit,
	})
	if err != nil {
		return err
	}

	return printJSON(entries)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
