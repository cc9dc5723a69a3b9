package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/bizhub/portal-client/internal/config"
	"github.com/bizhub/portal-client/internal/kvstore"
	"github.com/bizhub/portal-client/internal/models"
	"github.com/bizhub/portal-client/internal/portal"
	"github.com/bizhub/portal-client/internal/session"
	"github.com/bizhub/portal-client/internal/transport"
	"github.com/bizhub/portal-client/internal/transport/resthttp"
	"github.com/bizhub/portal-client/pkg/logger"
)

const usage = `portalcli <command> [flags]

commands:
  login     -u <username> -p <password>
  whoami
  logout
  users     list [-fresh] | create -username <u> -email <e> -name <n> | update -id <id> -username <u> -email <e> -name <n> | delete -id <id>
  partners  list [-fresh]
`

// tokenHolder breaks the transport/session construction cycle: the
// transport needs a bearer source before the manager exists.
type tokenHolder struct {
	mgr *session.Manager
}

func (h *tokenHolder) AccessToken() string {
	if h.mgr == nil {
		return ""
	}
	return h.mgr.AccessToken()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)

	client, err := buildClient(cfg)
	if err != nil {
		logger.Fatalf("failed to build client: %v", err)
	}

	ctx := context.Background()
	if _, err := client.Start(ctx); err != nil {
		logger.Debugf("no restorable session: %v", err)
	}

	switch os.Args[1] {
	case "login":
		runLogin(ctx, client, os.Args[2:])
	case "whoami":
		runWhoami(ctx, client)
	case "logout":
		client.SignOut(ctx)
		fmt.Println("logged out")
	case "users":
		runUsers(ctx, client, os.Args[2:])
	case "partners":
		runPartners(ctx, client, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

// buildClient assembles the kvstore dual, the REST transport sharing
// the cookie jar, and the session manager on top.
func buildClient(cfg *config.Config) (*portal.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	cookies, err := kvstore.NewCookieBackend(jar, cfg.API.BaseURL)
	if err != nil {
		return nil, err
	}

	var primary kvstore.Backend
	if cfg.Redis.Host != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		primary = kvstore.NewRedisBackend(rc, "")
	} else {
		logger.Warnf("REDIS_HOST not set; tokens will not survive this process")
		primary = kvstore.NewMemoryBackend()
	}
	store := kvstore.NewDual(primary, cookies, cfg.API.CookieTTL)

	holder := &tokenHolder{}
	tr := resthttp.New(cfg.API.BaseURL, holder,
		resthttp.WithHTTPClient(&http.Client{Jar: jar, Timeout: cfg.API.Timeout}))
	mgr := session.NewManager(tr, store)
	holder.mgr = mgr

	return portal.NewClient(tr, mgr), nil
}

func runLogin(ctx context.Context, client *portal.Client, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	_ = fs.Parse(args)

	ses, err := client.SignIn(ctx, models.Credentials{Username: *username, Password: *password})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign-in failed: %s\n", client.LastError())
		os.Exit(1)
	}
	name := *username
	if ses.User != nil {
		name = ses.User.Username
	}
	fmt.Printf("signed in as %s (%s)\n", name, ses.Status)
}

func runWhoami(ctx context.Context, client *portal.Client) {
	if !client.IsAuthenticated() {
		fmt.Println("not signed in")
		os.Exit(1)
	}
	if u := client.CurrentUser(ctx); u != nil {
		fmt.Printf("%s <%s> role=%s tenant=%s\n", u.Username, u.Email, u.Role, u.TenantID)
		return
	}
	// profile unavailable; fall back to the unverified token payload
	if dc, err := session.PeekClaims(client.Session().AccessToken); err == nil && dc.Username != "" {
		fmt.Printf("%s (from token, profile unavailable)\n", dc.Username)
		return
	}
	fmt.Println("signed in, profile unavailable")
}

func runUsers(ctx context.Context, client *portal.Client, args []string) {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	users := client.Users()
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("users list", flag.ExitOnError)
		fresh := fs.Bool("fresh", false, "bypass the cache and refetch")
		_ = fs.Parse(args[1:])
		var rows []models.User
		var fromCache bool
		var err error
		if *fresh {
			rows, err = users.Refresh(ctx)
		} else {
			rows, fromCache, err = users.List(ctx)
		}
		exitOn(err)
		for _, u := range rows {
			fmt.Printf("%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role)
		}
		if fromCache {
			logger.Debugf("served from cache, revalidating in background")
		}
	case "create":
		fs := flag.NewFlagSet("users create", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email")
		name := fs.String("name", "", "display name")
		_ = fs.Parse(args[1:])
		created, err := users.Create(ctx, models.User{Username: *username, Email: *email, Name: *name})
		exitOn(err)
		fmt.Printf("created %s\n", created.ID)
	case "update":
		fs := flag.NewFlagSet("users update", flag.ExitOnError)
		id := fs.String("id", "", "user id")
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email")
		name := fs.String("name", "", "display name")
		_ = fs.Parse(args[1:])
		updated, err := users.Update(ctx, *id, models.User{Username: *username, Email: *email, Name: *name})
		exitOn(err)
		fmt.Printf("updated %s\n", updated.ID)
	case "delete":
		fs := flag.NewFlagSet("users delete", flag.ExitOnError)
		id := fs.String("id", "", "user id")
		_ = fs.Parse(args[1:])
		exitOn(users.Remove(ctx, *id))
		fmt.Println("deleted")
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runPartners(ctx context.Context, client *portal.Client, args []string) {
	if len(args) == 0 || args[0] != "list" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	fs := flag.NewFlagSet("partners list", flag.ExitOnError)
	fresh := fs.Bool("fresh", false, "bypass the cache and refetch")
	_ = fs.Parse(args[1:])
	var rows []models.Partner
	var err error
	if *fresh {
		rows, err = client.Partners().Refresh(ctx)
	} else {
		rows, _, err = client.Partners().List(ctx)
	}
	exitOn(err)
	for _, p := range rows {
		fmt.Printf("%s\t%s\t%s\n", p.ID, p.Name, p.Grade)
	}
}

func exitOn(err error) {
	if err == nil {
		return
	}
	if transport.IsNetwork(err) {
		fmt.Fprintf(os.Stderr, "network error (retry later): %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
