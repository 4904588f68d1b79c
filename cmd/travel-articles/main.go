package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/pribylovaa/go-travel-articles/internal/clients"
	"github.com/pribylovaa/go-travel-articles/internal/config"
	"github.com/pribylovaa/go-travel-articles/internal/loader"
	"github.com/pribylovaa/go-travel-articles/internal/models"
	"github.com/pribylovaa/go-travel-articles/internal/session"
	"github.com/pribylovaa/go-travel-articles/internal/stats"
	"github.com/pribylovaa/go-travel-articles/internal/transport"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Debug("starting travel-articles", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	sess, err := session.Open(cfg.Session.TokenPath)
	if err != nil {
		log.Error("session_open_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// Сессия, опустевшая посреди работы — это 401 от бэкенда.
	cancelSub := sess.Subscribe(func(sn session.Snapshot) {
		if sn.Token == "" {
			log.Warn("session_cleared")
		}
	})
	defer cancelSub()

	d, err := transport.New(cfg.API.BaseURL, sess, transport.Options{
		Timeout: cfg.API.Timeout,
		Logger:  log,
	})
	if err != nil {
		log.Error("transport_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	cl := clients.New(d, sess)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var runErr error
	switch args[0] {
	case "login":
		runErr = runLogin(rootCtx, cl, args[1:])
	case "me":
		runErr = runMe(rootCtx, cl)
	case "articles":
		runErr = runArticles(rootCtx, cl, cfg, log, args[1:])
	case "article":
		runErr = runArticle(rootCtx, cl, args[1:])
	case "comment":
		runErr = runComment(rootCtx, cl, args[1:])
	case "categories":
		runErr = runCategories(rootCtx, cl)
	case "dashboard":
		runErr = runDashboard(rootCtx, cl, cfg)
	case "logout":
		cl.Auth.Logout()
		fmt.Println("logged out")
	default:
		usage()
		os.Exit(2)
	}

	if runErr != nil {
		if errors.Is(runErr, clients.ErrSkipped) {
			fmt.Fprintln(os.Stderr, "not logged in: run `travel-articles login` first")
			os.Exit(1)
		}

		log.Error("command_failed", slog.String("cmd", args[0]), slog.String("err", runErr.Error()))
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: travel-articles [-config path] <command>

commands:
  login -identifier <email> -password <password>
  me
  articles [-category documentId] [-pages n]
  article <documentId>
  comment -article <documentId> -text <content>
  categories
  dashboard
  logout`)
}

func runLogin(ctx context.Context, cl *clients.Clients, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	identifier := fs.String("identifier", "", "email or username")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	if *identifier == "" || *password == "" {
		return errors.New("login: -identifier and -password are required")
	}

	u, err := cl.Auth.Login(ctx, *identifier, *password)
	if err != nil {
		return err
	}

	fmt.Printf("logged in as %s <%s>\n", u.Username, u.Email)
	return nil
}

func runMe(ctx context.Context, cl *clients.Clients) error {
	u, err := cl.Auth.Me(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s <%s> (id=%d)\n", u.Username, u.Email, u.ID)
	return nil
}

// runArticles гоняет инкрементальный лоадер: каждая итерация -pages —
// один сигнал "догрузить" (аналог сентинеля видимости).
func runArticles(ctx context.Context, cl *clients.Clients, cfg *config.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("articles", flag.ExitOnError)
	category := fs.String("category", "", "category documentId filter")
	pages := fs.Int("pages", 1, "number of pages to load")
	_ = fs.Parse(args)

	ld := loader.New(cl.Articles, cfg.Limits.PageSize, log)
	ld.SetFilter(*category)

	for i := 0; i < *pages; i++ {
		if err := ld.LoadMore(ctx); err != nil {
			return err
		}
		if !ld.HasMore() {
			break
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOCUMENT ID\tCATEGORY\tTITLE")
	for _, a := range ld.Articles() {
		cat := "-"
		if a.Category != nil {
			cat = a.Category.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.DocumentID, cat, a.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if p := ld.Pagination(); p != nil {
		fmt.Printf("\npage %d of %d (%d total)", ld.Page(), p.PageCount, p.Total)
		if ld.HasMore() {
			fmt.Print(", more available")
		}
		fmt.Println()
	}

	return nil
}

func runArticle(ctx context.Context, cl *clients.Clients, args []string) error {
	if len(args) == 0 {
		return errors.New("article: documentId is required")
	}

	a, err := cl.Articles.Get(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s\n\n%s\n", a.Title, a.Description)

	comments, err := cl.Comments.ListByArticle(ctx, a.DocumentID, clients.ListCommentsOptions{})
	if err != nil {
		return err
	}

	if len(comments.Data) > 0 {
		fmt.Printf("\ncomments (%d):\n", len(comments.Data))
		for _, cm := range comments.Data {
			author := "anonymous"
			if cm.User != nil {
				author = cm.User.Username
			}
			fmt.Printf("  [%s] %s: %s\n", cm.CreatedAt.Format("2006-01-02 15:04"), author, cm.Content)
		}
	}

	return nil
}

func runComment(ctx context.Context, cl *clients.Clients, args []string) error {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	article := fs.String("article", "", "article documentId")
	text := fs.String("text", "", "comment content")
	_ = fs.Parse(args)

	if *article == "" || *text == "" {
		return errors.New("comment: -article and -text are required")
	}

	cm, err := cl.Comments.Create(ctx, models.CommentInput{Content: *text, Article: *article})
	if err != nil {
		return err
	}

	fmt.Printf("comment %s created\n", cm.DocumentID)
	return nil
}

func runCategories(ctx context.Context, cl *clients.Clients) error {
	list, err := cl.Categories.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOCUMENT ID\tNAME")
	for _, c := range list.Data {
		fmt.Fprintf(w, "%s\t%s\n", c.DocumentID, c.Name)
	}

	return w.Flush()
}

func runDashboard(ctx context.Context, cl *clients.Clients, cfg *config.Config) error {
	if _, err := cl.Auth.Me(ctx); err != nil {
		return err
	}

	page, err := cl.Articles.List(ctx, clients.ListArticlesOptions{
		Page:     1,
		PageSize: cfg.Limits.DashboardPageSize,
	})
	if err != nil {
		return err
	}

	ov := stats.Build(page.Data)

	fmt.Printf("articles: %d, comments: %d\n\n", ov.Articles.Total, ov.Comments.Total)

	fmt.Println("articles by category:")
	for name, n := range ov.Articles.ByCategory {
		fmt.Printf("  %-20s %d\n", name, n)
	}

	fmt.Println("\nmost commented:")
	for title, n := range ov.Comments.ByArticle {
		if n > 0 {
			fmt.Printf("  %-40s %d\n", title, n)
		}
	}

	if len(ov.Recent) > 0 {
		fmt.Println("\nrecent activity:")
		for _, ev := range ov.Recent {
			fmt.Printf("  [%s] %s: %s\n", ev.CreatedAt.Format("2006-01-02 15:04"), ev.Kind, ev.ArticleTitle)
		}
	}

	return nil
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
