// Command reconcile recomputes every user's post counter from the posts
// table and repairs the ones that drifted. It is safe to run while the
// server is up.
//
// Usage:
//
//	reconcile            repair all users
//	reconcile -user ID   repair one user
//	reconcile -dry-run   report drift without writing
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"blogpress/internal/config"
	"blogpress/internal/database"
	"blogpress/internal/posts"
	"blogpress/internal/store"
)

func main() {
	userFlag := flag.String("user", "", "reconcile a single user by ID")
	dryRun := flag.Bool("dry-run", false, "report drift without repairing it")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(*userFlag, *dryRun); err != nil {
		slog.Error("reconcile failed", "error", err)
		os.Exit(1)
	}
}

func run(userArg string, dryRun bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postStore := store.NewPostStore(db)
	userStore := store.NewUserStore(db)

	if dryRun {
		return reportDrift(ctx, postStore, userStore)
	}

	// The media store is never touched by reconciliation.
	svc := posts.NewService(postStore, userStore, nil, posts.Options{})

	if userArg != "" {
		id, err := uuid.Parse(userArg)
		if err != nil {
			return fmt.Errorf("invalid -user %q: %w", userArg, err)
		}
		n, err := svc.ReconcileCounter(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("user %s: %d posts\n", id, n)
		return nil
	}

	report, err := svc.ReconcileAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("checked %d users, repaired %d, failed %d\n", report.Checked, report.Repaired, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d users could not be reconciled", report.Failed)
	}
	return nil
}

// reportDrift prints every user whose stored counter differs from the
// actual number of posts.
func reportDrift(ctx context.Context, postStore *store.PostStore, userStore *store.UserStore) error {
	users, err := userStore.List(ctx)
	if err != nil {
		return err
	}

	drifted := 0
	for _, u := range users {
		n, err := postStore.CountByCreator(ctx, u.ID)
		if err != nil {
			return err
		}
		if n != u.Posts {
			drifted++
			fmt.Printf("%s (%s): stored %d, actual %d\n", u.ID, u.Email, u.Posts, n)
		}
	}
	fmt.Printf("%d of %d users drifted\n", drifted, len(users))
	return nil
}
