// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package posts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ReconcileReport summarizes a counter repair pass.
type ReconcileReport struct {
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

// ReconcileCounter recomputes a user's post counter from the post
// repository and stores it. It returns the recomputed count.
func (s *Service) ReconcileCounter(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.posts.CountByCreator(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count posts for %s: %w", userID, err)
	}
	if err := s.users.SetPostCount(ctx, userID, n); err != nil {
		return 0, fmt.Errorf("set post count for %s: %w", userID, err)
	}
	return n, nil
}

// ReconcileAll walks every user and repairs counters that drifted from the
// true number of posts. Per-user failures are counted and logged; the pass
// continues with the next user.
func (s *Service) ReconcileAll(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	users, err := s.users.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		n, err := s.posts.CountByCreator(ctx, u.ID)
		if err != nil {
			report.Failed++
			slog.Warn("post count reconcile failed", "user_id", u.ID, "error", err)
			continue
		}
		if n == u.Posts {
			continue
		}
		if err := s.users.SetPostCount(ctx, u.ID, n); err != nil {
			report.Failed++
			slog.Warn("post count reconcile failed", "user_id", u.ID, "error", err)
			continue
		}
		report.Repaired++
		slog.Info("post count repaired", "user_id", u.ID, "stored", u.Posts, "actual", n)
	}

	return report, nil
}

// RunReconciler repairs counters every interval until ctx is cancelled.
func (s *Service) RunReconciler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report, err := s.ReconcileAll(ctx)
			if err != nil {
				slog.Warn("periodic reconcile aborted", "error", err)
				continue
			}
			slog.Debug("periodic reconcile done",
				"checked", report.Checked,
				"repaired", report.Repaired,
				"failed", report.Failed,
			)
		case <-ctx.Done():
			return
		}
	}
}
