// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the BlogPress API.
// Handlers are grouped by concern (posts, users, admin) and receive
// their dependencies through the handler struct.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"blogpress/internal/middleware"
	"blogpress/internal/posts"
)

// Admin groups maintenance endpoints. Only the configured admin users may
// call them.
type Admin struct {
	svc    *posts.Service
	admins map[uuid.UUID]bool
}

// NewAdmin creates a new Admin handler group. With no admin IDs every
// caller is refused.
func NewAdmin(svc *posts.Service, adminIDs []uuid.UUID) *Admin {
	admins := make(map[uuid.UUID]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Admin{svc: svc, admins: admins}
}

// Reconcile handles POST /api/admin/reconcile. It recomputes every user's
// post counter and reports how many were repaired.
func (a *Admin) Reconcile(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserIDFromCtx(r.Context())
	if !ok || !a.admins[caller] {
		slog.Warn("admin endpoint refused", "caller", caller, "path", r.URL.Path)
		writeError(w, http.StatusForbidden, "Admin access required.")
		return
	}

	report, err := a.svc.ReconcileAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	slog.Info("reconcile requested",
		"caller", caller,
		"checked", report.Checked,
		"repaired", report.Repaired,
		"failed", report.Failed,
	)
	writeJSON(w, http.StatusOK, report)
}
