package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/mind-engage/mindengage-grades/internal/api/http"
	auth "github.com/mind-engage/mindengage-grades/internal/auth/middleware"
	"github.com/mind-engage/mindengage-grades/internal/gradebook"
	"github.com/mind-engage/mindengage-grades/internal/storage"
)

// runServeCmd implements `gradecalc serve`: an HTTP API over an in-memory
// snapshot refreshed on a cron schedule.
func runServeCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("serve", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		cf         commonFlags
		of         overrideFlags
		addr       string
		refresh    string
		courseID   int64
		courseName string
	)
	cf.register(cmd)
	of.register(cmd)
	cmd.StringVar(&addr, "addr", "", "Listen address (default HTTP_ADDR or :8080)")
	cmd.StringVar(&refresh, "refresh", "", "Refresh schedule, cron spec or @every (default REFRESH_SPEC)")
	cmd.Int64Var(&courseID, "course-id", 0, "Serve a single course")
	cmd.StringVar(&courseName, "course-name", "", "Serve the course matching this name")

	if err := cmd.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if courseID != 0 && courseName != "" {
		return fail(stderr, usagef("provide only one of --course-id or --course-name"))
	}
	over, err := of.resolve()
	if err != nil {
		return fail(stderr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cf, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	sv := a.file.Serve
	addr = firstSet(addr, sv.Addr, a.env.HTTPAddr)
	refresh = firstSet(refresh, sv.Refresh, a.env.RefreshSpec)

	sel := gradebook.Selection{CourseID: courseID, CourseName: courseName, All: courseID == 0 && courseName == "", IncludeCompleted: cf.includeCompleted}
	runner := a.runner(cf, over)
	snap := gradebook.NewRefresher(runner, sel, 5*time.Minute)
	if p, ok := a.store.(gradebook.Purger); ok {
		snap.SweepAfterRefresh(p)
	}

	deps := api.Deps{Snapshots: snap, Week: runner, CORSOrigins: a.env.CORSOrigins, Log: a.log}
	if len(sv.CORSOrigins) > 0 {
		deps.CORSOrigins = sv.CORSOrigins
	}
	if secret := firstSet(sv.HMACSecret, a.env.HMACSecret); secret != "" {
		deps.Auth = auth.NewAuthService(secret,
			firstSet(sv.AdminUser, a.env.AdminUser),
			firstSet(sv.AdminPassHash, a.env.AdminPassHash))
	} else {
		a.log.Warn("AUTH_HMAC_SECRET not set; /api is unauthenticated")
	}
	if dir := firstSet(sv.ExportDir, a.env.ExportDir); dir != "" {
		sink, err := storage.NewFSStore(dir)
		if err != nil {
			return fail(stderr, err)
		}
		deps.Exports = sink
	}

	if err := snap.Start(refresh); err != nil {
		return fail(stderr, usagef("%v", err))
	}
	defer snap.Stop()
	go func() {
		if _, err := snap.Refresh(ctx); err == nil {
			a.log.Info("initial snapshot ready")
		}
	}()

	srv := &http.Server{Addr: addr, Handler: api.NewRouter(deps), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.log.Info("listening", "addr", addr, "refresh", refresh, "auth", deps.Auth != nil)
	_, _ = fmt.Fprintf(stdout, "gradecalc serving on %s\n", addr)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fail(stderr, err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return exitOK
}
