package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"llm-qa/internal/answer"
	"llm-qa/internal/app"
	"llm-qa/internal/httputil"
)

const missingQuestion = "Missing 'question' in request body."

//go:embed static/index.html
var indexHTML []byte

type askRequest struct {
	Question *string `json:"question" validate:"required"`
}

type askMeta struct {
	Model string `json:"model"`
}

type askResponse struct {
	OK     bool    `json:"ok"`
	Answer string  `json:"answer"`
	Meta   askMeta `json:"meta"`
}

func main() {
	deps, err := app.BuildServer()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server failed", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("server stopped")
}

func newRouter(deps app.Deps) chi.Router {
	r := httputil.NewRouter(deps.Log)

	r.Get("/", indexHandler(deps))
	r.Post("/ask", askHandler(deps))
	r.Get("/health", httputil.HealthHandler(deps))
	r.Method(http.MethodGet, "/metrics", httputil.MetricsHandler())

	return r
}

func indexHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write(indexHTML); err != nil {
			deps.Log.Warn("index write failed", "err", err)
		}
	}
}

func askHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, httputil.DecodeMessage(err, missingQuestion), err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		res := deps.Answers.GetAnswer(r.Context(), *req.Question, answer.Options{})
		log := deps.Log.With("call_id", res.ID)

		switch {
		case res.OK:
			httputil.WriteJSON(w, http.StatusOK, askResponse{
				OK:     true,
				Answer: res.Answer,
				Meta:   askMeta{Model: res.Model},
			})
		case res.Kind == answer.KindValidation:
			httputil.Fail(log, w, res.Error, nil, http.StatusBadRequest)
		case res.Kind.Upstream():
			log.Error("API request failed", "kind", res.Kind, "details", res.Error)
			httputil.WriteJSON(w, http.StatusBadGateway, httputil.ErrorBody{
				Error:   "API request failed",
				Details: res.Error,
			})
		default:
			log.Error("Internal server error", "kind", res.Kind, "details", res.Error)
			httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorBody{
				Error:   "Internal server error",
				Details: res.Error,
			})
		}
	}
}
