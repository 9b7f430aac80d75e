package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/catalog-verify/internal/catalog"
	"github.com/sells-group/catalog-verify/internal/config"
	"github.com/sells-group/catalog-verify/internal/ingest"
	"github.com/sells-group/catalog-verify/internal/report"
	"github.com/sells-group/catalog-verify/internal/verify"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(st, verify.NewService(st, loaderConfig(cfg)), cfg.Server),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the HTTP API. st serves catalog stats; svc runs
// verifications.
func buildRouter(st catalog.Store, svc *verify.Service, sc config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(sc.RequestsPerSecond))

		r.Get("/catalog/stats", func(w http.ResponseWriter, req *http.Request) {
			n, err := st.Count(req.Context())
			if err != nil {
				zap.L().Error("catalog count failed", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
				return
			}
			writeJSON(w, http.StatusOK, map[string]int{"records": n})
		})

		r.Post("/verify", verifyHandler(svc, int64(sc.MaxUploadMB)<<20))
	})

	return r
}

// verifyHandler accepts a CSV request body or a multipart "file" field and
// responds with the run as JSON, or as the CSV export with ?format=csv.
func verifyHandler(svc *verify.Service, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		req.Body = http.MaxBytesReader(w, req.Body, maxBytes)

		name, body, err := uploadBody(req)
		if err != nil {
			writeError(w, uploadErrorStatus(err), err.Error())
			return
		}
		defer body.Close() //nolint:errcheck

		upload, err := ingest.Read(ctx, name, body, ingest.Options{
			Encoding:  req.URL.Query().Get("encoding"),
			SheetName: req.URL.Query().Get("sheet"),
		})
		if err != nil {
			writeError(w, uploadErrorStatus(err), err.Error())
			return
		}

		run, err := svc.Run(ctx, upload)
		if err != nil {
			zap.L().Error("verification failed", zap.Error(err))
			status, msg := runErrorStatus(err)
			writeError(w, status, msg)
			return
		}

		if req.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="verification-%s.csv"`, run.ID))
			w.WriteHeader(http.StatusOK)
			if err := report.WriteCSV(w, run); err != nil {
				zap.L().Error("write csv response", zap.Error(err))
			}
			return
		}

		writeJSON(w, http.StatusOK, run)
	}
}

// uploadBody returns the uploaded file name and contents.
func uploadBody(req *http.Request) (string, io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return "upload.csv", req.Body, nil
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		return "", nil, eris.Wrap(err, "serve: read multipart file")
	}
	return header.Filename, file, nil
}

func uploadErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// runErrorStatus maps a failed run to a response. Catalog failures keep
// their detail in the log only.
func runErrorStatus(err error) (int, string) {
	if errors.Is(err, verify.ErrEmptyUpload) {
		return http.StatusBadRequest, "upload has no rows"
	}
	return http.StatusServiceUnavailable, "catalog unavailable"
}

// rateLimit rejects requests beyond rps with 429. rps <= 0 disables it.
func rateLimit(rps float64) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), int(math.Max(1, math.Ceil(rps))))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write json response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
