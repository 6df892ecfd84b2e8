package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/genexlabs/genex/internal/index"
	"github.com/genexlabs/genex/internal/metrics"
	"github.com/genexlabs/genex/internal/retrieval"
	"github.com/genexlabs/genex/internal/sse"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve query and k-best HTTP endpoints over a built index",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfg.DatasetPath, "dataset", "", "path to the flat dataset file (required)")
	serveCmd.Flags().StringVar(&cfg.ServeAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().Float64Var(&cfg.Engine.Threshold, "threshold", 1.0, "cluster threshold; the covering radius for assignment is threshold/2")
	serveCmd.Flags().StringVar(&cfg.Engine.Distance, "distance", "euclidean", "distance metric, optionally suffixed _dtw")
	serveCmd.Flags().Float64Var(&cfg.Engine.WarpingBandRatio, "band-ratio", 0.1, "Sakoe-Chiba band as a fraction of sequence length")
	_ = serveCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(serveCmd)
}

type queryRequest struct {
	Values []float64 `json:"values"`
	K      int       `json:"k,omitempty"`
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func runServe(c *cobra.Command, args []string) error {
	metricsReg := metrics.NewRegistry(prometheusDefaultRegisterer())
	ix, _, err := buildIndexFromDataset(cfg.DatasetPath, cfg.Engine, metricsReg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/v1/query", withCORS(handleQuery(ix, metricsReg)))
	mux.Handle("/v1/kbest", withCORS(handleKBest(ix, metricsReg)))
	mux.Handle("/v1/kbest/stream", withCORS(handleKBestStream(ix, metricsReg)))

	srv := &http.Server{Addr: cfg.ServeAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("genex serving on %s\n", cfg.ServeAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func handleQuery(ix *index.Index, m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		match, err := retrieval.BestMatch(r.Context(), ix, req.Values, cfg.Engine, m)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, match)
	}
}

func handleKBest(ix *index.Index, m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		matches, err := retrieval.KBest(r.Context(), ix, req.Values, req.K, cfg.Engine, m)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, matches)
	}
}

func handleKBestStream(ix *index.Index, m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sw, err := sse.NewWriter(w)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		sw.Progress(sse.ProgressEvent{Stage: sse.StageTraversal, Total: ix.MaxLength()})
		matches, err := retrieval.KBest(r.Context(), ix, req.Values, req.K, cfg.Engine, m)
		if err != nil {
			sw.Error(err)
			return
		}
		sw.Progress(sse.ProgressEvent{Stage: sse.StageIntraCluster, Visited: len(matches), Total: len(matches)})
		sw.Complete(matches)
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
