package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wippyai/wordstore/config"
	"github.com/wippyai/wordstore/manifest"
	"github.com/wippyai/wordstore/store/boltstore"
	"github.com/wippyai/wordstore/store/sqlitestore"
	"github.com/wippyai/wordstore/word"
	"github.com/wippyai/wordstore/world"
)

type options struct {
	manifest    string
	caller      string
	tag         string
	entity      string
	metrics     string
	layout      bool
	list        bool
	interactive bool
}

func main() {
	var o options
	flag.StringVar(&o.manifest, "manifest", "", "Apply the YAML manifest at this path")
	flag.StringVar(&o.caller, "caller", "", "Account acting on the world (default WORDSTORE_WORLD_OWNER)")
	flag.StringVar(&o.tag, "tag", "", "Print the resource with this tag (namespace-name, namespace or world)")
	flag.StringVar(&o.entity, "entity", "", "With -tag, print the entity with these comma-separated keys")
	flag.StringVar(&o.metrics, "metrics", "", "Serve Prometheus metrics on this address (default WORDSTORE_METRICS_ADDR)")
	flag.BoolVar(&o.layout, "layout", false, "With -tag, print the layout tree")
	flag.BoolVar(&o.list, "list", false, "List registered namespaces and models")
	flag.BoolVar(&o.interactive, "i", false, "Interactive inspector")
	flag.Parse()

	if o.manifest == "" && o.tag == "" && !o.list && !o.interactive {
		fmt.Fprintln(os.Stderr, "Usage: worldctl -manifest <world.yaml> [-caller 0x..]")
		fmt.Fprintln(os.Stderr, "       worldctl -tag <ns-name> [-layout] [-entity k1,k2]")
		fmt.Fprintln(os.Stderr, "       worldctl -list")
		fmt.Fprintln(os.Stderr, "       worldctl -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "The store is chosen with WORDSTORE_BACKEND and WORDSTORE_PATH.")
		os.Exit(1)
	}

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(o options) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	world.SetLogger(logger)
	boltstore.SetLogger(logger)
	sqlitestore.SetLogger(logger)

	reg := prometheus.NewRegistry()
	w, st, err := cfg.OpenWorld(ctx, logger, world.WithRegisterer(reg))
	if err != nil {
		return err
	}
	defer st.Close()

	addr := o.metrics
	if addr == "" {
		addr = cfg.MetricsAddr
	}
	if addr != "" {
		serveMetrics(addr, reg, logger)
	}

	caller := cfg.Owner()
	if o.caller != "" {
		caller, err = word.ParseAddress(o.caller)
		if err != nil {
			return fmt.Errorf("caller: %w", err)
		}
	}

	if o.manifest != "" {
		m, err := manifest.ParseFile(o.manifest)
		if err != nil {
			return err
		}
		rep, err := m.Apply(ctx, w, caller)
		printReport(rep)
		if err != nil {
			return err
		}
	}

	if o.list {
		if err := printList(ctx, w); err != nil {
			return err
		}
	}

	if o.tag != "" {
		r, err := w.ResourceByTag(ctx, o.tag)
		if err != nil {
			return err
		}
		text, err := describe(ctx, w, r)
		if err != nil {
			return err
		}
		fmt.Print(text)
		if o.layout && r.Layout != nil {
			fmt.Println()
			fmt.Print(layoutTree(r.Schema, r.Layout))
		}
		if o.entity != "" {
			v, err := w.EntityValue(ctx, r.Tag(), parseKeys(o.entity))
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Print(formatValue(v))
		}
	}

	if o.interactive {
		return runInteractive(w, caller)
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
}

// parseKeys splits comma-separated key values. The codec reads each one as
// a decimal or 0x-prefixed integer.
func parseKeys(s string) any {
	parts := strings.Split(s, ",")
	if len(parts) == 1 {
		return strings.TrimSpace(parts[0])
	}
	keys := make([]any, len(parts))
	for i, p := range parts {
		keys[i] = strings.TrimSpace(p)
	}
	return keys
}

func printReport(rep *manifest.Report) {
	if rep == nil {
		return
	}
	for _, ns := range rep.Namespaces {
		fmt.Printf("namespace  %s\n", ns)
	}
	for _, tag := range rep.Registered {
		fmt.Printf("registered %s\n", tag)
	}
	for _, tag := range rep.Upgraded {
		fmt.Printf("upgraded   %s\n", tag)
	}
	for _, tag := range rep.Unchanged {
		fmt.Printf("unchanged  %s\n", tag)
	}
}

func printList(ctx context.Context, w *world.World) error {
	list, err := w.Resources(ctx)
	if err != nil {
		return err
	}
	for _, r := range list {
		fmt.Println(summary(r))
	}
	return nil
}
