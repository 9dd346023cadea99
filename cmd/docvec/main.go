package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/keenlabs/docvec/internal/ai"
	"github.com/keenlabs/docvec/internal/chunker"
	"github.com/keenlabs/docvec/internal/config"
	"github.com/keenlabs/docvec/internal/db"
	"github.com/keenlabs/docvec/internal/embedcache"
	"github.com/keenlabs/docvec/internal/handler"
	"github.com/keenlabs/docvec/internal/job"
	"github.com/keenlabs/docvec/internal/lang"
	"github.com/keenlabs/docvec/internal/model"
	"github.com/keenlabs/docvec/internal/repo"
	"github.com/keenlabs/docvec/internal/schedule"
	"github.com/keenlabs/docvec/internal/service"
	"github.com/keenlabs/docvec/internal/source"
)

type app struct {
	cfg   *config.Config
	conn  *sql.DB
	store *repo.DocumentRepo
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	conn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &app{
		cfg:   cfg,
		conn:  conn,
		store: repo.NewDocumentRepo(conn, cfg.AI.Dimensions),
	}, nil
}

func (a *app) close() {
	_ = a.conn.Close()
}

// buildEmbedder assembles the provider with its decorators: the cache sits
// outermost so hits skip the retry loop and its rate pause.
func (a *app) buildEmbedder() (ai.IEmbedder, error) {
	provider, err := ai.NewProvider(a.cfg.AI.Provider, a.cfg.AI.Data)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, a.cfg.AI.EmbedModel)
	embedder = ai.WrapRetryToEmbedder(embedder, ai.RetryPolicy{
		MaxAttempts: a.cfg.Retry.MaxAttempts,
		MinWait:     time.Duration(a.cfg.Retry.MinWaitSeconds) * time.Second,
		MaxWait:     time.Duration(a.cfg.Retry.MaxWaitSeconds) * time.Second,
		Pause:       time.Duration(a.cfg.Retry.PauseMS) * time.Millisecond,
	})
	embedder = embedcache.WrapLruCacheToEmbedder(embedder,
		a.cfg.Cache.Size, time.Duration(a.cfg.Cache.TTLHours)*time.Hour)
	return embedder, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	_ = godotenv.Load()

	var configPath string
	rootCmd := &cobra.Command{
		Use:   "docvec",
		Short: "document embedding and retrieval pipeline",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to config.json")

	rootCmd.AddCommand(
		setupCmd(&configPath),
		uploadCmd(&configPath),
		reportsCmd(&configPath),
		searchCmd(&configPath),
		serveCmd(&configPath),
		statusCmd(&configPath),
		monitorCmd(&configPath),
		setURLCmd(&configPath),
		purgeCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func setupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "create the schema, match function and vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			if err := db.ApplyMigrations(a.conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			ctx, stop := signalContext()
			defer stop()
			if err := db.EnsureVectorIndex(ctx, a.conn); err != nil {
				logutil.GetLogger(ctx).Warn("vector index not created, searches will scan", zap.Error(err))
				color.Yellow("vector index not created: %v", err)
			}
			color.Green("database ready")
			return nil
		},
	}
}

func uploadCmd(configPath *string) *cobra.Command {
	var dir string
	var noResume bool
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "ingest documents from the configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			embedder, err := a.buildEmbedder()
			if err != nil {
				return err
			}
			ck, err := chunker.New(a.cfg.Chunking.ChunkSize, a.cfg.Chunking.Overlap)
			if err != nil {
				return err
			}
			srcCfg := a.cfg.Source
			if dir != "" {
				srcCfg = config.SourceConfig{Type: "local", Data: map[string]interface{}{"dir": dir}}
			}
			src, err := source.New(srcCfg)
			if err != nil {
				return err
			}
			svc := service.NewIngestService(a.store, embedder, ck, !noResume)

			ctx, stop := signalContext()
			defer stop()
			res, err := svc.IngestSource(ctx, src)
			if res != nil {
				printBatchResult(res)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "ingest from this local directory instead of the configured source")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "re-ingest files already present in the store")
	return cmd
}

func printBatchResult(res *service.BatchResult) {
	for _, f := range res.Files {
		switch f.Status {
		case service.FileDone:
			if f.ChunksFailed > 0 {
				color.Yellow("  %s: %d chunks stored, %d failed", f.Filename, f.ChunksStored, f.ChunksFailed)
			} else {
				color.Green("  %s: %d chunks stored", f.Filename, f.ChunksStored)
			}
		case service.FileSkipped:
			color.Cyan("  %s: already stored, skipped", f.Filename)
		default:
			color.Red("  %s: %s (%s)", f.Filename, f.Status, f.Err)
		}
	}
	fmt.Printf("done=%d skipped=%d failed=%d elapsed=%s\n", res.Done, res.Skipped, res.Failed, res.Elapsed)
}

func reportsCmd(configPath *string) *cobra.Command {
	var purgePatterns []string
	cmd := &cobra.Command{
		Use:   "reports <bundle.json>",
		Short: "replace generated report documents from a JSON bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			embedder, err := a.buildEmbedder()
			if err != nil {
				return err
			}
			docs, err := service.LoadReports(args[0])
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			svc := service.NewReportService(a.store, embedder)
			n, err := svc.Replace(ctx, docs, purgePatterns)
			if err != nil {
				return err
			}
			color.Green("%d report documents stored", n)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&purgePatterns, "purge", nil, "filename glob to delete before inserting (repeatable)")
	return cmd
}

func searchCmd(configPath *string) *cobra.Command {
	var topK int
	var threshold float64
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "retrieve the chunks most similar to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			embedder, err := a.buildEmbedder()
			if err != nil {
				return err
			}
			if topK == 0 {
				topK = a.cfg.Search.TopK
			}
			threshold = resolveThreshold(cmd.Flags().Changed("threshold"), threshold, a.cfg.Search.Threshold)
			ctx, stop := signalContext()
			defer stop()
			query := strings.Join(args, " ")
			svc := service.NewSearchService(a.store, embedder)
			results, err := svc.Retrieve(ctx, query, topK, threshold)
			if err != nil {
				return err
			}
			fmt.Printf("query language: %s\n", lang.Detect(query))
			if len(results) == 0 {
				color.Yellow("no chunks above threshold %.2f", threshold)
				return nil
			}
			for i, r := range results {
				color.Cyan("%d. %s (chunk %d, similarity %.4f)", i+1, r.Filename, r.ChunkIndex, r.Similarity)
				fmt.Println(snippet(r.Content, 200))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "maximum number of chunks to return")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum cosine similarity, exclusive (defaults to the configured value)")
	return cmd
}

// resolveThreshold keeps an explicit --threshold 0 distinct from the flag
// being absent, since 0 is a valid all-results threshold.
func resolveThreshold(flagSet bool, flagValue, configValue float64) float64 {
	if !flagSet {
		return configValue
	}
	return flagValue
}

func snippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the search API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			embedder, err := a.buildEmbedder()
			if err != nil {
				return err
			}
			searchSvc := service.NewSearchService(a.store, embedder)
			statsSvc := service.NewStatsService(a.store)

			gin.SetMode(gin.ReleaseMode)
			engine := gin.New()
			engine.Use(gin.Recovery())
			handler.RegisterRoutes(engine, handler.RouterDeps{
				Search: handler.NewSearchHandler(searchSvc, statsSvc, a.cfg.Search.TopK, a.cfg.Search.Threshold),
			})

			ctx, stop := signalContext()
			defer stop()

			scheduler := schedule.NewCronScheduler()
			if err := scheduler.AddJob(job.NewStoreMonitorJob(statsSvc), a.cfg.MonitorSpec); err != nil {
				return err
			}
			scheduler.Start(ctx)
			defer scheduler.Stop()

			addr := fmt.Sprintf("0.0.0.0:%d", a.cfg.Port)
			server := &http.Server{Addr: addr, Handler: engine}
			logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
				}
			}()

			<-ctx.Done()
			logutil.GetLogger(context.Background()).Info("server stopping...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func statusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "print a snapshot of the document store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			ctx, stop := signalContext()
			defer stop()
			stats, err := service.NewStatsService(a.store).Snapshot(ctx)
			if err != nil {
				return err
			}
			color.Green("chunks: %d  files: %d", stats.TotalChunks, stats.TotalFiles)
			for _, t := range stats.ByType {
				fmt.Printf("  %-8s %d chunks in %d files\n", t.FileType, t.Chunks, t.Files)
			}
			if len(stats.Recent) > 0 {
				fmt.Println("recent:")
				for _, r := range stats.Recent {
					fmt.Printf("  %s  %s\n", r.CreatedAt.Format(time.RFC3339), r.Filename)
				}
			}
			return nil
		},
	}
}

func monitorCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "log store snapshots on the configured schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			ctx, stop := signalContext()
			defer stop()

			scheduler := schedule.NewCronScheduler()
			statsSvc := service.NewStatsService(a.store)
			if err := scheduler.AddJob(job.NewStoreMonitorJob(statsSvc), a.cfg.MonitorSpec); err != nil {
				return err
			}
			scheduler.Start(ctx)
			defer scheduler.Stop()

			<-ctx.Done()
			return nil
		},
	}
}

func setURLCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-url <filename> <url>",
		Short: "attach a source url to every chunk of a stored file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			ctx, stop := signalContext()
			defer stop()
			n, err := a.store.SetMetadataField(ctx, filepath.Base(args[0]), model.MetaSourceURL, args[1])
			if err != nil {
				return err
			}
			if n == 0 {
				color.Yellow("no chunks found for %s", args[0])
				return nil
			}
			color.Green("updated %d chunks", n)
			return nil
		},
	}
}

func purgeCmd(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge <pattern>",
		Short: "delete every chunk whose filename matches a glob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			if !yes {
				fmt.Printf("delete all chunks matching %q? [y/N] ", args[0])
				reader := bufio.NewReader(os.Stdin)
				line, _ := reader.ReadString('\n')
				if strings.ToLower(strings.TrimSpace(line)) != "y" {
					fmt.Println("aborted")
					return nil
				}
			}
			ctx, stop := signalContext()
			defer stop()
			n, err := a.store.DeleteByPattern(ctx, args[0])
			if err != nil {
				return err
			}
			color.Green("deleted %d chunks", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
