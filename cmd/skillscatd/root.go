package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backrunner/skillscat/internal/blob"
	"github.com/backrunner/skillscat/internal/classify"
	"github.com/backrunner/skillscat/internal/config"
	"github.com/backrunner/skillscat/internal/db"
	"github.com/backrunner/skillscat/internal/log"
	"github.com/backrunner/skillscat/internal/models"
	"github.com/backrunner/skillscat/internal/pipeline"
	"github.com/backrunner/skillscat/internal/queue"
	"github.com/backrunner/skillscat/internal/source"
	"github.com/backrunner/skillscat/internal/telemetry"
)

// app bundles the wired pipeline components.
type app struct {
	cfg     *config.Config
	db      *db.DB
	blobs   blob.Store
	src     *source.GitHubClient
	queue   *queue.Queue
	metrics telemetry.Recorder
}

func newApp(cfg *config.Config) (*app, error) {
	paths := config.GetPaths(cfg)

	database, err := db.New(db.DefaultConfig(paths.Database))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	blobs, err := blob.NewFSStore(paths.Blobs)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	src := source.NewGitHubClient(source.Options{
		Token:          cfg.GitHub.Token,
		RateLimit:      cfg.GitHub.RateLimit,
		CacheTTL:       cfg.GitHub.CacheTTL,
		RequestTimeout: cfg.GitHub.RequestTimeout,
	})

	a := &app{
		cfg:     cfg,
		db:      database,
		blobs:   blobs,
		src:     src,
		queue:   queue.New(database, cfg.Queue.MaxAttempts),
		metrics: telemetry.New(blobs),
	}

	cascade, err := a.buildCascade()
	if err != nil {
		return nil, err
	}

	indexer := pipeline.NewIndexer(database, blobs, src, a.queue)
	classifier := pipeline.NewClassifyWorker(database, blobs, cascade)
	a.queue.Register(models.KindCheckSkill, indexer.Handle)
	a.queue.Register(models.KindClassify, classifier.Handle)

	return a, nil
}

// buildCascade assembles the classifier chain from configured API keys; the
// keyword heuristic is always the final tier.
func (a *app) buildCascade() (*classify.Cascade, error) {
	vocab, err := a.db.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	var classifiers []classify.Classifier
	cc := a.cfg.Classify
	if cc.AnthropicAPIKey != "" {
		c, err := classify.NewAnthropicClassifier(cc.AnthropicAPIKey, cc.AnthropicModel, vocab, cc.MaxContentChars)
		if err != nil {
			return nil, err
		}
		classifiers = append(classifiers, c)
	}
	if cc.OpenAIAPIKey != "" {
		c, err := classify.NewOpenAIClassifier(cc.OpenAIAPIKey, cc.OpenAIModel, vocab, cc.MaxContentChars)
		if err != nil {
			return nil, err
		}
		classifiers = append(classifiers, c)
	}
	classifiers = append(classifiers, classify.NewKeywordClassifier(vocab))

	return classify.NewCascade(classifiers...), nil
}

func (a *app) close() {
	a.metrics.Close()
	_ = a.db.Close()
}

// Execute runs the skillscatd command tree.
func Execute(ctx context.Context, cfg *config.Config) error {
	rootCmd := &cobra.Command{
		Use:           "skillscatd",
		Short:         "Skill catalog ingestion and lifecycle pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		pollCmd(ctx, cfg),
		workCmd(ctx, cfg),
		tiersCmd(ctx, cfg),
		archiveCmd(ctx, cfg),
		resubmitCmd(ctx, cfg),
	)

	return rootCmd.ExecuteContext(ctx)
}

func pollCmd(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run one event discovery tick",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			d := pipeline.NewDiscovery(a.db, a.src, a.queue, cfg.Discovery)
			n, err := d.Tick(ctx)
			if err != nil {
				return err
			}
			log.Printf("poll: enqueued %d check items\n", n)
			return nil
		},
	}
}

func workCmd(ctx context.Context, cfg *config.Config) *cobra.Command {
	var drain bool
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Process queued work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			total := 0
			for {
				n, err := a.queue.ProcessBatch(ctx, cfg.Queue.BatchSize)
				if err != nil {
					return err
				}
				total += n
				if n == 0 || !drain {
					break
				}
			}
			log.Printf("work: processed %d items\n", total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&drain, "drain", false, "keep processing until the queue is empty")
	return cmd
}

func tiersCmd(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Recompute lifecycle tiers for all public skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			engine := pipeline.NewTierEngine(a.db, cfg.Tier, a.metrics)
			summary, err := engine.Run(ctx)
			if err != nil {
				return err
			}
			log.Printf("tiers: scanned=%d changed=%d failed_pages=%d\n",
				summary.Scanned, summary.Changed, summary.FailedPages)
			return nil
		},
	}
}

func archiveCmd(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Archive skills meeting the cold-archive criteria",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			engine := pipeline.NewArchiveEngine(a.db, a.blobs, cfg.Tier, cfg.Archive, a.metrics)
			summary, err := engine.Run(ctx)
			if err != nil {
				return err
			}
			log.Printf("archive: total=%d archived=%d failed=%d\n",
				summary.Total, summary.Archived, summary.Failed)
			return nil
		},
	}
}

func resubmitCmd(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "resubmit <owner>/<repo>",
		Short: "Resubmit a repository, resurrecting it if archived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, ok := strings.Cut(args[0], "/")
			if !ok || owner == "" || repo == "" {
				return fmt.Errorf("expected <owner>/<repo>, got %q", args[0])
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			resurrector := pipeline.NewResurrector(a.db, a.blobs)
			submitter := pipeline.NewSubmitter(a.db, a.queue, resurrector)
			return submitter.Submit(ctx, owner, repo)
		},
	}
}
