package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zatekoja/apprating/internal/adapters/kvstore"
	"github.com/zatekoja/apprating/internal/adapters/providers/storereview"
	"github.com/zatekoja/apprating/internal/adapters/storage"
	"github.com/zatekoja/apprating/internal/application/services"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
	"github.com/zatekoja/apprating/pkg/config"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// backendOpener opens the store the commands operate on
type backendOpener func(ctx context.Context, cfg *config.Config) (*kvstore.Backend, error)

func openBackend(ctx context.Context, cfg *config.Config) (*kvstore.Backend, error) {
	return kvstore.Open(ctx, cfg)
}

// cli carries global flags and the lazily opened services
type cli struct {
	open       backendOpener
	storageKey string
	logLevel   string
	output     string

	cfg      *config.Config
	backend  *kvstore.Backend
	prompts  *services.PromptService
	reviews  *services.ReviewService
	feedback *services.FeedbackService
}

func newRootCommand(open backendOpener) *cobra.Command {
	c := &cli{open: open}

	cmd := &cobra.Command{
		Use:           "ratingctl",
		Short:         "Inspect and edit app rating prompt state and reviews",
		Long:          "ratingctl operates directly on the configured key-value store (STORE_BACKEND).",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			if c.storageKey == "" {
				c.storageKey = cfg.Rating.StorageKey
			}
			if c.output != outputText && c.output != outputJSON {
				return fmt.Errorf("unknown output format %q, want text or json", c.output)
			}
			level := c.logLevel
			if level == "" {
				level = cfg.Log.Level
			}
			observability.InitLoggerTo(cmd.ErrOrStderr(), "ratingctl", "development", level)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.backend == nil {
				return nil
			}
			return c.backend.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&c.storageKey, "storage-key", "", "Prompt storage key (default from RATING_STORAGE_KEY)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug,info,warn,error)")
	cmd.PersistentFlags().StringVarP(&c.output, "output", "o", outputText, "Output format (text,json)")

	cmd.AddCommand(
		newPromptCommand(c),
		newReviewsCommand(c),
	)
	return cmd
}

// services opens the backend on first use and builds the services over it
func (c *cli) services(ctx context.Context) error {
	if c.backend != nil {
		return nil
	}
	backend, err := c.open(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", c.cfg.Store.Backend, err)
	}
	c.backend = backend

	storeReview := services.NewStoreReviewService(storereview.NewStoreReviewProvider(c.cfg.StoreReview))
	c.prompts = services.NewPromptService(
		storage.NewPromptStateAdapter(backend.Store),
		storeReview,
		services.WithMinimumStoreRating(c.cfg.Rating.MinimumRatingForStoreReview),
	)
	c.reviews = services.NewReviewService(storage.NewReviewAdapter(backend.Store))
	c.feedback = services.NewFeedbackService(storage.NewFeedbackAdapter(backend.Store))
	return nil
}

// check turns a service error into the command result. A corrupt snapshot was
// already replaced by defaults, so it only warns; anything else fails the command.
func (c *cli) check(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsType(err, apperrors.ErrorTypeCorrupt) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		return nil
	}
	return err
}

// print writes v as indented JSON, or calls text for the text format
func (c *cli) print(w io.Writer, v any, text func(io.Writer)) error {
	if c.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

