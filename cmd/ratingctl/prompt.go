package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/zatekoja/apprating/internal/domain/entities"
)

type promptOutput struct {
	StorageKey           string               `json:"storage_key"`
	State                entities.PromptState `json:"state"`
	ShouldShow           *bool                `json:"should_show,omitempty"`
	StoreReviewRequested *bool                `json:"store_review_requested,omitempty"`
	FeedbackRequested    *bool                `json:"feedback_requested,omitempty"`
}

func (o promptOutput) text(w io.Writer) {
	s := o.State
	fmt.Fprintf(w, "storage key:    %s\n", o.StorageKey)
	fmt.Fprintf(w, "actions:        %d\n", s.ActionCount)
	fmt.Fprintf(w, "rated:          %t", s.HasRated)
	if s.RatingValue != nil {
		fmt.Fprintf(w, " (%d stars)", *s.RatingValue)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "last rated:     %s\n", formatTime(s.LastRatingDate))
	fmt.Fprintf(w, "dismissed:      %t\n", s.Dismissed)
	fmt.Fprintf(w, "last dismissed: %s\n", formatTime(s.LastDismissedDate))
	if o.ShouldShow != nil {
		fmt.Fprintf(w, "show prompt:    %t\n", *o.ShouldShow)
	}
	if o.StoreReviewRequested != nil && *o.StoreReviewRequested {
		fmt.Fprintln(w, "store review requested")
	}
	if o.FeedbackRequested != nil && *o.FeedbackRequested {
		fmt.Fprintln(w, "feedback requested")
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}

// promptFlags are the eligibility thresholds shared by track and eligible
type promptFlags struct {
	actionsBeforeRating int
	daysBetweenRatings  int
}

func (f *promptFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.actionsBeforeRating, "actions-before-rating", -1, "Actions needed before the prompt shows (default from config)")
	cmd.Flags().IntVar(&f.daysBetweenRatings, "days-between-ratings", -1, "Days between prompts after a rating (default from config)")
}

func (f *promptFlags) config(c *cli) entities.PromptConfig {
	cfg := entities.PromptConfig{
		ActionsBeforeRating: c.cfg.Rating.ActionsBeforeRating,
		DaysBetweenRatings:  c.cfg.Rating.DaysBetweenRatings,
	}
	if f.actionsBeforeRating >= 0 {
		cfg.ActionsBeforeRating = f.actionsBeforeRating
	}
	if f.daysBetweenRatings >= 0 {
		cfg.DaysBetweenRatings = f.daysBetweenRatings
	}
	return cfg
}

func newPromptCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Manage the \"rate this app\" prompt state",
	}

	// load opens the store and restores persisted state before any change
	load := func(cmd *cobra.Command) error {
		if err := c.services(cmd.Context()); err != nil {
			return err
		}
		_, err := c.prompts.Initialize(cmd.Context(), c.storageKey)
		return c.check(cmd, err)
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored prompt state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			out := promptOutput{StorageKey: c.storageKey, State: c.prompts.State(cmd.Context(), c.storageKey)}
			return c.print(cmd.OutOrStdout(), out, out.text)
		},
	}

	trackFlags := &promptFlags{}
	track := &cobra.Command{
		Use:   "track",
		Short: "Record one significant user action and report eligibility",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			state, show, err := c.prompts.TrackAction(cmd.Context(), c.storageKey, trackFlags.config(c))
			if err := c.check(cmd, err); err != nil {
				return err
			}
			out := promptOutput{StorageKey: c.storageKey, State: state, ShouldShow: &show}
			return c.print(cmd.OutOrStdout(), out, out.text)
		},
	}
	trackFlags.bind(track)

	rate := &cobra.Command{
		Use:   "rate STARS",
		Short: "Submit a 1-5 star app rating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stars, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("rating must be a whole number: %w", err)
			}
			if err := load(cmd); err != nil {
				return err
			}
			outcome, err := c.prompts.SubmitRating(cmd.Context(), c.storageKey, stars)
			if err := c.check(cmd, err); err != nil {
				return err
			}
			out := promptOutput{
				StorageKey:           c.storageKey,
				State:                outcome.State,
				StoreReviewRequested: &outcome.StoreReviewRequested,
				FeedbackRequested:    &outcome.FeedbackRequested,
			}
			return c.print(cmd.OutOrStdout(), out, out.text)
		},
	}

	dismiss := &cobra.Command{
		Use:   "dismiss",
		Short: "Record that the user dismissed the prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			state, err := c.prompts.SetDismissed(cmd.Context(), c.storageKey)
			if err := c.check(cmd, err); err != nil {
				return err
			}
			out := promptOutput{StorageKey: c.storageKey, State: state}
			return c.print(cmd.OutOrStdout(), out, out.text)
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Clear the prompt state back to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			state, err := c.prompts.Reset(cmd.Context(), c.storageKey)
			if err := c.check(cmd, err); err != nil {
				return err
			}
			out := promptOutput{StorageKey: c.storageKey, State: state}
			return c.print(cmd.OutOrStdout(), out, out.text)
		},
	}

	eligibleFlags := &promptFlags{}
	eligible := &cobra.Command{
		Use:   "eligible",
		Short: "Report whether the prompt would show now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			show := c.prompts.ShouldShowRating(cmd.Context(), c.storageKey, eligibleFlags.config(c))
			out := promptOutput{StorageKey: c.storageKey, State: c.prompts.State(cmd.Context(), c.storageKey), ShouldShow: &show}
			return c.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintln(w, show)
			})
		},
	}
	eligibleFlags.bind(eligible)

	feedback := &cobra.Command{
		Use:   "feedback",
		Short: "List private feedback left after low ratings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.services(cmd.Context()); err != nil {
				return err
			}
			list, err := c.feedback.List(cmd.Context(), c.storageKey)
			if err := c.check(cmd, err); err != nil {
				return err
			}
			if list == nil {
				list = []*entities.Feedback{}
			}
			return c.print(cmd.OutOrStdout(), list, func(w io.Writer) {
				for _, f := range list {
					fmt.Fprintf(w, "%s  %d★  %s  %s\n", f.CreatedAt.Local().Format("2006-01-02 15:04"), f.Rating, f.Email, f.Message)
				}
			})
		},
	}

	cmd.AddCommand(show, track, rate, dismiss, reset, eligible, feedback)
	return cmd
}
