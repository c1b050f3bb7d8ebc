package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/rating"
)

type statsOutput struct {
	Bucket entities.BucketKey   `json:"bucket"`
	Stats  entities.RatingStats `json:"stats"`
	Text   string               `json:"text"`
}

func newStatsOutput(key entities.BucketKey, stats entities.RatingStats) statsOutput {
	return statsOutput{Bucket: key, Stats: stats, Text: rating.FormatRatingText(stats.Average)}
}

func (o statsOutput) text(w io.Writer) {
	fmt.Fprintf(w, "%s: %s from %d reviews\n", o.Bucket, o.Text, o.Stats.Count)
	for star := 5; star >= 1; star-- {
		fmt.Fprintf(w, "  %d★ %d\n", star, o.Stats.Distribution[star])
	}
}

func writeReviews(w io.Writer, reviews []*entities.Review) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRATING\tHELPFUL\tUSER\tCREATED\tCOMMENT")
	for _, r := range reviews {
		fmt.Fprintf(tw, "%s\t%.1f\t%d\t%s\t%s\t%s\n",
			r.ID, r.Rating, r.Helpful, r.UserID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Comment)
	}
	tw.Flush()
}

func newReviewsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Manage review buckets (TYPE:ID)",
	}

	// load opens the store and reads the bucket named by the first argument
	load := func(cmd *cobra.Command, arg string) (entities.BucketKey, error) {
		key, err := entities.ParseBucketKey(arg)
		if err != nil {
			return key, err
		}
		if err := c.services(cmd.Context()); err != nil {
			return key, err
		}
		_, err = c.reviews.LoadReviews(cmd.Context(), key)
		return key, c.check(cmd, err)
	}

	var sortKey string
	list := &cobra.Command{
		Use:   "list TYPE:ID",
		Short: "List the reviews of a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			reviews := c.reviews.SortedReviews(key, entities.SortKey(sortKey))
			return c.print(cmd.OutOrStdout(), reviews, func(w io.Writer) {
				writeReviews(w, reviews)
			})
		},
	}
	list.Flags().StringVar(&sortKey, "sort", string(entities.SortRecent), "Sort order (recent,helpful,rating)")

	stats := &cobra.Command{
		Use:   "stats TYPE:ID",
		Short: "Print average rating and distribution of a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			out := newStatsOutput(key, c.reviews.GetStats(key))
			return c.print(cmd.OutOrStdout(), out, out.text)
		},
	}

	var (
		input  entities.ReviewInput
		userID string
	)
	add := &cobra.Command{
		Use:   "add TYPE:ID",
		Short: "Append a review to a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			review, err := c.reviews.AddReview(cmd.Context(), key, input, userID)
			if err := c.check(cmd, err); err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), review, func(w io.Writer) {
				fmt.Fprintln(w, review.ID)
			})
		},
	}
	add.Flags().Float64Var(&input.Rating, "rating", 0, "Star rating, 0-5 in half steps")
	add.Flags().StringVar(&input.Title, "title", "", "Review title")
	add.Flags().StringVar(&input.Comment, "comment", "", "Review text")
	add.Flags().StringVar(&input.UserName, "user-name", "", "Display name")
	add.Flags().StringVar(&userID, "user", "", "Id of the reviewing user")
	add.MarkFlagRequired("rating") //nolint:errcheck
	add.MarkFlagRequired("user")   //nolint:errcheck

	remove := &cobra.Command{
		Use:   "delete TYPE:ID REVIEW_ID",
		Short: "Delete a review",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := load(cmd, args[0]); err != nil {
				return err
			}
			if err := c.check(cmd, c.reviews.DeleteReview(cmd.Context(), args[1])); err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), map[string]string{"deleted": args[1]}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted %s\n", args[1])
			})
		},
	}

	helpful := &cobra.Command{
		Use:   "helpful TYPE:ID REVIEW_ID",
		Short: "Count one more helpful vote for a review",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := load(cmd, args[0]); err != nil {
				return err
			}
			review, err := c.reviews.MarkHelpful(cmd.Context(), args[1])
			if err := c.check(cmd, err); err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), review, func(w io.Writer) {
				fmt.Fprintf(w, "%s helpful=%d\n", review.ID, review.Helpful)
			})
		},
	}

	cmd.AddCommand(list, stats, add, remove, helpful)
	return cmd
}
