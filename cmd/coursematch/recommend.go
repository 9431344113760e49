package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/learnnova/coursematch/internal/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <username> [username...]",
	Short: "Print recommended courses for one or more users as JSON",
	Long: `Print recommended courses as JSON.

With one username the output is the ranked list, or {"error", "cause"} when no
recommendation can be made. With several usernames the output is one result
object per user. Failures to load the catalog exit with status 1.

Examples:
  coursematch recommend alice
  coursematch recommend alice bob --top 10
  coursematch recommend alice --remote`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, _ := cmd.Flags().GetBool("remote")
		top, _ := cmd.Flags().GetInt("top")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if top > 0 {
			cfg.Recommend.TopN = top
		}
		out := cmd.OutOrStdout()

		if remote {
			client := newAPIClient(cfg)
			return runRemoteRecommend(cmd.Context(), out, client, args)
		}

		src, closeSrc, err := openSource(cmd.Context(), cfg)
		if err != nil {
			return writeFailure(out, recommend.CauseDataSourceUnavailable, fmt.Sprintf("Data source connection failed: %v", err))
		}
		defer closeSrc()

		return runRecommend(cmd.Context(), out, newEngine(src, cfg), args)
	},
}

func init() {
	recommendCmd.Flags().Int("top", 0, "number of results per user (default from recommend.top_n)")
	recommendCmd.Flags().Bool("remote", false, "ask the running coursematch server instead of reading the data source")
}

type failure struct {
	Error string          `json:"error"`
	Cause recommend.Cause `json:"cause"`
}

type userResult struct {
	Username        string                     `json:"username"`
	Recommendations []recommend.Recommendation `json:"recommendations,omitempty"`
	Error           string                     `json:"error,omitempty"`
	Cause           recommend.Cause            `json:"cause,omitempty"`
}

func runRecommend(ctx context.Context, w io.Writer, eng *recommend.Engine, usernames []string) error {
	if len(usernames) == 1 {
		recs, err := eng.Recommend(ctx, usernames[0])
		if err != nil {
			return writeRecommendFailure(w, err)
		}
		return writeIndented(w, nonNil(recs))
	}

	outcomes, err := eng.RecommendMany(ctx, usernames)
	if err != nil {
		return writeRecommendFailure(w, err)
	}
	results := make([]userResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = userResult{Username: o.Username, Recommendations: o.Recommendations}
		if o.Err != nil {
			results[i].Error, results[i].Cause = describe(o.Err)
		}
	}
	return writeIndented(w, results)
}

// writeRecommendFailure prints err as a failure object. Anything other than a
// user-level cause also ends the process with status 1.
func writeRecommendFailure(w io.Writer, err error) error {
	msg, cause := describe(err)
	return writeFailure(w, cause, msg)
}

func writeFailure(w io.Writer, cause recommend.Cause, msg string) error {
	if err := writeIndented(w, failure{Error: msg, Cause: cause}); err != nil {
		return err
	}
	if !isUserCause(cause) {
		return exitError{code: 1}
	}
	return nil
}

func isUserCause(c recommend.Cause) bool {
	switch c {
	case recommend.CauseUserNotFound, recommend.CauseNoFeedback,
		recommend.CauseNoLikedItems, recommend.CauseLikedItemsUnresolved:
		return true
	}
	return false
}

func describe(err error) (string, recommend.Cause) {
	var rerr *recommend.Error
	if errors.As(err, &rerr) {
		return rerr.Message, rerr.Cause
	}
	return err.Error(), ""
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonNil(recs []recommend.Recommendation) []recommend.Recommendation {
	if recs == nil {
		return []recommend.Recommendation{}
	}
	return recs
}

func runRemoteRecommend(ctx context.Context, w io.Writer, client *apiClient, usernames []string) error {
	if len(usernames) == 1 {
		resp, err := client.get(ctx, "/v1/recommendations/"+url.PathEscape(usernames[0]))
		if err != nil {
			return err
		}
		var body struct {
			Recommendations []recommend.Recommendation `json:"recommendations"`
			Error           *struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := decodeAny(resp, &body); err != nil {
			return err
		}
		if body.Error != nil {
			return writeFailure(w, recommend.Cause(body.Error.Type), body.Error.Message)
		}
		return writeIndented(w, nonNil(body.Recommendations))
	}

	resp, err := client.post(ctx, "/v1/recommendations", map[string]any{"usernames": usernames})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := decodeAny(resp, &body); err != nil {
			return err
		}
		return writeFailure(w, recommend.Cause(body.Error.Type), body.Error.Message)
	}
	var body struct {
		Results []struct {
			Username        string                     `json:"username"`
			Recommendations []recommend.Recommendation `json:"recommendations"`
			Error           *struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		} `json:"results"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return err
	}
	results := make([]userResult, len(body.Results))
	for i, r := range body.Results {
		results[i] = userResult{Username: r.Username, Recommendations: r.Recommendations}
		if r.Error != nil {
			results[i].Error, results[i].Cause = r.Error.Message, recommend.Cause(r.Error.Type)
		}
	}
	return writeIndented(w, results)
}
