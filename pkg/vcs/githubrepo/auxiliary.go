package githubrepo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/Sumatoshi-tech/repoharvest/pkg/batch"
	"github.com/Sumatoshi-tech/repoharvest/pkg/table"
	"github.com/Sumatoshi-tech/repoharvest/pkg/vcs"
)

// AuxiliaryTables returns the adapter's auxiliary tables. They are present
// even when empty so stale artifacts get overwritten on write.
func (r *Repository) AuxiliaryTables() []table.Store {
	return []table.Store{r.tags, r.reviews}
}

// TrackerNames returns the update tracker artifacts the adapter maintains.
func (r *Repository) TrackerNames() []string {
	return []string{UpdateTrackerName}
}

// SeedTrackerTokens installs previously persisted tracker tokens.
func (r *Repository) SeedTrackerTokens(tokens map[string]string) {
	for name, token := range tokens {
		r.trackers[name] = token
	}
}

// TrackerTokens returns the tracker tokens after extraction.
func (r *Repository) TrackerTokens() map[string]string {
	tokens := make(map[string]string, len(r.trackers))

	for name, token := range r.trackers {
		tokens[name] = token
	}

	return tokens
}

// CollectAuxiliary fills the tag and review-event tables from the API,
// resuming review extraction from the seeded update tracker.
func (r *Repository) CollectAuxiliary(ctx context.Context) error {
	err := r.collectTags(ctx)
	if err != nil {
		return err
	}

	return r.collectReviews(ctx)
}

// collectTags lists every release tag. Tags are re-listed in full on each
// run; the table's tuple index absorbs the rows already present.
func (r *Repository) collectTags(ctx context.Context) error {
	desc := r.Descriptor()
	limiter := batch.NewLimiter(r.opts.PerPage, r.opts.MaxItems)
	hadResults := true

	for limiter.Check(hadResults) {
		tags, resp, err := r.api.Repositories.ListTags(ctx, r.owner, r.name, &github.ListOptions{
			Page:    limiter.Page(),
			PerPage: limiter.Size(),
		})
		if err != nil {
			return &vcs.SourceError{Repo: desc.Name, Err: fmt.Errorf("list tags: %w", err)}
		}

		for _, tag := range tags {
			r.tags.Append(table.NewRow(map[string]string{
				"repo_name":  desc.Name,
				"tag_name":   tag.GetName(),
				"version_id": tag.GetCommit().GetSHA(),
			}))
		}

		hadResults = len(tags) > 0 && resp.NextPage != 0

		limiter.Update()
	}

	r.logger.DebugContext(ctx, "collected tags", "repo", desc.Name, "rows", r.tags.Len())

	return nil
}

// collectReviews walks pull requests newest-updated-first, stopping at the
// tracker's last-seen timestamp, and records one row per submitted review.
func (r *Repository) collectReviews(ctx context.Context) error {
	desc := r.Descriptor()

	since := time.Time{}

	if token := r.trackers[UpdateTrackerName]; token != "" {
		parsed, err := time.Parse(time.RFC3339, token)
		if err == nil {
			since = parsed
		}
	}

	newest := since
	limiter := batch.NewLimiter(r.opts.PerPage, r.opts.MaxItems)
	hadResults := true

	for limiter.Check(hadResults) {
		prs, resp, err := r.api.PullRequests.List(ctx, r.owner, r.name, &github.PullRequestListOptions{
			State:     "all",
			Sort:      "updated",
			Direction: "desc",
			ListOptions: github.ListOptions{
				Page:    limiter.Page(),
				PerPage: limiter.Size(),
			},
		})
		if err != nil {
			return &vcs.SourceError{Repo: desc.Name, Err: fmt.Errorf("list pull requests: %w", err)}
		}

		caughtUp := false

		for _, pr := range prs {
			updated := pr.GetUpdatedAt().Time

			if !updated.After(since) {
				caughtUp = true

				break
			}

			if updated.After(newest) {
				newest = updated
			}

			err = r.collectPRReviews(ctx, pr.GetNumber())
			if err != nil {
				return err
			}
		}

		hadResults = !caughtUp && len(prs) > 0 && resp.NextPage != 0

		limiter.Update()
	}

	if newest.After(since) {
		r.trackers[UpdateTrackerName] = newest.UTC().Format(time.RFC3339)
	}

	r.logger.DebugContext(ctx, "collected review events", "repo", desc.Name, "rows", r.reviews.Len())

	return nil
}

// collectPRReviews records the submitted reviews of one pull request.
func (r *Repository) collectPRReviews(ctx context.Context, number int) error {
	desc := r.Descriptor()
	page := 1

	for {
		reviews, resp, err := r.api.PullRequests.ListReviews(ctx, r.owner, r.name, number, &github.ListOptions{
			Page:    page,
			PerPage: r.opts.PerPage,
		})
		if err != nil {
			return &vcs.SourceError{Repo: desc.Name, Err: fmt.Errorf("list reviews for #%d: %w", number, err)}
		}

		for _, review := range reviews {
			submitted := review.GetSubmittedAt().Time
			if submitted.IsZero() {
				// Pending reviews have no submission time yet.
				continue
			}

			r.reviews.Append(table.NewRow(map[string]string{
				"repo_name":       desc.Name,
				"pull_request_id": strconv.Itoa(number),
				"reviewer":        review.GetUser().GetLogin(),
				"updated_date":    submitted.UTC().Format(time.RFC3339),
				"state":           review.GetState(),
			}))
		}

		if resp.NextPage == 0 {
			return nil
		}

		page = resp.NextPage
	}
}
