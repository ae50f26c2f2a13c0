package source

import (
	"context"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// JobResults is a normalized job search.
type JobResults struct {
	Source   string      `json:"source"`
	Query    string      `json:"query"`
	Location string      `json:"location"`
	Total    int         `json:"total_results"`
	Jobs     []model.Job `json:"jobs"`
}

type jobItem struct {
	Position           number `json:"position"`
	Title              text   `json:"title"`
	CompanyName        text   `json:"company_name"`
	Company            text   `json:"company"`
	Location           text   `json:"location"`
	Via                text   `json:"via"`
	JobLink            text   `json:"job_link"`
	ShareLink          text   `json:"share_link"`
	PostedAt           text   `json:"posted_at"`
	DetectedExtensions opt[struct {
		Salary   text `json:"salary"`
		PostedAt text `json:"posted_at"`
	}] `json:"detected_extensions"`
	ApplyOptions list[struct {
		Link text `json:"link"`
	}] `json:"apply_options"`
}

func (it jobItem) job(q Query, i int) model.Job {
	ext := it.DetectedExtensions.V
	j := model.Job{
		Query:    q.Query,
		Location: firstOf(it.Location.String(), q.Location),
		Title:    it.Title.String(),
		Company:  firstOf(it.CompanyName.String(), it.Company.String()),
		Via:      it.Via.String(),
		Link:     firstOf(it.JobLink.String(), it.ShareLink.String()),
		Salary:   ext.Salary.String(),
		Posted:   firstOf(ext.PostedAt.String(), it.PostedAt.String()),
		Position: position(it.Position, i),
	}
	if j.Link == "" && len(it.ApplyOptions) > 0 {
		j.Link = it.ApplyOptions[0].Link.String()
	}
	return j
}

type jobsResponse struct {
	JobsResults list[jobItem] `json:"jobs_results"`
	Jobs        list[jobItem] `json:"jobs"`
}

func newJobResults(src string, q Query, items []jobItem) JobResults {
	if len(items) > 10 {
		items = items[:10]
	}
	out := JobResults{Source: src, Query: q.Query, Location: q.Location, Jobs: make([]model.Job, 0, len(items))}
	for i, it := range items {
		if it.Title == "" {
			continue
		}
		out.Jobs = append(out.Jobs, it.job(q, i))
	}
	out.Total = len(out.Jobs)
	return out
}

func registerJobs(r *Registry) {
	register(r, adapter[JobResults]{
		name:     "Google Jobs",
		slug:     "job-listings",
		category: "job_market",
		def:      func(d Defaults) Query { return Query{Query: d.Term(), Location: d.Location} },
		fetch: func(ctx context.Context, e env, q Query) (JobResults, error) {
			resp, err := call[jobsResponse](ctx, e, "google_jobs", params("q", q.Query, "location", q.Location, "hl", "en"))
			if err != nil {
				return JobResults{}, err
			}
			return newJobResults("google_jobs", q, resp.JobsResults), nil
		},
		persist: persistJobs,
	})

	register(r, adapter[JobResults]{
		name:     "LinkedIn Jobs",
		slug:     "linkedin-jobs",
		category: "job_market",
		def:      func(d Defaults) Query { return Query{Query: d.Term() + " operations", Location: d.Location} },
		fetch: func(ctx context.Context, e env, q Query) (JobResults, error) {
			resp, err := call[jobsResponse](ctx, e, "linkedin_jobs", params("keywords", q.Query, "location", q.Location))
			if err != nil {
				return JobResults{}, err
			}
			return newJobResults("linkedin", q, resp.Jobs), nil
		},
		persist: persistJobs,
	})
}

func persistJobs(ctx context.Context, st store.Store, data JobResults, m Meta) error {
	rows := make([]model.Job, len(data.Jobs))
	for i, j := range data.Jobs {
		j.SessionID, j.CallID = m.SessionID, m.CallID
		rows[i] = j
	}
	return st.AddJobs(ctx, rows)
}
