package codeup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	DefaultAPIURL = "https://codeup.aliyun.com"
	maxPageLength = 100
)

var pullRequestIDRegexp = regexp.MustCompile(`/code_reviews/(\d+)`)

// ExtractPullRequestID returns the review number of a Codeup review URL.
func ExtractPullRequestID(s string) (string, bool) {
	m := pullRequestIDRegexp.FindStringSubmatch(s)
	if len(m) != 2 {
		return "", false
	}

	return m[1], true
}

type CodeupClient struct {
	Repository *client.Repository
	projectID  string
	rc         *resty.Client
}

type ClientOptions struct {
	Repository *client.Repository
	ProjectID  string
	Cookie     string
	CSRFToken  string
	// BaseURL defaults to DefaultAPIURL.
	BaseURL string
}

func New(o *ClientOptions) *CodeupClient {
	baseURL := o.BaseURL
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Cookie", o.Cookie).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("Accept", "application/json").
		SetQueryParam("_input_charset", "utf-8")
	if o.CSRFToken != "" {
		rc.SetQueryParam("_csrf", o.CSRFToken)
	}

	return &CodeupClient{
		Repository: o.Repository,
		projectID:  o.ProjectID,
		rc:         rc,
	}
}

type cuCreateOptions struct {
	SourceProjectID int64   `json:"source_project_id"`
	TargetProjectID int64   `json:"target_project_id"`
	SourceBranch    string  `json:"source_branch"`
	TargetBranch    string  `json:"target_branch"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	ReviewerUserIDs []int64 `json:"reviewer_user_ids"`
	CreateFrom      string  `json:"create_from"`
	WorkInProgress  bool    `json:"work_in_progress,omitempty"`
}

type cuMergeOptions struct {
	MergeMethod        string `json:"merge_method"`
	DeleteSourceBranch bool   `json:"delete_source_branch"`
}

type cuUpdateOptions struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type cuCloseOptions struct {
	State string `json:"state"`
}

type request struct {
	op     string
	target string
	method string
	url    string
	body   interface{}
	query  map[string]string
}

func (c *CodeupClient) do(ctx context.Context, req *request) (*resty.Response, error) {
	r := c.rc.R().SetContext(ctx)
	if req.body != nil {
		r.SetBody(req.body)
	}
	if req.query != nil {
		r.SetQueryParams(req.query)
	}

	log.WithFields(log.Fields{
		"method": req.method,
		"url":    req.url,
	}).Debug("codeup request")

	res, err := r.Execute(req.method, req.url)
	if err != nil {
		return nil, client.NewTransportError(req.op, req.target, err)
	}

	log.WithFields(log.Fields{
		"status": res.StatusCode(),
		"url":    req.url,
	}).Debug("codeup response")

	if res.IsError() {
		return nil, client.NewStatusError(
			req.op,
			req.target,
			res.StatusCode(),
			errorMessage(res.Body()),
		)
	}

	// Expired sessions are answered with a login page instead of JSON.
	if len(res.Body()) > 0 && !gjson.ValidBytes(res.Body()) {
		return nil, &client.Error{
			Op:         req.op,
			Target:     req.target,
			StatusCode: res.StatusCode(),
			Kind:       errcodes.ErrAuth,
			Message:    "response is not JSON, the session cookie may have expired",
		}
	}

	return res, nil
}

func errorMessage(body []byte) string {
	parsed := gjson.ParseBytes(body)
	for _, key := range []string{"errorMessage", "message", "error"} {
		if m := parsed.Get(key).String(); m != "" {
			return m
		}
	}

	return strings.TrimSpace(string(body))
}

func parseState(s string) client.PullRequestState {
	switch strings.ToLower(s) {
	case "merged":
		return client.PullRequestState_MERGED
	case "closed":
		return client.PullRequestState_CLOSED
	}

	return client.PullRequestState_OPEN
}

func parseMergeability(s string) client.Mergeability {
	switch s {
	case "can_be_merged":
		return client.Mergeability_MERGEABLE
	case "cannot_be_merged":
		return client.Mergeability_CONFLICTED
	}

	return client.Mergeability_UNKNOWN
}

func parsePullRequest(value gjson.Result) *client.PullRequest {
	detailURL := value.Get("detail_url").String()
	id := value.Get("iid").String()
	if id == "" {
		id, _ = ExtractPullRequestID(detailURL)
	}

	return &client.PullRequest{
		ID:          id,
		Title:       value.Get("title").String(),
		Body:        value.Get("description").String(),
		Source:      value.Get("source_branch").String(),
		Destination: value.Get("target_branch").String(),
		State:       parseState(value.Get("state").String()),
		Mergeable:   parseMergeability(value.Get("merge_status").String()),
		URL:         detailURL,
		Created:     value.Get("created_at").Time(),
		Updated:     value.Get("updated_at").Time(),
	}
}

func prTarget(id string) string {
	return fmt.Sprintf("code review !%s", id)
}

func (c *CodeupClient) reviewsURL(format string, a ...interface{}) string {
	return fmt.Sprintf("/api/v4/projects/%s/code_reviews", c.projectID) +
		fmt.Sprintf(format, a...)
}

func (c *CodeupClient) Create(ctx context.Context, o *client.CreateOptions) (*client.PullRequest, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	pid, err := strconv.ParseInt(c.projectID, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(errcodes.ErrConfig, "codeup project id %q is not numeric", c.projectID)
	}

	r, err := c.do(ctx, &request{
		op:     "create",
		target: fmt.Sprintf("code review %s -> %s", o.Source, o.Destination),
		method: http.MethodPost,
		url:    c.reviewsURL(""),
		body: cuCreateOptions{
			SourceProjectID: pid,
			TargetProjectID: pid,
			SourceBranch:    o.Source,
			TargetBranch:    o.Destination,
			Title:           o.Title,
			Description:     o.Body,
			ReviewerUserIDs: []int64{},
			CreateFrom:      "WEB",
			WorkInProgress:  o.Draft,
		},
	})
	if err != nil {
		return nil, err
	}

	// The create response may only carry the review URL.
	pr := parsePullRequest(gjson.ParseBytes(r.Body()))
	if pr.Title == "" {
		pr.Title = o.Title
		pr.Body = o.Body
	}
	if pr.Source == "" {
		pr.Source = o.Source
		pr.Destination = o.Destination
	}

	return pr, nil
}

func (c *CodeupClient) Get(ctx context.Context, id string) (*client.PullRequest, error) {
	r, err := c.do(ctx, &request{
		op:     "get",
		target: prTarget(id),
		method: http.MethodGet,
		url:    c.reviewsURL("/%s", id),
	})
	if err != nil {
		return nil, err
	}

	return parsePullRequest(gjson.ParseBytes(r.Body())), nil
}

func subStateList(s client.PullRequestState) string {
	switch s {
	case client.PullRequestState_OPEN:
		return "wip,under_review"
	case client.PullRequestState_MERGED:
		return "merged"
	case client.PullRequestState_CLOSED:
		return "closed"
	}

	return "wip,under_review,merged,closed"
}

func (c *CodeupClient) List(ctx context.Context, o *client.ListOptions) ([]*client.PullRequest, error) {
	if o == nil {
		o = &client.ListOptions{}
	}
	limit := o.GetLimit()
	perPage := limit
	if perPage > maxPageLength {
		perPage = maxPageLength
	}

	it := client.NewIterator(func(ctx context.Context, cursor string) ([]*client.PullRequest, string, error) {
		page := 1
		if cursor != "" {
			page, _ = strconv.Atoi(cursor)
		}

		r, err := c.do(ctx, &request{
			op:     "list",
			target: "code reviews",
			method: http.MethodGet,
			url:    "/api/v4/projects/code_reviews/advanced_search_cr",
			query: map[string]string{
				"project_ids":    c.projectID,
				"sub_state_list": subStateList(o.State),
				"order_by":       "updated_at",
				"search":         "",
				"page":           strconv.Itoa(page),
				"per_page":       strconv.Itoa(perPage),
			},
		})
		if err != nil {
			return nil, "", err
		}

		prs := []*client.PullRequest{}
		gjson.ParseBytes(r.Body()).ForEach(func(_, value gjson.Result) bool {
			prs = append(prs, parsePullRequest(value))
			return true
		})

		next := ""
		if len(prs) == perPage {
			next = strconv.Itoa(page + 1)
		}

		return prs, next, nil
	})

	return it.GetAll(ctx, limit)
}

func mergeMethod(s client.MergeStrategy) string {
	switch s {
	case client.MergeStrategy_SQUASH:
		return "squash"
	case client.MergeStrategy_REBASE:
		return "rebase"
	case client.MergeStrategy_FF_ONLY:
		return "ff-only"
	}

	return "no-fast-forward"
}

func (c *CodeupClient) Merge(ctx context.Context, o *client.MergeOptions) error {
	_, err := c.do(ctx, &request{
		op:     "merge",
		target: prTarget(o.ID),
		method: http.MethodPut,
		url:    c.reviewsURL("/%s/merge", o.ID),
		body: cuMergeOptions{
			MergeMethod:        mergeMethod(o.Strategy),
			DeleteSourceBranch: false,
		},
	})

	return err
}

func (c *CodeupClient) Close(ctx context.Context, id string) (*client.PullRequest, error) {
	r, err := c.do(ctx, &request{
		op:     "close",
		target: prTarget(id),
		method: http.MethodPut,
		url:    c.reviewsURL("/%s/close", id),
		body:   cuCloseOptions{State: "closed"},
	})
	if err != nil {
		return nil, err
	}

	pr := parsePullRequest(gjson.ParseBytes(r.Body()))
	if pr.ID == "" {
		pr.ID = id
	}
	pr.State = client.PullRequestState_CLOSED

	return pr, nil
}

func (c *CodeupClient) Update(ctx context.Context, id string, o *client.UpdateOptions) (*client.PullRequest, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	r, err := c.do(ctx, &request{
		op:     "update",
		target: prTarget(id),
		method: http.MethodPut,
		url:    c.reviewsURL("/%s", id),
		body:   cuUpdateOptions{Title: o.Title, Description: o.Body},
	})
	if err != nil {
		return nil, err
	}

	pr := parsePullRequest(gjson.ParseBytes(r.Body()))
	if pr.ID == "" {
		pr.ID = id
	}
	if pr.Title == "" {
		pr.Title = o.Title
	}

	return pr, nil
}

func (c *CodeupClient) DeleteBranch(ctx context.Context, name string) error {
	_, err := c.do(ctx, &request{
		op:     "delete",
		target: "branch " + name,
		method: http.MethodDelete,
		url:    fmt.Sprintf("/api/v4/projects/%s/repository/branches/%s", c.projectID, url.PathEscape(name)),
	})

	return err
}
