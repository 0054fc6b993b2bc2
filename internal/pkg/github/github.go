package github

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	DefaultAPIURL = "https://api.github.com"
	apiVersion    = "2022-11-28"
	maxPageLength = 100
)

var nextLinkRegexp = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

type GithubClient struct {
	Repository *client.Repository
	rc         *resty.Client
}

type ClientOptions struct {
	Repository *client.Repository
	Token      string
	// BaseURL defaults to DefaultAPIURL.
	BaseURL string
}

func New(o *ClientOptions) *GithubClient {
	baseURL := o.BaseURL
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetAuthToken(o.Token).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", apiVersion)

	return &GithubClient{
		Repository: o.Repository,
		rc:         rc,
	}
}

type ghPROptions struct {
	Title string `json:"title,omitempty"`
	Head  string `json:"head,omitempty"`
	Base  string `json:"base,omitempty"`
	Body  string `json:"body,omitempty"`
	State string `json:"state,omitempty"`
	Draft bool   `json:"draft,omitempty"`
}

type ghMergeOptions struct {
	MergeMethod string `json:"merge_method"`
}

type request struct {
	op     string
	target string
	method string
	url    string
	body   interface{}
	query  map[string]string
}

func (c *GithubClient) repoURL(format string, a ...interface{}) string {
	return fmt.Sprintf("/repos/%s/%s", c.Repository.Owner, c.Repository.Name) +
		fmt.Sprintf(format, a...)
}

func (c *GithubClient) do(ctx context.Context, req *request) (*resty.Response, error) {
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
	}).Debug("github request")

	res, err := r.Execute(req.method, req.url)
	if err != nil {
		return nil, client.NewTransportError(req.op, req.target, err)
	}

	log.WithFields(log.Fields{
		"status": res.StatusCode(),
		"url":    req.url,
	}).Debug("github response")

	if res.IsError() {
		return nil, client.NewStatusError(
			req.op,
			req.target,
			res.StatusCode(),
			errorMessage(res.Body()),
		)
	}

	return res, nil
}

// errorMessage joins the top-level message with the validation messages
// GitHub returns in the errors array.
func errorMessage(body []byte) string {
	parsed := gjson.ParseBytes(body)
	parts := []string{}
	if m := parsed.Get("message").String(); m != "" {
		parts = append(parts, m)
	}
	parsed.Get("errors.#.message").ForEach(func(_, value gjson.Result) bool {
		parts = append(parts, value.String())
		return true
	})

	return strings.Join(parts, ": ")
}

func parsePullRequest(value gjson.Result) *client.PullRequest {
	state := client.PullRequestState_OPEN
	switch {
	case value.Get("merged").Bool(), value.Get("merged_at").Type == gjson.String:
		state = client.PullRequestState_MERGED
	case value.Get("state").String() == "closed":
		state = client.PullRequestState_CLOSED
	}

	mergeable := client.Mergeability_UNKNOWN
	m := value.Get("mergeable")
	switch {
	case m.Type == gjson.True:
		mergeable = client.Mergeability_MERGEABLE
	case m.Type == gjson.False:
		mergeable = client.Mergeability_CONFLICTED
	}

	return &client.PullRequest{
		ID:          value.Get("number").String(),
		Title:       value.Get("title").String(),
		Body:        value.Get("body").String(),
		Source:      value.Get("head.ref").String(),
		Destination: value.Get("base.ref").String(),
		State:       state,
		Mergeable:   mergeable,
		URL:         value.Get("html_url").String(),
		Created:     value.Get("created_at").Time(),
		Updated:     value.Get("updated_at").Time(),
	}
}

func prTarget(id string) string {
	return fmt.Sprintf("pull request #%s", id)
}

func (c *GithubClient) Create(ctx context.Context, o *client.CreateOptions) (*client.PullRequest, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	r, err := c.do(ctx, &request{
		op:     "create",
		target: fmt.Sprintf("pull request %s -> %s", o.Source, o.Destination),
		method: http.MethodPost,
		url:    c.repoURL("/pulls"),
		body: ghPROptions{
			Title: o.Title,
			Head:  o.Source,
			Base:  o.Destination,
			Body:  o.Body,
			Draft: o.Draft,
		},
	})
	if err != nil {
		return nil, err
	}

	return parsePullRequest(gjson.ParseBytes(r.Body())), nil
}

func (c *GithubClient) Get(ctx context.Context, id string) (*client.PullRequest, error) {
	r, err := c.do(ctx, &request{
		op:     "get",
		target: prTarget(id),
		method: http.MethodGet,
		url:    c.repoURL("/pulls/%s", id),
	})
	if err != nil {
		return nil, err
	}

	return parsePullRequest(gjson.ParseBytes(r.Body())), nil
}

func listStateQuery(s client.PullRequestState) string {
	switch s {
	case client.PullRequestState_OPEN:
		return "open"
	case client.PullRequestState_CLOSED, client.PullRequestState_MERGED:
		return "closed"
	}

	return "all"
}

func nextLink(header string) string {
	m := nextLinkRegexp.FindStringSubmatch(header)
	if len(m) != 2 {
		return ""
	}

	return m[1]
}

func (c *GithubClient) List(ctx context.Context, o *client.ListOptions) ([]*client.PullRequest, error) {
	if o == nil {
		o = &client.ListOptions{}
	}
	limit := o.GetLimit()
	perPage := limit
	if perPage > maxPageLength {
		perPage = maxPageLength
	}

	it := client.NewIterator(func(ctx context.Context, cursor string) ([]*client.PullRequest, string, error) {
		req := &request{
			op:     "list",
			target: "pull requests",
			method: http.MethodGet,
			url:    cursor,
		}
		if cursor == "" {
			req.url = c.repoURL("/pulls")
			req.query = map[string]string{
				"state":    listStateQuery(o.State),
				"per_page": fmt.Sprint(perPage),
			}
		}

		r, err := c.do(ctx, req)
		if err != nil {
			return nil, "", err
		}

		prs := []*client.PullRequest{}
		gjson.ParseBytes(r.Body()).ForEach(func(_, value gjson.Result) bool {
			pr := parsePullRequest(value)
			if o.State == "" || pr.State == o.State {
				prs = append(prs, pr)
			}
			return true
		})

		return prs, nextLink(r.Header().Get("Link")), nil
	})

	return it.GetAll(ctx, limit)
}

func mergeMethod(s client.MergeStrategy) (string, bool) {
	switch s {
	case "", client.MergeStrategy_MERGE:
		return "merge", true
	case client.MergeStrategy_SQUASH:
		return "squash", true
	case client.MergeStrategy_REBASE:
		return "rebase", true
	}

	return "", false
}

func (c *GithubClient) Merge(ctx context.Context, o *client.MergeOptions) error {
	method, ok := mergeMethod(o.Strategy)
	if !ok {
		return &client.Error{
			Op:      "merge",
			Target:  prTarget(o.ID),
			Kind:    errcodes.ErrUnsupported,
			Message: fmt.Sprintf("github does not support the %s strategy", o.Strategy),
		}
	}

	r, err := c.do(ctx, &request{
		op:     "merge",
		target: prTarget(o.ID),
		method: http.MethodPut,
		url:    c.repoURL("/pulls/%s/merge", o.ID),
		body:   ghMergeOptions{MergeMethod: method},
	})
	if err != nil {
		// 409 means the head moved since the last check, 422 that the
		// pull request cannot be merged as it is. Neither is a content
		// conflict.
		if e, ok := err.(*client.Error); ok &&
			(e.StatusCode == http.StatusConflict || e.StatusCode == http.StatusUnprocessableEntity) {
			e.Kind = errcodes.ErrNotMergeable
		}
		return err
	}

	if !gjson.GetBytes(r.Body(), "merged").Bool() {
		return &client.Error{
			Op:      "merge",
			Target:  prTarget(o.ID),
			Kind:    errcodes.ErrNotMergeable,
			Message: gjson.GetBytes(r.Body(), "message").String(),
		}
	}

	return nil
}

func (c *GithubClient) Close(ctx context.Context, id string) (*client.PullRequest, error) {
	r, err := c.do(ctx, &request{
		op:     "close",
		target: prTarget(id),
		method: http.MethodPatch,
		url:    c.repoURL("/pulls/%s", id),
		body:   ghPROptions{State: "closed"},
	})
	if err != nil {
		return nil, err
	}

	return parsePullRequest(gjson.ParseBytes(r.Body())), nil
}

func (c *GithubClient) Update(ctx context.Context, id string, o *client.UpdateOptions) (*client.PullRequest, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	r, err := c.do(ctx, &request{
		op:     "update",
		target: prTarget(id),
		method: http.MethodPatch,
		url:    c.repoURL("/pulls/%s", id),
		body:   ghPROptions{Title: o.Title, Body: o.Body},
	})
	if err != nil {
		return nil, err
	}

	return parsePullRequest(gjson.ParseBytes(r.Body())), nil
}

func (c *GithubClient) DeleteBranch(ctx context.Context, name string) error {
	_, err := c.do(ctx, &request{
		op:     "delete",
		target: "branch " + name,
		method: http.MethodDelete,
		url:    c.repoURL("/git/refs/heads/%s", name),
	})
	if e, ok := err.(*client.Error); ok && e.StatusCode == http.StatusUnprocessableEntity {
		e.Kind = errcodes.ErrNotFound
	}

	return err
}
