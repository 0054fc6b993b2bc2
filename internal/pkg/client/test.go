package client

import (
	"context"
	"fmt"
)

// MockClient records every call. Get returns GetValues and GetErrors in
// order, repeating the last entry once the script runs out. MergeErrors is
// consumed the same way.
type MockClient struct {
	ErrorValue error

	GetValues []*PullRequest
	GetErrors []error

	CreateValue *PullRequest
	ListValue   []*PullRequest
	CloseValue  *PullRequest
	UpdateValue *PullRequest
	MergeErrors []error

	DeleteBranchError error

	Calls         []string
	CreateOptions []*CreateOptions
	ListOptions   []*ListOptions
	MergeOptions  []*MergeOptions
	UpdateOptions []*UpdateOptions
	GetCount      int
}

func scripted[T any](values []T, n int) T {
	var zero T
	if len(values) == 0 {
		return zero
	}
	if n >= len(values) {
		return values[len(values)-1]
	}

	return values[n]
}

func (c *MockClient) Create(ctx context.Context, o *CreateOptions) (*PullRequest, error) {
	c.Calls = append(c.Calls, fmt.Sprintf("create:%s->%s", o.Source, o.Destination))
	c.CreateOptions = append(c.CreateOptions, o)
	if c.ErrorValue != nil {
		return nil, c.ErrorValue
	}

	if c.CreateValue != nil {
		return c.CreateValue, nil
	}

	return &PullRequest{
		ID:          "1",
		Title:       o.Title,
		Body:        o.Body,
		Source:      o.Source,
		Destination: o.Destination,
		State:       PullRequestState_OPEN,
		Mergeable:   Mergeability_UNKNOWN,
	}, nil
}

func (c *MockClient) Get(ctx context.Context, id string) (*PullRequest, error) {
	n := c.GetCount
	c.GetCount++
	c.Calls = append(c.Calls, "get:"+id)
	if c.ErrorValue != nil {
		return nil, c.ErrorValue
	}

	if err := scripted(c.GetErrors, n); err != nil {
		return nil, err
	}

	return scripted(c.GetValues, n), nil
}

func (c *MockClient) List(ctx context.Context, o *ListOptions) ([]*PullRequest, error) {
	c.Calls = append(c.Calls, fmt.Sprintf("list:%s", o.State))
	c.ListOptions = append(c.ListOptions, o)
	if c.ErrorValue != nil {
		return nil, c.ErrorValue
	}

	return c.ListValue, nil
}

func (c *MockClient) Merge(ctx context.Context, o *MergeOptions) error {
	n := len(c.MergeOptions)
	c.Calls = append(c.Calls, fmt.Sprintf("merge:%s:%s", o.ID, o.Strategy))
	c.MergeOptions = append(c.MergeOptions, o)
	if c.ErrorValue != nil {
		return c.ErrorValue
	}

	return scripted(c.MergeErrors, n)
}

func (c *MockClient) Close(ctx context.Context, id string) (*PullRequest, error) {
	c.Calls = append(c.Calls, "close:"+id)
	if c.ErrorValue != nil {
		return nil, c.ErrorValue
	}

	if c.CloseValue != nil {
		return c.CloseValue, nil
	}

	return &PullRequest{ID: id, State: PullRequestState_CLOSED}, nil
}

func (c *MockClient) Update(ctx context.Context, id string, o *UpdateOptions) (*PullRequest, error) {
	c.Calls = append(c.Calls, "update:"+id)
	c.UpdateOptions = append(c.UpdateOptions, o)
	if c.ErrorValue != nil {
		return nil, c.ErrorValue
	}

	if c.UpdateValue != nil {
		return c.UpdateValue, nil
	}

	return &PullRequest{ID: id, Title: o.Title, Body: o.Body, State: PullRequestState_OPEN}, nil
}

func (c *MockClient) DeleteBranch(ctx context.Context, name string) error {
	c.Calls = append(c.Calls, "delete-branch:"+name)
	if c.ErrorValue != nil {
		return c.ErrorValue
	}

	return c.DeleteBranchError
}

// MergeCount returns the number of merge calls.
func (c *MockClient) MergeCount() int {
	return len(c.MergeOptions)
}
