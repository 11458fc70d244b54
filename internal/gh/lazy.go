package gh

import (
	"context"
	"sync"

	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
)

var _ stack.CollaborationPlatform = (*LazyClient)(nil)

// LazyClient builds its Client on first use, so commands that never talk to GitHub work
// without a token or a GitHub remote. A failed build is reported by every call.
type LazyClient struct {
	build func(ctx context.Context) (*Client, error)

	once   sync.Once
	client *Client
	err    error
}

// NewLazyClient returns a LazyClient that calls build once, when first needed.
func NewLazyClient(build func(ctx context.Context) (*Client, error)) *LazyClient {
	return &LazyClient{build: build}
}

func (l *LazyClient) get(ctx context.Context) (*Client, error) {
	l.once.Do(func() {
		l.client, l.err = l.build(ctx)
	})
	return l.client, l.err
}

func (l *LazyClient) GetPRForBranch(ctx context.Context, branch model.BranchName) (*model.PullRequestInfo, error) {
	c, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.GetPRForBranch(ctx, branch)
}

func (l *LazyClient) GetPRForCommit(ctx context.Context, hash model.CommitHash) (*model.PullRequestInfo, error) {
	c, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.GetPRForCommit(ctx, hash)
}

func (l *LazyClient) CreateOrUpdatePR(ctx context.Context, head, base model.BranchName, title string) (*model.PullRequestInfo, error) {
	c, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.CreateOrUpdatePR(ctx, head, base, title)
}

func (l *LazyClient) UpdatePRDescription(ctx context.Context, number int, body string) error {
	c, err := l.get(ctx)
	if err != nil {
		return err
	}
	return c.UpdatePRDescription(ctx, number, body)
}
