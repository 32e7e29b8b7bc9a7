package sdk

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/Infinity2209/user/pkg/access"
)

// Dashboard is the landing summary. Users is only filled in for roles allowed
// to list users; ShowUsers says whether it was.
type Dashboard struct {
	Role       string
	Products   int
	Users      int
	ShowUsers  bool
	Categories []string
}

// Dashboard builds the summary from the cached list reads.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	if err := c.authorize(access.DashboardView); err != nil {
		return nil, err
	}

	d := &Dashboard{}
	if id := c.session.Identity(); id != nil {
		d.Role = id.Role
	}
	d.ShowUsers = c.authorize(access.UsersList) == nil

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := c.products.List(gctx)
		if err != nil {
			return err
		}
		d.Products = len(products)
		d.Categories = Categories(products)
		return nil
	})
	if d.ShowUsers {
		g.Go(func() error {
			users, err := c.users.List(gctx)
			if errors.Is(err, ErrUnauthorized) {
				// The server's policy is stricter than ours.
				d.ShowUsers = false
				return nil
			}
			if err != nil {
				return err
			}
			d.Users = len(users)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
