package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/Infinity2209/user/pkg/access"
)

// User is a record of the users collection.
type User struct {
	ID    string `json:"id,omitempty" bexpr:"id"`
	Name  string `json:"name" bexpr:"name"`
	Email string `json:"email" bexpr:"email"`
	Phone string `json:"phone,omitempty" bexpr:"phone"`
	Role  string `json:"role,omitempty" bexpr:"role"`
}

// UserPatch lists the user fields an update may change. Nil fields are left as they are.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Role  *string `json:"role,omitempty"`
}

// Product is a record of the products collection.
type Product struct {
	ID          string  `json:"id,omitempty" bexpr:"id"`
	Title       string  `json:"title" bexpr:"title"`
	Price       float64 `json:"price" bexpr:"price"`
	Description string  `json:"description,omitempty" bexpr:"description"`
	Category    string  `json:"category,omitempty" bexpr:"category"`
	Image       string  `json:"image,omitempty" bexpr:"image"`
}

// ProductPatch lists the product fields an update may change.
type ProductPatch struct {
	Title       *string  `json:"title,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Image       *string  `json:"image,omitempty"`
}

type descriptor struct {
	path     string
	tag      Tag
	singular string

	list, read, create, update, delete string
}

var usersDescriptor = descriptor{
	path:     "users",
	tag:      TagUsers,
	singular: "User",
	list:     access.UsersList,
	read:     access.UsersRead,
	create:   access.UsersCreate,
	update:   access.UsersUpdate,
	delete:   access.UsersDelete,
}

var productsDescriptor = descriptor{
	path:     "products",
	tag:      TagProducts,
	singular: "Product",
	list:     access.ProductsList,
	read:     access.ProductsRead,
	create:   access.ProductsCreate,
	update:   access.ProductsUpdate,
	delete:   access.ProductsDelete,
}

// Resource is one collection on the server. Reads go through the client
// cache; successful mutations invalidate the collection's list entry and,
// for update and delete, the entry of the touched record.
type Resource[T any, P any] struct {
	client *Client
	desc   descriptor
}

func newResource[T any, P any](c *Client, desc descriptor) *Resource[T, P] {
	return &Resource[T, P]{client: c, desc: desc}
}

// Tag returns the cache tag of the collection.
func (r *Resource[T, P]) Tag() Tag { return r.desc.tag }

func (r *Resource[T, P]) collectionPath() string { return "/" + r.desc.path }

func (r *Resource[T, P]) recordPath(id string) string {
	return "/" + r.desc.path + "/" + url.PathEscape(id)
}

// List returns every record in insertion order.
func (r *Resource[T, P]) List(ctx context.Context) ([]T, error) {
	if err := r.client.authorize(r.desc.list); err != nil {
		return nil, err
	}
	v, err := r.client.cache.FetchOrUse(ctx, ListKey(r.desc.tag), func(ctx context.Context) (any, error) {
		var items []T
		if err := r.client.do(ctx, http.MethodGet, r.collectionPath(), nil, &items); err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.desc.path, err)
	}
	return slices.Clone(v.([]T)), nil
}

// Get returns the record with id.
func (r *Resource[T, P]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, fmt.Errorf("%s ID required", r.desc.singular)
	}
	if err := r.client.authorize(r.desc.read); err != nil {
		return zero, err
	}
	v, err := r.client.cache.FetchOrUse(ctx, RecordKey(r.desc.tag, id), func(ctx context.Context) (any, error) {
		var item T
		if err := r.client.do(ctx, http.MethodGet, r.recordPath(id), nil, &item); err != nil {
			return nil, err
		}
		return item, nil
	})
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", r.desc.path, id, err)
	}
	return v.(T), nil
}

// Create adds a record. The server assigns its id.
func (r *Resource[T, P]) Create(ctx context.Context, in T) (T, error) {
	var out T
	if err := r.client.authorize(r.desc.create); err != nil {
		return out, err
	}
	if err := r.client.do(ctx, http.MethodPost, r.collectionPath(), in, &out); err != nil {
		return out, fmt.Errorf("create %s: %w", r.desc.path, err)
	}
	r.client.cache.Invalidate(r.desc.tag, "")
	return out, nil
}

// Update merges patch into the record with id and returns the merged record.
func (r *Resource[T, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	var out T
	if id == "" {
		return out, fmt.Errorf("%s ID required", r.desc.singular)
	}
	if err := r.client.authorize(r.desc.update); err != nil {
		return out, err
	}
	err := r.client.do(ctx, http.MethodPut, r.recordPath(id), patch, &out)
	if err != nil {
		r.invalidateIfGone(id, err)
		return out, fmt.Errorf("update %s %s: %w", r.desc.path, id, err)
	}
	r.client.cache.Invalidate(r.desc.tag, id)
	return out, nil
}

// Delete removes the record with id and returns it.
func (r *Resource[T, P]) Delete(ctx context.Context, id string) (T, error) {
	var out T
	if id == "" {
		return out, fmt.Errorf("%s ID required", r.desc.singular)
	}
	if err := r.client.authorize(r.desc.delete); err != nil {
		return out, err
	}
	err := r.client.do(ctx, http.MethodDelete, r.recordPath(id), nil, &out)
	if err != nil {
		r.invalidateIfGone(id, err)
		return out, fmt.Errorf("delete %s %s: %w", r.desc.path, id, err)
	}
	r.client.cache.Invalidate(r.desc.tag, id)
	return out, nil
}

// Refresh drops every cached entry of the collection so the next read refetches.
// Use it to pick up changes made by other clients.
func (r *Resource[T, P]) Refresh() {
	r.client.cache.InvalidateTag(r.desc.tag)
}

// A 404 on a mutation means another client removed the record; our copy is stale.
func (r *Resource[T, P]) invalidateIfGone(id string, err error) {
	if errors.Is(err, ErrNotFound) {
		r.client.cache.Invalidate(r.desc.tag, id)
	}
}
