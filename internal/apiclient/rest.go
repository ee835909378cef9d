package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Viewset is a generic REST collection under the REST base URL, e.g.
// /rest/users/ and /rest/users/{id}/.
type Viewset[T any] struct {
	client *Client
	name   string
}

// NewViewset binds a collection name to c.
func NewViewset[T any](c *Client, name string) *Viewset[T] {
	return &Viewset[T]{client: c, name: name}
}

// Name returns the collection name.
func (v *Viewset[T]) Name() string { return v.name }

func (v *Viewset[T]) collection() string { return "/" + v.name + "/" }

func (v *Viewset[T]) item(id int64) string { return fmt.Sprintf("/%s/%d/", v.name, id) }

func (v *Viewset[T]) fallback(action string) string {
	return fmt.Sprintf("Could not %s %s.", action, v.name)
}

// List returns the collection, optionally filtered.
func (v *Viewset[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	var out []T
	err := v.client.Do(ctx, Request{Method: http.MethodGet, Path: v.collection(), Query: query, Auth: true, REST: true, Fallback: v.fallback("load")}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one item.
func (v *Viewset[T]) Get(ctx context.Context, id int64) (*T, error) {
	var out T
	err := v.client.Do(ctx, Request{Method: http.MethodGet, Path: v.item(id), Auth: true, REST: true, Fallback: v.fallback("load")}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts a new item.
func (v *Viewset[T]) Create(ctx context.Context, body any) (*T, error) {
	return v.write(ctx, http.MethodPost, v.collection(), body, "create")
}

// Update replaces an item.
func (v *Viewset[T]) Update(ctx context.Context, id int64, body any) (*T, error) {
	return v.write(ctx, http.MethodPut, v.item(id), body, "update")
}

// Patch partially updates an item.
func (v *Viewset[T]) Patch(ctx context.Context, id int64, body any) (*T, error) {
	return v.write(ctx, http.MethodPatch, v.item(id), body, "update")
}

// Delete removes an item.
func (v *Viewset[T]) Delete(ctx context.Context, id int64) error {
	return v.client.Do(ctx, Request{Method: http.MethodDelete, Path: v.item(id), Auth: true, REST: true, Fallback: v.fallback("delete")}, nil)
}

func (v *Viewset[T]) write(ctx context.Context, method, path string, body any, action string) (*T, error) {
	var out T
	err := v.client.Do(ctx, Request{Method: method, Path: path, JSON: body, Auth: true, REST: true, Fallback: v.fallback(action)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
