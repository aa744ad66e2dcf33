package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Tag is a label attachable to documents.
type Tag struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Tags lists every known tag.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.getJSON(ctx, "/tags/", &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// EnsureTag makes sure a tag named name exists and is attached to the
// document. Calling it repeatedly, or concurrently with another client creating
// the same tag, is safe: a create conflict means the tag exists and an attach
// conflict means it is already attached.
func (c *Client) EnsureTag(ctx context.Context, documentID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty tag name", ErrValidation)
	}

	tags, err := c.Tags(ctx)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}

	if !hasTag(tags, name) {
		err := c.postJSON(ctx, "/tags/", Tag{Name: name}, nil)
		if err != nil && !errors.Is(err, ErrValidation) {
			return fmt.Errorf("create tag %q: %w", name, err)
		}
	}

	err = c.postJSON(ctx, "/tags/attach/"+url.PathEscape(documentID), Tag{Name: name}, nil)
	if err != nil && !isConflict(err) {
		return fmt.Errorf("attach tag %q: %w", name, err)
	}

	c.logger.Info("tag ensured", "document_id", documentID, "tag", name)
	return nil
}

func isConflict(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusConflict
}

func hasTag(tags []Tag, name string) bool {
	for _, t := range tags {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}
