// Package authz decides what an actor may do. Decisions are values, not
// errors: a refused edit is a redirect back to the post, a self-follow is
// silently ignored.
package authz

import (
	"net/url"
	"strings"

	"github.com/KAsare1/Postly-server/cmd/models"
)

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectView
	NoOp
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectView:
		return "redirect-view"
	case NoOp:
		return "no-op"
	}
	return "unknown"
}

// CanCreate covers new posts and comments.
func CanCreate(actor *models.User) Decision {
	if actor == nil {
		return RedirectLogin
	}
	return Allow
}

// CanEdit lets only the author through to the edit form.
func CanEdit(actor *models.User, post *models.Post) Decision {
	if actor == nil {
		return RedirectLogin
	}
	if post.AuthorID != actor.ID {
		return RedirectView
	}
	return Allow
}

func CanFollow(actor, author *models.User) Decision {
	if actor == nil {
		return RedirectLogin
	}
	if actor.ID == author.ID {
		return NoOp
	}
	return Allow
}

// LoginURL points at the login page with next set to the given path.
// Slashes stay readable: /auth/login/?next=/new/.
func LoginURL(loginPath, next string) string {
	return loginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// SafeNext accepts only local absolute paths as a post-login destination.
func SafeNext(next string) (string, bool) {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "", false
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	return next, true
}
