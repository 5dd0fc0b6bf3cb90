package utils

import (
	"context"
	"net/http"

	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/KAsare1/Postly-server/service/authz"
)

type contextKey string

const actorKey contextKey = "actor"

// LoginPath is where anonymous visitors are sent for protected pages.
const LoginPath = "/auth/login/"

func WithActor(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, actorKey, u)
}

// ActorFrom returns the signed-in user, or nil for an anonymous request.
func ActorFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(actorKey).(*models.User)
	return u
}

// LoginRedirect sends the visitor to the login page, coming back to the
// current URL afterwards.
func LoginRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, authz.LoginURL(LoginPath, r.URL.RequestURI()), http.StatusFound)
}

// RequireLogin redirects anonymous requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ActorFrom(r.Context()) == nil {
			LoginRedirect(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
