package authz

import (
	"testing"

	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/stretchr/testify/assert"
)

func TestDecisions(t *testing.T) {
	author := &models.User{ID: 1, Username: "leo"}
	other := &models.User{ID: 2, Username: "mia"}
	post := &models.Post{ID: 10, AuthorID: author.ID}

	tests := []struct {
		name string
		got  Decision
		want Decision
	}{
		{"anonymous create", CanCreate(nil), RedirectLogin},
		{"create", CanCreate(other), Allow},
		{"anonymous edit", CanEdit(nil, post), RedirectLogin},
		{"author edit", CanEdit(author, post), Allow},
		{"non-author edit", CanEdit(other, post), RedirectView},
		{"anonymous follow", CanFollow(nil, author), RedirectLogin},
		{"self follow", CanFollow(author, author), NoOp},
		{"follow", CanFollow(other, author), Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got, "got %s", tt.got)
		})
	}
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/auth/login/?next=/new/", LoginURL("/auth/login/", "/new/"))
	assert.Equal(t, "/auth/login/?next=/leo/123/edit/", LoginURL("/auth/login/", "/leo/123/edit/"))
	assert.Equal(t, "/auth/login/?next=/follow/%3Fpage%3D2", LoginURL("/auth/login/", "/follow/?page=2"))
}

func TestSafeNext(t *testing.T) {
	for _, ok := range []string{"/", "/new/", "/leo/1/?page=2"} {
		got, valid := SafeNext(ok)
		assert.True(t, valid, ok)
		assert.Equal(t, ok, got)
	}
	for _, bad := range []string{"", "new/", "//evil.example.com/", "https://evil.example.com/", "/\\evil"} {
		_, valid := SafeNext(bad)
		assert.False(t, valid, bad)
	}
}
