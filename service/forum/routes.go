package forum

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/KAsare1/Postly-server/cmd/utils"
	"github.com/KAsare1/Postly-server/service/authz"
	"github.com/KAsare1/Postly-server/service/cache"
	"github.com/KAsare1/Postly-server/service/feed"
	"github.com/KAsare1/Postly-server/service/forms"
	"github.com/KAsare1/Postly-server/service/metrics"
	notification "github.com/KAsare1/Postly-server/service/notifications"
	"github.com/KAsare1/Postly-server/service/render"
	"github.com/KAsare1/Postly-server/service/store"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type PostHandler struct {
	store     *store.Store
	feeds     *feed.Composer
	views     *render.Renderer
	mailer    notification.Mailer
	pages     cache.PageCache
	cacheTTL  time.Duration
	mediaRoot string
	maxUpload int64
	log       logrus.FieldLogger
}

type Options struct {
	Pages     cache.PageCache
	CacheTTL  time.Duration
	Mailer    notification.Mailer
	MediaRoot string
	MaxUpload int64
}

func NewPostHandler(st *store.Store, views *render.Renderer, opts Options, log logrus.FieldLogger) *PostHandler {
	if opts.Mailer == nil {
		opts.Mailer = notification.NopMailer{}
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = cache.DefaultTTL
	}
	return &PostHandler{
		store:     st,
		feeds:     feed.NewComposer(st),
		views:     views,
		mailer:    opts.Mailer,
		pages:     opts.Pages,
		cacheTTL:  opts.CacheTTL,
		mediaRoot: opts.MediaRoot,
		maxUpload: opts.MaxUpload,
		log:       log,
	}
}

// RegisterRoutes wires the forum pages. Fixed paths are registered before
// the /{username}/ catch-alls so they win.
func (h *PostHandler) RegisterRoutes(router *mux.Router) {
	index := http.Handler(http.HandlerFunc(h.Index))
	if h.pages != nil {
		index = cache.Middleware(h.pages, h.cacheTTL, pageKey)(index)
	}
	router.Handle("/", index).Methods("GET", "HEAD")
	router.Handle("/new/", utils.RequireLogin(http.HandlerFunc(h.NewPost))).Methods("GET", "POST")
	router.Handle("/follow/", utils.RequireLogin(http.HandlerFunc(h.FollowIndex))).Methods("GET")
	router.HandleFunc("/group/{slug}/", h.GroupPosts).Methods("GET")

	router.HandleFunc("/{username}/", h.Profile).Methods("GET")
	router.Handle("/{username}/follow/", utils.RequireLogin(http.HandlerFunc(h.ProfileFollow))).Methods("GET")
	router.Handle("/{username}/unfollow/", utils.RequireLogin(http.HandlerFunc(h.ProfileUnfollow))).Methods("GET")
	router.HandleFunc("/{username}/{post_id:[0-9]+}/", h.PostView).Methods("GET")
	router.Handle("/{username}/{post_id:[0-9]+}/edit/", utils.RequireLogin(http.HandlerFunc(h.PostEdit))).Methods("GET", "POST")
	router.Handle("/{username}/{post_id:[0-9]+}/comment/", utils.RequireLogin(http.HandlerFunc(h.AddComment))).Methods("GET", "POST")
}

// pageKey varies cached pages on who is looking, since the layout shows the
// signed-in user.
func pageKey(r *http.Request) string {
	var id uint
	if u := utils.ActorFrom(r.Context()); u != nil {
		id = u.ID
	}
	return fmt.Sprintf("%d|%s", id, r.URL.RequestURI())
}

type feedPage struct {
	render.Base
	Feed *feed.Feed
}

type postPage struct {
	render.Base
	Post     *models.Post
	Comments []models.Comment
	CanEdit  bool
}

type postFormPage struct {
	render.Base
	Form   forms.PostForm
	Groups []models.Group
	Post   *models.Post
	IsEdit bool
}

func (h *PostHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	actor := utils.ActorFrom(r.Context())
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.views.NotFound(w, r, actor)
	case errors.Is(err, feed.ErrUnauthenticated):
		utils.LoginRedirect(w, r)
	default:
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		h.views.ServerError(w, actor)
	}
}

func (h *PostHandler) showFeed(w http.ResponseWriter, r *http.Request, scope feed.Scope, tmpl, title string) {
	actor := utils.ActorFrom(r.Context())
	f, err := h.feeds.Compose(r.Context(), scope, actor, feed.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	switch {
	case f.Group != nil:
		title = f.Group.Title
	case f.Author != nil:
		title = f.Author.DisplayName()
	}
	h.views.HTML(w, http.StatusOK, tmpl, feedPage{
		Base: render.Base{Title: title, Actor: actor},
		Feed: f,
	})
}

// Index lists every post, newest first.
func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.showFeed(w, r, feed.Global(), "index.html", "Latest posts")
}

func (h *PostHandler) GroupPosts(w http.ResponseWriter, r *http.Request) {
	h.showFeed(w, r, feed.ByGroup(mux.Vars(r)["slug"]), "group.html", "")
}

func (h *PostHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.showFeed(w, r, feed.ByAuthor(mux.Vars(r)["username"]), "profile.html", "")
}

// FollowIndex lists posts by the authors the signed-in user follows.
func (h *PostHandler) FollowIndex(w http.ResponseWriter, r *http.Request) {
	h.showFeed(w, r, feed.Followed(), "follow.html", "Following")
}

// lookupPost resolves the post addressed by the username and post_id path
// variables.
func (h *PostHandler) lookupPost(r *http.Request) (*models.Post, error) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["post_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("post %q: %w", vars["post_id"], store.ErrNotFound)
	}
	return h.store.PostByAuthor(r.Context(), vars["username"], uint(id))
}

func viewURL(p *models.Post) string {
	return render.PostURL(*p)
}

func (h *PostHandler) PostView(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorFrom(r.Context())
	post, err := h.lookupPost(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	comments, err := h.store.CommentsForPost(r.Context(), post.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.views.HTML(w, http.StatusOK, "post.html", postPage{
		Base:     render.Base{Title: post.Author.DisplayName(), Actor: actor},
		Post:     post,
		Comments: comments,
		CanEdit:  authz.CanEdit(actor, post) == authz.Allow,
	})
}

// NewPost shows the post form and publishes valid submissions.
func (h *PostHandler) NewPost(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorFrom(r.Context())
	if authz.CanCreate(actor) != authz.Allow {
		utils.LoginRedirect(w, r)
		return
	}
	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := postFormPage{
		Base:   render.Base{Title: "New post", Actor: actor},
		Form:   forms.PostForm{Errors: forms.Errors{}},
		Groups: groups,
	}
	if r.Method != http.MethodPost {
		h.views.HTML(w, http.StatusOK, "new.html", page)
		return
	}

	form, data := forms.BindPost(r, groups, h.maxUpload)
	if data == nil {
		page.Form = form
		h.views.HTML(w, http.StatusOK, "new.html", page)
		return
	}
	in := store.PostInput{Text: data.Text, GroupID: data.GroupID}
	if data.Upload != nil {
		if in.Image, err = utils.SaveImage(h.mediaRoot, data.Upload.Data, data.Upload.Ext); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	post, err := h.store.CreatePost(r.Context(), actor, in)
	if err != nil {
		h.discardImage(in.Image)
		h.fail(w, r, err)
		return
	}
	metrics.PostCreated()
	h.log.WithFields(logrus.Fields{"post_id": post.ID, "author": actor.Username}).Info("post published")
	http.Redirect(w, r, "/", http.StatusFound)
}

// PostEdit lets the author change a post. Everyone else is sent back to
// the post itself.
func (h *PostHandler) PostEdit(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorFrom(r.Context())
	post, err := h.lookupPost(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	switch authz.CanEdit(actor, post) {
	case authz.RedirectLogin:
		utils.LoginRedirect(w, r)
		return
	case authz.RedirectView:
		http.Redirect(w, r, viewURL(post), http.StatusFound)
		return
	}

	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := postFormPage{
		Base:   render.Base{Title: "Edit post", Actor: actor},
		Form:   forms.FormFromPost(post),
		Groups: groups,
		Post:   post,
		IsEdit: true,
	}
	if r.Method != http.MethodPost {
		h.views.HTML(w, http.StatusOK, "new.html", page)
		return
	}

	form, data := forms.BindPost(r, groups, h.maxUpload)
	if data == nil {
		form.Image = post.Image
		page.Form = form
		h.views.HTML(w, http.StatusOK, "new.html", page)
		return
	}
	previous := post.Image
	in := store.PostInput{Text: data.Text, GroupID: data.GroupID, ClearImage: data.ClearImage}
	if data.Upload != nil {
		if in.Image, err = utils.SaveImage(h.mediaRoot, data.Upload.Data, data.Upload.Ext); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if err := h.store.UpdatePost(r.Context(), post, in); err != nil {
		h.discardImage(in.Image)
		h.fail(w, r, err)
		return
	}
	if previous != "" && previous != post.Image {
		h.discardImage(previous)
	}
	http.Redirect(w, r, viewURL(post), http.StatusFound)
}

// AddComment stores a valid comment. Invalid submissions and plain GETs
// simply land back on the post.
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorFrom(r.Context())
	post, err := h.lookupPost(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if r.Method == http.MethodPost && authz.CanCreate(actor) == authz.Allow {
		if _, text, ok := forms.BindComment(r); ok {
			comment, err := h.store.CreateComment(r.Context(), post, actor, text)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			metrics.CommentCreated()
			h.notify(post, comment)
		}
	}
	http.Redirect(w, r, viewURL(post), http.StatusFound)
}

func (h *PostHandler) ProfileFollow(w http.ResponseWriter, r *http.Request) {
	h.changeFollow(w, r, true)
}

func (h *PostHandler) ProfileUnfollow(w http.ResponseWriter, r *http.Request) {
	h.changeFollow(w, r, false)
}

func (h *PostHandler) changeFollow(w http.ResponseWriter, r *http.Request, follow bool) {
	actor := utils.ActorFrom(r.Context())
	username := mux.Vars(r)["username"]
	author, err := h.store.UserByUsername(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	switch authz.CanFollow(actor, author) {
	case authz.RedirectLogin:
		utils.LoginRedirect(w, r)
		return
	case authz.Allow:
		if follow {
			_, err = h.store.Follow(r.Context(), actor, author)
		} else {
			_, err = h.store.Unfollow(r.Context(), actor, author)
		}
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}
	http.Redirect(w, r, "/"+author.Username+"/", http.StatusFound)
}

// notify mails the post author in the background; the commenter never
// waits on SMTP.
func (h *PostHandler) notify(post *models.Post, comment *models.Comment) {
	go func() {
		if err := h.mailer.CommentAdded(post, comment); err != nil {
			h.log.WithError(err).WithField("post_id", post.ID).Warn("comment notification failed")
		}
	}()
}

func (h *PostHandler) discardImage(rel string) {
	if rel == "" {
		return
	}
	if err := utils.DeleteImage(h.mediaRoot, rel); err != nil {
		h.log.WithError(err).WithField("image", rel).Warn("could not remove image")
	}
}
