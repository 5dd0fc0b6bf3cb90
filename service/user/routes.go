package user

import (
	"errors"
	"net/http"

	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/KAsare1/Postly-server/cmd/utils"
	"github.com/KAsare1/Postly-server/service/authz"
	"github.com/KAsare1/Postly-server/service/forms"
	"github.com/KAsare1/Postly-server/service/render"
	"github.com/KAsare1/Postly-server/service/store"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	store    *store.Store
	sessions *utils.Sessions
	views    *render.Renderer
	log      logrus.FieldLogger
}

func NewHandler(st *store.Store, sessions *utils.Sessions, views *render.Renderer, log logrus.FieldLogger) *Handler {
	return &Handler{store: st, sessions: sessions, views: views, log: log}
}

// RegisterRoutes sets up the sign up, log in and log out pages.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/signup/", h.Signup).Methods("GET", "POST")
	router.HandleFunc("/auth/login/", h.Login).Methods("GET", "POST")
	router.HandleFunc("/auth/logout/", h.Logout).Methods("GET", "POST")
}

type signupPage struct {
	render.Base
	Form forms.SignupForm
}

type loginPage struct {
	render.Base
	Form   forms.LoginForm
	Failed bool
}

// HashPassword hashes a plain password with bcrypt's default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	page := signupPage{
		Base: render.Base{Title: "Sign up", Actor: utils.ActorFrom(r.Context())},
		Form: forms.SignupForm{Errors: forms.Errors{}},
	}
	if r.Method != http.MethodPost {
		h.views.HTML(w, http.StatusOK, "signup.html", page)
		return
	}

	form, data := forms.BindSignup(r)
	page.Form = form
	if data == nil {
		h.views.HTML(w, http.StatusOK, "signup.html", page)
		return
	}
	hash, err := HashPassword(data.Password)
	if err != nil {
		h.log.WithError(err).Error("hash password")
		h.views.ServerError(w, nil)
		return
	}
	u := &models.User{
		Username:     data.Username,
		FullName:     data.FullName,
		Email:        data.Email,
		PasswordHash: hash,
	}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			page.Form.Errors["username"] = "A user with that username already exists."
			h.views.HTML(w, http.StatusOK, "signup.html", page)
			return
		}
		h.log.WithError(err).Error("create user")
		h.views.ServerError(w, nil)
		return
	}
	if err := h.sessions.Issue(w, r, u); err != nil {
		h.log.WithError(err).Error("issue session")
		h.views.ServerError(w, u)
		return
	}
	h.log.WithField("username", u.Username).Info("user signed up")
	http.Redirect(w, r, "/", http.StatusFound)
}

// Login checks credentials and returns the visitor to next when it is a
// local path.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	page := loginPage{
		Base: render.Base{Title: "Log in", Actor: utils.ActorFrom(r.Context())},
		Form: forms.LoginForm{Next: r.URL.Query().Get("next"), Errors: forms.Errors{}},
	}
	if r.Method != http.MethodPost {
		h.views.HTML(w, http.StatusOK, "login.html", page)
		return
	}

	form, username, password, ok := forms.BindLogin(r)
	page.Form = form
	if !ok {
		h.views.HTML(w, http.StatusOK, "login.html", page)
		return
	}
	u, err := h.store.UserByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.WithError(err).Error("load user")
		h.views.ServerError(w, nil)
		return
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		page.Failed = true
		h.views.HTML(w, http.StatusOK, "login.html", page)
		return
	}
	if err := h.sessions.Issue(w, r, u); err != nil {
		h.log.WithError(err).Error("issue session")
		h.views.ServerError(w, u)
		return
	}
	next, ok := authz.SafeNext(form.Next)
	if !ok {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
