package forms

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/KAsare1/Postly-server/cmd/models"
)

// multipartOverhead leaves room for the text fields next to the image.
const multipartOverhead = 1 << 20

// parse fills r.Form from either a urlencoded or a multipart body.
func parse(r *http.Request, maxUpload int64) error {
	err := r.ParseMultipartForm(maxUpload + multipartOverhead)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// PostForm echoes submitted post values back into the template.
type PostForm struct {
	Text   string
	Group  string
	Image  string
	Errors Errors
}

type PostData struct {
	Text       string
	GroupID    *uint
	Upload     *Upload
	ClearImage bool
}

// FormFromPost prefills the edit form with a stored post.
func FormFromPost(p *models.Post) PostForm {
	f := PostForm{Text: p.Text, Image: p.Image, Errors: Errors{}}
	if p.GroupID != nil {
		f.Group = fmt.Sprint(*p.GroupID)
	}
	return f
}

// BindPost validates the new/edit post form. data is nil when the form has
// errors.
func BindPost(r *http.Request, groups []models.Group, maxUpload int64) (PostForm, *PostData) {
	form := PostForm{Errors: Errors{}}
	if err := parse(r, maxUpload); err != nil {
		form.Errors["image"] = fmt.Sprintf("The upload could not be read: %v", err)
		return form, nil
	}
	form.Text = r.PostFormValue("text")
	form.Group = r.PostFormValue("group")

	text := RequiredText(form.Text, 0)
	group := GroupChoice(form.Group, groups)
	Check(form.Errors, "text", text)
	Check(form.Errors, "group", group)

	data := &PostData{
		Text:       text.Value(),
		GroupID:    group.Value(),
		ClearImage: r.PostFormValue("image-clear") != "",
	}
	file, _, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		form.Errors["image"] = MsgInvalidImage
	default:
		defer file.Close()
		img := ImageUpload(file, maxUpload)
		if Check(form.Errors, "image", img) {
			data.Upload = img.Value()
		}
	}
	if form.Errors.Any() {
		return form, nil
	}
	return form, data
}

type CommentForm struct {
	Text   string
	Errors Errors
}

func BindComment(r *http.Request) (CommentForm, string, bool) {
	form := CommentForm{Errors: Errors{}}
	if err := r.ParseForm(); err != nil {
		form.Errors["text"] = MsgRequired
		return form, "", false
	}
	form.Text = r.PostFormValue("text")
	text := RequiredText(form.Text, 0)
	if !Check(form.Errors, "text", text) {
		return form, "", false
	}
	return form, text.Value(), true
}

type SignupForm struct {
	Username string
	FullName string
	Email    string
	Errors   Errors
}

type SignupData struct {
	Username string
	FullName string
	Email    string
	Password string
}

func BindSignup(r *http.Request) (SignupForm, *SignupData) {
	form := SignupForm{Errors: Errors{}}
	if err := r.ParseForm(); err != nil {
		form.Errors["username"] = MsgRequired
		return form, nil
	}
	form.Username = r.PostFormValue("username")
	form.FullName = r.PostFormValue("full_name")
	form.Email = r.PostFormValue("email")

	username := Username(form.Username)
	fullName := OptionalText(form.FullName, 255)
	email := Email(form.Email)
	password := NewPassword(r.PostFormValue("password1"), r.PostFormValue("password2"))
	Check(form.Errors, "username", username)
	Check(form.Errors, "full_name", fullName)
	Check(form.Errors, "email", email)
	Check(form.Errors, "password2", password)
	if form.Errors.Any() {
		return form, nil
	}
	return form, &SignupData{
		Username: username.Value(),
		FullName: fullName.Value(),
		Email:    email.Value(),
		Password: password.Value(),
	}
}

type LoginForm struct {
	Username string
	Next     string
	Errors   Errors
}

func BindLogin(r *http.Request) (LoginForm, string, string, bool) {
	form := LoginForm{Errors: Errors{}}
	if err := r.ParseForm(); err != nil {
		form.Errors["username"] = MsgRequired
		return form, "", "", false
	}
	form.Username = strings.TrimSpace(r.PostFormValue("username"))
	form.Next = r.FormValue("next")
	password := r.PostFormValue("password")
	if form.Username == "" {
		form.Errors["username"] = MsgRequired
	}
	if password == "" {
		form.Errors["password"] = MsgRequired
	}
	if form.Errors.Any() {
		return form, "", "", false
	}
	return form, form.Username, password, true
}
