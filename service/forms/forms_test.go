package forms

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestField(t *testing.T) {
	ok := Valid(3)
	assert.True(t, ok.OK())
	assert.Equal(t, 3, ok.Value())
	assert.Empty(t, ok.Reason())

	bad := Invalid[int]("nope")
	assert.False(t, bad.OK())
	assert.Zero(t, bad.Value())
	assert.Equal(t, "nope", bad.Reason())

	errs := Errors{}
	assert.True(t, Check(errs, "a", ok))
	assert.False(t, Check(errs, "b", bad))
	assert.Equal(t, Errors{"b": "nope"}, errs)
}

func TestRequiredText(t *testing.T) {
	assert.False(t, RequiredText("   ", 0).OK())
	assert.Equal(t, MsgRequired, RequiredText("", 0).Reason())
	assert.Equal(t, "hi", RequiredText("  hi \n", 0).Value())
	assert.False(t, RequiredText("toolong", 3).OK())
	assert.True(t, RequiredText("ok", 3).OK())
	assert.True(t, OptionalText("", 3).OK())
}

func TestGroupChoice(t *testing.T) {
	groups := []models.Group{{ID: 4, Slug: "a"}, {ID: 9, Slug: "b"}}

	none := GroupChoice("", groups)
	require.True(t, none.OK())
	assert.Nil(t, none.Value())

	got := GroupChoice("9", groups)
	require.True(t, got.OK())
	assert.Equal(t, uint(9), *got.Value())

	assert.False(t, GroupChoice("5", groups).OK())
	assert.False(t, GroupChoice("x", groups).OK())
}

func TestImageUpload(t *testing.T) {
	data := pngBytes(t)

	got := ImageUpload(bytes.NewReader(data), 1<<20)
	require.True(t, got.OK(), got.Reason())
	assert.Equal(t, ".png", got.Value().Ext)
	assert.Equal(t, data, got.Value().Data)

	assert.False(t, ImageUpload(strings.NewReader("not an image"), 1<<20).OK())
	assert.False(t, ImageUpload(bytes.NewReader(data), int64(len(data)-1)).OK())
	assert.False(t, ImageUpload(strings.NewReader(""), 10).OK())
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Test Group":          "test-group",
		"  Café  au   lait ":  "cafe-au-lait",
		"Hello, World!":       "hello-world",
		"already-a_slug":      "already-a_slug",
		"--edges--":           "edges",
		"Привет":              "",
		"Mixed   -  dashes 2": "mixed-dashes-2",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSlug(t *testing.T) {
	for _, ok := range []string{"test-slug", "a_b", "2021", " padded "} {
		assert.True(t, Slug(ok).OK(), ok)
	}
	for _, bad := range []string{"", "Bad Slug!", "a/b", "Upper", "caf\u00e9"} {
		got := Slug(bad)
		assert.False(t, got.OK(), bad)
	}
	assert.Equal(t, MsgInvalidSlug, Slug("a/b").Reason())
	assert.Equal(t, MsgRequired, Slug("  ").Reason())
	assert.True(t, Slug(Slugify("Hello, World!")).OK())
}

func TestUsername(t *testing.T) {
	assert.True(t, Username("leo.b+1@x-y_z").OK())
	assert.False(t, Username("has space").OK())
	assert.False(t, Username("").OK())
	assert.False(t, Username("new").OK())
	assert.False(t, Username("Follow").OK())
	assert.False(t, Username(strings.Repeat("a", 151)).OK())
}

func TestEmailAndPassword(t *testing.T) {
	assert.True(t, Email("").OK())
	assert.True(t, Email("leo@example.com").OK())
	assert.False(t, Email("Leo <leo@example.com>").OK())
	assert.False(t, Email("leo@").OK())

	assert.True(t, NewPassword("correct horse", "correct horse").OK())
	assert.False(t, NewPassword("short", "short").OK())
	assert.False(t, NewPassword("correct horse", "battery staple").OK())
	assert.Equal(t, MsgRequired, NewPassword("", "").Reason())
}

func formRequest(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/new/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestBindPostURLEncoded(t *testing.T) {
	groups := []models.Group{{ID: 2, Slug: "g"}}

	form, data := BindPost(formRequest(url.Values{"text": {" Hello "}, "group": {"2"}}), groups, 1<<20)
	require.NotNil(t, data, form.Errors)
	assert.Equal(t, "Hello", data.Text)
	assert.Equal(t, uint(2), *data.GroupID)
	assert.Nil(t, data.Upload)

	form, data = BindPost(formRequest(url.Values{"text": {""}, "group": {"7"}}), groups, 1<<20)
	assert.Nil(t, data)
	assert.Equal(t, MsgRequired, form.Errors.Get("text"))
	assert.Equal(t, MsgInvalidChoice, form.Errors.Get("group"))
	assert.Equal(t, "7", form.Group)
}

func TestBindPostMultipartWithImage(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "With picture"))
	fw, err := mw.CreateFormFile("image", "pic.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/new/", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	form, data := BindPost(r, nil, 1<<20)
	require.NotNil(t, data, form.Errors)
	require.NotNil(t, data.Upload)
	assert.Equal(t, ".png", data.Upload.Ext)
}

func TestBindPostRejectsNonImage(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "bad file"))
	fw, err := mw.CreateFormFile("image", "notes.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/new/", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	form, data := BindPost(r, nil, 1<<20)
	assert.Nil(t, data)
	assert.Equal(t, MsgInvalidImage, form.Errors.Get("image"))
}

func TestBindSignupAndLogin(t *testing.T) {
	form, data := BindSignup(formRequest(url.Values{
		"username":  {"leo"},
		"email":     {"leo@example.com"},
		"password1": {"long enough"},
		"password2": {"long enough"},
	}))
	require.NotNil(t, data, form.Errors)
	assert.Equal(t, "leo", data.Username)
	assert.Equal(t, "long enough", data.Password)

	form, data = BindSignup(formRequest(url.Values{"username": {"new"}, "password1": {"x"}, "password2": {"y"}}))
	assert.Nil(t, data)
	assert.NotEmpty(t, form.Errors.Get("username"))
	assert.NotEmpty(t, form.Errors.Get("password2"))

	lf, user, pass, ok := BindLogin(formRequest(url.Values{"username": {"leo"}, "password": {"pw"}, "next": {"/new/"}}))
	require.True(t, ok)
	assert.Equal(t, "leo", user)
	assert.Equal(t, "pw", pass)
	assert.Equal(t, "/new/", lf.Next)

	_, _, _, ok = BindLogin(formRequest(url.Values{"username": {"leo"}}))
	assert.False(t, ok)
}
