package forms

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/KAsare1/Postly-server/cmd/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	MsgInvalidSlug   = "Enter a valid slug consisting of lowercase letters, numbers, underscores or hyphens."
)

// RequiredText trims raw and rejects it when empty or longer than max runes.
// A max of zero means unbounded.
func RequiredText(raw string, max int) Field[string] {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Invalid[string](MsgRequired)
	}
	if max > 0 && utf8.RuneCountInString(v) > max {
		return Invalid[string](fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", max, utf8.RuneCountInString(v)))
	}
	return Valid(v)
}

// OptionalText trims raw and only enforces the length limit.
func OptionalText(raw string, max int) Field[string] {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Valid("")
	}
	return RequiredText(v, max)
}

// GroupChoice resolves a group id from the chooser. An empty choice is valid
// and means the post is not filed under any group.
func GroupChoice(raw string, groups []models.Group) Field[*uint] {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Valid[*uint](nil)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return Invalid[*uint](MsgInvalidChoice)
	}
	for _, g := range groups {
		if uint64(g.ID) == id {
			v := g.ID
			return Valid(&v)
		}
	}
	return Invalid[*uint](MsgInvalidChoice)
}

// Upload is an accepted image file held in memory until it is saved.
type Upload struct {
	Data []byte
	Ext  string
}

var imageExt = map[string]string{
	"gif":  ".gif",
	"jpeg": ".jpg",
	"png":  ".png",
}

// ImageUpload reads at most max bytes from r and accepts the content only
// when it decodes as a gif, jpeg or png image header.
func ImageUpload(r io.Reader, max int64) Field[*Upload] {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return Invalid[*Upload](MsgInvalidImage)
	}
	if int64(len(data)) > max {
		return Invalid[*Upload](fmt.Sprintf("Image files may be at most %d bytes.", max))
	}
	if len(data) == 0 {
		return Invalid[*Upload]("The submitted file is empty.")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Invalid[*Upload](MsgInvalidImage)
	}
	ext, ok := imageExt[format]
	if !ok {
		return Invalid[*Upload](MsgInvalidImage)
	}
	return Valid(&Upload{Data: data, Ext: ext})
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9_\s-]+`)
	slugDashes  = regexp.MustCompile(`[-\s]+`)
	slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// Slug accepts raw only when it is already usable as a URL slug.
func Slug(raw string) Field[string] {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Invalid[string](MsgRequired)
	}
	if !slugPattern.MatchString(v) {
		return Invalid[string](MsgInvalidSlug)
	}
	return Valid(v)
}

// Slugify lowercases s, strips accents and anything that is not a letter,
// digit, underscore or hyphen, and joins the words with hyphens.
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	out := slugInvalid.ReplaceAllString(b.String(), "")
	out = slugDashes.ReplaceAllString(strings.TrimSpace(out), "-")
	return strings.Trim(out, "-_")
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// ReservedUsernames would shadow a top-level route.
var ReservedUsernames = map[string]bool{
	"new":     true,
	"follow":  true,
	"group":   true,
	"auth":    true,
	"media":   true,
	"static":  true,
	"metrics": true,
	"healthz": true,
	"admin":   true,
}

func Username(raw string) Field[string] {
	f := RequiredText(raw, 150)
	if !f.OK() {
		return f
	}
	v := f.Value()
	if !usernamePattern.MatchString(v) {
		return Invalid[string]("Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	if ReservedUsernames[strings.ToLower(v)] {
		return Invalid[string]("This username is not available.")
	}
	return Valid(v)
}

// Email is optional; when present it must parse as a bare address.
func Email(raw string) Field[string] {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Valid("")
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || len(v) > 255 {
		return Invalid[string]("Enter a valid email address.")
	}
	return Valid(v)
}

const MinPasswordLength = 8

// NewPassword checks the password and its confirmation. Passwords are not
// trimmed.
func NewPassword(password, confirm string) Field[string] {
	if password == "" {
		return Invalid[string](MsgRequired)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return Invalid[string](fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if password != confirm {
		return Invalid[string]("The two password fields didn't match.")
	}
	return Valid(password)
}
