package login

import (
	"regexp"

	model "github.com/mentalmatters/mentalmatters/internal/model/login"
)

const (
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Please enter a valid email address"
	MsgPasswordRequired = "Password is required"
)

// space is every character treated as whitespace by the email rule. RE2's \s is
// ASCII only, so the Unicode separators and BOM are listed explicitly.
const space = `\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}`

// emailPattern accepts local@domain.tld: the local part has no whitespace, '+' or '@',
// the domain has no whitespace or '@', and the TLD is at least two such characters.
var emailPattern = regexp.MustCompile(`(?i)^[^` + space + `+@]+@[^` + space + `@]+\.[^` + space + `@]{2,}$`)

// Validate maps the raw form onto its validation errors. It never consults
// previous results; every call recomputes the whole set.
func Validate(form model.Form) model.ValidationErrors {
	var errs model.ValidationErrors

	switch {
	case form.Email == "":
		errs.Email = MsgEmailRequired
	case !emailPattern.MatchString(form.Email):
		errs.Email = MsgEmailInvalid
	}

	if form.Password == "" {
		errs.Password = MsgPasswordRequired
	}

	return errs
}
