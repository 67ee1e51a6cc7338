package login

import (
	"sync"

	validator "github.com/mentalmatters/mentalmatters/internal/analysis/login"
	model "github.com/mentalmatters/mentalmatters/internal/model/login"
)

// View is what the login screen renders.
type View struct {
	Form         model.Form             `json:"form"`
	Errors       model.ValidationErrors `json:"errors"`
	Submitted    bool                   `json:"submitted"`
	ShowEye      bool                   `json:"showEye"`
	ShowPassword bool                   `json:"showPassword"`
}

// FormState holds the login screen state between keystrokes.
// Errors are only recomputed on Submit, never while typing.
type FormState struct {
	mu           sync.Mutex
	form         model.Form
	errors       model.ValidationErrors
	submitted    bool
	showPassword bool
}

// NewFormState returns an empty login form.
func NewFormState() *FormState {
	return &FormState{}
}

// Change replaces the value of one field. Clearing the password hides the
// reveal toggle and masks the password again.
func (s *FormState) Change(field model.Field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch field {
	case model.FieldEmail:
		s.form.Email = value
	case model.FieldPassword:
		s.form.Password = value
		if value == "" {
			s.showPassword = false
		}
	}
}

// Submit validates the whole form and reports whether it can proceed.
func (s *FormState) Submit() (model.ValidationErrors, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errors = validator.Validate(s.form)
	s.submitted = true
	return s.errors, s.errors.Empty()
}

// PressReveal shows the password while the toggle is held.
func (s *FormState) PressReveal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form.Password == "" {
		return
	}
	s.showPassword = true
}

// ReleaseReveal masks the password again.
func (s *FormState) ReleaseReveal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showPassword = false
}

// Form returns the current field values.
func (s *FormState) Form() model.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// View returns a snapshot for rendering.
func (s *FormState) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Form:         s.form,
		Errors:       s.errors,
		Submitted:    s.submitted,
		ShowEye:      s.form.Password != "",
		ShowPassword: s.showPassword,
	}
}
