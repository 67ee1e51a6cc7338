package login

// Field names a login form input.
type Field string

const (
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
)

// Form holds the raw values typed into the login screen.
type Form struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidationErrors carries one message per field. An empty string means the field is valid.
type ValidationErrors struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Empty reports whether no field has an error.
func (e ValidationErrors) Empty() bool {
	return e.Email == "" && e.Password == ""
}
