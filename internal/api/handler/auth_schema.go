package handler

type registerRequest struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=6,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName"  validate:"max=100"`
	// Role is accepted and ignored: self-registration always yields the default role.
	Role string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
