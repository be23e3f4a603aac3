package auth

// Registry resolves bearer tokens to registered users. It is built once at
// startup from the users file and read-only afterwards, so lookups need no
// locking.
type Registry struct {
	byToken map[string]*User
}

func NewRegistry() *Registry {
	return &Registry{
		byToken: make(map[string]*User),
	}
}

// Register adds a user under its bearer token. Validation of duplicates and
// required fields happens at load time, before registration.
func (r *Registry) Register(token string, user *User) {
	r.byToken[token] = user
}

// FindByToken resolves a bearer token to its user. The second return is
// false when the token is unknown.
func (r *Registry) FindByToken(token string) (*User, bool) {
	user, ok := r.byToken[token]
	return user, ok
}

// Len reports how many users are registered
func (r *Registry) Len() int {
	return len(r.byToken)
}
