package users

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"mangacover/internal/apperr"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type CreateInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// Repo keeps users in memory. Contents are lost on restart.
type Repo struct {
	mu     sync.Mutex
	users  []User
	nextID int64
}

func NewRepo() *Repo {
	return &Repo{
		users: []User{
			{ID: 1, Name: "Ivan"},
			{ID: 2, Name: "Maria"},
		},
		nextID: 3,
	}
}

func (r *Repo) List() []User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]User(nil), r.users...)
}

func (r *Repo) Get(id int64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return User{}, notFound(id)
	}
	return r.users[i], nil
}

func (r *Repo) Create(in CreateInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if err := validateName(name); err != nil {
		return User{}, err
	}
	if err := validateEmail(email); err != nil {
		return User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTakenLocked(email, 0) {
		return User{}, fmt.Errorf("email %s already exists: %w", email, apperr.ErrInvalidArgument)
	}

	u := User{ID: r.nextID, Name: name, Email: email}
	r.nextID++
	r.users = append(r.users, u)
	return u, nil
}

func (r *Repo) Update(id int64, in UpdateInput) (User, error) {
	var name, email string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return User{}, err
		}
	}
	if in.Email != nil {
		email = strings.TrimSpace(strings.ToLower(*in.Email))
		if err := validateEmail(email); err != nil {
			return User{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return User{}, notFound(id)
	}
	if in.Email != nil && r.emailTakenLocked(email, id) {
		return User{}, fmt.Errorf("email %s already exists: %w", email, apperr.ErrInvalidArgument)
	}
	if in.Name != nil {
		r.users[i].Name = name
	}
	if in.Email != nil {
		r.users[i].Email = email
	}
	return r.users[i], nil
}

func (r *Repo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return notFound(id)
	}
	r.users = append(r.users[:i], r.users[i+1:]...)
	return nil
}

func (r *Repo) indexLocked(id int64) int {
	for i, u := range r.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repo) emailTakenLocked(email string, exceptID int64) bool {
	for _, u := range r.users {
		if u.ID != exceptID && u.Email != "" && u.Email == email {
			return true
		}
	}
	return false
}

func validateName(name string) error {
	if len(name) < 1 || len(name) > 255 {
		return fmt.Errorf("name must be 1-255 chars: %w", apperr.ErrInvalidArgument)
	}
	return nil
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || len(email) > 255 {
		return fmt.Errorf("invalid email %q: %w", email, apperr.ErrInvalidArgument)
	}
	return nil
}

func notFound(id int64) error {
	return fmt.Errorf("user %d: %w", id, apperr.ErrRecordNotFound)
}

// IsNotFound reports whether err is an unknown-user error.
func IsNotFound(err error) bool {
	return errors.Is(err, apperr.ErrRecordNotFound)
}
