// Package identity signs users in and out against an identity provider and reports
// session changes to observers.
package identity

import (
	"context"
	"strings"
	"sync"
)

const (
	loginFailedMessage  = "Invalid email or password"
	signupFailedMessage = "Registration failed. Please try again."
)

// User is the signed-in account. The json shape is also the persisted auth record.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// Clone returns a copy, or nil for nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// Provider is an identity backend.
//
// ObserveSession calls fn once right away with the current user (nil when signed out) and
// again after every sign-in or sign-out until the returned func is called.
type Provider interface {
	Login(ctx context.Context, email, password string) (*User, error)
	Signup(ctx context.Context, fullName, email, password string) (*User, error)
	Logout(ctx context.Context) error
	ObserveSession(fn func(*User)) (unsubscribe func())
}

// DisplayName picks the name shown for an account: the profile name, then the local part
// of the email, then "User".
func DisplayName(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if local, _, _ := strings.Cut(strings.TrimSpace(email), "@"); local != "" {
		return local
	}
	return "User"
}

// observers tracks the current user and fans session changes out to subscribers.
// deliver is held for a whole fan-out so every subscriber sees changes in the order they
// were published. Callbacks must not publish or subscribe.
type observers struct {
	deliver sync.Mutex
	mu      sync.Mutex
	current *User
	nextID  int
	subs    map[int]func(*User)
}

func newObservers(initial *User) *observers {
	return &observers{current: initial.Clone(), subs: make(map[int]func(*User))}
}

func (o *observers) subscribe(fn func(*User)) func() {
	o.deliver.Lock()
	defer o.deliver.Unlock()

	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	current := o.current.Clone()
	o.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

func (o *observers) publish(u *User) {
	o.deliver.Lock()
	defer o.deliver.Unlock()

	o.mu.Lock()
	o.current = u.Clone()
	fns := make([]func(*User), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(u.Clone())
	}
}

func (o *observers) user() *User {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current.Clone()
}
