// Package session carries the signed-in user and the shared lookup tables
// through a request, in place of process-wide mutable state.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/hours"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
)

type ContactLister interface {
	List(ctx context.Context) ([]model.Contact, error)
}

type UserLister interface {
	List(ctx context.Context) ([]model.User, error)
}

// Directory caches contacts and user names for display lookups.
type Directory struct {
	mu       sync.RWMutex
	contacts map[int]model.Contact
	users    map[int]string
}

func NewDirectory() *Directory {
	return &Directory{contacts: map[int]model.Contact{}, users: map[int]string{}}
}

// Load replaces the cached tables with fresh copies from storage.
func (d *Directory) Load(ctx context.Context, contacts ContactLister, users UserLister) error {
	cs, err := contacts.List(ctx)
	if err != nil {
		return err
	}
	us, err := users.List(ctx)
	if err != nil {
		return err
	}
	d.Set(cs, us)
	return nil
}

func (d *Directory) Set(contacts []model.Contact, users []model.User) {
	cm := make(map[int]model.Contact, len(contacts))
	for _, c := range contacts {
		cm[c.ID] = c
	}
	um := make(map[int]string, len(users))
	for _, u := range users {
		um[u.ID] = u.Name
	}
	d.mu.Lock()
	d.contacts = cm
	d.users = um
	d.mu.Unlock()
}

func (d *Directory) Contact(id int) (model.Contact, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.contacts[id]
	return c, ok
}

func (d *Directory) ContactName(id int) string {
	c, _ := d.Contact(id)
	return c.Name
}

func (d *Directory) UserName(id int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.users[id]
}

// Contacts lists every contact ordered by ID.
func (d *Directory) Contacts() []model.Contact {
	d.mu.RLock()
	out := make([]model.Contact, 0, len(d.contacts))
	for _, c := range d.contacts {
		out = append(out, c)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Context is everything a request needs to know about who is working and
// how times are shown.
type Context struct {
	UserID    int
	UserName  string
	Location  *time.Location
	Hours     *hours.Calendar
	Directory *Directory
}

type ctxKey struct{}

func WithContext(ctx context.Context, s *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Context, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Context)
	return s, ok && s != nil
}
