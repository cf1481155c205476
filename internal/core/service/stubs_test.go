package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
	"github.com/meetup-social/meetup-api/internal/pkg/security"
)

var (
	testVerificationKey = []byte("verification-key")
	testForgotKey       = []byte("forgot-password-key")
	testTokenSecret     = []byte("token-secret")
	testEpoch           = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func testHasher() *security.PasswordHasher { return security.NewPasswordHasher(bcrypt.MinCost) }

// ---------------------------------------------------------------------------
// Clock
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: testEpoch} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// sequenceReader yields 1, 2, 3, ... so generated codes are deterministic
// and distinct.
type sequenceReader struct{ next byte }

func (r *sequenceReader) Read(p []byte) (int, error) {
	for i := range p {
		r.next++
		p[i] = r.next
	}
	return len(p), nil
}

func testCodeOptions(clock *fakeClock) CodeOptions {
	return CodeOptions{
		From:            "codes@meetup.example.com",
		Now:             clock.Now,
		DispatchTimeout: time.Second,
		Generator:       security.NewCodeGenerator(&sequenceReader{}),
	}
}

// ---------------------------------------------------------------------------
// In-memory credential store
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	nextID  int
	creates int
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

// project mirrors the store hiding credential fields unless asked for.
func project(u *domain.User, proj ports.Projection) *domain.User {
	clone := *u
	if !proj.Has(ports.WithPassword) {
		clone.PasswordHash = ""
	}
	if !proj.Has(ports.WithVerificationCode) {
		clone.VerificationCode.Clear()
	}
	if !proj.Has(ports.WithForgotPasswordCode) {
		clone.ForgotPasswordCode.Clear()
	}
	return &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string, proj ports.Projection) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return project(u, proj), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string, proj ports.Projection) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return project(u, proj), nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	r.creates++
	clone := *user
	clone.ID = fmt.Sprintf("user-%d", r.nextID)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) mutate(id string, fn func(u *domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (r *stubUserRepo) SetVerificationCode(_ context.Context, id string, slot domain.CodeSlot) error {
	return r.mutate(id, func(u *domain.User) { u.VerificationCode = slot })
}

func (r *stubUserRepo) SetForgotPasswordCode(_ context.Context, id string, slot domain.CodeSlot) error {
	return r.mutate(id, func(u *domain.User) { u.ForgotPasswordCode = slot })
}

func (r *stubUserRepo) MarkVerified(_ context.Context, id string) error {
	return r.mutate(id, func(u *domain.User) {
		u.Verified = true
		u.VerificationCode.Clear()
	})
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return r.mutate(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (r *stubUserRepo) ResetPassword(_ context.Context, id, hash string) error {
	return r.mutate(id, func(u *domain.User) {
		u.PasswordHash = hash
		u.ForgotPasswordCode.Clear()
	})
}

func (r *stubUserRepo) AddPoints(_ context.Context, id string, delta int) error {
	return r.mutate(id, func(u *domain.User) { u.Points += delta })
}

// List walks users newest first, like the store's createdAt sort.
func (r *stubUserRepo) List(_ context.Context, filter ports.UserFilter, page ports.Page) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.User
	for i := r.nextID; i > 0; i-- {
		u, ok := r.byID[fmt.Sprintf("user-%d", i)]
		if !ok || (filter.Role != "" && u.Role != filter.Role) {
			continue
		}
		matched = append(matched, project(u, 0))
	}
	skip := page.Skip()
	if skip >= int64(len(matched)) {
		return []*domain.User{}, nil
	}
	matched = matched[skip:]
	if len(matched) > page.Size {
		matched = matched[:page.Size]
	}
	return matched, nil
}

func (r *stubUserRepo) AddFollowing(_ context.Context, id, targetID string) (bool, error) {
	var added bool
	err := r.mutate(id, func(u *domain.User) {
		u.Following, added = addToSet(u.Following, targetID)
	})
	return added, err
}

func (r *stubUserRepo) RemoveFollowing(_ context.Context, id, targetID string) (bool, error) {
	var removed bool
	err := r.mutate(id, func(u *domain.User) {
		u.Following, removed = pull(u.Following, targetID)
	})
	return removed, err
}

func (r *stubUserRepo) AddFollower(_ context.Context, id, followerID string) error {
	return r.mutate(id, func(u *domain.User) { u.Followers, _ = addToSet(u.Followers, followerID) })
}

func (r *stubUserRepo) RemoveFollower(_ context.Context, id, followerID string) error {
	return r.mutate(id, func(u *domain.User) { u.Followers, _ = pull(u.Followers, followerID) })
}

func addToSet(set []string, v string) ([]string, bool) {
	for _, s := range set {
		if s == v {
			return set, false
		}
	}
	return append(set, v), true
}

func pull(set []string, v string) ([]string, bool) {
	out := set[:0:0]
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out, len(out) != len(set)
}

// stored returns the full record regardless of projection.
func (r *stubUserRepo) stored(id string) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.byID[id]
}

// seed inserts a user with password "Passw0rdX" and returns its id.
func (r *stubUserRepo) seed(email string, verified bool) string {
	hash, err := testHasher().Hash("Passw0rdX")
	if err != nil {
		panic(err)
	}
	u, err := r.Create(context.Background(), &domain.User{
		Email:        email,
		PasswordHash: hash,
		Verified:     verified,
		Role:         domain.RoleGeneralUser,
	})
	if err != nil {
		panic(err)
	}
	return u.ID
}

// ---------------------------------------------------------------------------
// Mail transport
// ---------------------------------------------------------------------------

type stubMailer struct {
	mu       sync.Mutex
	sent     []ports.MailMessage
	err      error
	reject   bool
	blocking bool
}

func (m *stubMailer) Send(ctx context.Context, msg ports.MailMessage) (ports.Delivery, error) {
	if m.blocking {
		<-ctx.Done()
		return ports.Delivery{}, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return ports.Delivery{}, m.err
	}
	m.sent = append(m.sent, msg)
	if m.reject {
		return ports.Delivery{Accepted: []string{}}, nil
	}
	return ports.Delivery{Accepted: []string{strings.ToUpper(msg.To)}}, nil
}

var codePattern = regexp.MustCompile(`<h1>(\d+)</h1>`)

// lastCode extracts the plaintext code from the most recent mail.
func (m *stubMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	match := codePattern.FindStringSubmatch(m.sent[len(m.sent)-1].HTML)
	if match == nil {
		return ""
	}
	return match[1]
}

var errSMTPDown = errors.New("smtp: connection refused")

func nopLogger() zerolog.Logger { return zerolog.Nop() }
