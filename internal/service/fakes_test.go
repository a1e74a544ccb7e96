package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/mock"

	"pethaven/internal/domain"
	"pethaven/internal/service"
	"pethaven/internal/validator"
)

// MockUserRepo is a testify mock for domain.UserRepository.
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUsers(users ...*domain.User) *memUsers {
	r := &memUsers{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memPets struct {
	pets  map[string]*domain.Pet
	calls int
}

func newMemPets(pets ...*domain.Pet) *memPets {
	r := &memPets{pets: make(map[string]*domain.Pet)}
	for _, p := range pets {
		r.pets[p.ID] = p
	}
	return r
}

func (r *memPets) Create(_ context.Context, p *domain.Pet) error {
	r.pets[p.ID] = p
	return nil
}

func (r *memPets) GetByID(_ context.Context, id string) (*domain.Pet, error) {
	r.calls++
	if p, ok := r.pets[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memPets) List(context.Context, domain.PetFilter) ([]*domain.Pet, error) {
	out := make([]*domain.Pet, 0, len(r.pets))
	for _, p := range r.pets {
		out = append(out, p)
	}
	return out, nil
}

// memMessages keeps insertion order so ties on created_at resolve the way
// the SQL stores do.
type memMessages struct {
	mu   sync.Mutex
	msgs []domain.Message
	err  error
}

func (r *memMessages) Create(_ context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, *m)
	return nil
}

func (r *memMessages) ListForUser(_ context.Context, userID string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Message, 0)
	for i := len(r.msgs) - 1; i >= 0; i-- {
		m := r.msgs[i]
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, &m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memMessages) ListBetween(_ context.Context, a, b, petID string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Message, 0)
	for _, m := range r.msgs {
		pair := (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
		if !pair || (petID != "" && m.PetID != petID) {
			continue
		}
		m := m
		out = append(out, &m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memMessages) MarkRead(_ context.Context, from, to, petID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.msgs {
		m := &r.msgs[i]
		if m.SenderID == from && m.ReceiverID == to && !m.Read && (petID == "" || m.PetID == petID) {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (r *memMessages) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type memNotifications struct {
	mu     sync.Mutex
	list   []domain.Notification
	err    error
	writes int
}

func (r *memNotifications) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.list = append(r.list, *n)
	return nil
}

func (r *memNotifications) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.list {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memNotifications) ListForRecipient(_ context.Context, recipientID string) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Notification, 0)
	for i := len(r.list) - 1; i >= 0; i-- {
		if n := r.list[i]; n.RecipientID == recipientID {
			out = append(out, &n)
		}
	}
	return out, nil
}

func (r *memNotifications) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.list {
		if r.list[i].ID == id {
			r.list[i].Read = true
			r.writes++
			return nil
		}
	}
	return domain.ErrNotFound
}

type memApplications struct {
	apps []*domain.Application
}

func (r *memApplications) Create(_ context.Context, a *domain.Application) error {
	cp := *a
	r.apps = append(r.apps, &cp)
	return nil
}

func (r *memApplications) GetByID(_ context.Context, id string) (*domain.Application, error) {
	for _, a := range r.apps {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memApplications) FindByPetAndAdopter(_ context.Context, petID, adopterID string) (*domain.Application, error) {
	for _, a := range r.apps {
		if a.PetID == petID && a.AdopterID == adopterID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memApplications) ListByAdopter(_ context.Context, adopterID string) ([]*domain.Application, error) {
	var out []*domain.Application
	for _, a := range r.apps {
		if a.AdopterID == adopterID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memApplications) ListByShelter(_ context.Context, shelterID string) ([]*domain.Application, error) {
	var out []*domain.Application
	for _, a := range r.apps {
		if a.ShelterID == shelterID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memApplications) UpdateStatus(_ context.Context, id string, status domain.ApplicationStatus, at time.Time) error {
	for _, a := range r.apps {
		if a.ID == id {
			a.Status = status
			a.UpdatedAt = at
			return nil
		}
	}
	return domain.ErrNotFound
}

type push struct {
	UserID  string
	Event   string
	Payload any
}

// recordingPusher records pushes and reports a session for every user in online.
type recordingPusher struct {
	mu     sync.Mutex
	online map[string]bool
	pushes []push
}

func newRecordingPusher(online ...string) *recordingPusher {
	p := &recordingPusher{online: make(map[string]bool)}
	for _, id := range online {
		p.online[id] = true
	}
	return p
}

func (p *recordingPusher) PushToUser(_ context.Context, userID, event string, payload any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.online[userID] {
		return 0
	}
	p.pushes = append(p.pushes, push{UserID: userID, Event: event, Payload: payload})
	return 1
}

func (p *recordingPusher) to(userID string) []push {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []push
	for _, ps := range p.pushes {
		if ps.UserID == userID {
			out = append(out, ps)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []service.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev service.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

type fixture struct {
	users         *memUsers
	pets          *memPets
	messages      *memMessages
	notifications *memNotifications
	applications  *memApplications
	pusher        *recordingPusher
	events        *recordingPublisher

	msgSvc   *service.MessageService
	notifSvc *service.NotificationService
	convSvc  *service.ConversationService
	chatSvc  *service.ChatService
	appSvc   *service.ApplicationService
}

func newFixture(t *testing.T, online ...string) *fixture {
	t.Helper()
	log := slogt.New(t)
	v := validator.New()

	f := &fixture{
		users: newMemUsers(
			&domain.User{ID: "alice", Name: "Alice", Email: "alice@example.com", Role: domain.RoleAdopter, IsActive: true},
			&domain.User{ID: "bob", Name: "Bob", Email: "bob@example.com", Role: domain.RoleShelter, IsActive: true},
			&domain.User{ID: "carol", Name: "Carol", Email: "carol@example.com", Role: domain.RoleShelter, IsActive: true},
		),
		pets: newMemPets(
			&domain.Pet{ID: "rex", Name: "Rex", Images: []string{"https://img.example/rex.jpg"}, ShelterID: "bob", Status: domain.PetAvailable},
			&domain.Pet{ID: "tom", Name: "Tom", ShelterID: "bob", Status: domain.PetAvailable},
		),
		messages:      &memMessages{},
		notifications: &memNotifications{},
		applications:  &memApplications{},
		pusher:        newRecordingPusher(online...),
		events:        &recordingPublisher{},
	}

	f.msgSvc = service.NewMessageService(f.messages, nil, v, f.events, log)
	f.msgSvc.Now = stepClock()
	f.notifSvc = service.NewNotificationService(f.notifications, f.pusher, f.events, log)
	f.notifSvc.Now = stepClock()
	f.convSvc = service.NewConversationService(f.msgSvc, f.users, f.pets, log)
	f.chatSvc = service.NewChatService(f.msgSvc, f.notifSvc, f.users, f.pusher, log)
	f.appSvc = service.NewApplicationService(f.applications, f.pets, f.notifSvc, v, f.events, log)
	f.appSvc.Now = stepClock()
	return f
}

func (f *fixture) send(t *testing.T, from, to, pet, content string) *domain.Message {
	t.Helper()
	m, err := f.msgSvc.Append(context.Background(), service.AppendInput{
		SenderID: from, ReceiverID: to, PetID: pet, Content: content,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return m
}
