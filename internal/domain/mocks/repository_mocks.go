package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/human-centric-engineering/sunrise/internal/domain"
)

// MockUserRepository is a mock implementation of domain.UserRepository for testing.
type MockUserRepository struct {
	mu        sync.Mutex
	Users     []domain.User
	CreateErr error
	GetErr    error
	ListErr   error
	UpdateErr error
}

func (m *MockUserRepository) Create(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, u := range m.Users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	m.Users = append(m.Users, user)
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return domain.User{}, m.GetErr
	}
	for _, u := range m.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return domain.User{}, m.GetErr
	}
	for _, u := range m.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]domain.User(nil), m.Users...), nil
}

func (m *MockUserRepository) Update(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for i, u := range m.Users {
		if u.ID == user.ID {
			m.Users[i] = user
			return nil
		}
	}
	return domain.ErrNotFound
}

// MockFlagRepository is a mock implementation of domain.FlagRepository for testing.
type MockFlagRepository struct {
	mu        sync.Mutex
	Flags     map[string]domain.FeatureFlag
	GetErr    error
	UpsertErr error
	ListErr   error
}

func (m *MockFlagRepository) Get(ctx context.Context, key string) (domain.FeatureFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return domain.FeatureFlag{}, m.GetErr
	}
	flag, ok := m.Flags[key]
	if !ok {
		return domain.FeatureFlag{}, domain.ErrNotFound
	}
	return flag, nil
}

func (m *MockFlagRepository) Upsert(ctx context.Context, flag domain.FeatureFlag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	if m.Flags == nil {
		m.Flags = make(map[string]domain.FeatureFlag)
	}
	m.Flags[flag.Key] = flag
	return nil
}

func (m *MockFlagRepository) List(ctx context.Context) ([]domain.FeatureFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	flags := make([]domain.FeatureFlag, 0, len(m.Flags))
	for _, flag := range m.Flags {
		flags = append(flags, flag)
	}
	return flags, nil
}

// MockSessionStore is a mock implementation of domain.SessionStore for testing.
type MockSessionStore struct {
	mu        sync.Mutex
	Sessions  map[string]domain.Session
	LastTTL   time.Duration
	SaveErr   error
	GetErr    error
	DeleteErr error
}

func (m *MockSessionStore) Save(ctx context.Context, session domain.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.Sessions == nil {
		m.Sessions = make(map[string]domain.Session)
	}
	m.Sessions[session.Token] = session
	m.LastTTL = ttl
	return nil
}

func (m *MockSessionStore) Get(ctx context.Context, token string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return domain.Session{}, m.GetErr
	}
	session, ok := m.Sessions[token]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Sessions, token)
	return nil
}

// MockMailer is a mock implementation of domain.Mailer for testing.
type MockMailer struct {
	mu      sync.Mutex
	Sent    []domain.Email
	SendErr error
}

func (m *MockMailer) Send(ctx context.Context, email domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, email)
	return nil
}

// SentCount is safe to call while a background send may still be running.
func (m *MockMailer) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockLogSink is a mock implementation of domain.LogSink for testing.
type MockLogSink struct {
	mu        sync.Mutex
	Published []domain.LogEntry
}

func (m *MockLogSink) Publish(entry domain.LogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, entry)
}

func (m *MockLogSink) PublishedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published)
}
