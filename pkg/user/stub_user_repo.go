package user

import (
	"context"
	"sync"
)

type StubUserRepository struct {
	mu     sync.RWMutex
	nextId int
	data   map[int]User
	tokens map[string]int
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{nextId: 2, data: map[int]User{}, tokens: map[string]int{}}
}

func (s *StubUserRepository) CreateUser(ctx context.Context, user User, tokenHash string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	user.Id = s.nextId
	s.data[user.Id] = user
	s.tokens[tokenHash] = user.Id
	return user.Id, nil
}

func (s *StubUserRepository) GetUser(ctx context.Context, id int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *StubUserRepository) GetUserByTokenHash(ctx context.Context, tokenHash string) (User, error) {
	s.mu.RLock()
	id, ok := s.tokens[tokenHash]
	s.mu.RUnlock()
	if !ok {
		return User{}, ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *StubUserRepository) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data[userId]
	if !ok {
		return User{}, ErrUserNotFound
	}
	existing.DisplayName = user.DisplayName
	existing.Settings = user.Settings
	s.data[userId] = existing
	return existing, nil
}

func (s *StubUserRepository) UpdateSubscription(ctx context.Context, userId int, status SubscriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data[userId]
	if !ok {
		return ErrUserNotFound
	}
	existing.Subscription = status
	s.data[userId] = existing
	return nil
}

func (s *StubUserRepository) UpdateTokenHash(ctx context.Context, userId int, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[userId]; !ok {
		return ErrUserNotFound
	}
	for hash, id := range s.tokens {
		if id == userId {
			delete(s.tokens, hash)
		}
	}
	s.tokens[tokenHash] = userId
	return nil
}

func (s *StubUserRepository) DeleteUser(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.data, id)
	for hash, userId := range s.tokens {
		if userId == id {
			delete(s.tokens, hash)
		}
	}
	return nil
}

func (s *StubUserRepository) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.data {
		if user.Username == username {
			return false, nil
		}
	}
	return true, nil
}
