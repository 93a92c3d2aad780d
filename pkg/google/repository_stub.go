package google

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

type RepositoryStub struct {
	mu      sync.Mutex
	nonces  map[string]int
	tokens  map[int]*oauth2.Token
	exports map[int]map[string]string
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		nonces:  map[string]int{},
		tokens:  map[int]*oauth2.Token{},
		exports: map[int]map[string]string{},
	}
}

func (s *RepositoryStub) StartAuth(ctx context.Context, userId int, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userId)
	s.nonces[nonce] = userId
	return nil
}

func (s *RepositoryStub) CompleteAuth(ctx context.Context, nonce string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userId, ok := s.nonces[nonce]
	if !ok {
		return ErrNonceNotFound
	}
	s.tokens[userId] = token
	return nil
}

func (s *RepositoryStub) GetToken(ctx context.Context, userId int) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[userId], nil
}

func (s *RepositoryStub) DeleteAuth(ctx context.Context, userId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userId)
	for nonce, id := range s.nonces {
		if id == userId {
			delete(s.nonces, nonce)
		}
	}
	return nil
}

func (s *RepositoryStub) SaveExport(ctx context.Context, userId int, recordId, googleEventId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exports[userId] == nil {
		s.exports[userId] = map[string]string{}
	}
	s.exports[userId][recordId] = googleEventId
	return nil
}

func (s *RepositoryStub) FindExport(ctx context.Context, userId int, recordId string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports[userId][recordId], nil
}

func (s *RepositoryStub) DeleteExport(ctx context.Context, userId int, recordId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.exports[userId], recordId)
	return nil
}
