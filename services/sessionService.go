package services

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"disha/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionService holds one conversation per student for the life of the
// process. Sessions are never evicted or persisted.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	now      func() time.Time
}

func NewSessionService() *SessionService {
	return &SessionService{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

// Start replaces any existing session for the student with a fresh one
// seeded by the system prompt.
func (s *SessionService) Start(studentID string, profile models.Profile, systemPrompt string) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session := &models.Session{
		StudentID: studentID,
		Profile:   profile,
		Messages:  []models.Message{{Role: models.RoleSystem, Content: systemPrompt}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[studentID] = session

	log.Printf("[INFO] Started session for student %s", studentID)
	return cloneSession(session)
}

// Get returns a copy of the session so callers never share the backing slice.
func (s *SessionService) Get(studentID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[studentID]
	if !ok {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrSessionNotFound)
	}
	return cloneSession(session), nil
}

func (s *SessionService) Append(studentID string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[studentID]
	if !ok {
		return fmt.Errorf("student %s: %w", studentID, ErrSessionNotFound)
	}

	session.Messages = append(session.Messages, msg)
	if msg.Role == models.RoleAssistant {
		session.Questions++
	}
	session.UpdatedAt = s.now()
	return nil
}

// PopLast removes the final message if it has the given role. It is used to
// roll back a user turn whose completion failed.
func (s *SessionService) PopLast(studentID, role string) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[studentID]
	if !ok || len(session.Messages) == 0 {
		return models.Message{}, false
	}

	last := session.Messages[len(session.Messages)-1]
	if last.Role != role {
		return models.Message{}, false
	}

	session.Messages = session.Messages[:len(session.Messages)-1]
	session.UpdatedAt = s.now()
	return last, true
}

func (s *SessionService) Reset(studentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[studentID]
	delete(s.sessions, studentID)
	if ok {
		log.Printf("[INFO] Reset session for student %s", studentID)
	}
	return ok
}

func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func cloneSession(session *models.Session) *models.Session {
	c := *session
	c.Messages = slices.Clone(session.Messages)
	return &c
}
