package match

import "context"

// Service answers match requests for a requester id.
type Service struct {
	users   UserLookup
	matcher *Matcher
}

// NewService wires a lookup for requesters to a Matcher.
func NewService(users UserLookup, m *Matcher) *Service {
	return &Service{users: users, matcher: m}
}

// GetMatches loads the requester and ranks candidates for them.
func (s *Service) GetMatches(ctx context.Context, requesterID, limit int) ([]Result, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	requester, err := s.users.User(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return s.matcher.FindMatches(ctx, requester, limit)
}
