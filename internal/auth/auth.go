// Package auth gates the Telegram surface: only allowlisted candidates can
// run interviews, and an admin can grant or revoke access at runtime.
package auth

// Candidate is an allowlisted Telegram user.
type Candidate struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Repository interface {
	LoadAll() ([]Candidate, error)
	Upsert(c Candidate) error
	Remove(id int64) error
}

// Service keeps the allowlist in memory and mirrors changes to the
// repository. An empty allowlist means open access.
type Service struct {
	repo    Repository
	allowed map[int64]Candidate
	adminID int64
}

func New(repo Repository, initial []int64, adminID int64) (*Service, error) {
	s := &Service{repo: repo, allowed: make(map[int64]Candidate), adminID: adminID}
	if repo != nil {
		cs, err := s.repo.LoadAll()
		if err != nil {
			return nil, err
		}
		for _, c := range cs {
			s.allowed[c.ID] = c
		}
	}
	// ids configured via env have no profile details yet
	for _, id := range initial {
		if _, ok := s.allowed[id]; !ok {
			s.allowed[id] = Candidate{ID: id}
		}
	}
	return s, nil
}

func (s *Service) IsAllowed(userID int64) bool {
	if len(s.allowed) == 0 {
		return true
	}
	if userID == s.adminID {
		return true
	}
	_, ok := s.allowed[userID]
	return ok
}

func (s *Service) IsAdmin(userID int64) bool {
	return s.adminID != 0 && userID == s.adminID
}

// Grant adds a candidate to the allowlist, refreshing profile details on
// repeat grants.
func (s *Service) Grant(c Candidate) error {
	s.allowed[c.ID] = c
	if s.repo != nil {
		return s.repo.Upsert(c)
	}
	return nil
}

func (s *Service) Revoke(userID int64) error {
	delete(s.allowed, userID)
	if s.repo != nil {
		return s.repo.Remove(userID)
	}
	return nil
}

func (s *Service) Candidates() []Candidate {
	out := make([]Candidate, 0, len(s.allowed))
	for _, c := range s.allowed {
		out = append(out, c)
	}
	return out
}
