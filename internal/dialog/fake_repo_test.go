package dialog

import (
	"context"

	"github.com/alekspetrov/standup/internal/team"
)

// fakeRepo is an in-memory Repository for processor tests. It mirrors the
// store's contract exactly, including the untouched pointer on an exhausted
// rotation.
type fakeRepo struct {
	users map[string]*fakeUser
}

type fakeUser struct {
	active  bool
	cur     int
	silence bool
	roster  []team.Person
	creds   map[team.Provider]team.Credentials
	nextID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*fakeUser)}
}

func (f *fakeRepo) user(userID string) *fakeUser {
	return f.users[userID]
}

func (f *fakeRepo) UserExists(_ context.Context, userID string) (bool, error) {
	_, ok := f.users[userID]
	return ok, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, userID string) error {
	if _, ok := f.users[userID]; ok {
		return team.ErrUserExists
	}
	f.users[userID] = &fakeUser{silence: true, creds: make(map[team.Provider]team.Credentials)}
	return nil
}

func (f *fakeRepo) GetTeam(_ context.Context, userID string) ([]team.Person, error) {
	return append([]team.Person(nil), f.users[userID].roster...), nil
}

func (f *fakeRepo) GetTeamMemberAt(_ context.Context, userID string, i int) (team.Person, error) {
	u := f.users[userID]
	if i < 0 || i >= len(u.roster) {
		return team.Person{}, team.ErrNotFound
	}
	return u.roster[i], nil
}

func (f *fakeRepo) AddTeamMember(_ context.Context, userID string, p team.Person) error {
	u := f.users[userID]
	u.nextID++
	p.ID = u.nextID
	u.roster = append(u.roster, p)
	return nil
}

func (f *fakeRepo) DeleteTeamMember(_ context.Context, userID string, p team.Person) (bool, error) {
	u := f.users[userID]
	for i, member := range u.roster {
		if member.FirstName == p.FirstName && member.LastName == p.LastName {
			u.roster = append(u.roster[:i], u.roster[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CleanTeam(_ context.Context, userID string) error {
	f.users[userID].roster = nil
	return nil
}

func (f *fakeRepo) StartStandup(_ context.Context, userID string) error {
	f.users[userID].active = true
	return nil
}

func (f *fakeRepo) ResetUser(_ context.Context, userID string) error {
	u := f.users[userID]
	u.active = false
	u.cur = 0
	for i := range u.roster {
		u.roster[i].LastTheme = ""
	}
	return nil
}

func (f *fakeRepo) StandupActive(_ context.Context, userID string) (bool, error) {
	u, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	return u.active, nil
}

func (f *fakeRepo) CallNextSpeaker(_ context.Context, userID string) (team.Person, error) {
	u := f.users[userID]
	if u.cur >= len(u.roster) {
		return team.Person{}, team.ErrNotFound
	}
	speaker := u.roster[u.cur]
	u.cur++
	return speaker, nil
}

func (f *fakeRepo) SetThemeForSpeakerAt(_ context.Context, userID string, i int, theme string) error {
	u := f.users[userID]
	if i < 0 || i >= len(u.roster) {
		return team.ErrNotFound
	}
	u.roster[i].LastTheme = theme
	return nil
}

func (f *fakeRepo) SetThemeForCurrentSpeaker(ctx context.Context, userID, theme string) error {
	return f.SetThemeForSpeakerAt(ctx, userID, f.users[userID].cur-1, theme)
}

func (f *fakeRepo) GetTeamThemes(_ context.Context, userID string) ([]team.Person, error) {
	return append([]team.Person(nil), f.users[userID].roster...), nil
}

func (f *fakeRepo) Credentials(_ context.Context, userID string, provider team.Provider) (team.Credentials, error) {
	c, ok := f.users[userID].creds[provider]
	if !ok {
		return team.Credentials{}, team.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) RegisterCredentials(_ context.Context, userID string, c team.Credentials) error {
	f.users[userID].creds[c.Provider] = c
	return nil
}

func (f *fakeRepo) SetSilence(_ context.Context, userID string, enabled bool) error {
	f.users[userID].silence = enabled
	return nil
}

func (f *fakeRepo) SilenceEnabled(_ context.Context, userID string) (bool, error) {
	return f.users[userID].silence, nil
}

var _ team.Repository = (*fakeRepo)(nil)
