// Package dialog implements the per-turn state machine of the standup skill:
// it classifies an incoming turn against the user's persisted session state,
// mutates that state through the team repository and produces the response
// utterance.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"

	"github.com/alekspetrov/standup/internal/alice"
	"github.com/alekspetrov/standup/internal/team"
	"github.com/alekspetrov/standup/internal/tracker"
)

// Processor drives one dialog turn to completion. Safe for concurrent use;
// all per-user state lives in the repository.
type Processor struct {
	repo       team.Repository
	trackers   *tracker.Registry
	silenceCue string
	logger     *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithSilenceCue sets the filler audio fragment appended to spoken prompts
// while the skill waits for the speaker.
func WithSilenceCue(cue string) Option {
	return func(p *Processor) { p.silenceCue = cue }
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// NewProcessor creates a turn processor over the given repository and
// tracker registry.
func NewProcessor(repo team.Repository, trackers *tracker.Registry, opts ...Option) *Processor {
	p := &Processor{
		repo:     repo,
		trackers: trackers,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HandleTurn processes one normalized turn and returns the response
// envelope. Branches are evaluated in a fixed priority order and each
// returns immediately. Repository failures propagate; the transport answers
// those with a platform-level failure instead of a partial response.
func (p *Processor) HandleTurn(ctx context.Context, turn *alice.Turn) (*alice.Response, error) {
	resp := turn.NewResponse()

	if !turn.IsAuthorized() {
		resp.SetText(msgUnauthorized)
		resp.EndSession()
		return resp, nil
	}

	if turn.IsAccountLinkingComplete() {
		resp.SetText(msgLinkingComplete)
		return resp, nil
	}

	userID := turn.UserID()

	exists, err := p.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := p.repo.CreateUser(ctx, userID); err != nil {
			return nil, err
		}
		p.logger.Info("created user session", "user_id", userID)
		resp.SetText(msgHelp)
		return resp, nil
	}

	if turn.IsNewSession() {
		return resp, p.returningGreeting(ctx, userID, resp)
	}

	cmd := turn.Command()

	if cmd == cmdListIssuesGitHub || cmd == cmdListIssuesTracker {
		provider := team.ProviderGitHub
		if cmd == cmdListIssuesTracker {
			provider = team.ProviderTracker
		}
		return resp, p.listIssues(ctx, turn, provider, resp)
	}
	if m := closeIssueRe.FindStringSubmatch(cmd); m != nil {
		number, err := strconv.Atoi(m[2])
		if err != nil {
			resp.SetText(msgBadFormat)
			return resp, nil
		}
		provider := team.ProviderGitHub
		if m[3] == "трекер" {
			provider = team.ProviderTracker
		}
		return resp, p.closeIssue(ctx, turn, provider, number, resp)
	}

	active, err := p.repo.StandupActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active {
		return resp, p.standupMode(ctx, turn, resp)
	}

	if strings.HasPrefix(cmd, githubPrefix) {
		return resp, p.registerGitHub(ctx, userID, turn.OriginalUtterance(), resp)
	}
	if strings.HasPrefix(cmd, trackerPrefix) {
		return resp, p.registerTracker(ctx, userID, turn.OriginalUtterance(), resp)
	}

	if intent, ok := turn.Intents()[alice.IntentNewMember]; ok {
		return resp, p.addTeamMember(ctx, userID, slotName(intent), resp)
	}
	if strings.HasPrefix(cmd, addByNamePrefix) {
		return resp, p.addTeamMemberFallback(ctx, userID, cmd, resp)
	}
	if intent, ok := turn.Intents()[alice.IntentDelMember]; ok {
		return resp, p.delTeamMember(ctx, userID, slotName(intent), resp)
	}

	switch cmd {
	case cmdRemindTeam:
		return resp, p.remindTeam(ctx, userID, resp)
	case cmdHelp:
		resp.SetText(msgHelp)
		return resp, nil
	case cmdCleanTeam:
		if err := p.repo.CleanTeam(ctx, userID); err != nil {
			return nil, err
		}
		resp.SetText("Хорошо, удалила всех из команды")
		return resp, nil
	case cmdEnableSilence, cmdDisableSilence:
		enabled := cmd == cmdEnableSilence
		if err := p.repo.SetSilence(ctx, userID, enabled); err != nil {
			return nil, err
		}
		if enabled {
			resp.SetText("Хорошо, включаю тишину")
		} else {
			resp.SetText("Хорошо, выключаю тишину")
		}
		return resp, nil
	}

	if beginStandupRe.MatchString(cmd) {
		return resp, p.startStandup(ctx, userID, resp)
	}

	resp.SetText(msgUnknownCommand)
	return resp, nil
}

// returningGreeting welcomes a known user back, lists the roster and, when a
// standup was left active by a previous session, hints how to end it. Never
// mutates state.
func (p *Processor) returningGreeting(ctx context.Context, userID string, resp *alice.Response) error {
	greeting := greetings[rand.Intn(len(greetings))]
	resp.SetText(greeting + ".")

	people, err := p.repo.GetTeam(ctx, userID)
	if err != nil {
		return err
	}
	if len(people) > 0 {
		resp.AppendText("\nТвоя команда: " + team.JoinNames(people))
	}

	active, err := p.repo.StandupActive(ctx, userID)
	if err != nil {
		return err
	}
	if active {
		resp.AppendText(msgStandupLeftActive)
	}
	return nil
}

func (p *Processor) remindTeam(ctx context.Context, userID string, resp *alice.Response) error {
	people, err := p.repo.GetTeam(ctx, userID)
	if err != nil {
		return err
	}
	resp.SetText("Твоя команда: " + team.JoinNames(people))
	return nil
}

// slotName extracts the first/last name pair from a recognized intent.
func slotName(intent alice.Intent) team.Person {
	slot, ok := intent.Slots["name"]
	if !ok {
		return team.Person{}
	}
	return team.Person{FirstName: slot.Value.FirstName, LastName: slot.Value.LastName}
}

func (p *Processor) addTeamMember(ctx context.Context, userID string, person team.Person, resp *alice.Response) error {
	if person.FirstName == "" {
		resp.SetText(msgNameNotRecognized)
		return nil
	}
	if err := p.repo.AddTeamMember(ctx, userID, person); err != nil {
		return err
	}
	p.logger.Info("added team member", "user_id", userID, "first_name", person.FirstName, "last_name", person.LastName)
	resp.SetText(addedMessage(person))
	return nil
}

// addTeamMemberFallback parses the free-text grammar "добавь в команду
// человека с именем ИМЯ [и фамилией ФАМИЛИЯ]" for names the platform's
// recognizer could not resolve into an intent.
func (p *Processor) addTeamMemberFallback(ctx context.Context, userID, cmd string, resp *alice.Response) error {
	var person team.Person
	rest := cmd
	if before, after, found := strings.Cut(rest, lastNameMarker); found {
		person.LastName = strings.TrimSpace(after)
		rest = before
	}
	_, after, found := strings.Cut(rest, firstNameMarker)
	if !found || strings.TrimSpace(after) == "" {
		resp.SetText(msgNameNotRecognized)
		return nil
	}
	person.FirstName = strings.TrimSpace(after)

	if err := p.repo.AddTeamMember(ctx, userID, person); err != nil {
		return err
	}
	p.logger.Info("added team member", "user_id", userID, "first_name", person.FirstName, "last_name", person.LastName)
	resp.SetText(addedMessage(person))
	return nil
}

func addedMessage(person team.Person) string {
	if person.LastName != "" {
		return fmt.Sprintf("Запомнила человека %s %s",
			team.Capitalize(person.LastName), team.Capitalize(person.FirstName))
	}
	return "Запомнила человека " + team.Capitalize(person.FirstName)
}

func (p *Processor) delTeamMember(ctx context.Context, userID string, person team.Person, resp *alice.Response) error {
	if person.FirstName == "" {
		resp.SetText(msgNameNotRecognized)
		return nil
	}
	name := strings.TrimSpace(team.Capitalize(person.LastName) + " " + team.Capitalize(person.FirstName))
	found, err := p.repo.DeleteTeamMember(ctx, userID, person)
	if err != nil {
		return err
	}
	if found {
		p.logger.Info("deleted team member", "user_id", userID, "first_name", person.FirstName, "last_name", person.LastName)
		resp.SetText(fmt.Sprintf("Удалила %s из команды", name))
	} else {
		resp.SetText(fmt.Sprintf("Не смогла удалить %s", name))
	}
	return nil
}

// registerGitHub parses "запомни гитхаб <логин> <репо> <installation>" from
// the original utterance, since logins are case-sensitive.
func (p *Processor) registerGitHub(ctx context.Context, userID, utterance string, resp *alice.Response) error {
	fields := strings.Fields(utterance)
	if len(fields) != 5 {
		resp.SetText(msgBadFormat)
		return nil
	}
	creds := team.Credentials{
		Provider:     team.ProviderGitHub,
		Login:        fields[2],
		Repo:         fields[3],
		Installation: fields[4],
	}
	if err := p.repo.RegisterCredentials(ctx, userID, creds); err != nil {
		return err
	}
	resp.SetText(fmt.Sprintf("Успешно запомнила: логин %q, репозиторий %q и installation id %q",
		creds.Login, creds.Repo, creds.Installation))
	resp.SetTTS("Успешно запомнила")
	return nil
}

// registerTracker parses "запомни трекер <организация> <очередь>".
func (p *Processor) registerTracker(ctx context.Context, userID, utterance string, resp *alice.Response) error {
	fields := strings.Fields(utterance)
	if len(fields) != 4 {
		resp.SetText(msgBadFormat)
		return nil
	}
	creds := team.Credentials{
		Provider: team.ProviderTracker,
		Login:    fields[2],
		Repo:     fields[3],
	}
	if err := p.repo.RegisterCredentials(ctx, userID, creds); err != nil {
		return err
	}
	resp.SetText(fmt.Sprintf("Успешно запомнила: организация %q и очередь %q", creds.Login, creds.Repo))
	resp.SetTTS("Успешно запомнила")
	return nil
}

// trackerFor resolves a tracker for the provider. The three failure shapes
// (not configured, not linked, remote failure) each render differently.
func (p *Processor) trackerFor(ctx context.Context, turn *alice.Turn, provider team.Provider, resp *alice.Response) (tracker.Tracker, team.Credentials, bool, error) {
	creds, err := p.repo.Credentials(ctx, turn.UserID(), provider)
	if errors.Is(err, team.ErrNotFound) {
		if provider == team.ProviderGitHub {
			resp.SetText(msgGitHubNotConfigured)
		} else {
			resp.SetText(msgTrackerNotConfigured)
		}
		return nil, team.Credentials{}, false, nil
	}
	if err != nil {
		return nil, team.Credentials{}, false, err
	}

	t, err := p.trackers.For(provider, creds, turn.AccessToken())
	if errors.Is(err, tracker.ErrNoToken) {
		resp.RequestAccountLinking()
		return nil, team.Credentials{}, false, nil
	}
	if err != nil {
		p.logger.Warn("tracker unavailable", "provider", provider, "error", err)
		resp.SetText(requestFailedMessage(provider, creds))
		return nil, team.Credentials{}, false, nil
	}
	return t, creds, true, nil
}

func (p *Processor) listIssues(ctx context.Context, turn *alice.Turn, provider team.Provider, resp *alice.Response) error {
	t, creds, ok, err := p.trackerFor(ctx, turn, provider, resp)
	if !ok || err != nil {
		return err
	}
	issues, err := t.ListIssues(ctx)
	if err != nil {
		resp.SetText(requestFailedMessage(provider, creds))
		return nil
	}
	if len(issues) == 0 {
		resp.SetText("Открытых тикетов нет")
		return nil
	}
	resp.SetText(strings.Join(issues, ", "))
	return nil
}

func (p *Processor) closeIssue(ctx context.Context, turn *alice.Turn, provider team.Provider, number int, resp *alice.Response) error {
	t, creds, ok, err := p.trackerFor(ctx, turn, provider, resp)
	if !ok || err != nil {
		return err
	}
	if err := t.CloseIssue(ctx, number); err != nil {
		resp.SetText(requestFailedMessage(provider, creds))
		return nil
	}
	resp.SetText(fmt.Sprintf("Закрыла тикет %d", number))
	return nil
}

// requestFailedMessage echoes back the configured identifiers so the user
// can self-diagnose; raw transport errors never reach the response.
func requestFailedMessage(provider team.Provider, creds team.Credentials) string {
	if provider == team.ProviderGitHub {
		return fmt.Sprintf("Возникла ошибка в получении тикетов. Возможно это связано с неправильными "+
			"данными. Проверьте данные и попробуйте ещё раз. Логин: %s, репозиторий: %s, "+
			"Installation_id: %s.", creds.Login, creds.Repo, creds.Installation)
	}
	return fmt.Sprintf("Возникла ошибка в работе с трекером. Возможно это связано с неправильными "+
		"данными. Проверьте данные и попробуйте ещё раз. Организация: %s, очередь: %s.",
		creds.Login, creds.Repo)
}
