package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alekspetrov/standup/internal/alice"
	"github.com/alekspetrov/standup/internal/team"
)

// startStandup transitions the user to the active state and immediately
// calls the first speaker, so the starting turn already names somebody (or,
// for an empty roster, ends the standup in the same turn).
func (p *Processor) startStandup(ctx context.Context, userID string, resp *alice.Response) error {
	resp.SetText(msgStandupStart)
	resp.SetTTS(msgStandupStartTTS)
	if err := p.repo.StartStandup(ctx, userID); err != nil {
		return err
	}
	p.logger.Info("standup started", "user_id", userID)
	return p.callNext(ctx, userID, resp)
}

// standupMode handles a turn while a standup is running. Recognized
// phrasings, by priority: end of one's turn, a topic to remember, ending the
// standup, a filler "continue", skipping an absent person, otherwise the
// in-standup help.
func (p *Processor) standupMode(ctx context.Context, turn *alice.Turn, resp *alice.Response) error {
	userID := turn.UserID()
	cmd := turn.Command()

	switch {
	case isNextSpeakerCommand(cmd):
		return p.callNext(ctx, userID, resp)

	case strings.HasPrefix(cmd, themePrefix):
		return p.addTheme(ctx, userID, cmd[len(themePrefix):], resp)

	case endStandupRe.MatchString(cmd):
		return p.endStandup(ctx, userID, resp)

	case cmd == cmdContinue:
		// Not a command, just the speaker buying time.
		resp.SetText(" ")
		cue, err := p.silence(ctx, userID)
		if err != nil {
			return err
		}
		resp.SetTTS(cue + ttsEnd)
		return nil

	case skipPersonRe.MatchString(cmd):
		resp.SetText(msgSkip)
		resp.SetTTS(msgSkipTTS)
		return p.callNext(ctx, userID, resp)

	default:
		resp.SetText(msgStandupHelp)
		return nil
	}
}

// callNext advances the rotation by one speaker. The repository performs the
// read-fetch-increment atomically; ErrNotFound is the expected signal that
// the rotation is exhausted and the standup should end.
func (p *Processor) callNext(ctx context.Context, userID string, resp *alice.Response) error {
	speaker, err := p.repo.CallNextSpeaker(ctx, userID)
	if errors.Is(err, team.ErrNotFound) {
		return p.endStandup(ctx, userID, resp)
	}
	if err != nil {
		return err
	}

	prompt := speaker.DisplayName() + ", расскажи о прошедшем дне"
	resp.AppendText(prompt)
	resp.AppendTTS(prompt)
	cue, err := p.silence(ctx, userID)
	if err != nil {
		return err
	}
	resp.AppendTTS(" " + cue + ttsEnd)
	return nil
}

// endStandup builds the closing message with the recorded topics, ends the
// session and resets the user's persisted standup state. Spoken-form text
// staged earlier this turn is dropped: the farewell is text-only.
func (p *Processor) endStandup(ctx context.Context, userID string, resp *alice.Response) error {
	resp.SetText(msgLastMember)

	people, err := p.repo.GetTeamThemes(ctx, userID)
	if err != nil {
		return err
	}
	var themes []string
	for _, person := range people {
		if person.LastTheme != "" {
			themes = append(themes, fmt.Sprintf("у %s была тема %q", person.DisplayName(), person.LastTheme))
		}
	}
	if len(themes) > 0 {
		resp.AppendText(". Сегодня " + strings.Join(themes, ", "))
	}
	resp.AppendText(msgFarewell)
	resp.EndSession()
	resp.DropTTS()

	if err := p.repo.ResetUser(ctx, userID); err != nil {
		return err
	}
	p.logger.Info("standup finished", "user_id", userID, "themes", len(themes))
	return nil
}

// addTheme records a topic for the speaker most recently called, which is
// the one at cur_speaker-1: the pointer already advanced past them.
func (p *Processor) addTheme(ctx context.Context, userID, theme string, resp *alice.Response) error {
	if err := p.repo.SetThemeForCurrentSpeaker(ctx, userID, theme); err != nil {
		if !errors.Is(err, team.ErrNotFound) {
			return err
		}
		resp.SetText(msgStandupHelp)
		return nil
	}
	resp.SetText(fmt.Sprintf("Запомнила тему %q", theme))
	cue, err := p.silence(ctx, userID)
	if err != nil {
		return err
	}
	resp.SetTTS(fmt.Sprintf("запомнила тему %s . %s%s", theme, cue, ttsEnd))
	return nil
}

// silence returns the filler audio cue with a trailing space, or the empty
// string when the user disabled it.
func (p *Processor) silence(ctx context.Context, userID string) (string, error) {
	if p.silenceCue == "" {
		return "", nil
	}
	enabled, err := p.repo.SilenceEnabled(ctx, userID)
	if err != nil {
		return "", err
	}
	if !enabled {
		return "", nil
	}
	return p.silenceCue + " ", nil
}
