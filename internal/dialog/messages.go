package dialog

import "regexp"

// User-facing phrasing. The skill speaks Russian; the literals here are the
// product text, so tests compare against them verbatim.
const (
	msgUnauthorized = "Привет. К сожалению, я не могу работать с неавторизованными пользователями. " +
		"Пожалуйста, зайдите в свой аккаунт и попробуйте снова"

	msgHelp = "Привет. Я могу помочь провести стендап, но для начала мне нужно узнать " +
		"участников команды. Для этого можно сказать \"Добавь в команду ИМЯ\". " +
		"Если не получается распознать имя, то можно воспользоваться командой " +
		"\"Добавь в команду человека с именем ИМЯ и фамилией ФАМИЛИЯ\". " +
		"Чтобы посмотреть текущий состав команды можно сказать \"Напомни команду\". " +
		"После того, как все люди будут добавлены - можно будет начинать стендап " +
		"командами \"Начни стендап\" или \"Проведи стендап\". Я буду вызывать участников по очереди. " +
		"Когда участник закончит, нужно сказать \"у меня всё\", и я вызову следующего, " +
		"или \"продолжить\", чтобы дать ему ещё время. " +
		"В этот момент можно сказать \"запомни тему ТЕМА\" - темы будут повторены по окончанию стендапа. " +
		"Отсутствующего участника можно пропустить командой \"его сегодня нет\" или \"её сегодня нет\""

	msgUnknownCommand = "Неизвестная команда. Если нужна подсказка, то есть команда \"помощь\""

	msgNameNotRecognized = "К сожалению я не смогла распознать имя, попробуйте ещё раз"

	msgBadFormat = "Неправильный формат"

	msgStandupLeftActive = "\nВы остались в состоянии проведения стендапа в прошлый раз. " +
		"Чтобы выйти из этого состояния, скажите \"закончить стендап\""

	msgStandupStart    = "Хорошо, начинаю.\n"
	msgStandupStartTTS = "хорошо , начинаю ."

	msgSkip    = "Хорошо, пропускаю.\n"
	msgSkipTTS = "хорошо , пропускаю ."

	msgLastMember = "Это был последний участник команды"
	msgFarewell   = ".\nХорошего вам дня."

	msgStandupHelp = "Не смогла распознать команду. Во время проведения стендапа могу " +
		"распознать следующие команды: \"у меня всё\", \"продолжить\", " +
		"\"его|её сегодня нет\", \"запомни тему ТЕМА\", \"закончи стендап\""

	msgGitHubNotConfigured = "Пожалуйста предоставьте свой логин, название репозитория и installation id. " +
		"Это сделать можно воспользовавшись командой \"Запомни гитхаб ЛОГИН РЕПО INSTALLATION_ID\""

	msgTrackerNotConfigured = "Пожалуйста предоставьте организацию и очередь. " +
		"Это сделать можно воспользовавшись командой \"Запомни трекер ОРГАНИЗАЦИЯ ОЧЕРЕДЬ\""

	msgLinkingComplete = "Авторизация прошла успешно. Теперь я могу работать с трекером"

	// ttsEnd reminds the speaker how to hand the turn back; appended to
	// every spoken prompt during a standup.
	ttsEnd = "если вы закончили , скажите \" у меня всё \" , иначе скажите \" продолжить \" "
)

var greetings = []string{"Привет", "Добрый день", "Здравствуйте"}

// Command prefixes carrying free-text or case-sensitive arguments.
const (
	themePrefix          = "запомни тему "
	githubPrefix         = "запомни гитхаб"
	trackerPrefix        = "запомни трекер"
	addByNamePrefix      = "добавь в команду человека с именем"
	firstNameMarker      = " с именем "
	lastNameMarker       = " и фамилией "
	cmdHelp              = "помощь"
	cmdRemindTeam        = "напомни команду"
	cmdCleanTeam         = "очисти команду"
	cmdContinue          = "продолжить"
	cmdEnableSilence     = "включи тишину"
	cmdDisableSilence    = "выключи тишину"
	cmdListIssuesGitHub  = "покажи тикеты гитхаб"
	cmdListIssuesTracker = "покажи тикеты трекер"
)

var (
	beginStandupRe = regexp.MustCompile(`^(начать|начни|проведи) (стендап|стенд ап|standup|stand up)`)
	endStandupRe   = regexp.MustCompile(`^за(кончи|верши)(ть)? (стендап|стенд ап|standup|stand up)`)
	skipPersonRe   = regexp.MustCompile(`^е(го|ё) ((сегодня|сейчас) )?(нет|не будет)`)
	closeIssueRe   = regexp.MustCompile(`^закрой (тикет|задачу) (\d+) (гитхаб|трекер)$`)
)

func isNextSpeakerCommand(cmd string) bool {
	return cmd == "у меня все" || cmd == "у меня всё"
}
