package playback

import (
	"fmt"
	"strings"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
)

// Origin — источник команды управления.
type Origin string

const (
	OriginUI     Origin = "ui"
	OriginRemote Origin = "remote"
	OriginSystem Origin = "system"
)

// RemoteCommand — команда транспортного управления от ОС.
type RemoteCommand int

const (
	RemotePlay RemoteCommand = iota + 1
	RemotePause
	RemoteStop
	RemoteNext
	RemotePrevious
)

var remoteNames = map[RemoteCommand]string{
	RemotePlay:     "play",
	RemotePause:    "pause",
	RemoteStop:     "stop",
	RemoteNext:     "next",
	RemotePrevious: "previous",
}

func (c RemoteCommand) String() string {
	if n, ok := remoteNames[c]; ok {
		return n
	}
	return "unknown"
}

// ParseRemoteCommand разбирает имя команды: play, pause, stop, next, previous.
func ParseRemoteCommand(s string) (RemoteCommand, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, n := range remoteNames {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown remote command %q", s)
}

// Event — событие медиасессии.
type Event interface {
	Name() string
	playbackEvent()
}

// PlayRequested — запрос на воспроизведение урока, уже прошедшего проверку доступа.
type PlayRequested struct {
	Item models.ContentItem
}

// Loaded — медиасессия загрузила ресурс.
type Loaded struct{ Handle Handle }

// Finished — воспроизведение дошло до конца.
type Finished struct{ Handle Handle }

// Failed — медиасессия сообщила об ошибке.
type Failed struct {
	Handle Handle
	Err    error
}

// PauseRequested, ResumeRequested и StopRequested описывают команды управления.
type PauseRequested struct{ Origin Origin }

type ResumeRequested struct{ Origin Origin }

type StopRequested struct{ Origin Origin }

// Settled переводит Stopped в Idle.
type Settled struct{ Handle Handle }

// RemoteReceived — команда от ОС, пришедшая независимо от интерфейса.
type RemoteReceived struct{ Command RemoteCommand }

func (PlayRequested) Name() string   { return "playback.play_requested" }
func (Loaded) Name() string          { return "playback.loaded" }
func (Finished) Name() string        { return "playback.finished" }
func (Failed) Name() string          { return "playback.failed" }
func (PauseRequested) Name() string  { return "playback.pause_requested" }
func (ResumeRequested) Name() string { return "playback.resume_requested" }
func (StopRequested) Name() string   { return "playback.stop_requested" }
func (Settled) Name() string         { return "playback.settled" }
func (RemoteReceived) Name() string  { return "playback.remote_received" }

func (PlayRequested) playbackEvent()   {}
func (Loaded) playbackEvent()          {}
func (Finished) playbackEvent()        {}
func (Failed) playbackEvent()          {}
func (PauseRequested) playbackEvent()  {}
func (ResumeRequested) playbackEvent() {}
func (StopRequested) playbackEvent()   {}
func (Settled) playbackEvent()         {}
func (RemoteReceived) playbackEvent()  {}

// Op — операция над медиасессией.
type Op int

const (
	OpLoad Op = iota + 1
	OpPlay
	OpPause
	OpStop
)

func (o Op) String() string {
	switch o {
	case OpLoad:
		return "load"
	case OpPlay:
		return "play"
	case OpPause:
		return "pause"
	case OpStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Command — вызов медиасессии, который слой эффектов выполняет после перехода.
type Command struct {
	Op     Op
	Handle Handle
	Item   models.ContentItem // только для OpLoad
}
