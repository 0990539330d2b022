// Package media defines the command surface every playback backend offers a
// deck, and the references decks play.
package media

import "pomodisc/backend/internal/model"

// Reference names the media a deck plays. For remote video ID is the video
// id; for library tracks ID is the track id and Src the file to decode.
type Reference struct {
	Kind model.SourceKind
	ID   string
	Src  string
}

func (r Reference) Valid() bool {
	return r.ID != ""
}

// Player is one deck's playback handle. Calls never block and never fail;
// backend failures arrive later through the onError callback the player was
// built with.
type Player interface {
	// Create (re)builds the backend handle for ref. Nothing plays until Play.
	Create(ref Reference)
	// Load swaps the media without recreating the handle.
	Load(ref Reference)
	Play()
	Pause()
	Stop()
	// SetVolume takes 0 to 100; out of range values are clamped.
	SetVolume(volume int)
	SeekToStart()
	Destroy()
}

// Factory builds players for one source kind.
type Factory interface {
	Kind() model.SourceKind
	// Ready reports whether players can be created yet.
	Ready() bool
	NewPlayer(deck model.SessionType, onError func(code int)) Player
}

// ClampVolume bounds v to [0, 100].
func ClampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
