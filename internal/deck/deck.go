package deck

import (
	"errors"

	"pomodisc/backend/internal/media"
	"pomodisc/backend/internal/model"
)

var (
	ErrUnknownDeck   = errors.New("unknown deck")
	ErrUnknownSource = errors.New("unknown audio source")
	ErrUnknownTrack  = errors.New("unknown library track")
)

// deck is the playback slot of one session type.
type deck struct {
	sessionType model.SessionType
	source      model.SourceKind
	url         string
	videoID     string
	urlError    string
	trackID     string

	// player is nil unless created.
	player  media.Player
	created bool
	// volume is the last level sent to player, -1 when unknown.
	volume int
}

func (d *deck) reference(catalog *media.Catalog) media.Reference {
	if d.source == model.SourceLibrary {
		return catalog.Reference(d.trackID)
	}
	return media.Reference{Kind: model.SourceYouTube, ID: d.videoID}
}

func (d *deck) view(active bool) model.DeckView {
	v := model.DeckView{
		SessionType:    d.sessionType,
		SourceKind:     d.source,
		URL:            d.url,
		LibraryTrackID: d.trackID,
		Created:        d.created,
		Active:         active,
	}
	if d.videoID != "" {
		id := d.videoID
		v.VideoID = &id
	}
	if d.urlError != "" {
		msg := d.urlError
		v.URLError = &msg
	}
	return v
}

// parseURL applies the reference rules to raw input: blank clears, invalid
// input yields the validation message.
func parseURL(raw string) (videoID, urlError string) {
	id, err := media.ParseVideoID(raw)
	if err != nil {
		return "", media.InvalidURLMessage
	}
	return id, ""
}
