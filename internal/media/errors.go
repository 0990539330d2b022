package media

import "pomodisc/backend/internal/model"

// CodeTrackUnavailable is reported by library players whose file could not be
// decoded.
const CodeTrackUnavailable = 1

// ErrorMessage maps a backend error code to the text shown to the user.
func ErrorMessage(kind model.SourceKind, code int) string {
	if kind == model.SourceLibrary {
		if code == CodeTrackUnavailable {
			return "This track could not be loaded. Please pick another."
		}
		return "An unknown playback error occurred."
	}

	switch code {
	case 2:
		return "Invalid video URL parameter."
	case 5:
		return "This video cannot be played. Please try another."
	case 100:
		return "Video not found. It may be private or deleted."
	case 101, 150:
		return "This video cannot be embedded. Please try a different URL."
	default:
		return "An unknown playback error occurred."
	}
}
