package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"gopkg.in/hraban/opus.v2"

	"pomodisc/backend/internal/audio"
)

// WebRTCHandler answers SDP offers with a peer connection carrying the
// library mix as Opus.
type WebRTCHandler struct {
	frames  *Broadcaster[[]int16]
	bitrate int
	logger  *slog.Logger

	mu    sync.Mutex
	peers map[*webrtc.PeerConnection]struct{}
}

func NewWebRTCHandler(frames *Broadcaster[[]int16], bitrateKbps int, logger *slog.Logger) *WebRTCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebRTCHandler{
		frames:  frames,
		bitrate: bitrateKbps,
		logger:  logger,
		peers:   make(map[*webrtc.PeerConnection]struct{}),
	}
}

func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio",
		"pomodisc-library",
	)
	if err != nil {
		_ = pc.Close()
		http.Error(w, "create audio track failed", http.StatusInternalServerError)
		return
	}
	if _, err := pc.AddTrack(track); err != nil {
		_ = pc.Close()
		http.Error(w, "add track failed", http.StatusInternalServerError)
		return
	}

	if err := pc.SetRemoteDescription(offer); err != nil {
		_ = pc.Close()
		http.Error(w, "set remote description failed", http.StatusBadRequest)
		return
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		_ = pc.Close()
		http.Error(w, "create answer failed", http.StatusInternalServerError)
		return
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		_ = pc.Close()
		http.Error(w, "set local description failed", http.StatusInternalServerError)
		return
	}

	select {
	case <-gatherComplete:
	case <-r.Context().Done():
		_ = pc.Close()
		return
	}

	h.mu.Lock()
	h.peers[pc] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("webrtc peer connected", "peers", h.PeerCount())

	listener := h.frames.Subscribe()
	go h.streamToPeer(listener, track)

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		switch s {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			if h.removePeer(pc) {
				h.frames.Unsubscribe(listener)
				_ = pc.Close()
				h.logger.Info("webrtc peer disconnected", "peers", h.PeerCount())
			}
		}
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(pc.LocalDescription())
}

// Close hangs up every peer.
func (h *WebRTCHandler) Close() {
	h.mu.Lock()
	peers := make([]*webrtc.PeerConnection, 0, len(h.peers))
	for pc := range h.peers {
		peers = append(peers, pc)
	}
	h.mu.Unlock()
	for _, pc := range peers {
		_ = pc.Close()
	}
}

func (h *WebRTCHandler) streamToPeer(listener *Listener[[]int16], track *webrtc.TrackLocalStaticSample) {
	enc, err := opus.NewEncoder(audio.SampleRate, audio.Channels, opus.AppAudio)
	if err != nil {
		h.logger.Error("opus encoder", "error", err)
		return
	}
	if err := enc.SetBitrate(h.bitrate * 1000); err != nil {
		h.logger.Warn("opus bitrate", "bitrate_kbps", h.bitrate, "error", err)
	}

	buf := make([]byte, 4000)
	for {
		select {
		case <-listener.Done():
			return
		case frame := <-listener.C:
			n, err := enc.Encode(frame, buf)
			if err != nil {
				h.logger.Warn("opus encode", "error", err)
				continue
			}
			if err := track.WriteSample(pionmedia.Sample{
				Data:     buf[:n],
				Duration: audio.FrameDuration,
			}); err != nil {
				return
			}
		}
	}
}

func (h *WebRTCHandler) removePeer(pc *webrtc.PeerConnection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[pc]; !ok {
		return false
	}
	delete(h.peers, pc)
	return true
}
