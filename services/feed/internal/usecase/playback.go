package usecase

import (
	"math"
	"sync"

	"reel-feed/pkg/apperr"
)

// PlaybackCoordinator tracks which reel is current and which are playing.
// Index changes leave exactly the current reel playing; taps may pause it
// or start another, but never leave two playing.
type PlaybackCoordinator struct {
	mu      sync.Mutex
	count   int
	current int
	playing map[int]bool
}

func NewPlaybackCoordinator() *PlaybackCoordinator {
	return &PlaybackCoordinator{playing: make(map[int]bool)}
}

// Reset starts over on a list of count reels with the first one playing.
func (p *PlaybackCoordinator) Reset(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if count < 0 {
		count = 0
	}
	p.count = count
	p.current = 0
	p.playing = make(map[int]bool)
	if count > 0 {
		p.playing[0] = true
	}
}

// Scroll recomputes the current index from the scroll position. Only a
// change of index touches playback state.
func (p *PlaybackCoordinator) Scroll(offset, viewportHeight float64) (int, error) {
	if viewportHeight <= 0 || math.IsNaN(viewportHeight) || math.IsNaN(offset) {
		return 0, apperr.Validation("Viewport height must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.count == 0 {
		return 0, nil
	}

	// clamp before converting; huge offsets overflow int
	position := math.Round(offset / viewportHeight)
	index := 0
	if position >= float64(p.count-1) {
		index = p.count - 1
	} else if position > 0 {
		index = int(position)
	}
	if index != p.current {
		p.current = index
		p.playing = map[int]bool{index: true}
	}
	return p.current, nil
}

// Tap toggles the reel at index and returns whether it is now playing.
func (p *PlaybackCoordinator) Tap(index int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= p.count {
		return false, apperr.Validation("Reel index out of range")
	}
	if p.playing[index] {
		delete(p.playing, index)
		return false, nil
	}
	p.playing = map[int]bool{index: true}
	return true, nil
}

func (p *PlaybackCoordinator) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *PlaybackCoordinator) IsPlaying(index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing[index]
}

func (p *PlaybackCoordinator) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}
