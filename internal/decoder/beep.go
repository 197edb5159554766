package decoder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog"

	"github.com/llehouerou/pulse/internal/log"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extWAV  = ".wav"
)

var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

// InitSpeaker initialises the shared audio output exactly once. All Beep
// decoders mix into the same speaker; streams at other sample rates are
// resampled on the fly.
func InitSpeaker(sampleRate int, buffer time.Duration) error {
	speakerOnce.Do(func() {
		if sampleRate <= 0 {
			sampleRate = 44100
		}
		if buffer <= 0 {
			buffer = 100 * time.Millisecond
		}
		speakerRate = beep.SampleRate(sampleRate)
		speakerErr = speaker.Init(speakerRate, speakerRate.N(buffer))
	})
	return speakerErr
}

// Beep decodes audio files through gopxl/beep and plays them on the shared
// speaker. Prepare runs asynchronously and reports through decoder events.
type Beep struct {
	mu sync.Mutex
	hub

	state    State
	source   string
	loop     bool
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	info     *SourceInfo

	log zerolog.Logger
}

// Verify Beep implements Decoder at compile time.
var _ Decoder = (*Beep)(nil)

// NewBeep creates an idle beep-backed decoder. InitSpeaker must have been
// called before Play.
func NewBeep(name string) *Beep {
	return &Beep{
		state: StateIdle,
		log:   log.WithComponent("decoder").With().Str("slot", name).Logger(),
	}
}

// Assign binds a source and loop flag. Any previous assignment is stopped.
func (b *Beep) Assign(source string, loop bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateIdle {
		b.stopLocked()
	}
	b.source = source
	b.loop = loop
}

// Source returns the assigned source path.
func (b *Beep) Source() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.source
}

// State returns the current transport state.
func (b *Beep) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Prepare decodes the assigned source in the background. The outcome is
// published as an EventReady or EventError carrying the source.
func (b *Beep) Prepare() {
	b.mu.Lock()
	src := b.source
	if src == "" || b.state != StateIdle {
		st := b.state
		b.mu.Unlock()
		b.publish(Event{Kind: EventError, Source: src,
			Err: fmt.Errorf("prepare in state %s with source %q", st, src)})
		return
	}
	b.state = StatePreparing
	b.mu.Unlock()

	go b.prepare(src)
}

func (b *Beep) prepare(src string) {
	f, streamer, format, err := decodeFile(src)
	if err != nil {
		b.mu.Lock()
		if b.state == StatePreparing && b.source == src {
			b.state = StateIdle
		}
		b.mu.Unlock()
		b.publish(Event{Kind: EventError, Source: src, Err: err})
		return
	}

	info, _ := ReadSourceInfo(src)

	b.mu.Lock()
	if b.state != StatePreparing || b.source != src {
		// Stopped or reassigned while decoding; discard silently.
		b.mu.Unlock()
		streamer.Close()
		f.Close()
		return
	}

	b.file = f
	b.streamer = streamer
	b.format = format
	b.info = info

	var play beep.Streamer = streamer
	if b.loop {
		if looped, lerr := beep.Loop2(streamer); lerr == nil {
			play = looped
		}
	}
	if format.SampleRate != speakerRate {
		play = beep.Resample(4, format.SampleRate, speakerRate, play)
	}
	b.ctrl = &beep.Ctrl{Streamer: play, Paused: true}
	b.state = StateReady
	b.mu.Unlock()

	b.publish(Event{Kind: EventReady, Source: src})
}

func decodeFile(src string) (*os.File, beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(src))

	f, err := os.Open(src)
	if err != nil {
		return nil, nil, beep.Format{}, err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case extMP3:
		streamer, format, err = mp3.Decode(f)
	case extFLAC:
		// Skip ID3v2 tag if present (some taggers add it to FLAC files)
		if err = skipID3v2(f); err == nil {
			streamer, format, err = flac.Decode(f)
		}
	case extWAV:
		streamer, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		f.Close()
		return nil, nil, beep.Format{}, err
	}
	return f, streamer, format, nil
}

// Play starts playback of a Ready stream, or resumes a Paused one.
func (b *Beep) Play() {
	b.mu.Lock()
	if b.state == StatePaused {
		b.mu.Unlock()
		b.Resume()
		return
	}
	if b.state != StateReady || b.ctrl == nil {
		b.mu.Unlock()
		return
	}
	ctrl := b.ctrl
	src := b.source
	b.state = StatePlaying
	if b.info != nil && b.info.Title != "" {
		b.log.Debug().Str("title", b.info.Title).Str("source", src).Msg("playing")
	}
	b.mu.Unlock()

	speaker.Lock()
	ctrl.Paused = false
	speaker.Unlock()

	// The callback runs on the speaker goroutine; hop off it before taking
	// the decoder mutex so Stop/Pause cannot deadlock against it.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		go b.finished(src)
	})))
}

func (b *Beep) finished(src string) {
	b.mu.Lock()
	if b.source != src || b.state != StatePlaying {
		b.mu.Unlock()
		return
	}
	b.state = StateIdle
	b.mu.Unlock()
	b.publish(Event{Kind: EventFinished, Source: src})
}

// Pause pauses playback, keeping the stream and its last decoded frame.
func (b *Beep) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.state.CanPause() || b.ctrl == nil {
		return
	}
	speaker.Lock()
	b.ctrl.Paused = true
	speaker.Unlock()
	b.state = StatePaused
}

// Resume resumes paused playback.
func (b *Beep) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.state.CanResume() || b.ctrl == nil {
		return
	}
	speaker.Lock()
	b.ctrl.Paused = false
	speaker.Unlock()
	b.state = StatePlaying
}

// Stop aborts any activity and returns to Idle.
func (b *Beep) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

func (b *Beep) stopLocked() {
	if b.ctrl != nil {
		speaker.Lock()
		b.ctrl.Paused = true
		// Detaching the streamer makes the mixer drop this sequence without
		// touching anything else playing on the shared speaker.
		b.ctrl.Streamer = nil
		speaker.Unlock()
		b.ctrl = nil
	}
	if b.streamer != nil {
		b.streamer.Close()
		b.streamer = nil
	}
	if b.file != nil {
		b.file.Close()
		b.file = nil
	}
	b.info = nil
	b.source = ""
	b.loop = false
	b.state = StateIdle
}

// Seekable reports whether the stream accepts SetPosition.
func (b *Beep) Seekable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streamer != nil &&
		(b.state == StateReady || b.state.IsActive())
}

// Position returns the current playback position.
func (b *Beep) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamer == nil {
		return 0
	}
	// Read without the speaker lock; may be slightly stale but avoids
	// lock-order inversion with the playback callback.
	return b.format.SampleRate.D(b.streamer.Position())
}

// Duration returns the total stream duration.
func (b *Beep) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamer == nil {
		return 0
	}
	return b.format.SampleRate.D(b.streamer.Len())
}

// SetPosition moves the stream to an absolute position.
func (b *Beep) SetPosition(d time.Duration) error {
	b.mu.Lock()
	streamer := b.streamer
	format := b.format
	b.mu.Unlock()
	if streamer == nil {
		return fmt.Errorf("set position: no stream")
	}

	n := format.SampleRate.N(d)
	n = min(max(n, 0), streamer.Len())

	speaker.Lock()
	err := streamer.Seek(n)
	speaker.Unlock()
	return err
}

// Subscribe registers an event channel.
func (b *Beep) Subscribe() (<-chan Event, func()) {
	return b.subscribe()
}

// Close stops the decoder and releases its resources.
func (b *Beep) Close() error {
	b.Stop()
	return nil
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of the file.
// Some FLAC files have ID3v2 tags prepended, which the FLAC decoder doesn't
// handle.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := r.Read(header)
	if err != nil {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// ID3v2 size is a syncsafe integer in bytes 6-9 (7 bits per byte).
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
