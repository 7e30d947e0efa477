package rpt

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ParrotRecorder implements the parrot record/playback service of spec
// §4.1 step 4 "Parrot" and §6.3 "writes parrot recordings to
// /tmp/parrot_<node>_<session>.wav": while the Node is keyed with parrot
// mode armed, RX audio is captured to a WAV file; on unkey, the file is
// closed and PARROT telemetry is scheduled to play it back after
// parrottime. Written with go-audio/wav rather than a hand-rolled RIFF
// header, the way emiago-diago's manifest shows for PCM file I/O.
type ParrotRecorder struct {
	nodeName string
	session  int

	recording bool
	path      string
	file      *os.File
	enc       *wav.Encoder

	pending   string
	readyAt   time.Time
	hasReady  bool
}

// NewParrotRecorder returns a recorder scoped to one Node's name.
func NewParrotRecorder(nodeName string) *ParrotRecorder {
	return &ParrotRecorder{nodeName: nodeName}
}

// StartRecording opens a fresh session file and begins capture. Safe to
// call unconditionally on every key-up; callers gate it on whether parrot
// mode is actually armed.
func (p *ParrotRecorder) StartRecording() {
	if p.recording {
		return
	}
	p.session++
	p.path = fmt.Sprintf("/tmp/parrot_%s_%d.wav", p.nodeName, p.session)

	f, err := os.Create(p.path)
	if err != nil {
		return
	}
	p.file = f
	p.enc = wav.NewEncoder(f, 8000, 16, 1, 1)
	p.recording = true
}

// Feed appends one frame of signed-16-bit samples to the open recording.
func (p *ParrotRecorder) Feed(samples []int16) {
	if !p.recording || p.enc == nil {
		return
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}
	_ = p.enc.Write(buf)
}

// StopRecording closes the current session file and schedules playback
// after delay, the parrottime window of spec §4.1 step 4.
func (p *ParrotRecorder) StopRecording(delay time.Duration) {
	if !p.recording {
		return
	}
	p.recording = false
	if p.enc != nil {
		_ = p.enc.Close()
	}
	if p.file != nil {
		_ = p.file.Close()
	}
	p.pending = p.path
	p.readyAt = time.Now().Add(delay)
	p.hasReady = true
}

// TakeReady returns the path of a recording whose playback delay has
// elapsed, clearing it so it is only handed out once.
func (p *ParrotRecorder) TakeReady() (string, bool) {
	if !p.hasReady || time.Now().Before(p.readyAt) {
		return "", false
	}
	p.hasReady = false
	return p.pending, true
}
