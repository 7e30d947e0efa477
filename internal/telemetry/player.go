package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbehnke/rptd/internal/config"
)

// Sink is where an AudioPlayer writes rendered PCM, the monitor channel
// of spec §4.4 ("executes the announcement on the monitor channel").
type Sink interface {
	WriteAudio(samples []int16) error
}

// PhraseSource resolves a bare sound-file name (from [telemetry], or a
// digit/word for TIMEOUT-style numeric announcements) to a path under
// SoundDir. Node wires this to its installed phrase library.
type PhraseSource struct {
	SoundDir string
}

// Path returns the on-disk path for a phrase name.
func (p PhraseSource) Path(name string) string {
	return filepath.Join(p.SoundDir, name+".gsm")
}

// AudioPlayer is the default telemetry.Player: it executes an Item's
// Directive against a Sink, handling the file/Morse/tone-sequence forms
// of spec §4.4 step 4. Numeric modes (TIMEOUT and friends) fall back to
// per-digit phrase playback ("say number").
type AudioPlayer struct {
	Sink       Sink
	Phrases    PhraseSource
	Telemetry  map[string]config.TelemetryValue
	Morse      config.MorseParams
	CourtesyTones map[int]TonePair
	SampleRate int

	// PlayFile loads and writes one phrase file to Sink. Node supplies
	// this (the codec/decoder lives outside telemetry); nil is a no-op,
	// useful for tests that only care about sequencing.
	PlayFile func(ctx context.Context, path string) error
}

// Play implements Player.
func (p *AudioPlayer) Play(ctx context.Context, it *Item) error {
	if p.SampleRate == 0 {
		p.SampleRate = 8000
	}

	switch it.Mode {
	case Unkey, LocUnkey, LinkUnkey:
		return p.playCourtesyTone(it.Submode)
	case ID, ID1, IDTalkover:
		return p.playID(ctx, it)
	case VarCmd:
		return p.playVarCmd(ctx, it.Param)
	case Timeout, TimeoutWarning, ActTimeoutWarning:
		return p.playNumber(ctx, it.Param)
	default:
		return p.playFile(ctx, it.Param)
	}
}

func (p *AudioPlayer) playCourtesyTone(slot int) error {
	if slot <= 0 {
		slot = 1
	}
	t := CourtesyTone(slot, p.CourtesyTones)
	if p.Sink == nil {
		return nil
	}
	return p.Sink.WriteAudio(GenerateTonePair(t, p.SampleRate))
}

func (p *AudioPlayer) playID(ctx context.Context, it *Item) error {
	if p.Telemetry != nil {
		if v, ok := p.Telemetry["ident"]; ok && !v.IsDirective() {
			return p.playFile(ctx, v.Body())
		}
	}
	freq, amp := p.Morse.Frequency, p.Morse.Amplitude
	if it.Mode == ID || it.Mode == ID1 {
		freq, amp = p.Morse.IDFrequency, p.Morse.IDAmplitude
	}
	samples := GenerateMorse(it.Param, p.Morse.Speed, freq, amp, p.SampleRate)
	if p.Sink == nil {
		return nil
	}
	return p.Sink.WriteAudio(samples)
}

func (p *AudioPlayer) playVarCmd(ctx context.Context, verb string) error {
	v, ok := VarCmdLookup(p.Telemetry, verb)
	if !ok {
		return fmt.Errorf("telemetry: no [telemetry] entry for verb %q", verb)
	}
	return p.playDirective(ctx, v)
}

func (p *AudioPlayer) playDirective(ctx context.Context, v config.TelemetryValue) error {
	if !v.IsDirective() {
		return p.playFile(ctx, v.Body())
	}
	switch v.Kind() {
	case 'M', 'I':
		samples := GenerateMorse(v.Body(), p.Morse.Speed, p.Morse.Frequency, p.Morse.Amplitude, p.SampleRate)
		if p.Sink == nil {
			return nil
		}
		return p.Sink.WriteAudio(samples)
	case 'T':
		for _, ts := range ParseToneSequence(v.Body()) {
			t := TonePair{Freq1: ts.Freq1, Freq2: ts.Freq2, DurationMS: ts.DurationMS, Amplitude: ts.Amplitude}
			if p.Sink == nil {
				continue
			}
			if err := p.Sink.WriteAudio(GenerateTonePair(t, p.SampleRate)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("telemetry: unknown directive kind %q", v.Kind())
	}
}

func (p *AudioPlayer) playNumber(ctx context.Context, digits string) error {
	for _, d := range digits {
		if d < '0' || d > '9' {
			continue
		}
		if err := p.playFile(ctx, string(d)); err != nil {
			return err
		}
	}
	return nil
}

func (p *AudioPlayer) playFile(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	path := p.Phrases.Path(name)
	if p.PlayFile != nil {
		return p.PlayFile(ctx, path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("telemetry: phrase %q: %w", name, err)
	}
	return nil
}
