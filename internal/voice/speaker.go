package voice

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Player plays an audio file to completion
type Player interface {
	PlayFile(ctx context.Context, path string) error
}

// CommandPlayer plays files with the first available system player
type CommandPlayer struct {
	lookPath func(string) (string, error)
}

func NewCommandPlayer() *CommandPlayer {
	return &CommandPlayer{lookPath: exec.LookPath}
}

// PlayFile plays an audio file
func (p *CommandPlayer) PlayFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("audio file not found: %s", path)
	}

	name, args := p.command(path)
	if name == "" {
		return fmt.Errorf("no audio player found (tried: ffplay, afplay, mpg123, paplay, aplay)")
	}
	return exec.CommandContext(ctx, name, args...).Run()
}

func (p *CommandPlayer) command(path string) (string, []string) {
	mp3 := strings.HasSuffix(path, ".mp3")

	players := []struct {
		name    string
		args    []string
		wavOnly bool
	}{
		{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}, false},
		{"afplay", []string{path}, false},
		{"mpg123", []string{"-q", path}, false},
		{"paplay", []string{path}, true},
		{"aplay", []string{"-q", path}, true},
	}

	for _, pl := range players {
		if mp3 && pl.wavOnly {
			continue
		}
		if _, err := p.lookPath(pl.name); err == nil {
			return pl.name, pl.args
		}
	}
	return "", nil
}

// Speaker reads text aloud
type Speaker interface {
	Name() string
	Speak(ctx context.Context, text string) error
}

// RemoteSpeaker synthesizes through the speech service and plays the clip
type RemoteSpeaker struct {
	facade *Facade
	slot   *ClipSlot
}

func NewRemoteSpeaker(f *Facade, slot *ClipSlot) *RemoteSpeaker {
	return &RemoteSpeaker{facade: f, slot: slot}
}

func (s *RemoteSpeaker) Name() string { return "remote" }

func (s *RemoteSpeaker) Speak(ctx context.Context, text string) error {
	audio, err := s.facade.SynthesizeSpeech(ctx, text)
	if err != nil {
		return err
	}
	if _, err := s.slot.Load(audio, "mp3"); err != nil {
		return err
	}
	return s.slot.Play(ctx)
}

// PiperSpeaker synthesizes on-device with a local piper model
type PiperSpeaker struct {
	modelPath   string
	lengthScale float64
	slot        *ClipSlot
	lookPath    func(string) (string, error)
}

// NewPiperSpeaker creates a piper speaker. rate is a speed multiplier, 1.0 = normal.
func NewPiperSpeaker(modelPath string, rate float64, slot *ClipSlot) *PiperSpeaker {
	if rate < 0.5 {
		rate = 0.5
	}
	if rate > 2.0 {
		rate = 2.0
	}
	return &PiperSpeaker{
		modelPath:   modelPath,
		lengthScale: 1.0 / rate, // higher scale = slower
		slot:        slot,
		lookPath:    exec.LookPath,
	}
}

func (s *PiperSpeaker) Name() string { return "piper" }

func (s *PiperSpeaker) Speak(ctx context.Context, text string) error {
	if _, err := os.Stat(s.modelPath); err != nil {
		return fmt.Errorf("piper model not found at %s", s.modelPath)
	}

	bin := ""
	for _, candidate := range []string{"piper", "piper-tts"} {
		if path, err := s.lookPath(candidate); err == nil {
			bin = path
			break
		}
	}
	if bin == "" {
		return fmt.Errorf("piper binary not found, install piper-tts")
	}

	out, err := s.slot.Reserve("wav")
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, bin,
		"--model", s.modelPath,
		"--output_file", out,
		"--length_scale", fmt.Sprintf("%.2f", s.lengthScale),
	)
	cmd.Stdin = strings.NewReader(text)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("piper failed: %w (output: %s)", err, string(output))
	}

	return s.slot.Play(ctx)
}

// CommandSpeaker speaks through espeak-ng, espeak or macOS say without
// staging any audio file
type CommandSpeaker struct {
	rate     float64
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func NewCommandSpeaker(rate float64) *CommandSpeaker {
	if rate <= 0 {
		rate = 1.0
	}
	return &CommandSpeaker{
		rate:     rate,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

func (s *CommandSpeaker) Name() string { return "command" }

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	// espeak counts words per minute from 175; say uses 175-200 as normal
	wpm := fmt.Sprintf("%d", int(175*s.rate))

	for _, name := range []string{"espeak-ng", "espeak", "say"} {
		if _, err := s.lookPath(name); err != nil {
			continue
		}
		if name == "say" {
			return s.run(ctx, name, "-r", wpm, text)
		}
		return s.run(ctx, name, "-s", wpm, text)
	}
	return fmt.Errorf("no speech command found (tried: espeak-ng, espeak, say)")
}
