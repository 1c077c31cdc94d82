package audioout

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ebitengine/oto/v3"
)

// DefaultLatency is the device buffer duration requested from oto.
const DefaultLatency = 40 * time.Millisecond

// Player streams a Renderer to the default output device.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	stream *Stream
	logger *slog.Logger
}

// Config describes the device format.
type Config struct {
	SampleRate int
	Channels   int
	BlockSize  int
	Format     Format
	Latency    time.Duration
	Logger     *slog.Logger
}

// Open creates the oto context and starts playback of r. Only one oto
// context may exist per process.
func Open(r Renderer, cfg Config) (*Player, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("audioout: sample rate must be > 0: %d", cfg.SampleRate)
	}
	if cfg.Latency <= 0 {
		cfg.Latency = DefaultLatency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	stream, err := NewStream(r, cfg.Channels, cfg.BlockSize, cfg.Format)
	if err != nil {
		return nil, err
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       otoFormat(cfg.Format),
		BufferSize:   cfg.Latency,
	})
	if err != nil {
		return nil, fmt.Errorf("audioout: open device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(stream)
	player.Play()

	cfg.Logger.Info("audio output started",
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"block_size", cfg.BlockSize,
		"int16", cfg.Format == FormatInt16LE,
		"latency", cfg.Latency)

	return &Player{ctx: ctx, player: player, stream: stream, logger: cfg.Logger}, nil
}

// Err reports a playback failure, if any.
func (p *Player) Err() error { return p.player.Err() }

// IsPlaying reports whether the device is pulling audio.
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Close stops playback.
func (p *Player) Close() error {
	p.player.Pause()
	p.logger.Info("audio output stopped", "blocks", p.stream.Blocks())
	return p.player.Close()
}

func otoFormat(f Format) oto.Format {
	if f == FormatInt16LE {
		return oto.FormatSignedInt16LE
	}
	return oto.FormatFloat32LE
}
