// Package testutil provides deterministic fixture generators for channel
// forests and annotation sets. The same seed always yields the same State.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed      int64    // Random seed for determinism (0 = use current time)
	Duration  float64  // Timeline length in ms (default 60000)
	Values    []string // Annotation values to draw from
	FrameRate float64  // Frames per second used for frame fields (default 25)
	// Fraction of generated annotations that are instants.
	InstantRatio float64
	// Probability that a channel gets an AllowedTypes restriction.
	RestrictRatio float64
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:         42,
		Duration:     60000,
		Values:       []string{"pass", "shot", "tackle", "foul", "corner"},
		FrameRate:    25,
		InstantRatio: 0.25,
	}
}

// Generator creates fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	def := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if len(cfg.Values) == 0 {
		cfg.Values = def.Values
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = def.FrameRate
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Config returns the effective configuration.
func (g *Generator) Config() GeneratorConfig {
	return g.cfg
}

// Tree creates one root with the given depth and branching factor, ids
// assigned breadth first starting at 0.
func (g *Generator) Tree(depth, breadth int) []model.ChannelState {
	return g.Forest(1, depth, breadth)
}

// Forest creates roots trees of the given depth and breadth.
func (g *Generator) Forest(roots, depth, breadth int) []model.ChannelState {
	if roots < 1 {
		roots = 1
	}
	if breadth < 1 {
		breadth = 1
	}

	var out []model.ChannelState
	next := 0
	var level []int
	for r := 0; r < roots; r++ {
		out = append(out, g.channel(next, nil))
		level = append(level, next)
		next++
	}
	for d := 0; d < depth; d++ {
		var nextLevel []int
		for _, parent := range level {
			for b := 0; b < breadth; b++ {
				p := parent
				out = append(out, g.channel(next, &p))
				nextLevel = append(nextLevel, next)
				next++
			}
		}
		level = nextLevel
	}
	return out
}

// RandomForest creates n channels where each channel's parent is a random
// earlier channel or none.
func (g *Generator) RandomForest(n int) []model.ChannelState {
	out := make([]model.ChannelState, 0, n)
	for i := 0; i < n; i++ {
		var parent *int
		if i > 0 && g.rng.Intn(4) != 0 {
			p := g.rng.Intn(i)
			parent = &p
		}
		out = append(out, g.channel(i, parent))
	}
	return out
}

func (g *Generator) channel(id int, parent *int) model.ChannelState {
	cs := model.ChannelState{ID: id, ParentID: parent, Name: fmt.Sprintf("ch%d", id)}
	if g.cfg.RestrictRatio > 0 && g.rng.Float64() < g.cfg.RestrictRatio {
		k := 1 + g.rng.Intn(len(g.cfg.Values))
		cs.AllowedAnnotationIDs = append([]string{}, g.cfg.Values[:k]...)
	}
	return cs
}

// Annotations creates n annotations spread over the given channels. Values
// respect channel restrictions when a channel has any.
func (g *Generator) Annotations(channels []model.ChannelState, n int) []model.AnnotationState {
	if len(channels) == 0 {
		return nil
	}
	out := make([]model.AnnotationState, 0, n)
	for i := 0; i < n; i++ {
		ch := channels[g.rng.Intn(len(channels))]
		values := g.cfg.Values
		if ch.AllowedAnnotationIDs != nil {
			if len(ch.AllowedAnnotationIDs) == 0 {
				continue
			}
			values = ch.AllowedAnnotationIDs
		}

		start := g.rng.Float64() * g.cfg.Duration
		kind := model.KindInterval
		end := start + g.rng.Float64()*g.cfg.Duration/10
		if end > g.cfg.Duration {
			end = g.cfg.Duration
		}
		if g.rng.Float64() < g.cfg.InstantRatio {
			kind = model.KindInstant
			end = start
		}

		a := model.AnnotationState{
			ID:         len(out),
			ChannelID:  ch.ID,
			Type:       string(kind),
			Value:      values[g.rng.Intn(len(values))],
			StartTime:  start,
			EndTime:    end,
			StartFrame: g.frame(start),
			EndFrame:   g.frame(end),
			Modifiers:  []model.Modifier{},
		}
		if g.rng.Intn(3) == 0 {
			a.Modifiers = append(a.Modifiers, model.Modifier{Key: "player", Value: fmt.Sprint(1 + g.rng.Intn(11))})
		}
		out = append(out, a)
	}
	return out
}

func (g *Generator) frame(ms float64) int {
	return int(ms / 1000 * g.cfg.FrameRate)
}

// State wraps channels and annotations into a document.
func (g *Generator) State(channels []model.ChannelState, annotations []model.AnnotationState) model.State {
	return model.State{
		Media: model.MediaState{Src: "fixture.mp4"},
		Timeline: model.TimelineState{
			StartTime:   0,
			EndTime:     g.cfg.Duration,
			Channels:    channels,
			Annotations: annotations,
		},
	}
}

// Shuffle returns a copy of channels in random order, so that children may
// precede their parents.
func (g *Generator) Shuffle(channels []model.ChannelState) []model.ChannelState {
	out := append([]model.ChannelState{}, channels...)
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Convenience functions for quick fixture creation

// QuickTree returns a default-seeded document with a tree of channels and
// n annotations.
func QuickTree(depth, breadth, n int) model.State {
	g := NewDefault()
	chans := g.Tree(depth, breadth)
	return g.State(chans, g.Annotations(chans, n))
}

// QuickRandom returns a default-seeded document with a random forest.
func QuickRandom(channels, n int) model.State {
	g := NewDefault()
	chans := g.RandomForest(channels)
	return g.State(chans, g.Annotations(chans, n))
}

// Empty returns a document without channels.
func Empty() model.State {
	return NewDefault().State(nil, nil)
}
