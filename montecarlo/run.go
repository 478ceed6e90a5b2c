package montecarlo

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rajul/tardis/geometry"
	"github.com/rajul/tardis/internal/rng"
	"github.com/rajul/tardis/interaction"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
	"github.com/rajul/tardis/search"
	"github.com/rajul/tardis/telemetry"
	"github.com/rajul/tardis/virtualpacket"
)

// Config holds the run-scoped knobs for RunMonteCarlo: thread count, RNG
// seed, the virtual-packet multiplicity, and the line-interaction mode.
type Config struct {
	VirtualPacketFlag int
	NThreads          int
	Seed              int64
	LineInteractionID int

	// Telemetry, if non-nil, is recorded with per-packet outcome counters
	// and the active-worker gauge. Nil disables instrumentation.
	Telemetry *telemetry.Collector

	// Logger receives one structured warning per failed packet. Defaults to
	// the logrus standard logger. Per-packet tracing is never logged; at
	// realistic packet counts it would drown everything else out.
	Logger *logrus.Logger
}

// Option configures a Config.
type Option func(*Config)

// WithVirtualPacketFlag sets the number of virtual packets spawned per real
// interaction (0 disables the virtual-packet pass entirely).
func WithVirtualPacketFlag(v int) Option {
	return func(c *Config) { c.VirtualPacketFlag = v }
}

// WithThreads sets the worker count. Values below 1 are clamped to 1.
func WithThreads(n int) Option {
	return func(c *Config) { c.NThreads = n }
}

// WithSeed sets the base RNG seed; worker w draws from seed+w.
func WithSeed(seed int64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithLineInteractionID selects resonant scattering (0, the default) or the
// macro-atom walk (nonzero) for line absorption.
func WithLineInteractionID(id int) Option {
	return func(c *Config) { c.LineInteractionID = id }
}

// WithTelemetry attaches a Collector that RunMonteCarlo records per-packet
// outcomes and active-worker counts into.
func WithTelemetry(t *telemetry.Collector) Option {
	return func(c *Config) { c.Telemetry = t }
}

// WithLogger replaces the logger failed packets are reported to.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the single-threaded, macro-atom-off, no-virtual-
// packets configuration.
func DefaultConfig() Config {
	return Config{VirtualPacketFlag: 0, NThreads: 1, Seed: 0, LineInteractionID: 0}
}

// PacketInit holds the collaborator-provided initial state of every real
// packet in the run: initial radius, direction cosine, frequency and
// energy, indexed by packet id.
type PacketInit struct {
	R  []float64
	Mu []float64
	Nu []float64
	E  []float64
}

// N returns the number of packets to run.
func (i PacketInit) N() int { return len(i.Nu) }

// RunMonteCarlo propagates init.N() packets through sm, writing
// sm.Output.Nu/E and accumulating the shell/line estimators and, if
// cfg.VirtualPacketFlag > 0, the virtual spectrum and virtual records. It
// fans work out across cfg.NThreads workers, each with its own
// deterministically seeded RNG (seed + worker id), and returns the first
// error any worker encounters (golang.org/x/sync/errgroup reports the first
// failure). A worker stops at its first failed packet; the other workers are
// not cancelled and finish their own packets before the error is returned.
func RunMonteCarlo(sm *model.StorageModel, init PacketInit, opts ...Option) error {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.NThreads < 1 {
		cfg.NThreads = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	nPackets := init.N()

	if cfg.Telemetry != nil {
		cfg.Telemetry.SetActiveWorkers(cfg.NThreads)
		defer cfg.Telemetry.SetActiveWorkers(0)
	}

	g := new(errgroup.Group)
	for w := 0; w < cfg.NThreads; w++ {
		w := w
		g.Go(func() error {
			rnd := rng.ForWorker(cfg.Seed, w)
			draw01 := func() float64 { return rng.Draw01(rnd) }

			nEdges := sm.Continuum.N()
			if nEdges < 1 {
				nEdges = 1
			}
			scratch := make([]float64, nEdges)

			ctx := &interaction.Context{
				Shells:            sm.Shells,
				Lines:             sm.Lines,
				Continuum:         sm.Continuum,
				MacroAtom:         sm.MacroAtom,
				Estimators:        sm.Estimators,
				Spectral:          sm.Spectral,
				LineInteractionID: cfg.LineInteractionID,
				ChiBfTmpPartial:   scratch,
				Draw01:            draw01,
			}
			ctx.RunVirtual = func(vp *packet.RPacket) (packet.Status, error) {
				return runPacket(ctx, vp, model.Output{}, 0)
			}

			for p := w; p < nPackets; p += cfg.NThreads {
				if err := runOnePacket(ctx, sm, init, p, cfg.VirtualPacketFlag, cfg.Telemetry); err != nil {
					if cfg.Telemetry != nil {
						cfg.Telemetry.RecordFailed()
					}
					cfg.Logger.WithFields(logrus.Fields{
						"packet": p,
						"worker": w,
					}).WithError(err).Warn("packet transport failed")
					return err
				}
			}

			return nil
		})
	}

	return g.Wait()
}

// runOnePacket runs one iteration of the main loop: initialize the packet,
// optionally run the initial-emission virtual pass, run the real packet
// loop, and write its terminal output.
func runOnePacket(ctx *interaction.Context, sm *model.StorageModel, init PacketInit, p int, virtualPacketFlag int, tel *telemetry.Collector) error {
	rp := &packet.RPacket{
		ID:                p,
		R:                 init.R[p],
		Mu:                init.Mu[p],
		Nu:                init.Nu[p],
		E:                 init.E[p],
		VirtualPacketFlag: virtualPacketFlag,
	}

	// Locate the first line redward of the packet's co-moving frequency;
	// packets born redward of the whole list skip line transport entirely.
	comovNu := rp.Nu * geometry.DopplerFactor(rp.R, rp.Mu, ctx.Shells.InverseTimeExplosion)
	rp.NextLineID = search.LineSearch(ctx.Lines.NuList, comovNu, ctx.Lines.N())
	rp.LastLine = rp.NextLineID == ctx.Lines.N()

	if virtualPacketFlag > 0 {
		if err := virtualpacket.Spawn(virtualpacket.ModeInitialEmission, rp, ctx.Shells, ctx.Spectral, ctx.Estimators, sm.Output, p, ctx.RunVirtual, ctx.Draw01); err != nil {
			return err
		}
		if tel != nil {
			tel.ObserveVirtualPacketCount(virtualPacketFlag)
		}
	}

	status, err := runPacket(ctx, rp, sm.Output, p)
	if err != nil {
		return err
	}

	sm.Output.Nu[p] = rp.Nu
	switch status {
	case packet.Emitted:
		sm.Output.E[p] = rp.E
		if tel != nil {
			tel.RecordEmitted()
		}
	case packet.Reabsorbed:
		sm.Output.E[p] = -rp.E
		if tel != nil {
			tel.RecordReabsorbed()
		}
	}

	return nil
}
