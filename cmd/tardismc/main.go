// tardismc runs the Monte Carlo transport kernel over a model snapshot
// prepared by the plasma solver and reports the run's outcome.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/rajul/tardis/montecarlo"
	"github.com/rajul/tardis/telemetry"
)

func main() {
	app := &cli.App{
		Name:  "tardismc",
		Usage: "run the Monte Carlo radiative-transfer kernel over a model snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Usage: "path to a JSON model snapshot", Required: true},
			&cli.Int64Flag{Name: "seed", Usage: "base RNG seed; worker w draws from seed+w", Value: 23111963},
			&cli.IntFlag{Name: "threads", Usage: "worker count", Value: 1},
			&cli.IntFlag{Name: "virtual-packets", Usage: "virtual packets per real interaction (0 disables)", Value: 0},
			&cli.IntFlag{Name: "line-interaction", Usage: "0 = resonant scatter, nonzero = macro-atom walk", Value: 0},
			&cli.StringFlag{Name: "log-level", Usage: "logrus level (debug, info, warn, error)", Value: "info"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "if set, serve Prometheus metrics on this address during the run"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	log.SetLevel(level)

	snap, err := loadSnapshot(c.String("model"))
	if err != nil {
		return err
	}
	sm, init, err := snap.build()
	if err != nil {
		return err
	}

	collector := telemetry.NewCollector("tardis")
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return err
	}

	if addr := c.String("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.WithError(err).Warn("metrics server stopped")
			}
		}()
		log.WithField("addr", addr).Info("serving metrics")
	}

	log.WithFields(logrus.Fields{
		"packets": init.N(),
		"shells":  sm.Shells.N(),
		"lines":   sm.Lines.N(),
		"threads": c.Int("threads"),
		"seed":    c.Int64("seed"),
	}).Info("starting transport run")

	err = montecarlo.RunMonteCarlo(sm, init,
		montecarlo.WithSeed(c.Int64("seed")),
		montecarlo.WithThreads(c.Int("threads")),
		montecarlo.WithVirtualPacketFlag(c.Int("virtual-packets")),
		montecarlo.WithLineInteractionID(c.Int("line-interaction")),
		montecarlo.WithTelemetry(collector),
		montecarlo.WithLogger(log),
	)
	if err != nil {
		return err
	}

	var emitted, reabsorbed int
	var eOut, eAbs float64
	for _, e := range sm.Output.E {
		if e >= 0 {
			emitted++
			eOut += e
		} else {
			reabsorbed++
			eAbs -= e
		}
	}

	log.WithFields(logrus.Fields{
		"emitted":           emitted,
		"reabsorbed":        reabsorbed,
		"energy_emitted":    fmt.Sprintf("%.6e", eOut),
		"energy_reabsorbed": fmt.Sprintf("%.6e", eAbs),
		"virtual_records":   sm.Estimators.VirtualRecords.Len(),
	}).Info("transport run complete")

	return nil
}
