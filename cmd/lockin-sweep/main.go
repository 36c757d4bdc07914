// Command lockin-sweep runs a full 3-omega acquisition: three frequency
// sweeps against an SR8xx-style lock-in amplifier over a serial line, then
// CSV/plot/chart reports and optional sqlite persistence of the digests.
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/banshee-data/lockin.report/internal/config"
	"github.com/banshee-data/lockin.report/internal/lockin"
	"github.com/banshee-data/lockin.report/internal/report"
	"github.com/banshee-data/lockin.report/internal/serialmux"
	"github.com/banshee-data/lockin.report/internal/store"
	"github.com/banshee-data/lockin.report/internal/sweep"
)

// parseCSVFloatSlice parses a comma-separated list of floats
func parseCSVFloatSlice(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func main() {
	// Instrument connection
	portPath := flag.String("port", "/dev/ttyUSB0", "Serial port of the lock-in amplifier")
	baud := flag.Int("baud", 19200, "Serial baud rate")

	// Sweep grids
	label := flag.String("label", "", "Sample label used in output file names")
	freqList := flag.String("freqs", "", "Comma-separated sweep frequencies in Hz (overrides -fmin/-fmax/-npoints)")
	fmin := flag.Float64("fmin", 0, "Lowest sweep frequency in Hz (geometric grid)")
	fmax := flag.Float64("fmax", 0, "Highest sweep frequency in Hz (geometric grid)")
	npoints := flag.Int("npoints", 0, "Number of points in the geometric frequency grid")
	amplList := flag.String("ampls", "", "Comma-separated drive amplitudes in volts (default 3.0)")

	// Run behavior
	configPath := flag.String("config", "", "Optional JSON sweep configuration file")
	countdown := flag.Int("countdown", 60, "Seconds given to move input cables to the shunt")

	// Outputs
	outParent := flag.String("out", ".", "Parent directory for the output directory")
	outName := flag.String("dir", "", "Output directory name (defaults to recorded_<date>)")
	dbPath := flag.String("db", "", "Optional sqlite database to persist digests into")

	flag.Parse()

	var cfg *config.SweepConfig
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	runLabel := *label
	if runLabel == "" && cfg != nil && cfg.Label != nil {
		runLabel = *cfg.Label
	}

	freqs, err := parseCSVFloatSlice(*freqList)
	if err != nil {
		log.Fatalf("parsing -freqs: %v", err)
	}
	if freqs == nil && *npoints > 0 {
		if *fmin <= 0 || *fmax <= *fmin {
			log.Fatalf("-fmin and -fmax must satisfy 0 < fmin < fmax, got %g and %g", *fmin, *fmax)
		}
		freqs = sweep.Freqspace(*fmin, *fmax, *npoints)
	}
	if freqs == nil && cfg != nil {
		freqs = cfg.Frequencies()
	}

	ampls, err := parseCSVFloatSlice(*amplList)
	if err != nil {
		log.Fatalf("parsing -ampls: %v", err)
	}
	if ampls == nil && cfg != nil {
		ampls = cfg.Ampls
	}

	var overrides sweep.Overrides
	if cfg != nil {
		overrides = cfg.Overrides()
	}

	mux, err := serialmux.Open(*portPath, serialmux.PortOptions{BaudRate: *baud})
	if err != nil {
		log.Fatalf("opening serial port %s: %v", *portPath, err)
	}
	defer mux.Close()

	amp := lockin.NewAmp(mux)
	session := sweep.NewSession(amp, runLabel, freqs, ampls)
	log.Printf("starting 3-omega run %q: %d frequencies, %d amplitudes",
		session.Label, len(session.Freqs), len(session.Ampls))

	if _, err := session.SweepSample3w(overrides); err != nil {
		log.Fatalf("sample 3-omega sweep: %v", err)
	}
	if _, err := session.SweepSample1w(overrides); err != nil {
		log.Fatalf("sample 1-omega sweep: %v", err)
	}
	if _, err := session.SweepShunt1w(overrides, *countdown); err != nil {
		log.Fatalf("shunt 1-omega sweep: %v", err)
	}

	dir, err := report.OutputDir(*outParent, *outName)
	if err != nil {
		log.Fatalf("creating output directory: %v", err)
	}

	for _, role := range sweep.Roles {
		d, ok := session.Set().Digest(role)
		if !ok {
			continue
		}
		for _, w := range d.Warnings {
			log.Printf("%s: %s", role, w)
		}
		if err := report.WriteDigestCSV(dir, role, d); err != nil {
			log.Fatalf("writing %s tables: %v", role, err)
		}
		if err := report.WritePlot(dir, role, d); err != nil {
			log.Fatalf("plotting %s: %v", role, err)
		}
		if err := report.WriteChart(dir, role, d); err != nil {
			log.Fatalf("charting %s: %v", role, err)
		}
	}

	for _, ampl := range session.Ampls {
		aligned, err := session.Align(ampl)
		if err != nil {
			log.Fatalf("aligning sweeps at %g V: %v", ampl, err)
		}
		if err := report.WriteAligned(dir, aligned); err != nil {
			log.Fatalf("writing aligned table at %g V: %v", ampl, err)
		}
	}
	log.Printf("saved sweep data in '%s'", dir)

	if *dbPath != "" {
		st, err := store.Open(*dbPath)
		if err != nil {
			log.Fatalf("opening store: %v", err)
		}
		defer st.Close()

		runID := uuid.New()
		for _, role := range sweep.Roles {
			d, ok := session.Set().Digest(role)
			if !ok {
				continue
			}
			if err := st.SaveDigest(runID, role, d); err != nil {
				log.Fatalf("persisting %s digest: %v", role, err)
			}
		}
		log.Printf("persisted run %s to %s", runID, *dbPath)
	}
}
