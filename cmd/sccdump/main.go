package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/sccodec/caption"
	"github.com/zsiec/sccodec/scc"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	lang := flag.String("lang", "en-US", "language key to store captions under")
	offset := flag.Duration("offset", 0, "subtract this duration from every timestamp")
	rollup := flag.Bool("rollup", false, "emit the full visible window for roll-up captions")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sccdump [flags] file.scc ...")
		os.Exit(2)
	}

	sets := make([]*caption.Set, len(files))
	var g errgroup.Group
	for i, path := range files {
		g.Go(func() error {
			log := slog.With("file", path)
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			content := string(data)
			if !scc.Detect(content) {
				return fmt.Errorf("%s: not an SCC document", path)
			}
			set, err := scc.NewReader().Read(content, scc.ReadOptions{
				Lang:           *lang,
				SimulateRollUp: *rollup,
				Offset:         *offset,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			log.Debug("decoded", "captions", len(set.Captions(*lang)))
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("decode failed", "error", err)
		os.Exit(1)
	}

	for i, set := range sets {
		if len(files) > 1 {
			fmt.Printf("== %s\n", files[i])
		}
		for j, c := range set.Captions(*lang) {
			fmt.Printf("%4d  %s --> %s  %q\n",
				j, stamp(c.Start), stamp(c.End), c.Text())
		}
	}
}

func stamp(micro int64) string {
	d := time.Duration(micro) * time.Microsecond
	return d.Truncate(time.Millisecond).String()
}
