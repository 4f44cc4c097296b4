package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/klauspost/cpuid/v2"

	simdjson "github.com/biggeezerdevelopment/tapejson"
)

// BenchCmd measures parse throughput of every supported backend.
type BenchCmd struct {
	File     string        `kong:"arg,type='path',help='Document to parse'"`
	Duration time.Duration `kong:"short='d',default='1s',help='Time spent per backend'"`
	Stream   bool          `kong:"help='Parse the input as a stream of documents'"`
}

type benchResult struct {
	name  string
	runs  int
	bytes int
	took  time.Duration
}

func (r benchResult) throughput() float64 {
	if r.took <= 0 {
		return 0
	}
	return float64(r.bytes) * float64(r.runs) / r.took.Seconds() / (1 << 20)
}

func (c *BenchCmd) Run(g *Globals) error {
	data, err := readInput(c.File, g.Encoding)
	if err != nil {
		return err
	}
	opts, err := g.options()
	if err != nil {
		return err
	}

	var results []benchResult
	for _, impl := range simdjson.Available() {
		if !impl.Supported() {
			continue
		}
		p, err := simdjson.New(append(opts, simdjson.WithImplementation(impl.Tier()))...)
		if err != nil {
			return err
		}
		r, err := c.run(p, data)
		if err != nil {
			return fmt.Errorf("%s: %w", impl.Name(), err)
		}
		r.name = impl.Name()
		results = append(results, r)
		g.log().Debug("benchmarked", "implementation", r.name, "runs", r.runs, "elapsed", r.took)
	}

	tw := tabwriter.NewWriter(g.writer(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "cpu\t%s\n", cpuid.CPU.BrandName)
	fmt.Fprintf(tw, "input\t%d bytes\n", len(data))
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%.1f MB/s\t%d runs\n", r.name, r.throughput(), r.runs)
	}
	if rss, err := residentMemory(); err == nil {
		fmt.Fprintf(tw, "rss\t%d KiB\n", rss>>10)
	} else {
		g.log().Debug("resident memory unavailable", "error", err)
	}
	return tw.Flush()
}

func (c *BenchCmd) run(p *simdjson.Parser, data []byte) (benchResult, error) {
	r := benchResult{bytes: len(data)}
	start := time.Now()
	for r.runs == 0 || time.Since(start) < c.Duration {
		if c.Stream {
			s := p.ParseMany(data)
			for s.Next() {
			}
			if err := s.Err(); err != nil {
				return r, err
			}
		} else if _, err := p.Parse(data); err != nil {
			return r, err
		}
		r.runs++
	}
	r.took = time.Since(start)
	return r, nil
}

// InfoCmd prints the processor and the backends it can run.
type InfoCmd struct{}

func (c *InfoCmd) Run(g *Globals) error {
	cpu := cpuid.CPU
	tw := tabwriter.NewWriter(g.writer(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "cpu\t%s\n", cpu.BrandName)
	fmt.Fprintf(tw, "vendor\t%s\n", cpu.VendorString)
	fmt.Fprintf(tw, "cores\t%d physical, %d logical\n", cpu.PhysicalCores, cpu.LogicalCores)
	fmt.Fprintf(tw, "cache line\t%d bytes\n", cpu.CacheLine)
	fmt.Fprintf(tw, "features\t%v\n", cpu.FeatureSet())

	active := simdjson.Active()
	for _, impl := range simdjson.Available() {
		state := "unsupported"
		switch {
		case impl.Name() == active.Name():
			state = "active"
		case impl.Supported():
			state = "supported"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", impl.Name(), state, impl.Description())
	}
	return tw.Flush()
}
