package main

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/qxcheng/dispatch-once/pkg/once"
	"github.com/qxcheng/dispatch-once/pkg/tsema"
)

type RaceOptions struct {
	Callers     int
	Rounds      int
	ActionDelay time.Duration
}

func NewRaceOptions() *RaceOptions {
	return &RaceOptions{
		Callers: 1000,
		Rounds:  10,
	}
}

func (o *RaceOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.Callers, "callers", o.Callers, "Number of goroutines racing on each guard")
	fs.IntVar(&o.Rounds, "rounds", o.Rounds, "Number of fresh guards to race on")
	fs.DurationVar(&o.ActionDelay, "action-delay", o.ActionDelay, "How long the guarded action runs, so late callers have to queue")
}

func (o *RaceOptions) Validate() error {
	if o.Callers < 1 {
		return errors.Errorf("--callers must be positive, got %d", o.Callers)
	}
	if o.Rounds < 1 {
		return errors.Errorf("--rounds must be positive, got %d", o.Rounds)
	}
	if o.ActionDelay < 0 {
		return errors.Errorf("--action-delay must not be negative, got %v", o.ActionDelay)
	}
	return nil
}

// RaceReport sums up a race run.
type RaceReport struct {
	Rounds      int
	Callers     int
	Invocations int64
	Handles     int64
	Elapsed     time.Duration
}

func (o *RaceOptions) Run() (*RaceReport, error) {
	pool := tsema.NewCounting(nil)
	report := &RaceReport{Rounds: o.Rounds, Callers: o.Callers}
	start := time.Now()

	for r := 0; r < o.Rounds; r++ {
		var (
			guard   once.Guard
			invoked atomic.Int64
			value   atomic.Int64
			gate    = make(chan struct{})
			eg      errgroup.Group
		)
		for i := 0; i < o.Callers; i++ {
			eg.Go(func() error {
				<-gate
				guard.DoWith(pool, nil, func(interface{}) {
					invoked.Add(1)
					if o.ActionDelay > 0 {
						time.Sleep(o.ActionDelay)
					}
					value.Store(1)
				})
				if value.Load() != 1 {
					return errors.New("caller returned before the guarded action finished")
				}
				return nil
			})
		}
		close(gate)
		if err := eg.Wait(); err != nil {
			return nil, errors.Wrapf(err, "round %d", r)
		}
		if n := invoked.Load(); n != 1 {
			return nil, errors.Errorf("round %d: guarded action ran %d times", r, n)
		}
		report.Invocations += invoked.Load()
		klog.V(4).InfoS("Round finished", "round", r, "handles", pool.Gets())
	}

	if n := pool.Outstanding(); n != 0 {
		return nil, errors.Errorf("%d semaphore handles were never returned", n)
	}
	report.Handles = pool.Gets()
	report.Elapsed = time.Since(start)
	return report, nil
}

func (r *RaceReport) Print(w io.Writer) {
	fmt.Fprintf(w, "rounds:      %d\n", r.Rounds)
	fmt.Fprintf(w, "callers:     %d\n", r.Callers)
	fmt.Fprintf(w, "invocations: %d\n", r.Invocations)
	fmt.Fprintf(w, "handles:     %d\n", r.Handles)
	fmt.Fprintf(w, "elapsed:     %v\n", r.Elapsed)
}

func NewCmdRace() *cobra.Command {
	opt := NewRaceOptions()
	cmd := &cobra.Command{
		Use:               "race",
		Short:             "Race many goroutines on fresh guards and check the action runs once per guard",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opt.Validate(); err != nil {
				return err
			}
			report, err := opt.Run()
			if err != nil {
				return err
			}
			report.Print(cmd.OutOrStdout())
			return nil
		},
	}
	opt.AddFlags(cmd.Flags())
	return cmd
}
