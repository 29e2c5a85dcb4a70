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

	"github.com/qxcheng/dispatch-once/pkg/semaphore"
)

type SemaphoreOptions struct {
	Value    int64
	Waiters  int
	Timeout  time.Duration
	Interval time.Duration
}

func NewSemaphoreOptions() *SemaphoreOptions {
	return &SemaphoreOptions{
		Waiters:  4,
		Timeout:  semaphore.Forever,
		Interval: time.Millisecond,
	}
}

func (o *SemaphoreOptions) AddFlags(fs *pflag.FlagSet) {
	fs.Int64Var(&o.Value, "value", o.Value, "Initial semaphore value")
	fs.IntVar(&o.Waiters, "waiters", o.Waiters, "Number of goroutines calling Wait")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Wait timeout, 0 polls and a negative value waits forever")
	fs.DurationVar(&o.Interval, "interval", o.Interval, "Pause between two signals")
}

func (o *SemaphoreOptions) Validate() error {
	if o.Waiters < 0 {
		return errors.Errorf("--waiters must not be negative, got %d", o.Waiters)
	}
	if o.Interval < 0 {
		return errors.Errorf("--interval must not be negative, got %v", o.Interval)
	}
	return nil
}

// SemaphoreReport sums up a semaphore run.
type SemaphoreReport struct {
	Acquired int64
	TimedOut int64
	Woken    int64
	Final    int64
}

// Run starts the waiters and signals once per waiter that had to block.
func (o *SemaphoreOptions) Run() (*SemaphoreReport, error) {
	s, err := semaphore.New(o.Value)
	if err != nil {
		return nil, err
	}

	var (
		report   SemaphoreReport
		returned atomic.Int64
		eg       errgroup.Group
	)
	for i := 0; i < o.Waiters; i++ {
		eg.Go(func() error {
			if s.Wait(o.Timeout) {
				atomic.AddInt64(&report.Acquired, 1)
			} else {
				atomic.AddInt64(&report.TimedOut, 1)
			}
			returned.Add(1)
			return nil
		})
	}

	blocked := int64(o.Waiters) - o.Value
	for i := int64(0); i < blocked; i++ {
		time.Sleep(o.Interval)
		if s.Signal() {
			report.Woken++
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	report.Final = s.Value()
	klog.V(4).InfoS("Semaphore run finished", "returned", returned.Load(), "value", report.Final)
	return &report, nil
}

func (r *SemaphoreReport) Print(w io.Writer) {
	fmt.Fprintf(w, "acquired:  %d\n", r.Acquired)
	fmt.Fprintf(w, "timed out: %d\n", r.TimedOut)
	fmt.Fprintf(w, "woken:     %d\n", r.Woken)
	fmt.Fprintf(w, "value:     %d\n", r.Final)
}

func NewCmdSemaphore() *cobra.Command {
	opt := NewSemaphoreOptions()
	cmd := &cobra.Command{
		Use:               "semaphore",
		Short:             "Queue goroutines on a counting semaphore and signal them out",
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
