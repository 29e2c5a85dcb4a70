package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/qxcheng/dispatch-once/pkg/once"
)

type ScenarioOptions struct {
	Waiters int
	Sleep   time.Duration
}

func NewScenarioOptions() *ScenarioOptions {
	return &ScenarioOptions{
		Waiters: 9,
		Sleep:   10 * time.Millisecond,
	}
}

func (o *ScenarioOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.Waiters, "waiters", o.Waiters, "Number of goroutines that arrive while the first action sleeps")
	fs.DurationVar(&o.Sleep, "sleep", o.Sleep, "How long the first action sleeps before setting the flag")
}

func (o *ScenarioOptions) Validate() error {
	if o.Waiters < 0 {
		return errors.Errorf("--waiters must not be negative, got %d", o.Waiters)
	}
	if o.Sleep <= 0 {
		return errors.Errorf("--sleep must be positive, got %v", o.Sleep)
	}
	return nil
}

// Run lets one goroutine claim a guard with a slow action and sends the
// other goroutines in with a different action while it sleeps. Only the first
// action may run and nobody may return before its flag is set.
func (o *ScenarioOptions) Run() error {
	var (
		guard   once.Guard
		flag    atomic.Bool
		a2      atomic.Int64
		claimed = make(chan struct{})
		eg      errgroup.Group
	)

	eg.Go(func() error {
		guard.Do(func() {
			close(claimed)
			time.Sleep(o.Sleep)
			flag.Store(true)
		})
		if !flag.Load() {
			return errors.New("T1 returned before the flag was set")
		}
		return nil
	})
	<-claimed

	for i := 0; i < o.Waiters; i++ {
		id := i + 2
		eg.Go(func() error {
			guard.Do(func() { a2.Add(1) })
			if !flag.Load() {
				return errors.Errorf("T%d returned before the flag was set", id)
			}
			klog.V(4).InfoS("Caller returned", "caller", fmt.Sprintf("T%d", id))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	if n := a2.Load(); n != 0 {
		return errors.Errorf("second action ran %d times", n)
	}
	return nil
}

func NewCmdScenario() *cobra.Command {
	opt := NewScenarioOptions()
	cmd := &cobra.Command{
		Use:               "scenario",
		Short:             "Run a slow action while late callers queue behind it",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opt.Validate(); err != nil {
				return err
			}
			if err := opt.Run(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d late callers waited for the first action\n", opt.Waiters)
			return nil
		},
	}
	opt.AddFlags(cmd.Flags())
	return cmd
}
