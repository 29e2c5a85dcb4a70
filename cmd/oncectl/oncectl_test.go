package main

import (
	"bytes"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestRaceOptions(t *testing.T) {
	g := NewWithT(t)

	opt := NewRaceOptions()
	opt.Callers = 0
	g.Expect(opt.Validate()).To(MatchError(ContainSubstring("--callers")))

	opt = NewRaceOptions()
	opt.Callers, opt.Rounds, opt.ActionDelay = 64, 3, time.Millisecond
	g.Expect(opt.Validate()).To(Succeed())

	report, err := opt.Run()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(report.Invocations).To(BeEquivalentTo(3))

	var out bytes.Buffer
	report.Print(&out)
	g.Expect(out.String()).To(ContainSubstring("invocations: 3"))
}

func TestScenario(t *testing.T) {
	g := NewWithT(t)

	opt := NewScenarioOptions()
	g.Expect(opt.Validate()).To(Succeed())
	g.Expect(opt.Run()).To(Succeed())

	opt.Sleep = 0
	g.Expect(opt.Validate()).To(HaveOccurred())
}

func TestSemaphoreRun(t *testing.T) {
	g := NewWithT(t)

	opt := NewSemaphoreOptions()
	opt.Value, opt.Waiters = 1, 5
	report, err := opt.Run()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(report.Acquired).To(BeEquivalentTo(5))
	g.Expect(report.TimedOut).To(BeZero())
	g.Expect(report.Final).To(BeZero())

	opt.Value = -1
	_, err = opt.Run()
	g.Expect(err).To(HaveOccurred())
}

func TestRootCommand(t *testing.T) {
	g := NewWithT(t)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"race", "--callers=16", "--rounds=2"})
	g.Expect(cmd.Execute()).To(Succeed())
	g.Expect(out.String()).To(ContainSubstring("rounds:      2"))
}
