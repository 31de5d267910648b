package estop

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Guard runs the controller's safe shutdown exactly once, whichever
// termination path fires first: a delivered signal, a panic, or a normal
// exit. Processes that bind real hardware should arm one immediately
// after New.
type Guard struct {
	ctrl *Controller
	sigs chan os.Signal

	once     sync.Once
	stopOnce sync.Once
	done     chan struct{}
	reason   string
}

// NewGuard arms a guard for the controller. It registers for interrupt,
// termination and hangup signals; delivery of any of them drives the safe
// output level before Done is closed.
func NewGuard(c *Controller) *Guard {
	g := &Guard{
		ctrl: c,
		sigs: make(chan os.Signal, 2),
		done: make(chan struct{}),
	}
	signal.Notify(g.sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go g.watch()
	return g
}

func (g *Guard) watch() {
	for s := range g.sigs {
		log.Printf("estop: received %s, shutting down", signalName(s))
		g.Shutdown(signalName(s))
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGHUP:
		return "SIGHUP"
	}
	return "UNKNOWN"
}

// Shutdown closes the controller and records why. The first call wins;
// later and concurrent calls do nothing but wait for it to finish, so a
// signal racing a deferred Shutdown can never run the cleanup twice.
func (g *Guard) Shutdown(reason string) {
	g.once.Do(func() {
		g.reason = reason
		if err := g.ctrl.Close(); err != nil {
			log.Printf("estop: shutdown cleanup: %v", err)
		}
		g.detach()
		close(g.done)
	})
}

// Done is closed once the safe shutdown has completed. Monitor loops
// select on it to learn that a signal ended the process.
func (g *Guard) Done() <-chan struct{} { return g.done }

// Reason reports what triggered the shutdown, such as "SIGTERM" or
// "panic". It returns the empty string until Done is closed.
func (g *Guard) Reason() string {
	select {
	case <-g.done:
		return g.reason
	default:
		return ""
	}
}

// HandleCrash is meant to be deferred near the top of main or a worker
// goroutine. A panic runs the safe shutdown and is then re-raised, so the
// fault stays visible in the crash output.
func (g *Guard) HandleCrash() {
	if r := recover(); r != nil {
		g.Shutdown("panic")
		panic(r)
	}
}

// Stop disarms signal handling without shutting the controller down.
// Embedders that manage termination themselves use it to detach the
// guard; the controller is left open.
func (g *Guard) Stop() {
	g.detach()
}

func (g *Guard) detach() {
	g.stopOnce.Do(func() {
		signal.Stop(g.sigs)
		close(g.sigs)
	})
}
