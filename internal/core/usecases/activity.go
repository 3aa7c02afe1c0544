package usecases

import (
	"github.com/samirrijal/mapscreen/internal/core/ports"
	"github.com/samirrijal/mapscreen/internal/pkg/metrics"
)

// networkActivity keeps the indicator visible while any request holds it.
// Confined to the main queue.
type networkActivity struct {
	indicator ports.NetworkActivityIndicator
	holds     int
}

// hold raises the indicator and returns a release func that lowers it at
// most once.
func (a *networkActivity) hold() func() {
	a.holds++
	if a.holds == 1 {
		a.set(true)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		a.holds--
		if a.holds == 0 {
			a.set(false)
		}
	}
}

func (a *networkActivity) visible() bool {
	return a.holds > 0
}

func (a *networkActivity) set(visible bool) {
	if a.indicator != nil {
		a.indicator.SetNetworkActivityIndicatorVisible(visible)
	}
	if visible {
		metrics.NetworkActivity.Set(1)
	} else {
		metrics.NetworkActivity.Set(0)
	}
}
