package app

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/windfield/config"
	"github.com/pthm-cable/windfield/engine"
)

// ParamUpdate is a partial change to the live parameters. Nil fields are left
// alone. It is the message format of the control panel, the websocket and
// config reloads.
type ParamUpdate struct {
	Particles    *int     `json:"particles,omitempty"`
	FadeOpacity  *float32 `json:"fadeOpacity,omitempty"`
	SpeedFactor  *float32 `json:"speedFactor,omitempty"`
	DropRate     *float32 `json:"dropRate,omitempty"`
	DropRateBump *float32 `json:"dropRateBump,omitempty"`
	SpeedScale   *float32 `json:"speedScale,omitempty"`
	Wind         *string  `json:"wind,omitempty"` // synthetic field kind
}

// Empty reports whether the update changes nothing.
func (u ParamUpdate) Empty() bool {
	return u == ParamUpdate{}
}

// FromConfig builds an update carrying every live-tunable value in cfg.
func FromConfig(cfg *config.Config) ParamUpdate {
	p := cfg.Derived.Params
	n := cfg.Particles.Count
	return ParamUpdate{
		Particles:    &n,
		FadeOpacity:  &p.FadeOpacity,
		SpeedFactor:  &p.SpeedFactor,
		DropRate:     &p.DropRate,
		DropRateBump: &p.DropRateBump,
		SpeedScale:   &p.SpeedScale,
	}
}

// Submit queues an update for the next frame. Safe for concurrent use.
func (a *App) Submit(u ParamUpdate) {
	if u.Empty() {
		return
	}
	a.mu.Lock()
	a.pending = append(a.pending, u)
	a.mu.Unlock()
}

// applyPending applies queued updates in arrival order.
func (a *App) applyPending() {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	for _, u := range pending {
		if err := a.apply(u); err != nil {
			a.log.Warn("parameter update rejected", "error", err)
		}
	}
}

// apply applies one update. Parameters are validated as a set, so a bad value
// rejects the whole parameter change while the particle count and wind parts
// stand on their own.
func (a *App) apply(u ParamUpdate) error {
	var errs []error

	if u.Particles != nil {
		n := *u.Particles
		lim := a.cfg.Particles
		if n < lim.Min || n > lim.Max {
			errs = append(errs, fmt.Errorf("%w: particles %d not in [%d, %d]", engine.ErrParameterOutOfRange, n, lim.Min, lim.Max))
		} else if n != a.eng.ParticleCount() {
			if _, err := a.eng.SetParticleCount(n); err != nil {
				errs = append(errs, err)
			}
		}
	}

	p := a.eng.Params()
	changed := false
	for _, f := range []struct {
		src *float32
		dst *float32
	}{
		{u.FadeOpacity, &p.FadeOpacity},
		{u.SpeedFactor, &p.SpeedFactor},
		{u.DropRate, &p.DropRate},
		{u.DropRateBump, &p.DropRateBump},
		{u.SpeedScale, &p.SpeedScale},
	} {
		if f.src != nil && *f.src != *f.dst {
			*f.dst = *f.src
			changed = true
		}
	}
	if changed {
		if err := a.eng.SetParams(p); err != nil {
			errs = append(errs, err)
		}
	}

	if u.Wind != nil {
		f, err := synthesize(a.cfg.Wind, *u.Wind)
		if err == nil {
			err = a.eng.SetField(f)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("wind %q: %w", *u.Wind, err))
		}
	}

	return errors.Join(errs...)
}
