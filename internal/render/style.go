package render

import (
	"slices"
	"strings"
)

// Style names a visual treatment.
type Style string

const (
	StyleSmooth   Style = "smooth"
	StyleDynamic  Style = "dynamic"
	StyleKenBurns Style = "ken_burns"
	// StyleDefault is used for any unrecognized name.
	StyleDefault Style = "default"
)

// Motion describes the zoom applied across a clip.
type Motion struct {
	From float64
	To   float64
}

// Static reports whether the clip has no zoom.
func (m Motion) Static() bool {
	return m.From == m.To
}

// ZoomsIn reports whether the zoom grows over the clip.
func (m Motion) ZoomsIn() bool {
	return m.To > m.From
}

// Effect is the treatment for one clip.
type Effect struct {
	Fade   float64
	Motion Motion
}

type styleSpec struct {
	maxFade   float64
	fadeRatio float64
	motion    func(position int) Motion
}

var noMotion = func(int) Motion { return Motion{From: 1, To: 1} }

var styles = map[Style]styleSpec{
	StyleSmooth: {maxFade: 0.5, fadeRatio: 0.30, motion: noMotion},
	StyleDynamic: {maxFade: 0.3, fadeRatio: 0.20, motion: func(int) Motion {
		return Motion{From: 1.0, To: 1.05}
	}},
	StyleKenBurns: {maxFade: 0.4, fadeRatio: 0.25, motion: func(position int) Motion {
		if position%2 == 0 {
			return Motion{From: 1.0, To: 1.15}
		}
		return Motion{From: 1.15, To: 1.0}
	}},
	StyleDefault: {maxFade: 0.3, fadeRatio: 0.20, motion: noMotion},
}

// ParseStyle maps a configured name onto a known style, falling back to
// StyleDefault.
func ParseStyle(name string) Style {
	style := Style(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := styles[style]; ok {
		return style
	}
	return StyleDefault
}

// Styles lists the recognized style names in a stable order.
func Styles() []Style {
	out := make([]Style, 0, len(styles))
	for style := range styles {
		out = append(out, style)
	}
	slices.Sort(out)
	return out
}

// EffectFor returns the treatment for a clip of duration seconds at the
// given timeline position.
func EffectFor(style Style, duration float64, position int) Effect {
	spec, ok := styles[style]
	if !ok {
		spec = styles[StyleDefault]
	}
	return Effect{
		Fade:   min(spec.maxFade, duration*spec.fadeRatio),
		Motion: spec.motion(position),
	}
}
