package transcode

import "fmt"

// Filter selects an audio effect applied during transcoding.
// Filters are a soundboard-only feature; PCM-mode input rejects them.
type Filter string

const (
	FilterNone        Filter = ""
	FilterReverb      Filter = "reverb"
	FilterBassBoost   Filter = "bassboost"
	FilterTrebleBoost Filter = "trebleboost"
	FilterPitchUp     Filter = "pitchup"
	FilterPitchDown   Filter = "pitchdown"
	FilterNightcore   Filter = "nightcore"
	FilterSlowMo      Filter = "slowmo"
)

// filterChains maps each filter to its FFmpeg -af argument.
var filterChains = map[Filter]string{
	FilterReverb:      "aecho=0.8:0.9:40|60:0.4|0.3",
	FilterBassBoost:   "bass=g=12",
	FilterTrebleBoost: "treble=g=12",
	FilterPitchUp:     "asetrate=48000*1.25,aresample=48000",
	FilterPitchDown:   "asetrate=48000*0.8,aresample=48000",
	FilterNightcore:   "asetrate=48000*1.25,aresample=48000,atempo=1.1",
	FilterSlowMo:      "atempo=0.6",
}

// Chain returns the FFmpeg filter chain for f, or "" for FilterNone.
func (f Filter) Chain() string {
	return filterChains[f]
}

// ParseFilter converts a user-supplied filter name to a Filter.
func ParseFilter(s string) (Filter, error) {
	f := Filter(s)
	if f == FilterNone {
		return FilterNone, nil
	}
	if _, ok := filterChains[f]; !ok {
		return FilterNone, fmt.Errorf("unknown filter %q", s)
	}
	return f, nil
}

// Filters lists all selectable filters, for command option building.
func Filters() []Filter {
	return []Filter{
		FilterReverb,
		FilterBassBoost,
		FilterTrebleBoost,
		FilterPitchUp,
		FilterPitchDown,
		FilterNightcore,
		FilterSlowMo,
	}
}
