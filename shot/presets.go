package shot

// DefaultPresets returns the built-in skill preset catalog. OfflineDeg is the
// lateral dispersion half-angle, DistPct the distance dispersion as a
// percentage of shot length. Values follow published dispersion studies for
// the respective ability bands.
func DefaultPresets() []SkillPreset {
	return []SkillPreset{
		{Name: "tour", OfflineDeg: 4.3, DistPct: 3.9},
		{Name: "scratch", OfflineDeg: 5.9, DistPct: 4.7},
		{Name: "low", OfflineDeg: 6.8, DistPct: 5.6},
		{Name: "mid", OfflineDeg: 8.2, DistPct: 6.6},
		{Name: "high", OfflineDeg: 10.5, DistPct: 8.3},
	}
}

// PresetByName looks a preset up in the built-in catalog.
func PresetByName(name string) (SkillPreset, bool) {
	for _, p := range DefaultPresets() {
		if p.Name == name {
			return p, true
		}
	}
	return SkillPreset{}, false
}
