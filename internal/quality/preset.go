package quality

import "github.com/vmunix/arrgo/pkg/release"

// Preset configures how releases are scored and filtered for a library or
// content item. Replaces the teacher's single-axis accept-list profile with
// a richer target + cutoff model; internal/search/scorer.go's QualitySpec
// remains available as the simpler, backward-compatible path.
type Preset struct {
	Name string

	// Target (CheckTargetMatch)
	MinResolution release.Resolution
	Sources       []release.Source // empty means any source accepted
	RequireHDR    []release.HDRFormat
	RequireAudio  []release.AudioCodec
	RequireCodec  []release.Codec

	// Cutoff (MeetsCutoff / upgrade stopping point)
	CutoffResolution release.Resolution
	CutoffSource     release.Source

	// Hard rejection inputs
	MinSeeders    int
	BlockedGroups []string
	TrustedGroups []string

	// Anime
	PreferDualAudio bool
}

func containsSource(list []release.Source, s release.Source) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsHDR(list []release.HDRFormat, h release.HDRFormat) bool {
	for _, v := range list {
		if v == h {
			return true
		}
	}
	return false
}

func containsAudio(list []release.AudioCodec, a release.AudioCodec) bool {
	for _, v := range list {
		if v == a {
			return true
		}
	}
	return false
}

func containsCodec(list []release.Codec, c release.Codec) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

func isTrustedGroup(group string, trusted []string) bool {
	for _, g := range trusted {
		if equalFold(g, group) {
			return true
		}
	}
	return false
}

func isBlockedGroup(group string, blocked []string) bool {
	for _, g := range blocked {
		if equalFold(g, group) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// rejected applies the hard-rejection rules: cam source, hardcoded subs,
// compressed-audio, sample, blocked release group, too few seeders, or
// below the preset's minimum resolution.
func rejected(info release.Info, preset Preset) bool {
	if info.Source == release.SourceCAM || info.Source == release.SourceTelesync {
		return true
	}
	if info.IsHardcodedSubs {
		return true
	}
	if info.IsCompressedAudio {
		return true
	}
	if info.IsSample {
		return true
	}
	if isBlockedGroup(info.Group, preset.BlockedGroups) {
		return true
	}
	if preset.MinSeeders > 0 && info.Seeders < preset.MinSeeders {
		return true
	}
	if preset.MinResolution != release.ResolutionUnknown && info.Resolution < preset.MinResolution {
		return true
	}
	return false
}

// MatchesTarget applies hard-rejection and the minimum-resolution floor,
// returning whether the release is acceptable at all plus its score.
func MatchesTarget(info release.Info, preset Preset) (accepted bool, score int) {
	if rejected(info, preset) {
		return false, -1000
	}
	return true, Score(info, preset)
}

// CheckTargetMatch additionally verifies the release meets the preset's
// explicit target: resolution at least MinResolution, source in Sources
// (when non-empty), and HDR/audio/codec matching when the preset lists them.
func CheckTargetMatch(info release.Info, preset Preset) bool {
	accepted, _ := MatchesTarget(info, preset)
	if !accepted {
		return false
	}
	if preset.MinResolution != release.ResolutionUnknown && info.Resolution < preset.MinResolution {
		return false
	}
	if len(preset.Sources) > 0 && !containsSource(preset.Sources, info.Source) {
		return false
	}
	if len(preset.RequireHDR) > 0 && !containsHDR(preset.RequireHDR, info.HDR) {
		return false
	}
	if len(preset.RequireAudio) > 0 && !containsAudio(preset.RequireAudio, info.Audio) {
		return false
	}
	if len(preset.RequireCodec) > 0 && !containsCodec(preset.RequireCodec, info.Codec) {
		return false
	}
	return true
}

// MeetsCutoff reports whether the release is good enough that no further
// upgrade search is needed: resolution >= cutoff resolution and source rank
// >= cutoff source rank.
func MeetsCutoff(info release.Info, preset Preset) bool {
	if info.Resolution < preset.CutoffResolution {
		return false
	}
	if info.Resolution == preset.CutoffResolution && info.Source.Rank() < preset.CutoffSource.Rank() {
		return false
	}
	return true
}
