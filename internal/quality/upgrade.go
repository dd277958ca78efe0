package quality

import "github.com/vmunix/arrgo/pkg/release"

// CurrentQuality mirrors the catalog's quality_statuses row for a held
// file: just enough of the original release's fields to reconstruct a
// synthetic release.Info for re-scoring.
type CurrentQuality struct {
	Resolution release.Resolution
	Source     release.Source
	Codec      release.Codec
	HDR        release.HDRFormat
	Audio      release.AudioCodec
	Edition    string
	IsRemux    bool
}

func (c CurrentQuality) toInfo() release.Info {
	return release.Info{
		Resolution: c.Resolution,
		Source:     c.Source,
		Codec:      c.Codec,
		HDR:        c.HDR,
		Audio:      c.Audio,
		Edition:    c.Edition,
		IsRemux:    c.IsRemux,
	}
}

// IsUpgrade scores a synthetic release built from the currently-held
// file's stored quality fields and returns true iff the new release's score
// strictly exceeds it.
func IsUpgrade(newInfo release.Info, current CurrentQuality, preset Preset) bool {
	_, newScore := MatchesTarget(newInfo, preset)
	_, currentScore := MatchesTarget(current.toInfo(), preset)
	return newScore > currentScore
}

// CurrentQualityFromStrings rebuilds a CurrentQuality from a
// catalog.QualityStatus row's stamped string fields (each written as the
// corresponding pkg/release enum's String() form), using the same token
// parsing FromProfile applies to TOML-configured profiles.
func CurrentQualityFromStrings(resolution, source, codec, hdr, audio, edition string, isRemux bool) CurrentQuality {
	return CurrentQuality{
		Resolution: parseResolutionToken(resolution),
		Source:     parseSourceToken(source),
		Codec:      parseCodecToken(codec),
		HDR:        parseHDRToken(hdr),
		Audio:      parseAudioToken(audio),
		Edition:    edition,
		IsRemux:    isRemux,
	}
}
