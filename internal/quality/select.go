package quality

import (
	"sort"

	"github.com/vmunix/arrgo/pkg/release"
)

// Candidate pairs a parsed release with its evaluation against a preset, so
// callers don't have to re-run MatchesTarget/CheckTargetMatch/MeetsCutoff
// after ranking.
type Candidate struct {
	Info         release.Info
	Score        int
	Accepted     bool
	MatchesTarget bool
	MeetsCutoff  bool
}

func evaluate(info release.Info, preset Preset) Candidate {
	accepted, score := MatchesTarget(info, preset)
	return Candidate{
		Info:          info,
		Score:         score,
		Accepted:      accepted,
		MatchesTarget: accepted && CheckTargetMatch(info, preset),
		MeetsCutoff:   accepted && MeetsCutoff(info, preset),
	}
}

// RankReleases evaluates every candidate release against preset and returns
// them sorted by: (1) meets-cutoff desc, (2) matches-target desc, (3) score
// desc. Rejected releases sort last.
func RankReleases(infos []release.Info, preset Preset) []Candidate {
	candidates := make([]Candidate, len(infos))
	for i, info := range infos {
		candidates[i] = evaluate(info, preset)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.MeetsCutoff != b.MeetsCutoff {
			return a.MeetsCutoff
		}
		if a.MatchesTarget != b.MatchesTarget {
			return a.MatchesTarget
		}
		return a.Score > b.Score
	})

	return candidates
}

// SelectBestRelease returns the highest-ranked accepted candidate, or false
// if every candidate was hard-rejected.
func SelectBestRelease(infos []release.Info, preset Preset) (Candidate, bool) {
	ranked := RankReleases(infos, preset)
	if len(ranked) == 0 || !ranked[0].Accepted {
		return Candidate{}, false
	}
	return ranked[0], true
}
