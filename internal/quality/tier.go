// Package quality turns a parsed release into a comparable score and
// decides whether it satisfies a quality preset.
package quality

import "github.com/vmunix/arrgo/pkg/release"

// Tier is a coarse quality bucket formed by crossing resolution and source.
type Tier string

const (
	TierRemux2160p  Tier = "Remux-2160p"
	TierBluray2160p Tier = "Bluray-2160p"
	TierWEBDL2160p  Tier = "WEBDL-2160p"
	TierWEBRip2160p Tier = "WEBRip-2160p"
	TierHDTV2160p   Tier = "HDTV-2160p"
	TierRemux1080p  Tier = "Remux-1080p"
	TierBluray1080p Tier = "Bluray-1080p"
	TierWEBDL1080p  Tier = "WEBDL-1080p"
	TierWEBRip1080p Tier = "WEBRip-1080p"
	TierHDTV1080p   Tier = "HDTV-1080p"
	TierBluray720p  Tier = "Bluray-720p"
	TierWEBDL720p   Tier = "WEBDL-720p"
	TierWEBRip720p  Tier = "WEBRip-720p"
	TierHDTV720p    Tier = "HDTV-720p"
	TierDVD         Tier = "DVD"
	TierSDTV        Tier = "SDTV"
	TierUnknown     Tier = "Unknown"
)

// baseScores holds the fixed, roughly log-spaced base score per tier.
var baseScores = map[Tier]int{
	TierRemux2160p:  100000,
	TierBluray2160p: 80000,
	TierWEBDL2160p:  64000,
	TierWEBRip2160p: 51000,
	TierHDTV2160p:   40000,
	TierRemux1080p:  32000,
	TierBluray1080p: 25000,
	TierWEBDL1080p:  20000,
	TierWEBRip1080p: 16000,
	TierHDTV1080p:   12000,
	TierBluray720p:  9000,
	TierWEBDL720p:   7000,
	TierWEBRip720p:  5500,
	TierHDTV720p:    4000,
	TierDVD:         3000,
	TierSDTV:        2000,
	TierUnknown:     1000,
}

// ClassifyTier crosses resolution and source into a Tier, defaulting
// ambiguous web sources to WEBDL per spec.
func ClassifyTier(info release.Info) Tier {
	switch info.Resolution {
	case release.Resolution2160p:
		if info.IsRemux {
			return TierRemux2160p
		}
		switch info.Source {
		case release.SourceBluRay:
			return TierBluray2160p
		case release.SourceWEBRip:
			return TierWEBRip2160p
		case release.SourceHDTV:
			return TierHDTV2160p
		default:
			return TierWEBDL2160p
		}
	case release.Resolution1080p:
		if info.IsRemux {
			return TierRemux1080p
		}
		switch info.Source {
		case release.SourceBluRay:
			return TierBluray1080p
		case release.SourceWEBRip:
			return TierWEBRip1080p
		case release.SourceHDTV:
			return TierHDTV1080p
		case release.SourceDVD:
			return TierDVD
		default:
			return TierWEBDL1080p
		}
	case release.Resolution720p:
		switch info.Source {
		case release.SourceBluRay:
			return TierBluray720p
		case release.SourceWEBRip:
			return TierWEBRip720p
		case release.SourceHDTV:
			return TierHDTV720p
		case release.SourceDVD:
			return TierDVD
		default:
			return TierWEBDL720p
		}
	case release.Resolution480p:
		if info.Source == release.SourceDVD {
			return TierDVD
		}
		return TierSDTV
	default:
		switch info.Source {
		case release.SourceDVD:
			return TierDVD
		case release.SourceHDTV:
			return TierSDTV
		default:
			return TierUnknown
		}
	}
}

// BaseScore returns the fixed base score for a tier.
func BaseScore(t Tier) int {
	return baseScores[t]
}
