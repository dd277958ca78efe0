package quality

import "github.com/vmunix/arrgo/pkg/release"

// RejectScore is returned for any release that fails hard rejection.
const RejectScore = -1000

func hdrBonus(h release.HDRFormat) int {
	switch h {
	case release.DolbyVision:
		return 20
	case release.HDR10Plus:
		return 15
	case release.HDR10:
		return 10
	case release.HLG:
		return 5
	default:
		return 0
	}
}

func audioBonus(a release.AudioCodec) int {
	switch a {
	case release.AudioAtmos:
		return 20
	case release.AudioTrueHD:
		return 15
	case release.AudioDTSHD:
		return 15
	case release.AudioDTSX:
		return 15
	case release.AudioFLAC:
		return 10
	case release.AudioEAC3:
		return 5
	case release.AudioDTS:
		return 3
	case release.AudioAC3:
		return 2
	default:
		return 0
	}
}

func codecBonus(c release.Codec) int {
	switch c {
	case release.CodecX265, release.CodecAV1:
		return 5
	case release.CodecX264:
		return 3
	default:
		return 0
	}
}

// Score computes the additive quality score for a release: the tier's base
// score plus every applicable modifier, or RejectScore if the release fails
// hard rejection.
func Score(info release.Info, preset Preset) int {
	if rejected(info, preset) {
		return RejectScore
	}

	score := BaseScore(ClassifyTier(info))
	score += hdrBonus(info.HDR)
	score += audioBonus(info.Audio)
	score += codecBonus(info.Codec)

	if info.BitDepth >= 10 {
		score += 5
	}
	if isTrustedGroup(info.Group, preset.TrustedGroups) {
		score += 5
	}
	if info.Proper || info.Repack {
		score += 5
	}
	if info.Rerip || info.Syncfix {
		score += 5
	}
	if info.IsDS4K {
		score += 3
	}
	if info.IsAnime && info.Version > 1 {
		score += 3 * (info.Version - 1)
	}
	if info.IsAnime && info.HasDualAudio && preset.PreferDualAudio {
		score += 10
	}
	if info.Seeders > 0 {
		bonus := info.Seeders / 10
		if bonus > 10 {
			bonus = 10
		}
		score += bonus
	}

	if info.IsFullscreen {
		score -= 20
	}
	if info.IsDubbed && !info.HasDualAudio {
		score -= 10
	}
	if info.IsAnime && info.FansubGroup != "" && !isTrustedGroup(info.FansubGroup, preset.TrustedGroups) {
		score -= 5
	}

	return score
}
