package quality

import (
	"strings"

	"github.com/vmunix/arrgo/internal/config"
	"github.com/vmunix/arrgo/pkg/release"
)

func parseResolutionToken(s string) release.Resolution {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "2160p", "4k", "uhd":
		return release.Resolution2160p
	case "1080p":
		return release.Resolution1080p
	case "720p":
		return release.Resolution720p
	case "480p":
		return release.Resolution480p
	default:
		return release.ResolutionUnknown
	}
}

func parseSourceToken(s string) release.Source {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bluray", "blu-ray":
		return release.SourceBluRay
	case "webdl", "web-dl":
		return release.SourceWEBDL
	case "webrip", "web-rip":
		return release.SourceWEBRip
	case "hdtv":
		return release.SourceHDTV
	case "dvd":
		return release.SourceDVD
	case "cam":
		return release.SourceCAM
	case "telesync", "ts":
		return release.SourceTelesync
	default:
		return release.SourceUnknown
	}
}

func parseHDRToken(s string) release.HDRFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dolby vision", "dv", "dolbyvision":
		return release.DolbyVision
	case "hdr10+", "hdr10plus":
		return release.HDR10Plus
	case "hdr10":
		return release.HDR10
	case "hlg":
		return release.HLG
	case "hdr":
		return release.HDRGeneric
	default:
		return release.HDRNone
	}
}

func parseAudioToken(s string) release.AudioCodec {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "truehd atmos", "atmos":
		return release.AudioAtmos
	case "truehd":
		return release.AudioTrueHD
	case "dts-hd ma", "dtshd", "dts-hd":
		return release.AudioDTSHD
	case "dts":
		return release.AudioDTS
	case "eac3", "ddp", "dd+":
		return release.AudioEAC3
	case "ac3", "dd":
		return release.AudioAC3
	case "aac":
		return release.AudioAAC
	default:
		return release.AudioUnknown
	}
}

func parseCodecToken(s string) release.Codec {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "av1":
		return release.CodecAV1
	case "x265", "h265", "hevc":
		return release.CodecX265
	case "x264", "h264", "avc":
		return release.CodecX264
	default:
		return release.CodecUnknown
	}
}

// FromProfile builds a scoring/filtering Preset from a TOML-configured
// QualityProfile, resolving human-entered tokens ("1080p", "bluray",
// "hdr10") into pkg/release enums the way internal/search/scorer.go's
// ParseQualitySpec resolves a single freeform string. Unrecognized tokens
// are skipped rather than rejected, matching ParseQualitySpec's permissive
// style.
func FromProfile(name string, p config.QualityProfile) Preset {
	preset := Preset{
		Name:            name,
		MinSeeders:      p.MinSeeders,
		BlockedGroups:   p.BlockedGroups,
		TrustedGroups:   p.TrustedGroups,
		PreferDualAudio: p.PreferDualAudio,
	}

	for _, r := range p.Resolution {
		if res := parseResolutionToken(r); res > preset.MinResolution {
			preset.MinResolution = res
		}
	}
	for _, s := range p.Sources {
		if src := parseSourceToken(s); src != release.SourceUnknown {
			preset.Sources = append(preset.Sources, src)
		}
	}
	for _, h := range p.HDR {
		if hdr := parseHDRToken(h); hdr != release.HDRNone {
			preset.RequireHDR = append(preset.RequireHDR, hdr)
		}
	}
	for _, a := range p.Audio {
		if ac := parseAudioToken(a); ac != release.AudioUnknown {
			preset.RequireAudio = append(preset.RequireAudio, ac)
		}
	}
	for _, c := range p.Codecs {
		if codec := parseCodecToken(c); codec != release.CodecUnknown {
			preset.RequireCodec = append(preset.RequireCodec, codec)
		}
	}

	preset.CutoffResolution = parseResolutionToken(p.CutoffResolution)
	if preset.CutoffResolution == release.ResolutionUnknown {
		preset.CutoffResolution = preset.MinResolution
	}
	preset.CutoffSource = parseSourceToken(p.CutoffSource)
	if preset.CutoffSource == release.SourceUnknown && len(preset.Sources) > 0 {
		preset.CutoffSource = preset.Sources[0]
	}

	return preset
}
