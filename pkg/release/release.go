// Package release provides types for parsing and representing media release information.
package release

// Resolution represents the video resolution of a release.
type Resolution int

const (
	ResolutionUnknown Resolution = iota
	Resolution480p
	Resolution720p
	Resolution1080p
	Resolution2160p
)

// unknownStr is the string representation for unknown values.
const unknownStr = "unknown"

func (r Resolution) String() string {
	switch r {
	case Resolution480p:
		return "480p"
	case Resolution720p:
		return "720p"
	case Resolution1080p:
		return "1080p"
	case Resolution2160p:
		return "2160p"
	default:
		return unknownStr
	}
}

// Source represents the media source type of a release.
type Source int

const (
	SourceUnknown Source = iota
	SourceBluRay
	SourceWEBDL
	SourceWEBRip
	SourceHDTV
	SourceCAM
	SourceTelesync
	SourceDVD
	SourceSatellite
)

func (s Source) String() string {
	switch s {
	case SourceBluRay:
		return "bluray"
	case SourceWEBDL:
		return "webdl"
	case SourceWEBRip:
		return "webrip"
	case SourceHDTV:
		return "hdtv"
	case SourceCAM:
		return "cam"
	case SourceTelesync:
		return "telesync"
	case SourceDVD:
		return "dvd"
	case SourceSatellite:
		return "satellite"
	default:
		return unknownStr
	}
}

// Rank orders sources for cutoff/upgrade comparisons. Remux is layered over
// SourceBluRay/SourceWEBDL via Info.IsRemux rather than being a distinct
// Source value, so quality.SourceRank folds that in on top of this.
func (s Source) Rank() int {
	switch s {
	case SourceBluRay:
		return 5
	case SourceWEBDL:
		return 4
	case SourceWEBRip:
		return 3
	case SourceHDTV:
		return 2
	case SourceDVD:
		return 1
	default:
		return 0
	}
}

// Codec represents the video codec used in a release.
type Codec int

const (
	CodecUnknown Codec = iota
	CodecX264
	CodecX265
	CodecAV1
)

func (c Codec) String() string {
	switch c {
	case CodecX264:
		return "x264"
	case CodecX265:
		return "x265"
	case CodecAV1:
		return "av1"
	default:
		return unknownStr
	}
}

// HDRFormat represents HDR/Dolby Vision formats.
type HDRFormat int

const (
	HDRNone    HDRFormat = iota
	HDRGeneric           // "HDR" without specific version
	HDR10
	HDR10Plus
	DolbyVision
	HLG
)

func (h HDRFormat) String() string {
	switch h {
	case HDRGeneric:
		return "HDR"
	case HDR10:
		return "HDR10"
	case HDR10Plus:
		return "HDR10+"
	case DolbyVision:
		return "DV"
	case HLG:
		return "HLG"
	default:
		return ""
	}
}

// AudioCodec represents the audio format of a release.
type AudioCodec int

const (
	AudioUnknown AudioCodec = iota
	AudioAAC
	AudioAC3  // Dolby Digital
	AudioEAC3 // DD+, DDP
	AudioDTS
	AudioDTSHD // DTS-HD MA
	AudioTrueHD
	AudioAtmos // TrueHD Atmos or DD+ Atmos
	AudioFLAC
	AudioOpus
	AudioDTSX
	AudioMP3
	AudioPCM
)

func (a AudioCodec) String() string {
	switch a {
	case AudioAAC:
		return "AAC"
	case AudioAC3:
		return "DD"
	case AudioEAC3:
		return "DD+"
	case AudioDTS:
		return "DTS"
	case AudioDTSHD:
		return "DTS-HD MA"
	case AudioTrueHD:
		return "TrueHD"
	case AudioAtmos:
		return "Atmos"
	case AudioFLAC:
		return "FLAC"
	case AudioOpus:
		return "Opus"
	case AudioDTSX:
		return "DTS:X"
	case AudioMP3:
		return "MP3"
	case AudioPCM:
		return "PCM"
	default:
		return ""
	}
}

// Info contains parsed release information.
type Info struct {
	Title      string
	Year       int
	Season     int
	Episode    int    // Primary episode (first in range), kept for backward compatibility
	Episodes   []int  // All episodes in release (e.g., [5,6,7] for S01E05-E07)
	EpisodeEnd int    // Last episode of a multi-episode range, 0 if single episode
	Absolute   int    // Anime absolute episode number, 0 if not anime-numbered
	DailyDate  string // Daily show date in YYYY-MM-DD format (e.g., "2026-01-16")
	Resolution Resolution
	Source     Source
	Codec      Codec
	Group      string
	Proper     bool
	Repack     bool
	Rerip      bool // distinct "RERIP" tag, separate from REPACK
	Syncfix    bool

	// Extended metadata
	HDR           HDRFormat
	Audio         AudioCodec
	AudioChannels string // "7.1", "5.1", "2.0", ...
	BitDepth      int    // 8, 10, 12; 0 if unspecified
	IsRemux       bool
	Edition       string // "Directors Cut", "Extended", "IMAX", etc.
	Service       string // Streaming service: NF, AMZN, DSNP, etc.
	Container     string // set when parsing a filename with an extension

	IsDS4K            bool // upscaled-then-downscaled "DS4K" marker
	IsUpscaled        bool // explicit "upscaled" marker
	IsSample          bool
	IsDisc            bool // untouched disc image/folder (BDMV, VIDEO_TS, ISO)
	IsArchive         bool // packed in rar/zip/7z rather than a raw media file
	IsCompressedAudio bool // lossy re-encode misrepresented as lossless
	IsHardcodedSubs   bool
	IsDubbed          bool
	IsFullscreen      bool // pan-and-scan "FS"/"Fullscreen" release, as opposed to widescreen

	// Anime-specific
	IsAnime      bool
	FansubGroup  string // bracketed group tag, e.g. "SubsPlease"
	Version      int    // release version suffix, "v2" -> 2, 0 means v1/unspecified
	HasDualAudio bool
	HasSoftSubs  bool

	// Season pack detection
	IsCompleteSeason bool // Complete season release (e.g., "Season 01", "S01")
	IsSplitSeason    bool // Split/partial season (e.g., "Season 1 Part 2")
	SplitPart        int  // Part number for split seasons

	// Normalized title for matching
	CleanTitle string

	// Seeders is populated by the caller from indexer metadata; never
	// derived from the release name itself.
	Seeders int
}
