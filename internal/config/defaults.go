package config

const (
	defaultDataDir        = "~/.local/share/warbler"
	defaultConfigDir      = "~/.config/warbler"
	defaultUserAgent      = "Warbler/0.1 (species dataset collector)"
	defaultXenoCantoURL   = "https://xeno-canto.org/api/3/recordings"
	defaultWikipediaURL   = "https://en.wikipedia.org/api/rest_v1/page/summary"
	defaultINaturalistURL = "https://api.inaturalist.org/v1"
	defaultWikimediaURL   = "https://commons.wikimedia.org/w/api.php"
	defaultPhotoSource    = "inaturalist"

	defaultRequestTimeout    = 30
	defaultMaxRetries        = 3
	defaultRetryDelaySeconds = 2
	defaultRequestsPerSecond = 1.0
	defaultChunkSize         = 8192

	defaultMaxRecordings = 15
	defaultMinRecordings = 3
	defaultMinAudioBytes = 1000
	defaultMaxPhotos     = 10
	defaultMinPhotos     = 3
	defaultMinPhotoBytes = 50000
	defaultMaxPhotoBytes = 50 * 1024 * 1024

	defaultCacheExpiryDays = 7

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// defaultQualityGrades is the allow-list of xeno-canto quality ratings kept by
// the recordings filter. "no score" keeps unrated recordings.
var defaultQualityGrades = []string{"A", "B", "no score"}

// defaultSkipKeywords screens out Wikimedia search hits that are clearly not
// field photos (icons, range maps, diagrams).
var defaultSkipKeywords = []string{
	"icon", "logo", "map", "range", "distribution",
	"diagram", "chart", "illustration.svg",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			PhotosDir:   defaultDataDir + "/photos",
			AudioDir:    defaultDataDir + "/audio",
			CacheDir:    defaultDataDir + "/cache",
			LogDir:      defaultDataDir + "/logs",
			DatasetFile: defaultDataDir + "/dataset.json",
		},
		HTTP: HTTP{
			UserAgent:         defaultUserAgent,
			RequestTimeout:    defaultRequestTimeout,
			MaxRetries:        defaultMaxRetries,
			RetryDelaySeconds: defaultRetryDelaySeconds,
			RequestsPerSecond: defaultRequestsPerSecond,
			ChunkSize:         defaultChunkSize,
		},
		XenoCanto: XenoCanto{
			BaseURL:       defaultXenoCantoURL,
			QualityGrades: append([]string{}, defaultQualityGrades...),
			MaxRecordings: defaultMaxRecordings,
			MinRecordings: defaultMinRecordings,
			MinAudioBytes: defaultMinAudioBytes,
		},
		Wikipedia: Wikipedia{
			BaseURL: defaultWikipediaURL,
		},
		Photos: Photos{
			Source:       defaultPhotoSource,
			MaxPhotos:    defaultMaxPhotos,
			MinPhotos:    defaultMinPhotos,
			MinBytes:     defaultMinPhotoBytes,
			MaxBytes:     defaultMaxPhotoBytes,
			SkipKeywords: append([]string{}, defaultSkipKeywords...),
		},
		INaturalist: INaturalist{
			BaseURL: defaultINaturalistURL,
		},
		Wikimedia: Wikimedia{
			BaseURL: defaultWikimediaURL,
		},
		Cache: Cache{
			Enabled:    true,
			ExpiryDays: defaultCacheExpiryDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
