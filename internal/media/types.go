package media

// AudioAsset is the synthesized narration. Duration is in seconds; a zero
// duration means "probe the file".
type AudioAsset struct {
	Path     string
	Duration float64
}

// ImageAsset is one generated section visual. Ordinal is the section index
// and fixes the display order.
type ImageAsset struct {
	Path    string
	Ordinal int
}

// VideoOutput is the terminal artifact of a pipeline run.
type VideoOutput struct {
	Path        string
	Fingerprint string
}
