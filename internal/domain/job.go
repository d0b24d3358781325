package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusReady      JobStatus = "ready"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition can occur for the job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusReady || s == JobStatusFailed
}

// External maps the internal status onto the three states the API reports.
// A queued job is waiting inside an accepted request, so callers see it as
// processing until it reaches a terminal state.
func (s JobStatus) External() string {
	if s == JobStatusQueued {
		return string(JobStatusProcessing)
	}
	return string(s)
}

// Orientation selects the output aspect of the final video and of stock
// footage searches.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// AspectRatio returns the provider-facing aspect ratio string.
func (o Orientation) AspectRatio() string {
	if o == OrientationLandscape {
		return "16:9"
	}
	return "9:16"
}

// VisualSourceKind distinguishes where a scene's visual originates.
type VisualSourceKind string

const (
	VisualSourceStock          VisualSourceKind = "stock"
	VisualSourceGeneratedImage VisualSourceKind = "generatedImage"
	VisualSourceUploadedImage  VisualSourceKind = "uploadedImage"
)

// VisualSource describes an explicit visual for a scene. Value is an
// addressable reference (URL or storage key) to the image.
type VisualSource struct {
	Kind  VisualSourceKind `json:"kind"`
	Value string           `json:"value"`
}

// SceneSpec is one narration+visual segment of a requested video. Immutable
// once submitted.
type SceneSpec struct {
	Text            string        `json:"text"`
	SearchTerms     []string      `json:"searchTerms"`
	Visual          *VisualSource `json:"visual,omitempty"`
	AnimationPrompt string        `json:"animationPrompt,omitempty"`
	EndVisual       *VisualSource `json:"endVisual,omitempty"`
}

// RenderConfig carries the per-job knobs the pipeline and compositor honor.
type RenderConfig struct {
	Voice           string      `json:"voice,omitempty"`
	Orientation     Orientation `json:"orientation,omitempty"`
	PaddingBackMs   int         `json:"paddingBack,omitempty"`
	MusicMood       string      `json:"music,omitempty"`
	MusicVolume     string      `json:"musicVolume,omitempty"`
	CaptionPosition string      `json:"captionPosition,omitempty"`
	CaptionColor    string      `json:"captionBackgroundColor,omitempty"`
}

// Caption is one word/phrase span of the narration transcript. Offsets are
// milliseconds from the start of the scene's audio.
type Caption struct {
	Text    string `json:"text"`
	StartMs int    `json:"startMs"`
	EndMs   int    `json:"endMs"`
}

// AudioRef points at a scene's narration audio. Duration is seconds and is
// authoritative for timeline placement, not the underlying file length.
type AudioRef struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

// VisualKind tags the resolved visual track of a scene.
type VisualKind string

const (
	VisualKindVideo VisualKind = "video"
	VisualKindImage VisualKind = "image"
)

// VisualTrack is the resolved visual of a scene: exactly one video or one
// still image reference.
type VisualTrack struct {
	Kind VisualKind `json:"kind"`
	URL  string     `json:"url"`
}

// SceneResult is the fully resolved output of one scene.
type SceneResult struct {
	Captions []Caption   `json:"captions"`
	Audio    AudioRef    `json:"audio"`
	Visual   VisualTrack `json:"visual"`
}

// Job is one submitted request to assemble a video from scenes plus config.
// Owned by the queue from submission until it reaches a terminal state.
type Job struct {
	ID        string
	Scenes    []SceneSpec
	Config    RenderConfig
	Status    JobStatus
	Results   []SceneResult
	Error     *JobError
	CreatedAt time.Time
}
