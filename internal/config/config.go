// Package config defines service configuration structures and loading hooks.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CameraDevice selects the capture device index.
	CameraDevice int `koanf:"camera_device"`

	// SyntheticCamera replaces the webcam and dlib backend with the
	// deterministic development sources.
	SyntheticCamera bool `koanf:"synthetic_camera"`

	// ModelsDir holds the dlib model files for the vision backend.
	ModelsDir string `koanf:"models_dir"`

	// QueueSize bounds the frame and result queues.
	QueueSize int `koanf:"queue_size"`

	// Threshold is the minimum top-k mean cosine similarity for a match.
	Threshold float64 `koanf:"threshold"`

	// TopK is how many nearest embeddings vote per candidate.
	TopK int `koanf:"top_k"`

	// ConfidenceFloor is the minimum detection confidence.
	ConfidenceFloor float64 `koanf:"confidence_floor"`

	// FaceSize is the square embedder input size in pixels.
	FaceSize int `koanf:"face_size"`

	// MaxFrameWidth is the width frames are downscaled to.
	MaxFrameWidth int `koanf:"max_frame_width"`

	// DisplayMS is how long a recognized name stays on screen, in
	// milliseconds, after its last sighting.
	DisplayMS int `koanf:"display_ms"`

	// FrameIntervalMS paces camera reads, in milliseconds.
	FrameIntervalMS int `koanf:"frame_interval_ms"`

	// JPEGQuality sets the stream encoding quality (1-100).
	JPEGQuality int `koanf:"jpeg_quality"`

	// DataDir holds the attendance CSV files and the roster file.
	DataDir string `koanf:"data_dir"`

	// StoreBackend selects roster persistence: file or postgres.
	StoreBackend string `koanf:"store_backend"`

	// PostgresURL is the connection string for the postgres backend.
	PostgresURL string `koanf:"postgres_url"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		CameraDevice:    0,
		SyntheticCamera: false,
		ModelsDir:       "models",
		QueueSize:       2,
		Threshold:       0.75,
		TopK:            5,
		ConfidenceFloor: 0.9,
		FaceSize:        160,
		MaxFrameWidth:   640,
		DisplayMS:       2000,
		FrameIntervalMS: 33,
		JPEGQuality:     80,
		DataDir:         "data",
		StoreBackend:    "file",
		PostgresURL:     "",
	}
}
