package whisperx

// Config captures runtime settings for the recognizer CLI.
type Config struct {
	// Binary is the recognizer executable ("whisper", "whisperx", ...).
	Binary string
	// Model is the checkpoint name passed via --model.
	Model string
	// Device is passed via --device when set ("cuda", "cpu").
	Device         string
	TimeoutSeconds int
}

const (
	DefaultBinary  = "whisper"
	DefaultModel   = "large-v3"
	CPUDevice      = "cpu"
	CPUComputeType = "float32"
	OutputFormat   = "json"
)
