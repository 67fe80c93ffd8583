package orchestrator

// Lifecycle events emitted to the presentation shells.
const (
	EventScreenshotAdded         = "screenshot-added"
	EventProcessingStarted       = "processing-started"
	EventProcessingComplete      = "processing-complete"
	EventQueueReset              = "queue-reset"
	EventRecordingToggled        = "recording-toggled"
	EventAudioProcessingStarted  = "audio-processing-started"
	EventAudioStreamChunk        = "audio-stream-chunk"
	EventAudioProcessingComplete = "audio-processing-complete"
	EventAudioProcessingError    = "audio-processing-error"
	EventAudioQueueReset         = "audio-queue-reset"
)
