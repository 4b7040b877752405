// Package whisperx runs a Whisper-family speech recognition CLI (openai
// whisper, whisperx, or a compatible wrapper) and loads the JSON transcript
// it writes. The engine asks for word-level timestamps so the splitter can
// cut long utterances at word boundaries.
package whisperx
