// Package sound plays the kiosk's new-reply chime through OS-native audio
// commands.
package sound

import "embed"

// soundFiles holds the default chime.
//
//go:embed sounds/*.wav
var soundFiles embed.FS

const defaultSound = "sounds/notification.wav"
