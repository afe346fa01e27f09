// Package transcode turns source audio into playable Opus frame streams
// for Discord voice playback.
//
// Each transcode spawns one FFmpeg process that emits ogg/opus at a fixed
// format (48 kHz, 16-bit, stereo). The ogg packets are repacked into a
// minimal binary stream of concatenated length-prefixed frames
// ([uint16 LE length][opus bytes]) and handed to the caller incrementally,
// so playback can begin before transcoding finishes.
//
// An optional effect filter maps to an FFmpeg -af chain. If a filtered
// transcode fails to start producing audio, the pipeline retries once
// without the filter before giving up.
package transcode
