// ABOUTME: Content and extension based codec detection
// ABOUTME: Recognizes WAV, FLAC, Ogg Opus, Ogg Vorbis and MP3 by their leading bytes
package decode

import (
	"bytes"
	"path/filepath"
	"strings"
)

// headSize covers the RIFF header, an ID3 header and the first Ogg page
const headSize = 512

func extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func isWAV(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[0:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WAVE"))
}

func isFLAC(head []byte) bool {
	return bytes.HasPrefix(head, []byte("fLaC"))
}

func isMP3(head []byte) bool {
	if bytes.HasPrefix(head, []byte("ID3")) {
		return true
	}
	return isMPEGHeader(head)
}

// isMPEGHeader checks a complete MPEG audio frame header: 11 sync bits, a
// defined version and layer, and bitrate and sample rate indexes that are
// neither free format nor reserved.
func isMPEGHeader(h []byte) bool {
	if len(h) < 4 || h[0] != 0xFF || h[1]&0xE0 != 0xE0 {
		return false
	}
	version := h[1] >> 3 & 0x03
	layer := h[1] >> 1 & 0x03
	bitrate := h[2] >> 4
	rate := h[2] >> 2 & 0x03
	return version != 1 && layer != 0 && bitrate != 0 && bitrate != 0x0F && rate != 0x03
}

func isOpus(head []byte) bool {
	return bytes.HasPrefix(head, []byte("OggS")) && bytes.Contains(head, []byte("OpusHead"))
}

func isVorbis(head []byte) bool {
	return bytes.HasPrefix(head, []byte("OggS")) && bytes.Contains(head, []byte("\x01vorbis"))
}

// opusChannels reads the output channel count from the OpusHead packet
func opusChannels(head []byte) int {
	i := bytes.Index(head, []byte("OpusHead"))
	// magic(8) version(1) channels(1)
	if i < 0 || i+9 >= len(head) {
		return 0
	}
	return int(head[i+9])
}
