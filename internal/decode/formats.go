package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

const (
	pcmChunkFrames = 8192 // Frames pulled per PCMBuffer call
	mp3Channels    = 2    // go-mp3 always emits interleaved stereo
	mp3BytesPer    = 2    // 16-bit little-endian PCM

	wavFormatPCM        = 1      // WAVE_FORMAT_PCM
	wavFormatIEEEFloat  = 3      // WAVE_FORMAT_IEEE_FLOAT
	wavFormatExtensible = 0xFFFE // WAVE_FORMAT_EXTENSIBLE, treated as integer PCM
	pcm8Bits            = 8
	pcm8Midpoint        = 128
	float32Bits         = 32
)

// pcmReader is the subset of the go-audio decoders used here, shared by the
// WAV and AIFF paths.
type pcmReader interface {
	Format() *audio.Format
	PCMBuffer(buf *audio.IntBuffer) (int, error)
}

// drainPCM reads every interleaved sample from dec.
func drainPCM(dec pcmReader) (*audio.Format, []int, error) {
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, nil, fmt.Errorf("%w: missing format information", ErrDecodeFailure)
	}

	buf := &audio.IntBuffer{
		Format: format,
		Data:   make([]int, pcmChunkFrames*format.NumChannels),
	}
	var data []int
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: reading PCM: %w", ErrDecodeFailure, err)
		}
		if n == 0 {
			break
		}
		data = append(data, buf.Data[:n]...)
	}
	return format, data, nil
}

// readIntPCM drains dec and returns planar channels normalized for signed
// PCM of bitDepth bits.
func readIntPCM(dec pcmReader, bitDepth int) (*Clip, error) {
	format, data, err := drainPCM(dec)
	if err != nil {
		return nil, err
	}
	return &Clip{
		SampleRate: format.SampleRate,
		Channels:   deinterleave(data, format.NumChannels, 1/fullScale(bitDepth)),
	}, nil
}

// read8BitPCM handles 8-bit PCM. go-audio returns every 8-bit sample as its
// raw byte value: WAV stores them unsigned around pcm8Midpoint, AIFF stores
// them as two's complement.
func read8BitPCM(dec pcmReader, signed bool) (*Clip, error) {
	format, data, err := drainPCM(dec)
	if err != nil {
		return nil, err
	}
	for i, v := range data {
		if signed {
			data[i] = int(int8(uint8(v)))
		} else {
			data[i] = v - pcm8Midpoint
		}
	}
	return &Clip{
		SampleRate: format.SampleRate,
		Channels:   deinterleave(data, format.NumChannels, 1/fullScale(pcm8Bits)),
	}, nil
}

// readFloat32PCM reinterprets the 32-bit words go-audio/wav hands back as
// IEEE-754 single precision samples.
func readFloat32PCM(dec pcmReader) (*Clip, error) {
	format, data, err := drainPCM(dec)
	if err != nil {
		return nil, err
	}
	samples := make([]float32, len(data))
	for i, v := range data {
		samples[i] = math.Float32frombits(uint32(int32(v)))
	}
	return &Clip{
		SampleRate: format.SampleRate,
		Channels:   deinterleave(samples, format.NumChannels, 1),
	}, nil
}

// WAVDecoder decodes RIFF/WAVE files with go-audio/wav: integer PCM at 8, 16,
// 24 or 32 bits and 32-bit IEEE float. Other format tags are rejected.
type WAVDecoder struct{}

// Decode implements Decoder.
func (WAVDecoder) Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrDecodeFailure)
	}

	bitDepth := int(dec.BitDepth)
	switch dec.WavAudioFormat {
	case wavFormatPCM, wavFormatExtensible:
		if bitDepth == pcm8Bits {
			return read8BitPCM(dec, false)
		}
		return readIntPCM(dec, bitDepth)
	case wavFormatIEEEFloat:
		if bitDepth != float32Bits {
			return nil, fmt.Errorf("%w: unsupported %d-bit float WAV", ErrDecodeFailure, bitDepth)
		}
		return readFloat32PCM(dec)
	default:
		return nil, fmt.Errorf("%w: unsupported WAV format tag %#x", ErrDecodeFailure, dec.WavAudioFormat)
	}
}

// AIFFDecoder decodes AIFF files with go-audio/aiff. The ray tracer writes
// its impulse responses in this format.
type AIFFDecoder struct{}

// Decode implements Decoder.
func (AIFFDecoder) Decode(r io.ReadSeeker) (*Clip, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid AIFF file", ErrDecodeFailure)
	}
	dec.ReadInfo()
	if dec.BitDepth == pcm8Bits {
		return read8BitPCM(dec, true)
	}
	return readIntPCM(dec, int(dec.BitDepth))
}

// FLACDecoder decodes FLAC streams with mewkiz/flac.
type FLACDecoder struct{}

// Decode implements Decoder.
func (FLACDecoder) Decode(r io.ReadSeeker) (*Clip, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid FLAC stream: %w", ErrDecodeFailure, err)
	}
	defer func() { _ = stream.Close() }()

	channels := int(stream.Info.NChannels)
	if channels == 0 {
		return nil, fmt.Errorf("%w: FLAC stream has no channels", ErrDecodeFailure)
	}
	scale := 1 / fullScale(int(stream.Info.BitsPerSample))

	planar := make([][]float64, channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading FLAC frame: %w", ErrDecodeFailure, err)
		}
		if len(frame.Subframes) != channels {
			return nil, fmt.Errorf("%w: FLAC frame has %d subframes, stream has %d channels",
				ErrDecodeFailure, len(frame.Subframes), channels)
		}
		for ch, sub := range frame.Subframes {
			for _, s := range sub.Samples {
				planar[ch] = append(planar[ch], float64(s)*scale)
			}
		}
	}

	return &Clip{SampleRate: int(stream.Info.SampleRate), Channels: planar}, nil
}

// MP3Decoder decodes MPEG-1/2 Layer III with hajimehoshi/go-mp3.
type MP3Decoder struct{}

// Decode implements Decoder.
func (MP3Decoder) Decode(r io.ReadSeeker) (*Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid MP3 stream: %w", ErrDecodeFailure, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: reading MP3 frames: %w", ErrDecodeFailure, err)
	}

	samples := make([]int32, len(raw)/mp3BytesPer)
	for i := range samples {
		samples[i] = int32(int16(binary.LittleEndian.Uint16(raw[i*mp3BytesPer:])))
	}

	return &Clip{
		SampleRate: dec.SampleRate(),
		Channels:   deinterleave(samples, mp3Channels, 1/fullScale(16)),
	}, nil
}

// VorbisDecoder decodes Ogg Vorbis with jfreymuth/oggvorbis.
type VorbisDecoder struct{}

// Decode implements Decoder.
func (VorbisDecoder) Decode(r io.ReadSeeker) (*Clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid Ogg Vorbis stream: %w", ErrDecodeFailure, err)
	}
	if format == nil || format.Channels <= 0 {
		return nil, fmt.Errorf("%w: Ogg Vorbis stream has no channels", ErrDecodeFailure)
	}

	return &Clip{
		SampleRate: format.SampleRate,
		Channels:   deinterleave(data, format.Channels, 1),
	}, nil
}
