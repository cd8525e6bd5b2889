package main

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/wricardo/trailgame/game/engine"
)

const sampleRate = 44100

// Cue tones match the web client.
var cueTones = map[engine.Cue]struct {
	freq     float64
	duration time.Duration
}{
	engine.CueComputerMove: {440, 120 * time.Millisecond},
	engine.CuePlayerMove:   {660, 80 * time.Millisecond},
	engine.CueGameOver:     {220, 400 * time.Millisecond},
}

// cuePlayer plays the fixed audio cues. Playback is fire-and-forget.
type cuePlayer struct {
	ctx     *audio.Context
	samples map[engine.Cue][]byte
}

func newCuePlayer() *cuePlayer {
	p := &cuePlayer{
		ctx:     audio.NewContext(sampleRate),
		samples: make(map[engine.Cue][]byte, len(cueTones)),
	}
	for cue, tone := range cueTones {
		p.samples[cue] = beep(tone.freq, tone.duration)
	}
	return p
}

// Play starts cue and returns immediately. Unknown cues are silent.
func (p *cuePlayer) Play(cue engine.Cue) {
	pcm, ok := p.samples[cue]
	if !ok {
		return
	}
	p.ctx.NewPlayerFromBytes(pcm).Play()
}

// beep renders a fading sine tone as 16-bit little-endian stereo PCM.
func beep(freq float64, d time.Duration) []byte {
	n := int(float64(sampleRate) * d.Seconds())
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		fade := 1 - float64(i)/float64(n)
		v := int16(0.3 * fade * math.MaxInt16 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
		binary.LittleEndian.PutUint16(buf[4*i:], uint16(v))
		binary.LittleEndian.PutUint16(buf[4*i+2:], uint16(v))
	}
	return buf
}
