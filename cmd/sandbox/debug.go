package main

import (
	"fmt"
	"time"

	"github.com/easel2d/easel/board"
	"github.com/easel2d/easel/engine/colors"
	"github.com/easel2d/easel/engine/core"
	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/profiler"
	"github.com/easel2d/easel/engine/surface"
	"github.com/easel2d/easel/engine/text"
)

// debugLayerID sits above the board overlay. The run loop marks it dirty
// once a second; redrawing it from its own render func would never settle.
const debugLayerID = "debug"

func newDebugOverlay(b *board.Board, fonts *text.Source) error {
	if _, err := b.Canvas.CreateLayer(debugLayerID, 100); err != nil {
		return err
	}
	start := time.Now()
	return b.Canvas.AddObject(core.Object{
		ID:      "debug-stats",
		LayerID: debugLayerID,
		Bounds:  geom.R(0, 0, 460, 70),
		Render: func(s surface.Surface, _ float64) {
			img := s.Image()
			face := fonts.Face(13)
			m := b.Canvas.Metrics()
			rs := profiler.Stats()

			lines := []string{
				fmt.Sprintf("frame %d  last %.2f ms  avg %.2f ms  dropped %d",
					m.FrameCount, ms(m.LastFrameTime), ms(m.AverageFrameTime), m.DroppedFrames),
				fmt.Sprintf("objects %d  selected %d  scale %.2f",
					b.Store.Len(), len(b.Store.Selection()), b.Canvas.Camera().Scale()),
				fmt.Sprintf("heap %.1f MB  goroutines %d  up %s",
					float64(rs.HeapAlloc)/(1<<20), rs.Goroutines, time.Since(start).Round(time.Second)),
			}
			y := 18.0
			for _, line := range lines {
				face.Draw(img, line, 8, y, colors.DarkGray)
				y += face.LineHeight()
			}
		},
	})
}

func ms(d time.Duration) float64 { return d.Seconds() * 1000 }
