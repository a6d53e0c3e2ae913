// Renders a z-slice of the bundled heart volume to an image file.
package main

import (
	"flag"
	"log"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/hoa-vis/heartslice/heartdata"
	"github.com/hoa-vis/heartslice/render"
)

func main() {
	z := flag.Int("z", 0, "z-slice index")
	out := flag.String("o", "slice.png", "output image path")
	size := flag.Float64("size", 12, "image edge length in centimeters")
	lazy := flag.Bool("lazy", false, "read only the chunks covering the slice")
	flag.Parse()

	logger, err := zap.NewDevelopment() // or NewProduction
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	mode := heartdata.ModeEager
	if *lazy {
		mode = heartdata.ModeLazy
	}

	start := time.Now()
	vol, err := heartdata.Load(mode)
	if err != nil {
		sugar.Fatalw("load dataset", "path", heartdata.DataPath(), "error", err)
	}
	sugar.Infow("dataset loaded", "mode", mode, "shape", vol.Shape(), "elapsed", time.Since(start))

	p, err := render.Slice(vol, *z, nil)
	if err != nil {
		sugar.Fatalw("render slice", "z", *z, "error", err)
	}

	edge := vg.Length(*size) * vg.Centimeter
	if err := p.Save(edge, edge, *out); err != nil {
		sugar.Fatalw("save image", "path", *out, "error", err)
	}
	sugar.Infow("slice written", "z", *z, "path", *out)
}
