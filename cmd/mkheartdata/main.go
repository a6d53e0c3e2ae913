// Generates the sample heart volume bundled under heartdata/data.
//
// The upstream dataset is a downsampled HiP-CT scan pulled from public
// cloud storage; to keep the repository self-contained this tool
// synthesizes a phantom of the same shape and dtype instead, then runs
// it through the same preparation pipeline: percentile clipping and
// rescaling to the full 8-bit range before saving as a chunked zarr
// store.
package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/hoa-vis/heartslice/volume"
	"github.com/hoa-vis/heartslice/zarr"
)

func main() {
	var (
		height = flag.Int("height", 96, "volume height")
		width  = flag.Int("width", 96, "volume width")
		depth  = flag.Int("depth", 48, "number of z-slices")
		chunk  = flag.Int("chunk", 64, "chunk edge length")
		codec  = flag.String("codec", "zlib", "compressor id (zlib, gzip, zstd, empty for raw)")
		level  = flag.Int("level", 9, "compression level, 0 for the codec default")
		out    = flag.String("o", "heartdata/data", "store base directory")
		name   = flag.String("name", "hoa_heart.zarr", "array name within the store")
		seed   = flag.Int64("seed", 1, "phantom noise seed")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	g := phantom(*height, *width, *depth, *seed)
	clipRescale(g.Data(), 0.01, 0.99)

	store, err := zarr.NewLocalStore(*out)
	if err != nil {
		sugar.Fatalw("open store", "dir", *out, "error", err)
	}
	err = zarr.Save(store, *name, g,
		zarr.WithChunks(*chunk, *chunk, *chunk),
		zarr.WithDtype("|u1"),
		zarr.WithCompressor(*codec, *level),
	)
	if err != nil {
		sugar.Fatalw("save array", "name", *name, "error", err)
	}
	sugar.Infow("dataset written", "dir", *out, "name", *name,
		"shape", g.Shape(), "chunk", *chunk, "codec", *codec)
}

// phantom builds a heart-ish test volume: two overlapping ellipsoidal
// lobes with a denser wall than interior, plus mild noise so the slices
// have visible texture.
func phantom(h, w, d int, seed int64) *volume.Grid {
	rng := rand.New(rand.NewSource(seed))
	g := volume.NewGrid(h, w, d)

	lobes := [2][3]float64{
		{float64(h) * 0.42, float64(w) * 0.38, float64(d) * 0.5},
		{float64(h) * 0.58, float64(w) * 0.62, float64(d) * 0.5},
	}
	radius := 0.33 * math.Min(float64(h), float64(w))

	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			for k := 0; k < d; k++ {
				v := 0.0
				for _, c := range lobes {
					di, dj := float64(i)-c[0], float64(j)-c[1]
					dk := (float64(k) - c[2]) * float64(h) / float64(d)
					r := math.Sqrt(di*di+dj*dj+dk*dk) / radius
					// bright wall at r≈1, dimmer chamber inside
					wall := math.Exp(-8 * (r - 1) * (r - 1))
					chamber := 0.35 * math.Exp(-r*r)
					v = math.Max(v, wall+chamber)
				}
				g.Set(v+0.05*rng.Float64(), i, j, k)
			}
		}
	}
	return g
}

// clipRescale clips data to the [lo, hi] quantiles and rescales it to
// 0..255, mirroring the preparation applied to the real scan.
func clipRescale(data []float64, lo, hi float64) {
	sorted := append([]float64{}, data...)
	sort.Float64s(sorted)
	qlo := sorted[int(lo*float64(len(sorted)-1))]
	qhi := sorted[int(hi*float64(len(sorted)-1))]

	for i, v := range data {
		if v < qlo {
			v = qlo
		}
		if v > qhi {
			v = qhi
		}
		data[i] = math.Floor((v - qlo) * 255 / (qhi - qlo))
	}
}
