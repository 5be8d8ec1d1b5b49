//go:build js && wasm

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"runtime"
	"syscall/js"

	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/mesh"
	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/MeKo-Tech/hydrasphere/internal/surface"
)

var (
	engine *surface.Engine
	buf    []surface.DisplacedVertex
	latest = &field.Latest{}
)

// initSphere builds the mesh. Arguments: widthSegments, heightSegments, radius.
func initSphere(this js.Value, args []js.Value) interface{} {
	width, height, radius := 128, 64, mesh.DefaultRadius
	if len(args) >= 2 {
		width, height = args[0].Int(), args[1].Int()
	}
	if len(args) >= 3 {
		radius = args[2].Float()
	}

	engine = surface.NewEngine(mesh.UVSphere(radius, width, height),
		surface.WithField(latest),
		surface.WithWorkers(runtime.GOMAXPROCS(0)))
	buf = nil
	return map[string]interface{}{"status": "ready", "vertices": engine.Len()}
}

// setParams applies a parameter query string such as "preset=twister&noiseStrength=0.6".
func setParams(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return map[string]interface{}{"error": "not initialised"}
	}
	if len(args) < 1 {
		return map[string]interface{}{"error": "missing arguments"}
	}
	p, err := params.ParseQuery(args[0].String(), engine.Parameters())
	if err != nil {
		return map[string]interface{}{"error": fmt.Sprintf("failed to parse params: %v", err)}
	}
	engine.SetParameters(p)
	return map[string]interface{}{"status": "ok"}
}

// publishField copies w*h RGBA pixels from the Uint8Array args[0] and publishes them
// as the external field. Arguments: bytes, width, height.
func publishField(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return map[string]interface{}{"error": "missing arguments"}
	}
	w, h := args[1].Int(), args[2].Int()
	if w <= 0 || h <= 0 || args[0].Length() < w*h*4 {
		return map[string]interface{}{"error": fmt.Sprintf("need %d bytes for %dx%d", w*h*4, w, h)}
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	js.CopyBytesToGo(img.Pix, args[0])
	latest.Publish(field.NewImageField(img))
	return map[string]interface{}{"status": "ok", "version": int(latest.Version())}
}

// frame evaluates time args[0] and copies positions, normals and distance
// (7 little-endian float32 per vertex) into the Uint8Array args[1].
func frame(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return map[string]interface{}{"error": "not initialised"}
	}
	if len(args) < 2 {
		return map[string]interface{}{"error": "missing arguments"}
	}

	var err error
	buf, err = engine.Frame(context.Background(), args[0].Float(), buf)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	out := make([]byte, 0, len(buf)*28)
	for _, v := range buf {
		for _, f := range [7]float64{
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.DistanceFromCenter,
		} {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(f)))
		}
	}
	n := js.CopyBytesToJS(args[1], out)
	return map[string]interface{}{"bytes": n, "vertices": len(buf)}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("hydrasphereInit", js.FuncOf(initSphere))
	js.Global().Set("hydrasphereParams", js.FuncOf(setParams))
	js.Global().Set("hydrasphereField", js.FuncOf(publishField))
	js.Global().Set("hydrasphereFrame", js.FuncOf(frame))

	fmt.Println("Hydrasphere WASM module loaded")
	<-c
}
