// Package gui hosts the preview session in a giu window.
package gui

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/AllenDang/giu"
	"github.com/rs/zerolog"
	"github.com/sqweek/dialog"
	"golang.org/x/image/draw"

	"github.com/Rifine/smix/internal/preview"
	"github.com/Rifine/smix/internal/scale"
)

const (
	Title      = "smix preview"
	WinWidth   = 900
	WinHeight  = 600
	PanelWidth = 160
	ArgsWidth  = 260

	weightStep = 0.01
	scaleStep  = 0.1
)

// PathPrompter asks the user where to save. ok is false when they cancel.
type PathPrompter func(suggested, dir string) (path string, ok bool, err error)

// NativeSaveDialog prompts with the platform file dialog.
func NativeSaveDialog(suggested, dir string) (string, bool, error) {
	path, err := dialog.File().
		Filter("PNG", "png").
		Title("Save the preview image").
		SetStartDir(dir).
		SetStartFile(suggested).
		Save()
	if errors.Is(err, dialog.ErrCancelled) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// IMWindow draws the mask list, the weight and scale sliders and the preview.
type IMWindow struct {
	Win     *giu.MasterWindow
	session *preview.Session
	prompt  PathPrompter
	log     zerolog.Logger

	tex    *giu.Texture
	filter int32
	status string
}

func NewIMWindow(s *preview.Session, prompt PathPrompter, log zerolog.Logger) *IMWindow {
	if prompt == nil {
		prompt = NativeSaveDialog
	}
	return &IMWindow{
		Win:     giu.NewMasterWindow(Title, WinWidth, WinHeight, 0),
		session: s,
		prompt:  prompt,
		log:     log,
		filter:  int32(filterIndex(s.Filter)),
	}
}

// Start runs the UI loop on the calling goroutine until the window closes.
func (w *IMWindow) Start() {
	w.Win.Run(w.loop)
}

// refresh re-renders when the session is dirty and queues a texture upload.
func (w *IMWindow) refresh() {
	img, changed := w.session.Update()
	if !changed || img == nil {
		return
	}
	w.upload(img)
}

func (w *IMWindow) upload(img *image.NRGBA) {
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	giu.EnqueueNewTextureFromRgba(rgba, func(t *giu.Texture) {
		w.tex = t
		giu.Update()
	})
}

func (w *IMWindow) loop() {
	w.refresh()

	giu.SingleWindow().Layout(
		giu.Row(
			giu.Child().Border(true).Size(PanelWidth, 0).Layout(w.masksPanel()...),
			giu.Child().Border(false).Size(-ArgsWidth-8, 0).Layout(giu.Custom(w.drawPreview)),
			giu.Child().Border(true).Size(ArgsWidth, 0).Layout(w.argsPanel()...),
		),
	)
}

func (w *IMWindow) masksPanel() giu.Layout {
	cur := w.session.Current().Key
	layout := giu.Layout{giu.Label("Masks"), giu.Separator()}
	for _, key := range w.session.Keys() {
		layout = append(layout, giu.Selectable(key).Selected(key == cur).OnClick(func() {
			w.session.Select(key)
		}))
	}
	return layout
}

func (w *IMWindow) argsPanel() giu.Layout {
	names := make([]string, 0, len(scale.Filters()))
	for _, f := range scale.Filters() {
		names = append(names, f.String())
	}
	return giu.Layout{
		giu.Label("Weights:"),
		giu.SliderFloat(w.session.WeightPtr(0), 0, 1).Label("R").Format("%.2f").OnChange(func() { w.snap(w.session.WeightPtr(0), weightStep) }),
		giu.SliderFloat(w.session.WeightPtr(1), 0, 1).Label("G").Format("%.2f").OnChange(func() { w.snap(w.session.WeightPtr(1), weightStep) }),
		giu.SliderFloat(w.session.WeightPtr(2), 0, 1).Label("B").Format("%.2f").OnChange(func() { w.snap(w.session.WeightPtr(2), weightStep) }),
		giu.Separator(),
		giu.SliderFloat(w.session.ScalePtr(), preview.MinScale, preview.MaxScale).Label("Scale").Format("%.1f").OnChange(func() { w.snap(w.session.ScalePtr(), scaleStep) }),
		giu.Label(fmt.Sprintf("Output: %s", w.session.SuggestedName())),
		giu.Separator(),
		giu.Combo("Filter", names[w.filter], names, &w.filter),
		giu.Button("Save").OnClick(w.save),
		giu.Label(w.status),
	}
}

// snap rounds slider values to their step.
func (w *IMWindow) snap(v *float32, step float32) {
	*v = float32(int(*v/step+0.5)) * step
}

func (w *IMWindow) drawPreview() {
	if w.tex == nil {
		giu.Label("Loading...").Build()
		return
	}
	aw, ah := giu.GetAvailableRegion()
	side := aw
	if ah < side {
		side = ah
	}
	giu.Image(w.tex).Size(side, side).Build()
}

func (w *IMWindow) save() {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	path, ok, err := w.prompt(w.session.SuggestedName(), dir)
	if err != nil {
		w.fail(err)
		return
	}
	if !ok {
		return
	}
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		path += ".png"
	}
	filter := scale.Filters()[w.filter]
	if err := w.session.Save(path, filter); err != nil {
		w.fail(err)
		return
	}
	w.status = "saved " + filepath.Base(path)
}

func (w *IMWindow) fail(err error) {
	w.log.Error().Err(err).Msg("save failed")
	w.status = "save failed: " + err.Error()
}

func filterIndex(f scale.Filter) int {
	for i, v := range scale.Filters() {
		if v == f {
			return i
		}
	}
	return len(scale.Filters()) - 1
}
