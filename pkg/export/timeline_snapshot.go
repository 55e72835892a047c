package export

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/tracklane/pkg/model"
	"github.com/vanderheijden86/tracklane/pkg/scale"
)

// SnapshotOptions controls timeline snapshot export.
type SnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive)
	Width  int    // Image width in pixels; 1200 when zero
	// Time window to draw; the document span when both are zero.
	Start, End float64
}

// SaveTimelineSnapshot renders the channel lanes and their annotations as a
// static SVG or PNG image.
func SaveTimelineSnapshot(doc *Document, opts SnapshotOptions) error {
	if doc == nil {
		return fmt.Errorf("no document to export")
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	format, err := snapshotFormat(opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildLayout(doc, opts)
	switch format {
	case "svg":
		f, err := os.Create(opts.Path)
		if err != nil {
			return err
		}
		if err := renderSVG(f, layout); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return renderPNG(layout).SavePNG(opts.Path)
	}
}

func snapshotFormat(opts SnapshotOptions) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(filepath.Ext(opts.Path), "."))
	}
	if format == "" {
		format = "svg"
	}
	if format != "svg" && format != "png" {
		return "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	return format, nil
}

// --- layout computation ----------------------------------------------------

const (
	headerHeight = 96.0
	axisHeight   = 28.0
	laneHeight   = 26.0
	labelWidth   = 180.0
	padding      = 16.0
)

type layoutLane struct {
	Name  string
	Depth int
	Y     float64
}

type layoutMark struct {
	Label   string
	Instant bool
	X, Y    float64
	W, H    float64
	Fill    color.RGBA
}

type layoutTick struct {
	X     float64
	Label string
}

type layoutResult struct {
	Width, Height int
	Title         string
	Subtitle      string
	Lanes         []layoutLane
	Marks         []layoutMark
	Ticks         []layoutTick
	PlotX, PlotW  float64
}

func buildLayout(doc *Document, opts SnapshotOptions) layoutResult {
	width := opts.Width
	if width <= 0 {
		width = 1200
	}
	start, end := opts.Start, opts.End
	if start == 0 && end == 0 {
		start, end = doc.Span()
	}

	l := layoutResult{
		Width: width,
		Title: doc.Title,
		PlotX: padding + labelWidth,
	}
	l.PlotW = float64(width) - l.PlotX - padding
	l.Height = int(headerHeight + axisHeight + laneHeight*float64(max(len(doc.Channels), 1)) + padding)

	sum := doc.Summarize()
	l.Subtitle = fmt.Sprintf("channels: %d  annotations: %d  window: %s - %s  coverage: %.0f%%",
		sum.Channels, sum.Annotations, formatMs(start), formatMs(end), sum.Coverage*100)

	x := scale.NewLinear(start, end, l.PlotX, l.PlotX+l.PlotW)

	laneY := make(map[model.ChannelID]float64, len(doc.Channels))
	top := headerHeight + axisHeight
	for i, lane := range doc.Channels {
		y := top + float64(i)*laneHeight
		laneY[lane.Channel.ID] = y
		l.Lanes = append(l.Lanes, layoutLane{Name: lane.Channel.Name, Depth: lane.Depth, Y: y})
	}

	for _, a := range doc.Annotations {
		y, ok := laneY[a.ChannelID]
		if !ok {
			continue
		}
		lo, hi := a.Bounds()
		if hi < start || lo > end {
			continue
		}
		x0 := math.Max(x.Call(lo), l.PlotX)
		x1 := math.Min(x.Call(hi), l.PlotX+l.PlotW)
		l.Marks = append(l.Marks, layoutMark{
			Label:   a.Value,
			Instant: !a.Kind.HasDuration(),
			X:       x0,
			Y:       y + 4,
			W:       math.Max(x1-x0, 2),
			H:       laneHeight - 8,
			Fill:    valueColor(a.Value),
		})
	}

	for _, t := range niceTicks(start, end, 8) {
		l.Ticks = append(l.Ticks, layoutTick{X: x.Call(t), Label: formatMs(t)})
	}
	return l
}

// niceTicks returns round tick positions covering [lo, hi].
func niceTicks(lo, hi float64, n int) []float64 {
	span := hi - lo
	if span <= 0 || n <= 0 {
		return []float64{lo}
	}
	raw := span / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag {
			step = m * mag
			break
		}
	}
	var ticks []float64
	for t := math.Ceil(lo/step) * step; t <= hi+step*1e-9; t += step {
		ticks = append(ticks, t)
	}
	return ticks
}

func formatMs(ms float64) string {
	neg := ms < 0
	ms = math.Abs(ms)
	total := int64(math.Round(ms))
	m := total / 60000
	s := (total % 60000) / 1000
	rest := total % 1000
	out := fmt.Sprintf("%d:%02d.%03d", m, s, rest)
	if neg {
		return "-" + out
	}
	return out
}

var palette = []color.RGBA{
	{0x8e, 0xc5, 0xfc, 0xff},
	{0xa7, 0xf3, 0xd0, 0xff},
	{0xfd, 0xe6, 0x8a, 0xff},
	{0xfc, 0xa5, 0xa5, 0xff},
	{0xc4, 0xb5, 0xfd, 0xff},
	{0xf9, 0xa8, 0xd4, 0xff},
	{0x99, 0xf6, 0xe4, 0xff},
	{0xfd, 0xba, 0x74, 0xff},
}

// valueColor maps an annotation value onto a stable palette entry.
func valueColor(v string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(v))
	return palette[h.Sum32()%uint32(len(palette))]
}

var (
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorGrid     = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLaneAlt  = color.RGBA{0xf0, 0xf2, 0xf5, 0xff}
)

// --- rendering ---------------------------------------------------------------

func renderPNG(l layoutResult) *gg.Context {
	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(padding, padding, float64(l.Width)-2*padding, headerHeight-2*padding, 10)
	dc.Fill()
	dc.SetColor(colorText)
	dc.DrawStringAnchored(l.Title, 2*padding, 2*padding+4, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(l.Subtitle, 2*padding, 2*padding+26, 0, 0.5)

	for i, lane := range l.Lanes {
		if i%2 == 1 {
			dc.SetColor(colorLaneAlt)
			dc.DrawRectangle(padding, lane.Y, float64(l.Width)-2*padding, laneHeight)
			dc.Fill()
		}
		dc.SetColor(colorText)
		dc.DrawStringAnchored(truncate(lane.Name, 22), padding+4+float64(lane.Depth)*12, lane.Y+laneHeight/2, 0, 0.5)
	}

	dc.SetLineWidth(1)
	for _, t := range l.Ticks {
		dc.SetColor(colorGrid)
		dc.DrawLine(t.X, headerHeight+axisHeight-4, t.X, float64(l.Height)-padding)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(t.Label, t.X, headerHeight+axisHeight/2, 0.5, 0.5)
	}

	for _, m := range l.Marks {
		drawMark(dc, m)
	}
	return dc
}

func drawMark(dc *gg.Context, m layoutMark) {
	if m.Instant {
		cx, cy := m.X, m.Y+m.H/2
		dc.SetColor(m.Fill)
		dc.NewSubPath()
		dc.MoveTo(cx, cy-m.H/2)
		dc.LineTo(cx+m.H/2, cy)
		dc.LineTo(cx, cy+m.H/2)
		dc.LineTo(cx-m.H/2, cy)
		dc.ClosePath()
		dc.FillPreserve()
		dc.SetColor(colorStroke)
		dc.Stroke()
		return
	}
	dc.SetColor(m.Fill)
	dc.DrawRoundedRectangle(m.X, m.Y, m.W, m.H, 3)
	dc.FillPreserve()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(0.8)
	dc.Stroke()
	if chars := int((m.W - 6) / 7); chars >= 2 {
		dc.SetColor(colorText)
		dc.DrawStringAnchored(truncate(m.Label, chars), m.X+3, m.Y+m.H/2, 0, 0.5)
	}
}

func renderSVG(w io.Writer, l layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(int(padding), int(padding), l.Width-int(2*padding), int(headerHeight-2*padding), 10, 10,
		fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(int(2*padding), int(2*padding+8), l.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(int(2*padding), int(2*padding+30), l.Subtitle,
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))

	for i, lane := range l.Lanes {
		y := int(lane.Y)
		if i%2 == 1 {
			canvas.Rect(int(padding), y, l.Width-int(2*padding), int(laneHeight), fmt.Sprintf("fill:%s", css(colorLaneAlt)))
		}
		canvas.Text(int(padding)+4+lane.Depth*12, y+int(laneHeight/2)+4, truncate(lane.Name, 22),
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorText)))
	}

	for _, t := range l.Ticks {
		x := int(t.X)
		canvas.Line(x, int(headerHeight+axisHeight-4), x, l.Height-int(padding),
			fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGrid)))
		canvas.Text(x, int(headerHeight+axisHeight/2)+4, t.Label,
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
	}

	for _, m := range l.Marks {
		x, y, h := int(m.X), int(m.Y), int(m.H)
		if m.Instant {
			canvas.Polygon(
				[]int{x, x + h/2, x, x - h/2},
				[]int{y, y + h/2, y + h, y + h/2},
				fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(m.Fill), css(colorStroke)))
			canvas.Title(m.Label)
			continue
		}
		canvas.Roundrect(x, y, max(int(m.W), 2), h, 3, 3,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:0.8", css(m.Fill), css(colorStroke)))
		if chars := int((m.W - 6) / 7); chars >= 2 {
			canvas.Text(x+3, y+h/2+4, truncate(m.Label, chars),
				fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorText)))
		}
	}

	canvas.End()
	return nil
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
