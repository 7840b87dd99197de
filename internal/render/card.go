package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	cardSize    = 640
	dpi         = 72
	titleSize   = 24
	textSize    = 18
	smallSize   = 12
	lineSpacing = 1.4

	dialRadius  = 90
	dialCenterY = 450
)

var (
	cardBackground = color.RGBA{R: 0x0b, G: 0x12, B: 0x20, A: 0xff}
	titleColor     = color.RGBA{R: 0x7d, G: 0xd3, B: 0xfc, A: 0xff}
	subtitleColor  = color.RGBA{R: 0xa8, G: 0xc7, B: 0xff, A: 0xff}
	textColor      = color.RGBA{R: 0xe5, G: 0xee, B: 0xfc, A: 0xff}
	dialColor      = color.RGBA{R: 0x38, G: 0xbd, B: 0xf8, A: 0xff}
)

// Card renders a synthetic snapshot with the sample metadata and a bearing
// dial. It stands in for the display capture whenever the real one cannot
// be obtained, and renders the unconditional per-cycle frame.
type Card struct {
	font *truetype.Font
}

func NewCard() (*Card, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	return &Card{font: parsedFont}, nil
}

func (c *Card) Render(meta Metadata, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, cardSize, cardSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(cardBackground), image.Point{}, draw.Src)

	fc := freetype.NewContext()
	fc.SetDPI(dpi)
	fc.SetFont(c.font)
	fc.SetClip(img.Bounds())
	fc.SetDst(img)
	fc.SetHinting(font.HintingFull)

	fc.SetFontSize(titleSize)
	fc.SetSrc(image.NewUniform(titleColor))
	if _, err := fc.DrawString(meta.Title, freetype.Pt(40, 70)); err != nil {
		return fmt.Errorf("card: drawing title: %w", err)
	}

	fc.SetFontSize(smallSize)
	fc.SetSrc(image.NewUniform(subtitleColor))
	when := meta.Taken.Format("2006-01-02T15:04:05")
	if _, err := fc.DrawString(when, freetype.Pt(40, 100)); err != nil {
		return fmt.Errorf("card: drawing timestamp: %w", err)
	}

	fc.SetFontSize(textSize)
	fc.SetSrc(image.NewUniform(textColor))
	pt := freetype.Pt(40, 160)
	for _, line := range infoLines(meta) {
		if _, err := fc.DrawString(line, pt); err != nil {
			return fmt.Errorf("card: drawing info: %w", err)
		}
		pt.Y += fc.PointToFixed(textSize * lineSpacing)
	}

	c.drawDial(img, meta.Bearing)

	fc.SetFontSize(smallSize)
	fc.SetSrc(image.NewUniform(subtitleColor))
	if _, err := fc.DrawString("N", freetype.Pt(cardSize/2-4, dialCenterY-dialRadius-10)); err != nil {
		return fmt.Errorf("card: drawing dial label: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("card: %w", err)
	}
	defer out.Close()

	if err = jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("card: encoding image: %w", err)
	}
	return nil
}

func infoLines(meta Metadata) []string {
	lines := []string{
		"Lat:      " + formatOpt(meta.Latitude, "%.6f"),
		"Lon:      " + formatOpt(meta.Longitude, "%.6f"),
	}

	if meta.Bearing != nil && !math.IsNaN(*meta.Bearing) {
		lines = append(lines, fmt.Sprintf("Bearing:  %.1f deg", *meta.Bearing))
	} else {
		lines = append(lines, "Bearing:  non-directive")
	}

	if meta.Power != nil && !math.IsNaN(*meta.Power) {
		lines = append(lines, fmt.Sprintf("Power:    %.2f dBm", *meta.Power))
	} else {
		lines = append(lines, "Power:    --")
	}

	if meta.Frequency != nil {
		fract, suffix := humanize.ComputeSI(*meta.Frequency)
		lines = append(lines, fmt.Sprintf("Freq:     %0.2f %sHz", fract, suffix))
	}
	return lines
}

func formatOpt(v *float64, format string) string {
	if v == nil || math.IsNaN(*v) {
		return "--"
	}
	return fmt.Sprintf(format, *v)
}

// drawDial paints a compass circle with a needle pointing at the bearing.
// A missing bearing points the needle north, matching the blank dial of
// the instrument's own display.
func (c *Card) drawDial(img *image.RGBA, bearing *float64) {
	cx, cy := cardSize/2, dialCenterY

	for a := 0.0; a < 2*math.Pi; a += 0.005 {
		x := cx + int(dialRadius*math.Cos(a))
		y := cy + int(dialRadius*math.Sin(a))
		img.Set(x, y, dialColor)
	}

	deg := 0.0
	if bearing != nil && !math.IsNaN(*bearing) {
		deg = *bearing
	}

	// Screen coordinates grow downward, so north is -90 degrees.
	a := (deg - 90.0) * math.Pi / 180.0
	for r := 0.0; r < dialRadius-5; r += 0.5 {
		x := cx + int(r*math.Cos(a))
		y := cy + int(r*math.Sin(a))
		img.Set(x, y, titleColor)
		img.Set(x+1, y, titleColor)
	}
}
