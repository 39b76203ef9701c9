// internal/report/assembler.go
package report

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"golang.org/x/image/draw"

	"github.com/speedsheet/speedsheet/internal/pipeline"
)

const (
	sheetName = "Speedtest Results"

	// Layout grid: five screenshots per row band, one blank column between
	// images, thirty rows per band to clear the image height.
	imagesPerBand = 5
	colStride     = 2
	bandHeight    = 30
	labelColWidth = 20
	lastSizedCol  = 49

	// Screenshots are scaled to this width before embedding; height follows
	// the source aspect ratio.
	embedWidth = 400
)

// Assembler builds xlsx reports out of captured screenshots
type Assembler struct {
	reportsDir string

	// now is swapped out in tests to pin the generated filename
	now func() time.Time
}

// New creates an Assembler writing reports under reportsDir
func New(reportsDir string) *Assembler {
	return &Assembler{
		reportsDir: reportsDir,
		now:        time.Now,
	}
}

// Assemble lays the shots out on a single sheet, left to right and top to
// bottom, and persists the workbook under the reports directory. It returns
// the absolute path of the written file. Errors are *AssemblyError.
func (a *Assembler) Assemble(shots []pipeline.Shot) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", NewAssemblyError(ErrCodeWorkbook, "failed to name sheet", err)
	}

	startCol, err := excelize.ColumnNumberToName(1)
	if err != nil {
		return "", NewAssemblyError(ErrCodeWorkbook, "failed to resolve column name", err)
	}
	endCol, err := excelize.ColumnNumberToName(lastSizedCol)
	if err != nil {
		return "", NewAssemblyError(ErrCodeWorkbook, "failed to resolve column name", err)
	}
	if err := f.SetColWidth(sheetName, startCol, endCol, labelColWidth); err != nil {
		return "", NewAssemblyError(ErrCodeWorkbook, "failed to set column widths", err)
	}

	row, col, inBand := 1, 1, 0

	for _, shot := range shots {
		scaled, err := scalePNG(shot.Image, embedWidth)
		if err != nil {
			return "", NewAssemblyError(ErrCodeDecode,
				fmt.Sprintf("failed to process screenshot for %s", shot.URL), err)
		}

		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return "", NewAssemblyError(ErrCodeWorkbook, "failed to resolve cell name", err)
		}

		if err := f.SetCellValue(sheetName, cell, shot.URL); err != nil {
			return "", NewAssemblyError(ErrCodeWorkbook,
				fmt.Sprintf("failed to write label at %s", cell), err)
		}
		if err := f.AddPictureFromBytes(sheetName, cell, &excelize.Picture{
			Extension: ".png",
			File:      scaled,
		}); err != nil {
			return "", NewAssemblyError(ErrCodeWorkbook,
				fmt.Sprintf("failed to anchor image at %s", cell), err)
		}

		col += colStride
		inBand++
		if inBand == imagesPerBand {
			row += bandHeight
			col = 1
			inBand = 0
		}
	}

	if err := os.MkdirAll(a.reportsDir, 0o755); err != nil {
		return "", NewAssemblyError(ErrCodePersist, "failed to create reports directory", err)
	}

	name := fmt.Sprintf("speedtest_results_%s.xlsx", a.now().Format("20060102_150405"))
	path := filepath.Join(a.reportsDir, name)

	if err := f.SaveAs(path); err != nil {
		return "", NewAssemblyError(ErrCodePersist, "failed to save workbook", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", NewAssemblyError(ErrCodePersist, "failed to resolve report path", err)
	}

	log.Info().
		Str("path", abs).
		Int("images", len(shots)).
		Msg("Report assembled")

	return abs, nil
}

// scalePNG decodes a screenshot, scales it to the given width preserving
// aspect ratio with Catmull-Rom resampling, and re-encodes it as PNG.
func scalePNG(data []byte, width int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	srcBounds := src.Bounds()
	if srcBounds.Dx() == 0 || srcBounds.Dy() == 0 {
		return nil, fmt.Errorf("empty image")
	}

	height := srcBounds.Dy() * width / srcBounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcBounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
