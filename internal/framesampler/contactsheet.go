package framesampler

// contactsheet.go renders sampled frames into a single JPEG grid. This is a
// debugging aid for inspecting what the vision service actually sees,
// exposed through the CLI frames subcommand.

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

const (
	// sheetCellWidth is the width each frame is scaled to in the grid.
	sheetCellWidth = 320

	// sheetJPEGQuality is the encoder quality for the assembled sheet.
	sheetJPEGQuality = 85
)

// ContactSheet decodes the given frames and composites them into a single
// JPEG grid with the given number of columns. Frames that fail to decode are
// skipped. Returns an error when no frame decodes.
func ContactSheet(frames []Frame, columns int) ([]byte, error) {
	if columns < 1 {
		columns = 1
	}

	var images []image.Image
	for _, frame := range frames {
		img, _, err := image.Decode(bytes.NewReader(frame.Data))
		if err != nil {
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no decodable frames for contact sheet")
	}

	// Scale every cell to a fixed width; cell height follows the first
	// frame's aspect ratio so the grid stays rectangular.
	first := images[0].Bounds()
	cellHeight := sheetCellWidth * first.Dy() / first.Dx()
	if cellHeight < 1 {
		cellHeight = 1
	}

	rows := (len(images) + columns - 1) / columns
	sheet := image.NewRGBA(image.Rect(0, 0, sheetCellWidth*columns, cellHeight*rows))

	for i, img := range images {
		col := i % columns
		row := i / columns
		cell := image.Rect(
			col*sheetCellWidth,
			row*cellHeight,
			(col+1)*sheetCellWidth,
			(row+1)*cellHeight,
		)
		draw.CatmullRom.Scale(sheet, cell, img, img.Bounds(), draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, sheet, &jpeg.Options{Quality: sheetJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode contact sheet: %w", err)
	}
	return buf.Bytes(), nil
}
