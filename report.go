package labtex

import (
	"image"
	"image/draw"
	"log"
	"sort"
	"time"

	"github.com/brandquad/labtex/bins"
	"github.com/brandquad/labtex/colorutils"
)

const (
	DefaultBoxSize = 64

	reportMargin     = 10
	reportLabelWidth = 200
	reportLabel      = 30
)

// BinSummary describes one occupied bin of a build.
type BinSummary struct {
	Bin            int            `json:"bin"`
	Label          string         `json:"label"`
	Representative colorutils.RGB `json:"-"`
	Hex            string         `json:"hex"`
	Count          int            `json:"count"`
}

// Summarize lists the occupied bins sorted by label.
func Summarize(b *Buckets, p BinTable) []BinSummary {
	ix := b.Indexer()
	var rows []BinSummary
	for _, bin := range b.Occupied() {
		rep, _ := p.Lookup(bin)
		rows = append(rows, BinSummary{
			Bin:            bin,
			Label:          bins.Label(ix.Decompose(bin)),
			Representative: rep,
			Hex:            rep.Hex(),
			Count:          b.Len(bin),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Label < rows[j].Label
	})
	return rows
}

// gridSide is the side of the square that shows n member colours: box,
// doubled until every colour fits.
func gridSide(n, box int) int {
	side := box
	for side*side < n {
		side *= 2
	}
	return side
}

// BinReport draws the bin analysis document: one row per occupied bin with
// its label, a box of the representative colour and every member colour on
// a grid.
func BinReport(b *Buckets, p BinTable, boxSize int) (*image.RGBA, error) {
	st := time.Now()
	if boxSize < 1 {
		boxSize = DefaultBoxSize
	}
	rows := Summarize(b, p)
	log.Printf("[>] Drawing bin report for %d bins", len(rows))
	defer func() {
		log.Printf("[<] Drawing bin report, at %s", time.Since(st))
	}()

	maxGrid := boxSize
	for _, row := range rows {
		maxGrid = max(maxGrid, gridSide(row.Count, boxSize))
	}
	rowHeight := reportLabel + maxGrid + reportMargin
	gridX := reportMargin + reportLabelWidth + boxSize + 2*reportMargin
	width := gridX + maxGrid + reportMargin
	height := len(rows)*rowHeight + reportMargin

	doc := fillImage(width, height, paperColor)
	face, err := labelFace(labelSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	for i, row := range rows {
		y := reportMargin + i*rowHeight
		drawLabel(doc, face, reportMargin, y+labelSize, row.Label)

		box := image.Rect(reportMargin+reportLabelWidth, y+reportLabel, reportMargin+reportLabelWidth+boxSize, y+reportLabel+boxSize)
		draw.Draw(doc, box, image.NewUniform(row.Representative.Colorful()), image.Point{}, draw.Src)

		side := gridSide(row.Count, boxSize)
		for k, pt := range b.Bucket(row.Bin) {
			o := doc.PixOffset(gridX+k%side, y+reportLabel+k/side)
			doc.Pix[o], doc.Pix[o+1], doc.Pix[o+2] = pt.RGB.R, pt.RGB.G, pt.RGB.B
		}

		if (i+1)%5 == 0 {
			log.Printf("  Processed %d/%d bins", i+1, len(rows))
		}
	}
	return doc, nil
}
