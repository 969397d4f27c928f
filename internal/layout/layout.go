// Package layout packs menu sections onto fixed-size pages.
//
// Sections are placed in order, top to bottom, column by column. A section
// that does not fit in the space left in a column is split at a dish
// boundary and continues at the top of the next column, or of the next page
// after the last column. A column that cannot hold even one dish row of a
// section still receives one, so the output always makes progress.
package layout

// Block is one menu section to place.
type Block struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Rows  int    `json:"rows"`
}

// Options describes the page geometry. Heights share one unit, usually
// points.
type Options struct {
	PageHeight   float64 `json:"page_height"`
	Columns      int     `json:"columns"`
	HeaderHeight float64 `json:"header_height"`
	RowHeight    float64 `json:"row_height"`
	Gap          float64 `json:"gap"`
}

// DefaultOptions is a US Letter page at 96 dpi with two columns.
var DefaultOptions = Options{
	PageHeight:   1056,
	Columns:      2,
	HeaderHeight: 48,
	RowHeight:    36,
	Gap:          16,
}

// Placement is a run of a block's rows inside one column.
type Placement struct {
	BlockID   string  `json:"block_id"`
	Title     string  `json:"title"`
	FirstRow  int     `json:"first_row"`
	RowCount  int     `json:"row_count"`
	Continued bool    `json:"continued"`
	Y         float64 `json:"y"`
	Height    float64 `json:"height"`
}

// Page is one output page.
type Page struct {
	Index   int           `json:"index"`
	Columns [][]Placement `json:"columns"`
}

type packer struct {
	opts  Options
	pages []Page
	col   int
	y     float64
}

// Paginate packs blocks onto pages. It returns nil for no blocks.
func Paginate(blocks []Block, opts Options) []Page {
	if len(blocks) == 0 {
		return nil
	}
	if opts.Columns < 1 {
		opts.Columns = 1
	}
	p := &packer{opts: opts}
	p.newPage()
	for _, b := range blocks {
		p.place(b)
	}
	return p.pages
}

func (p *packer) newPage() {
	p.pages = append(p.pages, Page{
		Index:   len(p.pages),
		Columns: make([][]Placement, p.opts.Columns),
	})
	p.col = 0
	p.y = 0
}

func (p *packer) nextColumn() {
	p.col++
	p.y = 0
	if p.col == p.opts.Columns {
		p.newPage()
	}
}

func (p *packer) columnEmpty() bool {
	return len(p.pages[len(p.pages)-1].Columns[p.col]) == 0
}

// fit returns how many rows fit below the header in the space left.
func (p *packer) fit(remaining int) int {
	avail := p.opts.PageHeight - p.y - p.opts.HeaderHeight
	if avail < 0 {
		return -1
	}
	if p.opts.RowHeight <= 0 {
		return remaining
	}
	return int(avail / p.opts.RowHeight)
}

func (p *packer) place(b Block) {
	remaining := max(b.Rows, 0)
	first := 0
	for {
		n := p.fit(remaining)
		switch {
		case n >= remaining:
			p.emit(b, first, remaining)
			return
		case n >= 1:
			p.emit(b, first, n)
			first += n
			remaining -= n
			p.nextColumn()
		case p.columnEmpty():
			// Oversize: one row (or a bare header) per column.
			take := min(1, remaining)
			p.emit(b, first, take)
			first += take
			remaining -= take
			if remaining == 0 {
				return
			}
			p.nextColumn()
		default:
			p.nextColumn()
		}
	}
}

func (p *packer) emit(b Block, first, rows int) {
	h := p.opts.HeaderHeight + float64(rows)*p.opts.RowHeight
	page := &p.pages[len(p.pages)-1]
	page.Columns[p.col] = append(page.Columns[p.col], Placement{
		BlockID:   b.ID,
		Title:     b.Title,
		FirstRow:  first,
		RowCount:  rows,
		Continued: first > 0,
		Y:         p.y,
		Height:    h,
	})
	p.y += h + p.opts.Gap
}

// ColumnHeight is the height used by a column's placements, gaps included.
func ColumnHeight(col []Placement) float64 {
	if len(col) == 0 {
		return 0
	}
	last := col[len(col)-1]
	return last.Y + last.Height
}
