package atlas

// shelf is a horizontal strip of the texture holding glyphs of similar
// height. Space inside a shelf is handed out left to right and comes
// back only when the whole shelf empties.
type shelf struct {
	y      int
	height int
	nextX  int
	count  int

	// lastUse is the packer tick of the most recent access to any glyph
	// on this shelf. Eviction targets the stalest shelf.
	lastUse uint64
}

// packer places padded rectangles on shelves inside a square texture.
//
// A glyph goes on the shortest shelf it fits that wastes less than a
// quarter of the glyph's height, so lines of text with mixed ascenders
// and diacritics cluster into a few height classes instead of one
// ragged shelf per glyph.
type packer struct {
	size    int
	padding int
	shelves []*shelf

	// nextY is the top of the unshelved region below all shelves.
	nextY int

	// used is the occupied pixel area, excluding padding.
	used int
}

func newPacker(size, padding int) *packer {
	return &packer{
		size:    size,
		padding: padding,
		shelves: make([]*shelf, 0, 16),
	}
}

// resize widens the texture. Existing shelves keep their positions, so
// stored glyph coordinates stay valid across growth.
func (p *packer) resize(size int) {
	p.size = size
}

// place finds room for a w by h rectangle, returning its position and
// the shelf it landed on. The padded extent reserves the configured gap
// to the right and below.
func (p *packer) place(w, h int) (x, y int, s *shelf, ok bool) {
	paddedW := w + p.padding
	paddedH := h + p.padding

	var best *shelf
	for _, sh := range p.shelves {
		if sh.height < paddedH || sh.nextX+paddedW > p.size {
			continue
		}
		if sh.count > 0 && sh.height*3 > paddedH*4 {
			// Too tall for this glyph's class; placing it here would
			// strand the difference.
			continue
		}
		if best == nil || sh.height < best.height {
			best = sh
		}
	}

	if best == nil {
		if p.nextY+paddedH > p.size {
			return 0, 0, nil, false
		}
		best = &shelf{y: p.nextY, height: paddedH}
		p.nextY += paddedH
		p.shelves = append(p.shelves, best)
	}

	x, y = best.nextX, best.y
	best.nextX += paddedW
	best.count++
	p.used += w * h
	return x, y, best, true
}

// canFit reports whether a padded rectangle could ever fit at the
// current size, assuming every shelf were empty.
func (p *packer) canFit(w, h int) bool {
	return w+p.padding <= p.size && h+p.padding <= p.size
}

// release empties a shelf so its strip can be refilled. The strip keeps
// its height class.
func (p *packer) release(s *shelf) {
	s.nextX = 0
	s.count = 0
	s.lastUse = 0
}

// stalest returns the occupied shelf with the oldest access tick.
func (p *packer) stalest() *shelf {
	var victim *shelf
	for _, sh := range p.shelves {
		if sh.count == 0 {
			continue
		}
		if victim == nil || sh.lastUse < victim.lastUse {
			victim = sh
		}
	}
	return victim
}
