package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
	"github.com/xuri/excelize/v2"
)

// BIFF8 record identifiers.
const (
	recFormula    = 0x0006
	recEOF        = 0x000A
	recDateMode   = 0x0022
	recContinue   = 0x003C
	recBoundSheet = 0x0085
	recMulRK      = 0x00BD
	recXF         = 0x00E0
	recSST        = 0x00FC
	recLabelSST   = 0x00FD
	recNumber     = 0x0203
	recLabel      = 0x0204
	recBoolErr    = 0x0205
	recString     = 0x0207
	recRK         = 0x027E
	recFormat     = 0x041E
	recBOF        = 0x0809
)

const (
	biff8Version  = 0x0600
	bofGlobals    = 0x0005
	bofWorksheet  = 0x0010
	cfbHeaderSize = 512
	maxBIFFCols   = 256
)

var errTruncated = errors.New("truncated record")

func le16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

type xlsBook struct {
	stream  []byte
	globals *biffGlobals
}

// openXLS opens a legacy BIFF8 workbook from its compound file container.
func openXLS(data []byte) (book workbook, err error) {
	defer recoverInto(&err, "xls reader")

	stream, err := workbookStream(data)
	if err != nil {
		return nil, err
	}
	g, err := decodeGlobals(stream)
	if err != nil {
		return nil, err
	}
	return &xlsBook{stream: stream, globals: g}, nil
}

func (b *xlsBook) firstSheet() (s *sheet, err error) {
	defer recoverInto(&err, "xls reader")

	for _, bs := range b.globals.sheets {
		if bs.kind != 0 {
			continue
		}
		s, err := decodeSheet(b.stream, bs.offset, b.globals)
		if err != nil {
			return nil, wrapParseError(ReasonRead, err, "error reading sheet %q", bs.name)
		}
		return s, nil
	}
	return nil, parseError(ReasonNoSheet, "workbook has no sheet")
}

func (b *xlsBook) Close() error {
	return nil
}

// workbookStream extracts the Workbook stream from a compound file.
func workbookStream(data []byte) ([]byte, error) {
	if err := checkCompoundHeader(data); err != nil {
		return nil, err
	}
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case "Workbook":
			if entry.Size <= 0 || entry.Size > int64(len(data)) {
				return nil, fmt.Errorf("workbook stream size %d out of range", entry.Size)
			}
			buf := make([]byte, entry.Size)
			if _, err := io.ReadFull(entry, buf); err != nil {
				return nil, fmt.Errorf("read workbook stream: %w", err)
			}
			return buf, nil
		case "Book":
			return nil, errors.New("BIFF5 workbooks are not supported")
		}
	}
	return nil, errors.New("compound file has no Workbook stream")
}

// checkCompoundHeader rejects sector counts larger than the file itself.
// mscfb sizes its tables from these counts before reading any sector.
func checkCompoundHeader(data []byte) error {
	if len(data) < cfbHeaderSize {
		return errors.New("compound file header truncated")
	}
	shift := le16(data[30:])
	if shift != 9 && shift != 12 {
		return fmt.Errorf("illegal sector shift %d", shift)
	}
	sectors := uint32(len(data) >> shift)
	for _, off := range []int{40, 44, 64, 72} {
		if n := le32(data[off:]); n > sectors {
			return fmt.Errorf("compound file header claims %d sectors, file holds %d", n, sectors)
		}
	}
	return nil
}

type biffRecord struct {
	id   uint16
	data []byte
}

func readRecord(stream []byte, off int) (biffRecord, int, error) {
	if off < 0 || off+4 > len(stream) {
		return biffRecord{}, 0, fmt.Errorf("record header at offset %d: %w", off, errTruncated)
	}
	end := off + 4 + int(le16(stream[off+2:]))
	if end > len(stream) {
		return biffRecord{}, 0, fmt.Errorf("record at offset %d: %w", off, errTruncated)
	}
	return biffRecord{id: le16(stream[off:]), data: stream[off+4 : end]}, end, nil
}

// substream reads the records between the BOF at off and its matching EOF.
// Records of nested substreams, embedded charts for one, are skipped.
func substream(stream []byte, off int, kind uint16) ([]biffRecord, error) {
	rec, next, err := readRecord(stream, off)
	if err != nil {
		return nil, err
	}
	if rec.id != recBOF || len(rec.data) < 4 {
		return nil, fmt.Errorf("no BOF record at offset %d", off)
	}
	if v := le16(rec.data); v != biff8Version {
		return nil, fmt.Errorf("unsupported BIFF version %#04x", v)
	}
	if t := le16(rec.data[2:]); t != kind {
		return nil, fmt.Errorf("substream at offset %d has type %#04x, want %#04x", off, t, kind)
	}

	var recs []biffRecord
	depth := 1
	for {
		rec, next, err = readRecord(stream, next)
		if err != nil {
			return nil, err
		}
		switch {
		case rec.id == recBOF:
			depth++
		case rec.id == recEOF:
			depth--
			if depth == 0 {
				return recs, nil
			}
		case depth == 1:
			recs = append(recs, rec)
		}
	}
}

type boundSheet struct {
	name   string
	offset int
	kind   byte
}

type biffGlobals struct {
	date1904  bool
	xfFormats []uint16
	formats   map[uint16]string
	sst       []string
	sheets    []boundSheet
}

func decodeGlobals(stream []byte) (*biffGlobals, error) {
	recs, err := substream(stream, 0, bofGlobals)
	if err != nil {
		return nil, err
	}

	g := &biffGlobals{formats: make(map[uint16]string)}
	for i := 0; i < len(recs); i++ {
		d := recs[i].data
		switch recs[i].id {
		case recDateMode:
			if len(d) >= 2 {
				g.date1904 = le16(d) == 1
			}
		case recXF:
			if len(d) < 4 {
				return nil, fmt.Errorf("XF record: %w", errTruncated)
			}
			g.xfFormats = append(g.xfFormats, le16(d[2:]))
		case recFormat:
			if len(d) < 2 {
				return nil, fmt.Errorf("FORMAT record: %w", errTruncated)
			}
			code, err := readXLString(d[2:])
			if err != nil {
				return nil, fmt.Errorf("FORMAT record: %w", err)
			}
			g.formats[le16(d)] = code
		case recBoundSheet:
			if len(d) < 8 {
				return nil, fmt.Errorf("BOUNDSHEET record: %w", errTruncated)
			}
			name, _, err := decodeChars(d[8:], int(d[6]), d[7]&0x01 != 0)
			if err != nil {
				return nil, fmt.Errorf("BOUNDSHEET record: %w", err)
			}
			g.sheets = append(g.sheets, boundSheet{name: name, offset: int(le32(d)), kind: d[5]})
		case recSST:
			segs := [][]byte{d}
			for i+1 < len(recs) && recs[i+1].id == recContinue {
				i++
				segs = append(segs, recs[i].data)
			}
			if g.sst, err = decodeSST(segs); err != nil {
				return nil, fmt.Errorf("SST record: %w", err)
			}
		}
	}
	return g, nil
}

// decodeChars decodes n characters stored one byte each or as UTF-16LE and
// reports the bytes consumed.
func decodeChars(b []byte, n int, wide bool) (string, int, error) {
	width := 1
	if wide {
		width = 2
	}
	if n*width > len(b) {
		return "", 0, errTruncated
	}
	units := make([]uint16, n)
	for i := range units {
		if wide {
			units[i] = le16(b[2*i:])
		} else {
			units[i] = uint16(b[i])
		}
	}
	return string(utf16.Decode(units)), n * width, nil
}

// readXLString decodes a string with a 16-bit length and an option byte.
func readXLString(b []byte) (string, error) {
	if len(b) < 3 {
		return "", errTruncated
	}
	s, _, err := decodeChars(b[3:], int(le16(b)), b[2]&0x01 != 0)
	return s, err
}

// segmentReader reads across an SST record and its CONTINUE records.
type segmentReader struct {
	segs [][]byte
	seg  int
	pos  int
}

func (r *segmentReader) advance() bool {
	for r.seg < len(r.segs) && r.pos >= len(r.segs[r.seg]) {
		r.seg++
		r.pos = 0
	}
	return r.seg < len(r.segs)
}

func (r *segmentReader) read(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		if !r.advance() {
			return nil, errTruncated
		}
		seg := r.segs[r.seg]
		k := min(n-len(out), len(seg)-r.pos)
		out = append(out, seg[r.pos:r.pos+k]...)
		r.pos += k
	}
	return out, nil
}

func (r *segmentReader) skip(n int) error {
	for n > 0 {
		if !r.advance() {
			return errTruncated
		}
		k := min(n, len(r.segs[r.seg])-r.pos)
		r.pos += k
		n -= k
	}
	return nil
}

// chars reads n characters. Character data split over a CONTINUE boundary
// resumes with an option byte that restates the character width.
func (r *segmentReader) chars(n int, wide bool) (string, error) {
	units := make([]uint16, 0, n)
	for len(units) < n {
		if r.seg >= len(r.segs) {
			return "", errTruncated
		}
		if r.pos >= len(r.segs[r.seg]) {
			r.seg++
			if r.seg >= len(r.segs) || len(r.segs[r.seg]) == 0 {
				return "", errTruncated
			}
			wide = r.segs[r.seg][0]&0x01 != 0
			r.pos = 1
			continue
		}

		seg := r.segs[r.seg][r.pos:]
		width := 1
		if wide {
			width = 2
		}
		k := min(n-len(units), len(seg)/width)
		if k == 0 {
			return "", errTruncated
		}
		for i := 0; i < k; i++ {
			if wide {
				units = append(units, le16(seg[2*i:]))
			} else {
				units = append(units, uint16(seg[i]))
			}
		}
		r.pos += k * width
	}
	return string(utf16.Decode(units)), nil
}

func decodeSST(segs [][]byte) ([]string, error) {
	r := &segmentReader{segs: segs}
	hdr, err := r.read(8)
	if err != nil {
		return nil, err
	}
	unique := le32(hdr[4:])

	var out []string
	for i := uint32(0); i < unique; i++ {
		h, err := r.read(3)
		if err != nil {
			return nil, err
		}
		n, flags := int(le16(h)), h[2]

		var runs, ext int
		if flags&0x08 != 0 {
			b, err := r.read(2)
			if err != nil {
				return nil, err
			}
			runs = int(le16(b))
		}
		if flags&0x04 != 0 {
			b, err := r.read(4)
			if err != nil {
				return nil, err
			}
			ext = int(le32(b))
		}

		s, err := r.chars(n, flags&0x01 != 0)
		if err != nil {
			return nil, err
		}
		if err := r.skip(4*runs + ext); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

type biffCell struct {
	text string
	raw  string
}

// numberCell renders a numeric cell. Date formatted numbers become ISO dates
// and keep the serial as their raw value.
func (g *biffGlobals) numberCell(xf uint16, v float64) biffCell {
	raw := strconv.FormatFloat(v, 'f', -1, 64)
	if g.isDateXF(xf) {
		if t, err := excelize.ExcelDateToTime(v, g.date1904); err == nil {
			return biffCell{text: t.Format(DateLayout), raw: raw}
		}
	}
	return biffCell{text: raw, raw: raw}
}

func (g *biffGlobals) isDateXF(xf uint16) bool {
	if int(xf) >= len(g.xfFormats) {
		return false
	}
	id := g.xfFormats[xf]
	switch {
	case id >= 14 && id <= 17, id == 22, id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	case id < 164:
		return false
	}
	return isDateFormatCode(g.formats[id])
}

// isDateFormatCode reports whether a custom number format shows a year or a
// day, ignoring quoted literals, escapes and bracketed sections.
func isDateFormatCode(code string) bool {
	var quoted, bracket, escaped bool
	for _, c := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case quoted:
			quoted = c != '"'
		case bracket:
			bracket = c != ']'
		case c == '\\':
			escaped = true
		case c == '"':
			quoted = true
		case c == '[':
			bracket = true
		case c == 'y' || c == 'd':
			return true
		}
	}
	return false
}

// rkValue decodes an RK number: a 30-bit integer or the high bits of an
// IEEE double, optionally scaled by 100.
func rkValue(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

type cellPos struct{ row, col int }

func decodeSheet(stream []byte, off int, g *biffGlobals) (*sheet, error) {
	recs, err := substream(stream, off, bofWorksheet)
	if err != nil {
		return nil, err
	}

	cells := make(map[int]map[int]biffCell)
	set := func(row, col int, c biffCell) error {
		if col >= maxBIFFCols {
			return fmt.Errorf("column %d out of range in row %d", col, row+1)
		}
		if cells[row] == nil {
			cells[row] = make(map[int]biffCell)
		}
		cells[row][col] = c
		return nil
	}

	var pending *cellPos
	for _, rec := range recs {
		d := rec.data
		var err error
		switch rec.id {
		case recNumber:
			if len(d) < 14 {
				return nil, fmt.Errorf("NUMBER record: %w", errTruncated)
			}
			v := math.Float64frombits(binary.LittleEndian.Uint64(d[6:]))
			err = set(int(le16(d)), int(le16(d[2:])), g.numberCell(le16(d[4:]), v))
		case recRK:
			if len(d) < 10 {
				return nil, fmt.Errorf("RK record: %w", errTruncated)
			}
			err = set(int(le16(d)), int(le16(d[2:])), g.numberCell(le16(d[4:]), rkValue(le32(d[6:]))))
		case recMulRK:
			if len(d) < 6 {
				return nil, fmt.Errorf("MULRK record: %w", errTruncated)
			}
			row, first := int(le16(d)), int(le16(d[2:]))
			for k := 0; 4+6*k+6 <= len(d)-2 && err == nil; k++ {
				p := d[4+6*k:]
				err = set(row, first+k, g.numberCell(le16(p), rkValue(le32(p[2:]))))
			}
		case recLabelSST:
			if len(d) < 10 {
				return nil, fmt.Errorf("LABELSST record: %w", errTruncated)
			}
			idx := le32(d[6:])
			if int64(idx) >= int64(len(g.sst)) {
				return nil, fmt.Errorf("shared string %d out of range", idx)
			}
			s := g.sst[idx]
			err = set(int(le16(d)), int(le16(d[2:])), biffCell{text: s, raw: s})
		case recLabel:
			if len(d) < 6 {
				return nil, fmt.Errorf("LABEL record: %w", errTruncated)
			}
			s, serr := readXLString(d[6:])
			if serr != nil {
				return nil, fmt.Errorf("LABEL record: %w", serr)
			}
			err = set(int(le16(d)), int(le16(d[2:])), biffCell{text: s, raw: s})
		case recBoolErr:
			if len(d) < 8 {
				return nil, fmt.Errorf("BOOLERR record: %w", errTruncated)
			}
			if d[7] == 0 {
				err = set(int(le16(d)), int(le16(d[2:])), boolCell(d[6] != 0))
			}
		case recFormula:
			if len(d) < 14 {
				return nil, fmt.Errorf("FORMULA record: %w", errTruncated)
			}
			row, col, res := int(le16(d)), int(le16(d[2:])), d[6:14]
			if le16(res[6:]) != 0xFFFF {
				err = set(row, col, g.numberCell(le16(d[4:]), math.Float64frombits(binary.LittleEndian.Uint64(res))))
				break
			}
			switch res[0] {
			case 0:
				pending = &cellPos{row: row, col: col}
			case 1:
				err = set(row, col, boolCell(res[2] != 0))
			}
		case recString:
			if pending == nil {
				continue
			}
			s, serr := readXLString(d)
			if serr != nil {
				return nil, fmt.Errorf("STRING record: %w", serr)
			}
			err = set(pending.row, pending.col, biffCell{text: s, raw: s})
			pending = nil
		}
		if err != nil {
			return nil, err
		}
	}

	rows := make([]int, 0, len(cells))
	for r := range cells {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	s := &sheet{Rows: make([]sheetRow, 0, len(rows)), Date1904: g.date1904}
	for _, r := range rows {
		last := 0
		for c := range cells[r] {
			last = max(last, c)
		}
		row := sheetRow{Num: r + 1, Cells: make([]string, last+1), Raw: make([]string, last+1)}
		for c, v := range cells[r] {
			row.Cells[c], row.Raw[c] = v.text, v.raw
		}
		if blankRow(row.Cells) {
			continue
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

func boolCell(v bool) biffCell {
	s := strings.ToUpper(strconv.FormatBool(v))
	return biffCell{text: s, raw: s}
}

// recoverInto must be deferred directly.
func recoverInto(err *error, what string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: %v", what, r)
	}
}
