package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"
	"unicode/utf16"
)

const (
	testSector = 512
	endOfChain = 0xFFFFFFFE
	fatSect    = 0xFFFFFFFD
	freeSect   = 0xFFFFFFFF
	noStream   = 0xFFFFFFFF

	// Offsets into the container written by xlsBytes.
	fatOffset      = cfbHeaderSize
	dirOffset      = cfbHeaderSize + testSector
	streamOffset   = cfbHeaderSize + 2*testSector
	workbookDirEnt = dirOffset + 128
)

var le = binary.LittleEndian

type biffWriter struct {
	buf bytes.Buffer
}

func (w *biffWriter) record(id uint16, data []byte) {
	var h [4]byte
	le.PutUint16(h[:], id)
	le.PutUint16(h[2:], uint16(len(data)))
	w.buf.Write(h[:])
	w.buf.Write(data)
}

func bofRecord(kind uint16) []byte {
	b := le.AppendUint16(nil, biff8Version)
	b = le.AppendUint16(b, kind)
	b = le.AppendUint16(b, 0x0DBB)
	b = le.AppendUint16(b, 0x07CC)
	b = le.AppendUint32(b, 0)
	return le.AppendUint32(b, 0x06)
}

func xfRecord(ifmt uint16) []byte {
	b := make([]byte, 20)
	le.PutUint16(b[2:], ifmt)
	return b
}

func cellHeader(row, col int, xf uint16) []byte {
	b := le.AppendUint16(nil, uint16(row))
	b = le.AppendUint16(b, uint16(col))
	return le.AppendUint16(b, xf)
}

func wideChars(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = le.AppendUint16(b, u)
	}
	return b
}

// xlsBytes builds a BIFF8 workbook in a version 3 compound file. Rows start
// at A1 and nil values leave the cell unset. Strings go to the shared string
// table, ints become RK cells, floats NUMBER cells and time.Time values
// date formatted serials.
func xlsBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()

	var sst []string
	var cells biffWriter
	for r, row := range rows {
		for c, v := range row {
			switch v := v.(type) {
			case nil:
			case string:
				d := le.AppendUint32(cellHeader(r, c, 0), uint32(len(sst)))
				sst = append(sst, v)
				cells.record(recLabelSST, d)
			case int:
				cells.record(recRK, le.AppendUint32(cellHeader(r, c, 0), uint32(v)<<2|0x02))
			case float64:
				cells.record(recNumber, le.AppendUint64(cellHeader(r, c, 0), math.Float64bits(v)))
			case time.Time:
				serial := v.Sub(time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)).Hours() / 24
				cells.record(recNumber, le.AppendUint64(cellHeader(r, c, 1), math.Float64bits(serial)))
			default:
				t.Fatalf("unsupported cell value %T", v)
			}
		}
	}

	var w biffWriter
	w.record(recBOF, bofRecord(bofGlobals))
	w.record(recDateMode, []byte{0, 0})
	w.record(recXF, xfRecord(0))
	w.record(recXF, xfRecord(14))

	sheetName := []byte("Sheet1")
	bs := append([]byte{0, 0, 0, 0, 0, 0, byte(len(sheetName)), 0}, sheetName...)
	offsetAt := w.buf.Len() + 4
	w.record(recBoundSheet, bs)

	strs := le.AppendUint32(nil, uint32(len(sst)))
	strs = le.AppendUint32(strs, uint32(len(sst)))
	for _, s := range sst {
		strs = le.AppendUint16(strs, uint16(len(utf16.Encode([]rune(s)))))
		strs = append(strs, 0x01)
		strs = append(strs, wideChars(s)...)
	}
	w.record(recSST, strs)
	w.record(recEOF, nil)

	stream := w.buf.Bytes()
	le.PutUint32(stream[offsetAt:], uint32(len(stream)))

	w.record(recBOF, bofRecord(bofWorksheet))
	w.buf.Write(cells.buf.Bytes())
	w.record(recEOF, nil)

	// Streams under 4096 bytes live in the mini stream; pad past it.
	stream = w.buf.Bytes()
	if len(stream) < 4096 {
		stream = append(stream, make([]byte, 4096-len(stream))...)
	}
	return compoundFile(t, stream)
}

// compoundFile wraps stream as the only entry of a compound file laid out as
// header, FAT sector, directory sector, then the stream sectors.
func compoundFile(t *testing.T, stream []byte) []byte {
	t.Helper()

	n := (len(stream) + testSector - 1) / testSector
	if n+2 > testSector/4 {
		t.Fatalf("stream of %d bytes does not fit one FAT sector", len(stream))
	}
	out := make([]byte, cfbHeaderSize+(2+n)*testSector)

	h := out[:cfbHeaderSize]
	copy(h, oleSignature)
	le.PutUint16(h[24:], 0x003E)
	le.PutUint16(h[26:], 3)
	le.PutUint16(h[28:], 0xFFFE)
	le.PutUint16(h[30:], 9)
	le.PutUint16(h[32:], 6)
	le.PutUint32(h[44:], 1)
	le.PutUint32(h[48:], 1)
	le.PutUint32(h[56:], 4096)
	le.PutUint32(h[60:], endOfChain)
	le.PutUint32(h[68:], endOfChain)
	for i := 76; i < cfbHeaderSize; i += 4 {
		le.PutUint32(h[i:], freeSect)
	}
	le.PutUint32(h[76:], 0)

	fat := out[fatOffset:dirOffset]
	for i := 0; i < testSector; i += 4 {
		le.PutUint32(fat[i:], freeSect)
	}
	le.PutUint32(fat[0:], fatSect)
	le.PutUint32(fat[4:], endOfChain)
	for i := 0; i < n; i++ {
		next := uint32(3 + i)
		if i == n-1 {
			next = endOfChain
		}
		le.PutUint32(fat[4*(2+i):], next)
	}

	dir := out[dirOffset:streamOffset]
	dirEntry(dir[0:128], "Root Entry", 5, 1, endOfChain, 0)
	dirEntry(dir[128:256], "Workbook", 2, noStream, 2, len(stream))

	copy(out[streamOffset:], stream)
	return out
}

func dirEntry(b []byte, name string, typ byte, child, start uint32, size int) {
	u := wideChars(name)
	copy(b, u)
	le.PutUint16(b[64:], uint16(len(u)+2))
	b[66] = typ
	b[67] = 1
	le.PutUint32(b[68:], noStream)
	le.PutUint32(b[72:], noStream)
	le.PutUint32(b[76:], child)
	le.PutUint32(b[116:], start)
	le.PutUint32(b[120:], uint32(size))
}

func TestSheetParser_ParseXLS(t *testing.T) {
	data := xlsBytes(t, [][]any{
		sheetHeader,
		{1247, "Мария Козлова", 891, "Награда", time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC)},
		nil,
		{1248.0, "John", "892", "Team Player", "2024-12-01"},
	})

	got, err := NewSheetParser(DefaultLayout()).Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []Record{
		{1247, "Мария Козлова", 891, "Награда", time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC)},
		{1248, "John", 892, "Team Player", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)},
	}
	if len(got) != len(want) {
		t.Fatalf("Parse() returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSheetParser_XLSEmptyCell(t *testing.T) {
	date := time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC)
	data := xlsBytes(t, [][]any{
		sheetHeader,
		{1247, "A", 891, "B", date},
		nil,
		{1248, nil, 892, "C", date},
	})

	_, err := NewSheetParser(DefaultLayout()).Parse(bytes.NewReader(data))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("Parse() error = %v, want ErrParse", err)
	}
	if !strings.Contains(err.Error(), "cell 1 is empty in row 4") {
		t.Errorf("error %q does not name the cell and sheet row", err)
	}
}

func TestXLSBook_FirstSheet(t *testing.T) {
	book, err := openWorkbook(xlsBytes(t, [][]any{
		{"id", "when", "ratio", "neg"},
		nil,
		{1247, time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC), 2.5, -3},
	}))
	if err != nil {
		t.Fatalf("openWorkbook() error = %v", err)
	}
	defer book.Close()

	s, err := book.firstSheet()
	if err != nil {
		t.Fatalf("firstSheet() error = %v", err)
	}
	if len(s.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(s.Rows))
	}

	row := s.Rows[1]
	if row.Num != 3 {
		t.Errorf("row number = %d, want 3", row.Num)
	}
	wantCells := []string{"1247", "2025-03-22", "2.5", "-3"}
	wantRaw := []string{"1247", "45738", "2.5", "-3"}
	for i := range wantCells {
		if row.Cells[i] != wantCells[i] || row.raw(i) != wantRaw[i] {
			t.Errorf("cell %d = %q (raw %q), want %q (raw %q)",
				i, row.Cells[i], row.raw(i), wantCells[i], wantRaw[i])
		}
	}
}

func TestValidateFile_XLS(t *testing.T) {
	valid := xlsBytes(t, [][]any{sheetHeader, {1247, "A", 891, "B", "2025-03-22"}})

	patch := func(off int, v uint32) []byte {
		d := bytes.Clone(valid)
		le.PutUint32(d[off:], v)
		return d
	}

	tests := []struct {
		name     string
		data     []byte
		wantText string
	}{
		{name: "valid"},
		{
			name:     "stream starts past the end",
			data:     patch(workbookDirEnt+116, 0x7FFFFFF0),
			wantText: "invalid xls file",
		},
		{
			name:     "sector chain runs past the end",
			data:     patch(fatOffset+4*3, 5000),
			wantText: "invalid xls file",
		},
		{
			name:     "header claims more FAT sectors than the file holds",
			data:     patch(44, 1<<30),
			wantText: "claims",
		},
		{
			name:     "stream larger than the file",
			data:     patch(workbookDirEnt+120, 1<<30),
			wantText: "out of range",
		},
		{
			name:     "truncated container",
			data:     valid[:streamOffset+100],
			wantText: "invalid xls file",
		},
		{
			name:     "not biff8",
			data:     patch(streamOffset+4, 0x00050500),
			wantText: "unsupported BIFF version",
		},
		{
			name:     "sheet offset past the stream",
			data:     patch(streamOffset+4+16+4+2+4+20+4+20+4, 1<<20),
			wantText: "truncated record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			if data == nil {
				data = valid
			}
			err := ValidateFile("awards.xls", BytesOpener(data))
			if tt.wantText == "" {
				if err != nil {
					t.Fatalf("ValidateFile() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidFile) {
				t.Fatalf("ValidateFile() error = %v, want ErrInvalidFile", err)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error %q does not contain %q", err, tt.wantText)
			}
		})
	}
}

// Random damage past the container header must surface as an error from
// both phases, never as a crash.
func TestXLS_CorruptBytes(t *testing.T) {
	valid := xlsBytes(t, [][]any{
		sheetHeader,
		{1247, "Мария Козлова", 891, "Награда", time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC)},
		{1248, "John", 892, "Team Player", "2024-12-01"},
	})
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		data := bytes.Clone(valid)
		for j := 0; j < 20; j++ {
			data[cfbHeaderSize+rng.Intn(len(data)-cfbHeaderSize)] = byte(rng.Intn(256))
		}

		if err := ValidateFile("awards.xls", BytesOpener(data)); err != nil && KindOf(err) != KindInvalidFile {
			t.Fatalf("iteration %d: ValidateFile() error kind = %v (%v)", i, KindOf(err), err)
		}
		if _, err := NewSheetParser(DefaultLayout()).Parse(bytes.NewReader(data)); err != nil && KindOf(err) != KindParse {
			t.Fatalf("iteration %d: Parse() error kind = %v (%v)", i, KindOf(err), err)
		}
	}
}

func TestDecodeSST_Continue(t *testing.T) {
	// "Награда" is split after three wide characters. "abc" starts wide
	// and continues with one byte characters.
	first := le.AppendUint32(nil, 2)
	first = le.AppendUint32(first, 2)
	first = append(first, 7, 0, 0x01)
	first = append(first, wideChars("Наг")...)
	second := append([]byte{0x01}, wideChars("рада")...)
	second = append(second, 3, 0, 0x01)
	second = append(second, wideChars("a")...)
	third := append([]byte{0x00}, 'b', 'c')

	got, err := decodeSST([][]byte{first, second, third})
	if err != nil {
		t.Fatalf("decodeSST() error = %v", err)
	}
	want := []string{"Награда", "abc"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("decodeSST() = %q, want %q", got, want)
	}

	if _, err := decodeSST([][]byte{first}); err == nil {
		t.Error("decodeSST() on a cut string succeeded")
	}
}

func rkInt(v int32) uint32 {
	return uint32(v)<<2 | 0x02
}

func TestRKValue(t *testing.T) {
	tests := []struct {
		rk   uint32
		want float64
	}{
		{rkInt(1247), 1247},
		{rkInt(-3), -3},
		{12345<<2 | 0x03, 123.45},
		{uint32(math.Float64bits(2.5) >> 32), 2.5},
		{uint32(math.Float64bits(2.5)>>32) | 0x01, 0.025},
	}
	for _, tt := range tests {
		if got := rkValue(tt.rk); got != tt.want {
			t.Errorf("rkValue(%#x) = %v, want %v", tt.rk, got, tt.want)
		}
	}
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"dd.mm.yyyy", true},
		{"[$-419]d mmmm yyyy", true},
		{"0.00", false},
		{`"day "0`, false},
		{`\d0`, false},
		{"[Red]#,##0", false},
		{"General", false},
	}
	for _, tt := range tests {
		if got := isDateFormatCode(tt.code); got != tt.want {
			t.Errorf("isDateFormatCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
