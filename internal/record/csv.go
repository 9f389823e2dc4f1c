package record

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// #region header
// Header is the fixed column layout of the CSV log.
var Header = []string{
	"timestamp",
	"alpha_L", "beta_L", "gamma_L",
	"alpha_R", "beta_R", "gamma_R",
	"alphaL_rel", "betaL_rel", "gammaL_rel",
	"alphaR_rel", "betaR_rel", "gammaR_rel",
	"marker",
}

// TimestampLayout is the timestamp format of the CSV log.
const TimestampLayout = "2006-01-02 15:04:05.000"

// #endregion header

// #region csv-sink
// CSVSink appends records to a delimited text file, flushing every row.
type CSVSink struct {
	file *os.File
	w    *csv.Writer
}

// SessionFileName names the CSV log for a session started at t.
func SessionFileName(t time.Time) string {
	return "eeg_session_" + t.Format("20060102_150405") + ".csv"
}

// OpenCSV creates (or appends to) the file at path, writing the header when
// the file is new.
func OpenCSV(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv %s: %w", path, err)
	}

	s := &CSVSink{file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := s.write(Header); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

// Append writes one row.
func (s *CSVSink) Append(rec CycleRecord) error {
	return s.write(Row(rec))
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	return s.file.Close()
}

func (s *CSVSink) write(row []string) error {
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// #endregion csv-sink

// #region row
// Row formats rec in Header order.
func Row(rec CycleRecord) []string {
	marker := ""
	if rec.Marker > 0 {
		marker = strconv.Itoa(rec.Marker)
	}
	return []string{
		rec.Timestamp.Format(TimestampLayout),
		f3(rec.Left.Alpha), f3(rec.Left.Beta), f3(rec.Left.Gamma),
		f3(rec.Right.Alpha), f3(rec.Right.Beta), f3(rec.Right.Gamma),
		f3(rec.LeftRel.Alpha), f3(rec.LeftRel.Beta), f3(rec.LeftRel.Gamma),
		f3(rec.RightRel.Alpha), f3(rec.RightRel.Beta), f3(rec.RightRel.Gamma),
		marker,
	}
}

func f3(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// #endregion row
