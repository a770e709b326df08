package lapindex

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/dimchansky/utfbom"
	"github.com/pkg/errors"
)

// Index is the document the dashboard loads.
type Index struct {
	Sessions []*SessionSummary `json:"sessions"`
}

// ReadSessionFile decodes one session document. Files saved by Windows tools often start
// with a byte order mark, which is skipped.
func ReadSessionFile(path string) (*SessionRecord, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, errors.Wrapf(err, "could not open session file %s", path)
	}

	defer f.Close()

	var record *SessionRecord

	err = json.NewDecoder(utfbom.SkipOnly(f)).Decode(&record)

	if err != nil {
		return nil, errors.Wrapf(err, "could not decode session file %s", path)
	}

	if record == nil {
		return nil, errors.Errorf("session file %s contains null", path)
	}

	return record, nil
}

// EncodeIndex writes the index as indented JSON. HTML characters are left alone so that
// driver and track names come out exactly as they were recorded.
func EncodeIndex(w io.Writer, index *Index, indent string) error {
	if index.Sessions == nil {
		index = &Index{Sessions: []*SessionSummary{}}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)

	return enc.Encode(index)
}

// WriteIndex replaces the file at path with the encoded index, returning the number of
// bytes written. The index is written to a temporary file alongside path and renamed into
// place, so a dashboard never reads a half written file.
func WriteIndex(path string, index *Index, indent string) (int64, error) {
	buf := new(bytes.Buffer)

	if err := EncodeIndex(buf, index, indent); err != nil {
		return 0, errors.Wrap(err, "could not encode sessions index")
	}

	f, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".*")

	if err != nil {
		return 0, errors.Wrapf(err, "could not create temporary file for %s", path)
	}

	n, err := f.Write(buf.Bytes())

	if err = firstError(err, f.Chmod(0644), f.Close()); err != nil {
		_ = os.Remove(f.Name())
		return 0, errors.Wrapf(err, "could not write %s", f.Name())
	}

	if err := os.Rename(f.Name(), path); err != nil {
		_ = os.Remove(f.Name())
		return 0, errors.Wrapf(err, "could not move sessions index into place at %s", path)
	}

	return int64(n), nil
}
