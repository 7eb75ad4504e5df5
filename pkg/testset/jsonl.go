package testset

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// WriteJSONL writes one sample per line to w.
func WriteJSONL(w io.Writer, samples []Sample) error {
	enc := json.NewEncoder(w)
	for i, sample := range samples {
		if err := enc.Encode(sample); err != nil {
			return errors.Wrapf(err, "unable to encode sample %d", i)
		}
	}

	return nil
}

// ReadJSONL reads a dataset written by WriteJSONL.
func ReadJSONL(r io.Reader) ([]Sample, error) {
	dec := json.NewDecoder(r)

	var samples []Sample
	for {
		var sample Sample
		err := dec.Decode(&sample)
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "unable to decode sample")
		}
		samples = append(samples, sample)
	}
}

// SaveFile writes samples to path as JSON lines.
func SaveFile(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}

	if err := WriteJSONL(f, samples); err != nil {
		_ = f.Close()
		return err
	}

	return errors.Wrapf(f.Close(), "unable to close %s", path)
}

// LoadFile reads a dataset file written by SaveFile.
func LoadFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer func() { _ = f.Close() }()

	return ReadJSONL(f)
}
