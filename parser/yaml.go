package parser

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ParseYAML reads a Header from an AST dump produced by an external
// front-end.
func ParseYAML(r io.Reader) (*Header, error) {
	d := yaml.NewDecoder(r)
	// Unknown keys mean the dump and the model disagree.
	d.SetStrict(true)

	var header Header
	if err := d.Decode(&header); err != nil {
		if err == io.EOF {
			return &header, nil
		}
		return nil, errors.Wrap(err, "decoding AST dump")
	}
	return &header, nil
}

// LoadYAML reads an AST dump from path.
func LoadYAML(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	header, err := ParseYAML(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if header.File == "" {
		header.File = path
	}
	return header, nil
}
