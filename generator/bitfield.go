package generator

import (
	"fmt"

	"github.com/ardanlabs/cjbindgen/parser"
)

// BitfieldGroup is a run of consecutive bit-fields stored as opaque bytes.
type BitfieldGroup struct {
	Name    string
	Size    int64
	Members []BitfieldMember
}

// BitfieldMember records one original bit-field for the generated comment.
type BitfieldMember struct {
	Name  string
	CType string
	Width int
}

func (*BitfieldGroup) member() {}

// Type returns the storage type of the group.
func (g *BitfieldGroup) Type() *Type {
	return arrayOf(byteType, g.Size)
}

func bitfieldName(index int) string {
	if index == 0 {
		return "bitfields"
	}
	return fmt.Sprintf("bitfields%d", index)
}

// packBitfields collapses a bit-field run into one byte array field.
func packBitfields(name string, run []*parser.Node) (*BitfieldGroup, error) {
	g := &BitfieldGroup{Name: name}
	total := 0
	for _, f := range run {
		width := *f.BitWidth
		total += width

		fieldName := f.Name
		if fieldName == "" {
			fieldName = "unnamed"
		}
		ctype := ""
		if f.Type != nil {
			ctype = f.Type.Spelling
			if ctype == "" {
				ctype = string(f.Type.Kind)
			}
		}
		g.Members = append(g.Members, BitfieldMember{Name: fieldName, CType: ctype, Width: width})
	}

	if total%8 != 0 {
		return nil, &MisalignedBitfieldError{TotalBits: total}
	}
	g.Size = int64(total / 8)
	return g, nil
}
