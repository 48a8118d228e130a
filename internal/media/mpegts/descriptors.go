package mpegts

import (
	"encoding/binary"

	"github.com/asticode/go-astits"
)

func fromAstits(in []*astits.Descriptor) []Descriptor {
	var out []Descriptor
	for _, d := range in {
		if d == nil {
			continue
		}
		switch {
		case d.Registration != nil:
			data := binary.BigEndian.AppendUint32(nil, d.Registration.FormatIdentifier)
			data = append(data, d.Registration.AdditionalIdentificationInfo...)
			out = append(out, Descriptor{Tag: DescriptorTagRegistration, Data: data})
		case d.Extension != nil && d.Extension.Unknown != nil:
			data := append([]byte{d.Extension.Tag}, (*d.Extension.Unknown)...)
			out = append(out, Descriptor{Tag: DescriptorTagExtension, Data: data})
		case d.UserDefined != nil:
			out = append(out, Descriptor{Tag: d.Tag, Data: append([]byte(nil), d.UserDefined...)})
		case d.Unknown != nil:
			out = append(out, Descriptor{Tag: d.Unknown.Tag, Data: append([]byte(nil), d.Unknown.Content...)})
		}
	}
	return out
}

func toAstits(in []Descriptor) []*astits.Descriptor {
	out := make([]*astits.Descriptor, 0, len(in))
	for _, d := range in {
		if len(d.Data) > 0xff {
			continue
		}
		ad := &astits.Descriptor{Tag: d.Tag, Length: uint8(len(d.Data))}
		switch {
		case d.Tag == DescriptorTagRegistration && len(d.Data) >= 4:
			ad.Registration = &astits.DescriptorRegistration{
				FormatIdentifier:             binary.BigEndian.Uint32(d.Data),
				AdditionalIdentificationInfo: append([]byte(nil), d.Data[4:]...),
			}
		case d.Tag == DescriptorTagExtension && len(d.Data) >= 1:
			rest := append([]byte(nil), d.Data[1:]...)
			ad.Extension = &astits.DescriptorExtension{Tag: d.Data[0], Unknown: &rest}
		default:
			content := append([]byte(nil), d.Data...)
			ad.Unknown = &astits.DescriptorUnknown{Tag: d.Tag, Content: content}
			if d.Tag >= 0x80 && d.Tag != 0xff {
				ad.UserDefined = content
			}
		}
		out = append(out, ad)
	}
	return out
}
