// Package texture decodes images into GL-ready pixel buffers and keeps the
// GPU texture objects created from them.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image types.
const (
	TGATypeUncompressed = 2
	TGATypeRLE          = 10
)

var errTGATruncated = errors.New("TGA data truncated")

// DecodeTGA decodes uncompressed or RLE true-color TGA data.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, errTGATruncated
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
	}
	if 18+idLength > len(data) {
		return nil, errTGATruncated
	}

	d := tgaDecoder{
		src:   data[18+idLength:],
		bpp:   bpp / 8,
		img:   image.NewNRGBA(image.Rect(0, 0, width, height)),
		flipY: !topToBottom,
	}
	var err error
	if imageType == TGATypeUncompressed {
		err = d.raw(width * height)
	} else {
		err = d.rle(width * height)
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	src   []byte
	pos   int
	bpp   int
	img   *image.NRGBA
	flipY bool
	n     int // pixels written
}

func (d *tgaDecoder) next() (color.NRGBA, error) {
	if d.pos+d.bpp > len(d.src) {
		return color.NRGBA{}, errTGATruncated
	}
	p := d.src[d.pos : d.pos+d.bpp]
	d.pos += d.bpp
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bpp == 4 {
		c.A = p[3]
	}
	return c, nil
}

func (d *tgaDecoder) put(c color.NRGBA) {
	w, h := d.img.Rect.Dx(), d.img.Rect.Dy()
	x, y := d.n%w, d.n/w
	if d.flipY {
		y = h - 1 - y
	}
	d.img.SetNRGBA(x, y, c)
	d.n++
}

func (d *tgaDecoder) raw(total int) error {
	for d.n < total {
		c, err := d.next()
		if err != nil {
			return err
		}
		d.put(c)
	}
	return nil
}

func (d *tgaDecoder) rle(total int) error {
	for d.n < total {
		if d.pos >= len(d.src) {
			return errTGATruncated
		}
		packet := d.src[d.pos]
		d.pos++
		count := min(int(packet&0x7f)+1, total-d.n)

		if packet&0x80 != 0 {
			c, err := d.next()
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				d.put(c)
			}
			continue
		}
		for i := 0; i < count; i++ {
			c, err := d.next()
			if err != nil {
				return err
			}
			d.put(c)
		}
	}
	return nil
}
