package y4m

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"filldrops/internal/video"
)

const (
	streamMagic = "YUV4MPEG2"
	frameMagic  = "FRAME"
	maxHeader   = 1024
)

// ErrFormat reports a stream that is not valid YUV4MPEG2.
var ErrFormat = errors.New("y4m: invalid stream")

// Rational is a frame rate or pixel aspect ratio.
type Rational struct {
	Num, Den int
}

func (r Rational) String() string { return fmt.Sprintf("%d:%d", r.Num, r.Den) }

// Float returns Num/Den, or 0 when Den is zero.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Header describes the stream parameters.
type Header struct {
	Format     video.Format
	FrameRate  Rational
	Aspect     Rational
	Interlace  byte
	Colorspace string
	// Extra keeps X-prefixed tags in order.
	Extra []string
}

// DefaultHeader returns a progressive 25 fps header for format.
func DefaultHeader(format video.Format) Header {
	return Header{
		Format:     format,
		FrameRate:  Rational{25, 1},
		Aspect:     Rational{1, 1},
		Interlace:  'p',
		Colorspace: colorspaceTag(format.Subsampling),
	}
}

func colorspaceTag(s video.Subsampling) string {
	switch s {
	case video.Gray:
		return "mono"
	case video.YUV422:
		return "422"
	case video.YUV444:
		return "444"
	default:
		return "420jpeg"
	}
}

func parseColorspace(tag string) (video.Subsampling, error) {
	switch tag {
	case "", "420", "420jpeg", "420paldv", "420mpeg2":
		return video.YUV420, nil
	case "422":
		return video.YUV422, nil
	case "444":
		return video.YUV444, nil
	case "mono":
		return video.Gray, nil
	}
	return 0, fmt.Errorf("%w: unsupported colorspace %q", ErrFormat, tag)
}

func parseRational(value string) (Rational, error) {
	num, den, ok := strings.Cut(value, ":")
	if !ok {
		return Rational{}, fmt.Errorf("%w: malformed ratio %q", ErrFormat, value)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return Rational{}, fmt.Errorf("%w: malformed ratio %q", ErrFormat, value)
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return Rational{}, fmt.Errorf("%w: malformed ratio %q", ErrFormat, value)
	}
	return Rational{n, d}, nil
}

// ParseHeader parses a stream header line without its trailing newline.
func ParseHeader(line []byte) (Header, error) {
	fields := strings.Fields(string(line))
	if len(fields) == 0 || fields[0] != streamMagic {
		return Header{}, fmt.Errorf("%w: missing %s signature", ErrFormat, streamMagic)
	}
	h := Header{Interlace: 'p', FrameRate: Rational{25, 1}, Aspect: Rational{0, 0}}
	var width, height int
	var err error
	for _, field := range fields[1:] {
		tag, value := field[0], field[1:]
		switch tag {
		case 'W':
			width, err = strconv.Atoi(value)
		case 'H':
			height, err = strconv.Atoi(value)
		case 'F':
			h.FrameRate, err = parseRational(value)
		case 'A':
			h.Aspect, err = parseRational(value)
		case 'I':
			if value == "" {
				err = fmt.Errorf("%w: empty interlace tag", ErrFormat)
			} else {
				h.Interlace = value[0]
			}
		case 'C':
			h.Colorspace = value
		case 'X':
			h.Extra = append(h.Extra, value)
		default:
			err = fmt.Errorf("%w: unknown tag %q", ErrFormat, field)
		}
		if err != nil {
			if !errors.Is(err, ErrFormat) {
				err = fmt.Errorf("%w: bad tag %q", ErrFormat, field)
			}
			return Header{}, err
		}
	}
	sub, err := parseColorspace(h.Colorspace)
	if err != nil {
		return Header{}, err
	}
	if h.Colorspace == "" {
		h.Colorspace = "420jpeg"
	}
	h.Format = video.Format{Width: width, Height: height, Subsampling: sub, BitDepth: 8}
	if err := h.Format.Validate(); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return h, nil
}

// Marshal renders the header line including the trailing newline.
func (h Header) Marshal() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s W%d H%d F%s", streamMagic, h.Format.Width, h.Format.Height, h.FrameRate)
	if h.Interlace != 0 {
		fmt.Fprintf(&b, " I%c", h.Interlace)
	}
	if h.Aspect.Den != 0 {
		fmt.Fprintf(&b, " A%s", h.Aspect)
	}
	cs := h.Colorspace
	if cs == "" {
		cs = colorspaceTag(h.Format.Subsampling)
	}
	fmt.Fprintf(&b, " C%s", cs)
	for _, x := range h.Extra {
		fmt.Fprintf(&b, " X%s", x)
	}
	b.WriteByte('\n')
	return b.Bytes()
}
