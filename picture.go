package xslt

import (
	"fmt"
	"strings"
	"time"
)

// A date/time picture is a string of literal text interleaved with
// variable markers in square brackets, per the XSLT format-date family:
// "[Y0001]-[M01]-[D01]". "[[" and "]]" escape literal brackets. Each
// marker names a component (first character) and an optional presentation
// whose digit count sets the zero-padded width.
type picture struct {
	parts []pictureItem
}

type pictureItem struct {
	literal   string
	component byte
	width     int
}

func parsePicture(s string) (picture, error) {
	var p picture
	var lit strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			if i+1 < len(s) && s[i+1] == '[' {
				lit.WriteByte('[')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], ']')
			if end < 0 {
				return picture{}, errType("bad picture: unclosed variable marker")
			}
			marker := s[i+1 : i+1+end]
			if marker == "" {
				return picture{}, errType("bad picture: empty variable marker")
			}
			if lit.Len() > 0 {
				p.parts = append(p.parts, pictureItem{literal: lit.String()})
				lit.Reset()
			}
			width := 0
			for _, c := range marker[1:] {
				if c >= '0' && c <= '9' {
					width++
				}
			}
			p.parts = append(p.parts, pictureItem{component: marker[0], width: width})
			i += end + 1
		case ']':
			if i+1 < len(s) && s[i+1] == ']' {
				lit.WriteByte(']')
				i++
				continue
			}
			return picture{}, errType("bad picture: unescaped closing bracket")
		default:
			lit.WriteByte(s[i])
		}
	}
	if lit.Len() > 0 {
		p.parts = append(p.parts, pictureItem{literal: lit.String()})
	}
	return p, nil
}

func (p picture) format(t time.Time) string {
	var b strings.Builder
	for _, item := range p.parts {
		if item.component == 0 {
			b.WriteString(item.literal)
			continue
		}
		b.WriteString(formatComponent(t, item.component, item.width))
	}
	return b.String()
}

func formatComponent(t time.Time, component byte, width int) string {
	pad := func(n int) string {
		if width > 0 {
			return fmt.Sprintf("%0*d", width, n)
		}
		return fmt.Sprintf("%d", n)
	}
	switch component {
	case 'Y':
		return pad(t.Year())
	case 'M':
		return pad(int(t.Month()))
	case 'D':
		return pad(t.Day())
	case 'd':
		return pad(t.YearDay())
	case 'F':
		return t.Weekday().String()
	case 'H':
		return pad(t.Hour())
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return pad(h)
	case 'P':
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	case 'm':
		return pad(t.Minute())
	case 's':
		return pad(t.Second())
	case 'f':
		ns := t.Nanosecond()
		digits := width
		if digits == 0 {
			digits = 3
		}
		frac := fmt.Sprintf("%09d", ns)
		return frac[:digits]
	case 'Z', 'z':
		return t.Format("-07:00")
	default:
		// Unrecognised components render as nothing.
		return ""
	}
}
