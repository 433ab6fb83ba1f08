package pak

import "fmt"

// DepackLimit is the largest decompressed span one packed chunk may produce.
// The format compresses payloads in fixed windows of this size.
const DepackLimit = 4096

// Depack decompresses one aPLib-packed block and returns the decompressed
// bytes. It is a pure function over the input slice. Every source read and
// every back-reference is bounds-checked, and output is capped at limit
// bytes; violating either reports ErrCorruptData.
func Depack(src []byte, limit int) ([]byte, error) {
	d := depacker{src: src, dst: make([]byte, 0, min(limit, 256)), limit: limit}
	if err := d.run(); err != nil {
		return nil, err
	}
	return d.dst, nil
}

type depacker struct {
	src   []byte
	dst   []byte
	limit int

	pos      int
	tag      byte
	tagBits  int
	lastOffs int
}

func (d *depacker) srcByte() (byte, error) {
	if d.pos >= len(d.src) {
		return 0, fmt.Errorf("%w: packed chunk ends early at byte %d", ErrCorruptData, d.pos)
	}
	b := d.src[d.pos]
	d.pos++
	return b, nil
}

// bit returns the next tag bit, refilling the tag byte from the source
// stream every eight bits. Bits are consumed most significant first.
func (d *depacker) bit() (int, error) {
	if d.tagBits == 0 {
		t, err := d.srcByte()
		if err != nil {
			return 0, err
		}
		d.tag = t
		d.tagBits = 8
	}
	b := int(d.tag >> 7)
	d.tag <<= 1
	d.tagBits--
	return b, nil
}

// gamma reads an Elias-gamma-style code: pairs of (data bit, continue bit).
// The smallest encodable value is 2.
func (d *depacker) gamma() (int, error) {
	v := 1
	for {
		b, err := d.bit()
		if err != nil {
			return 0, err
		}
		v = (v << 1) + b
		more, err := d.bit()
		if err != nil {
			return 0, err
		}
		if more == 0 {
			return v, nil
		}
		if v >= 1<<24 {
			return 0, fmt.Errorf("%w: gamma code out of range", ErrCorruptData)
		}
	}
}

func (d *depacker) put(b byte) error {
	if len(d.dst) >= d.limit {
		return fmt.Errorf("%w: chunk exceeds %d decompressed bytes", ErrCorruptData, d.limit)
	}
	d.dst = append(d.dst, b)
	return nil
}

// copyMatch appends length bytes starting length+offs bytes back, one at a
// time so overlapping matches replicate correctly.
func (d *depacker) copyMatch(offs, length int) error {
	if offs <= 0 || offs > len(d.dst) {
		return fmt.Errorf("%w: match offset %d outside %d produced bytes", ErrCorruptData, offs, len(d.dst))
	}
	for ; length > 0; length-- {
		if err := d.put(d.dst[len(d.dst)-offs]); err != nil {
			return err
		}
	}
	return nil
}

func (d *depacker) run() error {
	// The first output byte is always stored raw.
	b, err := d.srcByte()
	if err != nil {
		return err
	}
	if err := d.put(b); err != nil {
		return err
	}

	// lwm tracks whether the previous code was a match, which changes how
	// gamma offsets are biased and whether a repeat-offset code is possible.
	lwm := 0
	for {
		b1, err := d.bit()
		if err != nil {
			return err
		}
		if b1 == 0 {
			// 0: literal byte
			lit, err := d.srcByte()
			if err != nil {
				return err
			}
			if err := d.put(lit); err != nil {
				return err
			}
			lwm = 0
			continue
		}

		b2, err := d.bit()
		if err != nil {
			return err
		}
		if b2 == 0 {
			// 10: gamma-coded offset and length
			offs, err := d.gamma()
			if err != nil {
				return err
			}
			if lwm == 0 && offs == 2 {
				// repeat last match offset
				length, err := d.gamma()
				if err != nil {
					return err
				}
				if err := d.copyMatch(d.lastOffs, length); err != nil {
					return err
				}
			} else {
				if lwm == 0 {
					offs -= 3
				} else {
					offs -= 2
				}
				low, err := d.srcByte()
				if err != nil {
					return err
				}
				offs = offs<<8 + int(low)
				length, err := d.gamma()
				if err != nil {
					return err
				}
				if offs >= 32000 {
					length++
				}
				if offs >= 1280 {
					length++
				}
				if offs < 128 {
					length += 2
				}
				if err := d.copyMatch(offs, length); err != nil {
					return err
				}
				d.lastOffs = offs
			}
			lwm = 1
			continue
		}

		b3, err := d.bit()
		if err != nil {
			return err
		}
		if b3 == 0 {
			// 110: short match, or the end marker when the offset is zero
			v, err := d.srcByte()
			if err != nil {
				return err
			}
			length := 2 + int(v&1)
			offs := int(v) >> 1
			if offs == 0 {
				return nil
			}
			if err := d.copyMatch(offs, length); err != nil {
				return err
			}
			d.lastOffs = offs
			lwm = 1
			continue
		}

		// 111: four-bit offset, single-byte copy or explicit zero
		offs := 0
		for i := 0; i < 4; i++ {
			bit, err := d.bit()
			if err != nil {
				return err
			}
			offs = offs<<1 + bit
		}
		if offs == 0 {
			if err := d.put(0x00); err != nil {
				return err
			}
		} else {
			if offs > len(d.dst) {
				return fmt.Errorf("%w: match offset %d outside %d produced bytes", ErrCorruptData, offs, len(d.dst))
			}
			if err := d.put(d.dst[len(d.dst)-offs]); err != nil {
				return err
			}
		}
		lwm = 0
	}
}
